package transport

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stratusadmin/notify/pkg/logger"
	"github.com/stratusadmin/notify/pkg/notification"
)

// State is the connection lifecycle state of a Client.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateBackoff    State = "backoff"
	StateFailed     State = "failed"
)

// TokenFunc supplies the bearer credential used to form the connection
// URI. It is consulted on every (re)connect attempt rather than captured
// once, so credential rotation is observed.
type TokenFunc func() string

// Listener receives transport events. A Client holds a single listener
// slot with replace semantics; the last registration wins. Listener
// methods are invoked sequentially from the client's internal goroutines
// and must not call Disconnect synchronously.
type Listener interface {
	// Notification is called for every inbound notification frame.
	Notification(n notification.Notification)

	// ConnectionStateChanged is called with true on every successful
	// connect and false on every close, including failed reconnect
	// attempts.
	ConnectionStateChanged(connected bool)
}

// Client maintains at most one live WebSocket connection to the
// notification push endpoint and recovers from unplanned disconnects
// with exponential backoff.
//
// Connection errors and malformed frames are never fatal: they are
// logged, and exhausting the reconnect budget is observable only through
// the listener seeing (and keeping) a false connection state. Only an
// explicit Connect call resumes from that point.
type Client struct {
	endpoint     string
	token        TokenFunc
	dialer       *websocket.Dialer
	backoff      BackoffStrategy
	maxAttempts  int
	pingInterval time.Duration
	log          *slog.Logger

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	listener  Listener
	attempts  int
	reconnect *time.Timer
	pingStop  chan struct{}
	gen       uint64

	// writeMu serializes writes; gorilla permits one concurrent writer.
	writeMu sync.Mutex

	// cbWG tracks in-flight listener callbacks so Disconnect can
	// guarantee none fire after it returns.
	cbWG sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBackoff replaces the reconnect delay strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithMaxAttempts sets the reconnect attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithPingInterval overrides the heartbeat interval. Intended for tests.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// NewClient creates a transport client for the given push endpoint
// ({ws|wss}://host/api/v1/ws/notifications). The client is idle until
// Connect is called.
func NewClient(endpoint string, token TokenFunc, opts ...Option) *Client {
	c := &Client{
		endpoint:     endpoint,
		token:        token,
		dialer:       websocket.DefaultDialer,
		backoff:      DefaultBackoffStrategy(),
		maxAttempts:  5,
		pingInterval: 30 * time.Second,
		log:          slog.Default(),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetListener registers the single event listener, replacing any
// previous registration. Calling it after Connect is legal and takes
// effect on the next event.
func (c *Client) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// Connect starts the connection lifecycle. It is idempotent while a
// connection attempt or live connection exists, and it resets the
// reconnect budget, so it also resumes a client that gave up after
// exhausting its attempts. Without a credential the call is a logged
// no-op; the caller retries once a credential exists.
func (c *Client) Connect() {
	c.mu.Lock()

	switch c.state {
	case StateConnecting, StateConnected:
		c.mu.Unlock()
		return
	case StateBackoff:
		// A reconnect is already scheduled; an explicit Connect only
		// refreshes the budget.
		c.attempts = 0
		c.mu.Unlock()
		return
	}

	if c.token() == "" {
		c.mu.Unlock()
		c.log.Warn("no auth token available for websocket connection")
		return
	}

	c.attempts = 0
	c.state = StateConnecting
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

// Disconnect terminates the live connection (if any) with a clean close,
// cancels any pending reconnect and heartbeat timers, and guarantees no
// further listener callbacks fire after it returns.
func (c *Client) Disconnect() {
	c.mu.Lock()

	c.gen++
	c.state = StateIdle
	c.attempts = 0

	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}

	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client disconnecting"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	// Flush in-flight callbacks so none observe the torn-down client.
	c.cbWG.Wait()
}

// IsConnected reports whether the underlying connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// dial performs one connection attempt for the given lifecycle
// generation. It runs on its own goroutine.
func (c *Client) dial(gen uint64) {
	tok := c.token()
	if tok == "" {
		c.log.Warn("no auth token available for websocket connection")
		c.mu.Lock()
		if c.gen == gen && c.state == StateConnecting {
			c.state = StateIdle
		}
		c.mu.Unlock()
		return
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		c.log.Error("invalid websocket endpoint", logger.Error(err))
		c.mu.Lock()
		if c.gen == gen && c.state == StateConnecting {
			c.state = StateIdle
		}
		c.mu.Unlock()
		return
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()

	conn, resp, err := c.dialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.log.Warn("websocket connection failed", logger.Error(err))
		c.notify(gen, false)
		c.scheduleReconnect(gen)
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		// Disconnect won the race; drop the late connection.
		c.mu.Unlock()
		_ = conn.Close()
		return
	}

	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	stop := make(chan struct{})
	c.pingStop = stop
	c.mu.Unlock()

	c.log.Info("websocket connected")

	go c.heartbeat(conn, stop)
	go c.readLoop(conn, gen)

	c.notify(gen, true)
}

// readLoop pumps inbound frames until the connection dies. Malformed
// and unknown frames are dropped with a warning.
func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, gen, err)
			return
		}

		var env notification.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Warn("failed to parse websocket message", logger.Error(err))
			continue
		}

		switch env.Type {
		case notification.KindNotification:
			if env.Data == nil {
				c.log.Warn("notification frame without payload")
				continue
			}
			c.deliver(gen, *env.Data)
		case notification.KindPong:
			// Server acknowledged our ping.
		default:
			c.log.Warn("unknown websocket frame", slog.String("kind", string(env.Type)))
		}
	}
}

// handleClose reacts to the read loop ending. A close belonging to a
// stale generation was initiated by Disconnect and triggers nothing.
func (c *Client) handleClose(conn *websocket.Conn, gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || c.conn != conn {
		c.mu.Unlock()
		return
	}

	c.log.Info("websocket disconnected", logger.Error(err))

	c.conn = nil
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	_ = conn.Close()

	c.notify(gen, false)
	c.scheduleReconnect(gen)
}

// scheduleReconnect arms a single reconnect timer, or gives up once the
// attempt budget is spent. Only an explicit Connect resumes from there.
func (c *Client) scheduleReconnect(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return
	}

	if c.attempts >= c.maxAttempts {
		c.state = StateFailed
		c.log.Warn("max websocket reconnection attempts reached")
		return
	}

	delay := c.backoff.NextInterval(c.attempts + 1)
	c.attempts++
	c.state = StateBackoff

	c.log.Info("scheduling websocket reconnection",
		logger.Attempt(c.attempts), logger.Delay(delay))

	c.reconnect = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.gen != gen || c.state != StateBackoff {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.reconnect = nil
		c.mu.Unlock()

		c.dial(gen)
	})
}

// heartbeat emits a liveness ping on a fixed interval while the
// connection is open. Stopped by closing stop on any disconnect path.
func (c *Client) heartbeat(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteJSON(notification.Envelope{Type: notification.KindPing})
			c.writeMu.Unlock()
			if err != nil {
				// The read loop notices the dead socket and drives
				// the reconnect; nothing to do here.
				c.log.Debug("websocket ping failed", logger.Error(err))
				return
			}
		}
	}
}

// deliver forwards a pushed notification to the listener, skipping
// listeners registered against a torn-down generation.
func (c *Client) deliver(gen uint64, n notification.Notification) {
	c.mu.Lock()
	if c.gen != gen || c.listener == nil {
		c.mu.Unlock()
		return
	}
	l := c.listener
	c.cbWG.Add(1)
	c.mu.Unlock()

	defer c.cbWG.Done()
	l.Notification(n)
}

// notify reports a connection state change to the listener under the
// same generation guard as deliver.
func (c *Client) notify(gen uint64, connected bool) {
	c.mu.Lock()
	if c.gen != gen || c.listener == nil {
		c.mu.Unlock()
		return
	}
	l := c.listener
	c.cbWG.Add(1)
	c.mu.Unlock()

	defer c.cbWG.Done()
	l.ConnectionStateChanged(connected)
}

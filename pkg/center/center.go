package center

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stratusadmin/notify/pkg/gateway"
	"github.com/stratusadmin/notify/pkg/logger"
	"github.com/stratusadmin/notify/pkg/notification"
	"github.com/stratusadmin/notify/pkg/store"
	"github.com/stratusadmin/notify/pkg/transport"
)

// Gateway is the REST collaborator the center depends on.
type Gateway interface {
	List(ctx context.Context, params gateway.ListParams) (gateway.ListResult, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Broadcast(ctx context.Context, req notification.BroadcastRequest) (int, error)
	Delete(ctx context.Context, id string) error
}

// Transport is the push collaborator the center owns the lifecycle of.
type Transport interface {
	Connect()
	Disconnect()
	SetListener(l transport.Listener)
	IsConnected() bool
}

// TransportFactory builds a fresh transport bound to the given
// credential source. The center constructs a new transport on every
// credential change because the connection URI binds the token at
// connect time.
type TransportFactory func(token transport.TokenFunc) Transport

// Center orchestrates the notification store, the REST gateway, and the
// push transport. It is the only writer of the store and the only
// component allowed to call both collaborators.
//
// Gateway failures follow a per-operation policy: most operations
// swallow the error (log it, raise a user-facing alert, leave the store
// untouched), while Broadcast returns it, since its caller must know the
// broadcast did not happen. The policy for each operation is stated on
// its method.
type Center struct {
	store        *store.Store
	gw           Gateway
	newTransport TransportFactory
	alerts       Alerter
	log          *slog.Logger
	pageSize     int

	mu    sync.Mutex
	token string
	tr    Transport
}

// Option configures a Center.
type Option func(*Center)

// WithAlerter sets the sink for user-facing alerts.
func WithAlerter(a Alerter) Option {
	return func(c *Center) {
		if a != nil {
			c.alerts = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Center) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPageSize overrides the list page size.
func WithPageSize(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a Center writing to the given store. The store is owned by
// the center for the lifetime of the session; other components read it
// through snapshots only.
func New(st *store.Store, gw Gateway, factory TransportFactory, opts ...Option) *Center {
	c := &Center{
		store:        st,
		gw:           gw,
		newTransport: factory,
		alerts:       NoopAlerter{},
		log:          slog.Default(),
		pageSize:     20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the session's notification state for readers.
func (c *Center) Store() *store.Store {
	return c.store
}

// FetchPage loads one page of notifications. Page 1 replaces the cached
// list; later pages append. The loading flag is held for the duration of
// the call on every exit path. Policy: swallow-on-error - a failure is
// logged and alerted, and the cached list stays untouched.
func (c *Center) FetchPage(ctx context.Context, page int, unreadOnly bool) {
	c.store.SetLoading(true)
	defer c.store.SetLoading(false)

	res, err := c.gw.List(ctx, gateway.ListParams{
		Page:       page,
		Limit:      c.pageSize,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		c.log.Error("failed to fetch notifications", logger.Page(page), logger.Error(err))
		c.alerts.Error("Failed to load notifications")
		return
	}

	if page <= 1 {
		c.store.ReplaceList(res.Items)
	} else {
		c.store.AppendPage(res.Items)
	}
	if res.Pagination != nil {
		c.store.SetPagination(res.Pagination.Page, res.Pagination.TotalPages)
	}
}

// FetchUnreadCount refreshes the unread counter from the server. Policy:
// swallow-on-error without an alert - a stale counter is preferable to a
// broken badge, so failures are only logged.
func (c *Center) FetchUnreadCount(ctx context.Context) {
	count, err := c.gw.UnreadCount(ctx)
	if err != nil {
		c.log.Error("failed to fetch unread count", logger.Error(err))
		return
	}
	c.store.SetUnreadCount(count)
}

// MarkAsRead marks one notification as read, server first. This is not
// an optimistic update: the local entry flips only after the gateway
// call succeeds, and the unread counter is decremented only when the
// entry actually transitioned, so repeated calls cannot drain the
// counter. Policy: swallow-on-error.
func (c *Center) MarkAsRead(ctx context.Context, id string) {
	if err := c.gw.MarkRead(ctx, id); err != nil {
		c.log.Error("failed to mark notification as read",
			logger.NotificationID(id), logger.Error(err))
		c.alerts.Error("Failed to mark notification as read")
		return
	}

	if c.store.MarkRead(id) {
		c.store.DecrementUnread()
	}
}

// MarkAllAsRead marks every notification as read, server first. On
// success all cached entries flip with a fresh read timestamp and the
// counter resets. Policy: swallow-on-error.
func (c *Center) MarkAllAsRead(ctx context.Context) {
	if err := c.gw.MarkAllRead(ctx); err != nil {
		c.log.Error("failed to mark all notifications as read", logger.Error(err))
		c.alerts.Error("Failed to mark notifications as read")
		return
	}

	c.store.MarkAllRead()
	c.alerts.Success("All notifications marked as read")
}

// Broadcast creates notifications for many recipients and returns the
// number of recipients notified. Policy: rethrow-on-error - the caller
// is typically a form submit handler that must keep its own error state,
// so the failure is returned in addition to being alerted.
func (c *Center) Broadcast(ctx context.Context, req notification.BroadcastRequest) (int, error) {
	count, err := c.gw.Broadcast(ctx, req)
	if err != nil {
		c.log.Error("failed to broadcast notification", logger.Error(err))
		c.alerts.Error("Failed to send notification")
		return 0, err
	}

	c.alerts.Success(fmt.Sprintf("Notification sent to %d user(s)", count))
	return count, nil
}

// Remove deletes one notification, server first. On success the entry
// leaves the cached list and, if it was unread, the counter drops by
// one. Policy: swallow-on-error.
func (c *Center) Remove(ctx context.Context, id string) {
	if err := c.gw.Delete(ctx, id); err != nil {
		c.log.Error("failed to delete notification",
			logger.NotificationID(id), logger.Error(err))
		c.alerts.Error("Failed to delete notification")
		return
	}

	c.store.Remove(id)
}

// LoadMore fetches the next page of notifications. It is a guarded
// no-op while a fetch is in flight or when no pages remain.
func (c *Center) LoadMore(ctx context.Context) {
	if !c.store.HasMore() || c.store.IsLoading() {
		return
	}
	c.FetchPage(ctx, c.store.CurrentPage()+1, false)
}

// SetToken reacts to a change of the session credential. Any existing
// transport is torn down; with a non-empty credential a fresh transport
// is built, wired to the store, and connected, and the unread counter is
// refreshed. An empty credential means logged out. A credential change
// while connected forces a full disconnect/connect cycle rather than an
// in-place swap, since the transport binds its URI at connect time.
func (c *Center) SetToken(ctx context.Context, token string) {
	c.mu.Lock()
	if token == c.token && c.tr != nil {
		c.mu.Unlock()
		return
	}

	if c.tr != nil {
		tr := c.tr
		c.tr = nil
		c.mu.Unlock()
		tr.Disconnect()
		c.store.SetConnected(false)
		c.mu.Lock()
	}

	c.token = token
	if token == "" {
		c.mu.Unlock()
		return
	}

	tr := c.newTransport(c.currentToken)
	c.tr = tr
	c.mu.Unlock()

	tr.SetListener(c)
	tr.Connect()

	c.FetchUnreadCount(ctx)
}

// Close tears down the transport and forgets the credential. The store
// keeps its last state; the session is simply over.
func (c *Center) Close() {
	c.SetToken(context.Background(), "")
}

// currentToken supplies the live credential to the transport so that
// every reconnect attempt observes rotation.
func (c *Center) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Notification implements transport.Listener: a pushed notification is
// prepended to the store and surfaced as a user-facing alert.
func (c *Center) Notification(n notification.Notification) {
	c.store.PrependPushed(n)
	c.alerts.Notification(n.Title, n.Message)
}

// ConnectionStateChanged implements transport.Listener by mirroring the
// connection state into the store.
func (c *Center) ConnectionStateChanged(connected bool) {
	c.store.SetConnected(connected)
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stratusadmin/notify/pkg/logger"
	"github.com/stratusadmin/notify/pkg/notification"
)

const basePath = "/superadmin/notifications"

// TokenFunc supplies the bearer credential attached to every request.
type TokenFunc func() string

// Pagination is the cursor metadata returned by the list endpoint.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListParams filters and paginates the list endpoint.
type ListParams struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

// ListResult is a page of notifications plus the cursor, when the
// server returned one.
type ListResult struct {
	Items      []notification.Notification
	Pagination *Pagination
}

// envelope is the common response shape of the notification endpoints.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

// Client is the stateless REST gateway for the notification collection.
// The HTTP client is reused across requests for connection pooling.
type Client struct {
	baseURL string
	token   TokenFunc
	client  *http.Client
	log     *slog.Logger
}

// Option configures a gateway Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for custom
// transports or testing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a gateway client for the API at baseURL
// (e.g. https://host/api/v1). Timeouts balance responsiveness with
// allowing slow endpoints.
func NewClient(baseURL string, token TokenFunc, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns one page of the caller's notifications, newest first.
func (c *Client) List(ctx context.Context, params ListParams) (ListResult, error) {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.UnreadOnly {
		q.Set("unreadOnly", "true")
	}

	env, err := c.do(ctx, http.MethodGet, basePath+"?"+q.Encode(), nil)
	if err != nil {
		return ListResult{}, err
	}

	var items []notification.Notification
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return ListResult{}, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
		}
	}

	return ListResult{Items: items, Pagination: env.Pagination}, nil
}

// UnreadCount returns the server-side count of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	env, err := c.do(ctx, http.MethodGet, basePath+"/unread-count", nil)
	if err != nil {
		return 0, err
	}

	var data struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return data.Count, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPut, basePath+"/"+url.PathEscape(id)+"/read", nil)
	return err
}

// MarkAllRead marks all of the caller's notifications as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPut, basePath+"/read-all", nil)
	return err
}

// Broadcast creates notifications for many recipients at once and
// returns the number of recipients notified. Authorization is enforced
// server-side.
func (c *Client) Broadcast(ctx context.Context, req notification.BroadcastRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	env, err := c.do(ctx, http.MethodPost, basePath+"/broadcast", req)
	if err != nil {
		return 0, err
	}

	var data struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return data.Count, nil
}

// Delete removes one notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil)
	return err
}

// do executes one request against the API and decodes the common
// response envelope. Every request carries a fresh correlation ID so
// failures can be matched to server logs.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 64KB limit prevents memory exhaustion on broken responses.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if err := statusError(resp.StatusCode); err != nil {
		c.log.Debug("notification request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			logger.RequestID(requestID),
		)
		return nil, err
	}

	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
		}
		if !env.Success {
			if env.Message != "" {
				return nil, fmt.Errorf("%w: %s", ErrRequestFailed, env.Message)
			}
			return nil, ErrRequestFailed
		}
	}

	return env, nil
}

// statusError maps a non-2xx status to a stable error identity.
func statusError(status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, status)
	}
}

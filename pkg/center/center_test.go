package center

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stratusadmin/notify/pkg/gateway"
	"github.com/stratusadmin/notify/pkg/notification"
	"github.com/stratusadmin/notify/pkg/store"
	"github.com/stratusadmin/notify/pkg/transport"
)

// MockGateway for testing Center
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) List(ctx context.Context, params gateway.ListParams) (gateway.ListResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(gateway.ListResult), args.Error(1)
}

func (m *MockGateway) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) Broadcast(ctx context.Context, req notification.BroadcastRequest) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeTransport records lifecycle calls.
type fakeTransport struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	listener    transport.Listener
	token       transport.TokenFunc
}

func (f *fakeTransport) Connect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeTransport) SetListener(l transport.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects > f.disconnects
}

// recordingAlerter captures user-facing alerts.
type recordingAlerter struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	pushed    []string
}

func (a *recordingAlerter) Success(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successes = append(a.successes, msg)
}

func (a *recordingAlerter) Error(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors = append(a.errors, msg)
}

func (a *recordingAlerter) Notification(title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushed = append(a.pushed, title)
}

func newFixture(t *testing.T, opts ...Option) (*Center, *store.Store, *MockGateway, *recordingAlerter) {
	t.Helper()
	gw := &MockGateway{}
	st := store.New()
	alerts := &recordingAlerter{}

	var transports []*fakeTransport
	factory := func(token transport.TokenFunc) Transport {
		tr := &fakeTransport{token: token}
		transports = append(transports, tr)
		return tr
	}

	opts = append([]Option{WithAlerter(alerts)}, opts...)
	c := New(st, gw, factory, opts...)
	return c, st, gw, alerts
}

func notif(id string, read bool) notification.Notification {
	return notification.Notification{
		ID:        id,
		Title:     "title " + id,
		Message:   "message " + id,
		Type:      notification.TypeInfo,
		IsRead:    read,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCenter_FetchPage_FirstPageReplaces(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("old", false)})

	gw.On("List", ctx, gateway.ListParams{Page: 1, Limit: 20}).
		Return(gateway.ListResult{
			Items:      []notification.Notification{notif("a", false)},
			Pagination: &gateway.Pagination{Page: 1, Limit: 20, Total: 21, TotalPages: 2},
		}, nil)

	c.FetchPage(ctx, 1, false)

	items := st.Notifications()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 1, st.CurrentPage())
	assert.Equal(t, 2, st.TotalPages())
	assert.True(t, st.HasMore())
	assert.False(t, st.IsLoading())
	assert.Empty(t, alerts.errors)
	gw.AssertExpectations(t)
}

func TestCenter_FetchPage_LaterPageAppends(t *testing.T) {
	c, st, gw, _ := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetPagination(1, 2)

	gw.On("List", ctx, gateway.ListParams{Page: 2, Limit: 20}).
		Return(gateway.ListResult{
			Items:      []notification.Notification{notif("b", false)},
			Pagination: &gateway.Pagination{Page: 2, Limit: 20, Total: 2, TotalPages: 2},
		}, nil)

	c.FetchPage(ctx, 2, false)

	items := st.Notifications()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, 2, st.CurrentPage())
	assert.False(t, st.HasMore())
}

func TestCenter_FetchPage_HoldsLoadingFlagDuringCall(t *testing.T) {
	c, st, gw, _ := newFixture(t)
	ctx := context.Background()

	gw.On("List", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			assert.True(t, st.IsLoading(), "loading flag must be set while the fetch is in flight")
		}).
		Return(gateway.ListResult{}, nil)

	c.FetchPage(ctx, 1, false)
	assert.False(t, st.IsLoading())
}

func TestCenter_FetchPage_FailureLeavesStoreUntouched(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("keep", false)})
	st.SetPagination(1, 1)

	gw.On("List", ctx, mock.Anything).
		Return(gateway.ListResult{}, gateway.ErrRequestFailed)

	c.FetchPage(ctx, 1, false)

	assert.Equal(t, "keep", st.Notifications()[0].ID)
	assert.False(t, st.IsLoading(), "loading flag clears on the failure path too")
	assert.Equal(t, []string{"Failed to load notifications"}, alerts.errors)
}

func TestCenter_FetchUnreadCount(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	gw.On("UnreadCount", ctx).Return(9, nil).Once()
	c.FetchUnreadCount(ctx)
	assert.Equal(t, 9, st.UnreadCount())

	// A failure is swallowed without an alert; the stale count stays.
	gw.On("UnreadCount", ctx).Return(0, gateway.ErrRequestFailed).Once()
	c.FetchUnreadCount(ctx)
	assert.Equal(t, 9, st.UnreadCount())
	assert.Empty(t, alerts.errors)
}

func TestCenter_MarkAsRead(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetUnreadCount(2)

	gw.On("MarkRead", ctx, "a").Return(nil)

	c.MarkAsRead(ctx, "a")

	items := st.Notifications()
	assert.True(t, items[0].IsRead)
	assert.NotNil(t, items[0].ReadAt)
	assert.Equal(t, 1, st.UnreadCount())
	assert.Empty(t, alerts.errors)
}

func TestCenter_MarkAsRead_Idempotent(t *testing.T) {
	c, st, gw, _ := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetUnreadCount(2)

	gw.On("MarkRead", ctx, "a").Return(nil).Twice()

	c.MarkAsRead(ctx, "a")
	firstReadAt := st.Notifications()[0].ReadAt

	c.MarkAsRead(ctx, "a")

	assert.Equal(t, 1, st.UnreadCount(), "second call must not decrement again")
	assert.Equal(t, firstReadAt, st.Notifications()[0].ReadAt)
}

func TestCenter_MarkAsRead_FailureIsNotOptimistic(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetUnreadCount(1)

	gw.On("MarkRead", ctx, "a").Return(gateway.ErrRequestFailed)

	c.MarkAsRead(ctx, "a")

	assert.False(t, st.Notifications()[0].IsRead)
	assert.Equal(t, 1, st.UnreadCount())
	assert.Equal(t, []string{"Failed to mark notification as read"}, alerts.errors)
}

func TestCenter_MarkAllAsRead(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("b", false), notif("a", false)})
	st.SetUnreadCount(2)

	gw.On("MarkAllRead", ctx).Return(nil)

	c.MarkAllAsRead(ctx)

	for _, n := range st.Notifications() {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}
	assert.Equal(t, 0, st.UnreadCount())
	assert.Equal(t, []string{"All notifications marked as read"}, alerts.successes)
}

func TestCenter_MarkAllAsRead_Failure(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetUnreadCount(1)

	gw.On("MarkAllRead", ctx).Return(gateway.ErrRequestFailed)

	c.MarkAllAsRead(ctx)

	assert.False(t, st.Notifications()[0].IsRead)
	assert.Equal(t, 1, st.UnreadCount())
	assert.Equal(t, []string{"Failed to mark notifications as read"}, alerts.errors)
}

func TestCenter_Broadcast(t *testing.T) {
	c, _, gw, alerts := newFixture(t)
	ctx := context.Background()

	req := notification.BroadcastRequest{
		Type:    notification.TypeSystem,
		Title:   "Maintenance",
		Message: "Saturday",
		Target:  notification.TargetAll,
	}
	gw.On("Broadcast", ctx, req).Return(31, nil)

	count, err := c.Broadcast(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 31, count)
	assert.Equal(t, []string{"Notification sent to 31 user(s)"}, alerts.successes)
}

func TestCenter_Broadcast_RethrowsFailure(t *testing.T) {
	c, _, gw, alerts := newFixture(t)
	ctx := context.Background()

	req := notification.BroadcastRequest{
		Type:    notification.TypeInfo,
		Title:   "t",
		Message: "m",
		Target:  notification.TargetAll,
	}
	gw.On("Broadcast", ctx, req).Return(0, gateway.ErrForbidden)

	_, err := c.Broadcast(ctx, req)
	assert.ErrorIs(t, err, gateway.ErrForbidden)
	assert.Equal(t, []string{"Failed to send notification"}, alerts.errors)
}

func TestCenter_Remove(t *testing.T) {
	c, st, gw, _ := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})
	st.SetUnreadCount(1)

	gw.On("Delete", ctx, "a").Return(nil)

	c.Remove(ctx, "a")

	assert.Empty(t, st.Notifications())
	assert.Equal(t, 0, st.UnreadCount())
}

func TestCenter_Remove_Failure(t *testing.T) {
	c, st, gw, alerts := newFixture(t)
	ctx := context.Background()

	st.ReplaceList([]notification.Notification{notif("a", false)})

	gw.On("Delete", ctx, "a").Return(gateway.ErrNotFound)

	c.Remove(ctx, "a")

	assert.Len(t, st.Notifications(), 1)
	assert.Equal(t, []string{"Failed to delete notification"}, alerts.errors)
}

func TestCenter_LoadMore(t *testing.T) {
	c, st, gw, _ := newFixture(t)
	ctx := context.Background()

	// Nothing beyond the fetched prefix: no gateway call at all.
	st.SetPagination(1, 1)
	c.LoadMore(ctx)
	gw.AssertNotCalled(t, "List")

	// More pages available: the next page is requested.
	st.SetPagination(1, 2)
	gw.On("List", ctx, gateway.ListParams{Page: 2, Limit: 20}).
		Return(gateway.ListResult{
			Items:      []notification.Notification{notif("b", false)},
			Pagination: &gateway.Pagination{Page: 2, TotalPages: 2},
		}, nil).Once()

	c.LoadMore(ctx)
	assert.Equal(t, 2, st.CurrentPage())

	// In-flight fetch: guarded no-op.
	st.SetPagination(2, 3)
	st.SetLoading(true)
	c.LoadMore(ctx)
	gw.AssertExpectations(t)
}

func TestCenter_SetToken_Lifecycle(t *testing.T) {
	gw := &MockGateway{}
	st := store.New()
	alerts := &recordingAlerter{}

	var transports []*fakeTransport
	factory := func(token transport.TokenFunc) Transport {
		tr := &fakeTransport{token: token}
		transports = append(transports, tr)
		return tr
	}
	c := New(st, gw, factory, WithAlerter(alerts))
	ctx := context.Background()

	gw.On("UnreadCount", ctx).Return(3, nil)

	c.SetToken(ctx, "token-1")

	require.Len(t, transports, 1)
	first := transports[0]
	assert.Equal(t, 1, first.connects)
	assert.NotNil(t, first.listener)
	assert.Equal(t, "token-1", first.token())
	assert.Equal(t, 3, st.UnreadCount(), "session start refreshes the unread count")

	// Same credential again: nothing happens.
	c.SetToken(ctx, "token-1")
	require.Len(t, transports, 1)
	assert.Equal(t, 1, first.connects)

	// Rotation tears the old transport down and builds a fresh one
	// rather than swapping the credential in place.
	c.SetToken(ctx, "token-2")
	require.Len(t, transports, 2)
	assert.Equal(t, 1, first.disconnects)
	assert.Equal(t, 1, transports[1].connects)
	assert.Equal(t, "token-2", transports[1].token())

	// Logout: transport released, connection state mirrored false.
	st.SetConnected(true)
	c.SetToken(ctx, "")
	assert.Equal(t, 1, transports[1].disconnects)
	assert.False(t, st.IsConnected())

	// Close after logout is a no-op.
	c.Close()
	require.Len(t, transports, 2)
}

func TestCenter_ListenerWiring(t *testing.T) {
	gw := &MockGateway{}
	st := store.New()
	alerts := &recordingAlerter{}

	var tr *fakeTransport
	factory := func(token transport.TokenFunc) Transport {
		tr = &fakeTransport{token: token}
		return tr
	}
	c := New(st, gw, factory, WithAlerter(alerts))
	ctx := context.Background()

	gw.On("UnreadCount", ctx).Return(0, nil)
	c.SetToken(ctx, "tok")
	require.NotNil(t, tr.listener)

	// A pushed notification lands at the head of the store and raises
	// a user-facing alert.
	tr.listener.Notification(notif("pushed", false))
	items := st.Notifications()
	require.Len(t, items, 1)
	assert.Equal(t, "pushed", items[0].ID)
	assert.Equal(t, 1, st.UnreadCount())
	assert.Equal(t, []string{"title pushed"}, alerts.pushed)

	// Connection state is mirrored into the store.
	tr.listener.ConnectionStateChanged(true)
	assert.True(t, st.IsConnected())
	tr.listener.ConnectionStateChanged(false)
	assert.False(t, st.IsConnected())
}

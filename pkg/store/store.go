package store

import (
	"sync"
	"time"

	"github.com/stratusadmin/notify/pkg/notification"
)

// Store is the authoritative in-process cache of the authenticated
// user's notification state. It holds a bounded prefix of the server-side
// history (newest first, unique by ID), the server-maintained unread
// counter, and the pagination cursor for the fetched prefix.
//
// Mutations go through the named operations only; by convention a single
// owner (the center) writes while any number of readers take snapshots.
// The mutex makes the operations safe regardless, since transport events
// arrive on their own goroutine.
type Store struct {
	mu sync.RWMutex

	notifications []notification.Notification
	unreadCount   int
	currentPage   int
	totalPages    int
	hasMore       bool
	isLoading     bool
	isConnected   bool

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ReadAt stamps.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store with zero defaults.
func New(opts ...Option) *Store {
	s := &Store{
		notifications: []notification.Notification{},
		currentPage:   1,
		totalPages:    1,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceList replaces the visible list wholesale after a page-1 fetch.
// hasMore is derived from the result being non-empty; SetPagination
// refines it once the pagination metadata is applied.
func (s *Store) ReplaceList(items []notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append([]notification.Notification(nil), items...)
	s.hasMore = len(items) > 0
}

// AppendPage concatenates a page N>1 result to the existing list.
// The REST contract guarantees disjoint pages, so no deduplication
// happens here.
func (s *Store) AppendPage(items []notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, items...)
	s.hasMore = len(s.notifications) > 0
}

// PrependPushed inserts a transport-delivered notification at the head
// and increments the unread counter by one. The transport is trusted to
// deliver items at or after the most recent fetch, which is what keeps
// the newest-first ordering intact. A push whose ID is already present
// is dropped without touching the counter, so redelivery cannot
// duplicate entries or inflate the unread count.
func (s *Store) PrependPushed(item notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == item.ID {
			return
		}
	}

	s.notifications = append([]notification.Notification{item}, s.notifications...)
	s.unreadCount++
}

// MarkRead flips the entry with the given ID to read, stamping ReadAt
// exactly once. It deliberately does not touch the unread counter; the
// caller pairs it with DecrementUnread so the two concerns stay
// independently testable. Returns false when the ID is not in the
// fetched prefix or the entry was already read.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if s.notifications[i].IsRead {
				return false
			}
			s.notifications[i].MarkRead(s.now())
			return true
		}
	}
	return false
}

// MarkAllRead flips every entry to read with a fresh ReadAt stamp and
// resets the unread counter to zero.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	for i := range s.notifications {
		s.notifications[i].MarkRead(at)
	}
	s.unreadCount = 0
}

// Remove deletes the entry with the given ID from the fetched prefix.
// If the entry existed and was unread, the unread counter is decremented.
// Returns whether an entry was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].IsRead && s.unreadCount > 0 {
				s.unreadCount--
			}
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// SetUnreadCount overwrites the unread counter after an explicit count
// fetch. Negative values clamp to zero.
func (s *Store) SetUnreadCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	s.unreadCount = n
}

// DecrementUnread decreases the unread counter by one, clamping at zero.
func (s *Store) DecrementUnread() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unreadCount > 0 {
		s.unreadCount--
	}
}

// ResetUnread sets the unread counter to zero.
func (s *Store) ResetUnread() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unreadCount = 0
}

// SetPagination records the cursor for the fetched prefix and refines
// hasMore to whether pages remain beyond the current one.
func (s *Store) SetPagination(page, totalPages int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentPage = page
	s.totalPages = totalPages
	s.hasMore = page < totalPages
}

// SetLoading records whether a list fetch is in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isLoading = loading
}

// SetConnected mirrors the last known transport connection state.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isConnected = connected
}

// Notifications returns a copy of the cached list, newest first.
func (s *Store) Notifications() []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]notification.Notification(nil), s.notifications...)
}

// UnreadCount returns the current unread counter.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.unreadCount
}

// CurrentPage returns the 1-based page of the fetched prefix.
func (s *Store) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.currentPage
}

// TotalPages returns the last known total page count.
func (s *Store) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalPages
}

// HasMore reports whether pages remain beyond the fetched prefix.
func (s *Store) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasMore
}

// IsLoading reports whether a list fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isLoading
}

// IsConnected reports the last known transport connection state.
func (s *Store) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isConnected
}

// Package center orchestrates the notification session: it is the only
// component that talks to both the REST gateway and the push transport,
// the only writer of the store, and the owner of the transport lifecycle
// relative to the auth credential.
//
// Gateway failures never escape as panics or stray errors. Each
// operation carries one of two explicit policies:
//
//   - swallow-on-error: the failure is logged, a user-facing alert is
//     raised, and the store is left untouched (FetchPage, MarkAsRead,
//     MarkAllAsRead, Remove; FetchUnreadCount swallows without alerting).
//   - rethrow-on-error: the failure is returned to the caller in
//     addition to the alert (Broadcast only).
//
// A page-1 fetch racing a concurrent push resolves last-write-wins: if
// the push lands first, ReplaceList overwrites it. This matches the
// behavior the product shipped with and is deliberate; see DESIGN.md.
package center

// Package store holds the process-wide cache of the authenticated user's
// notifications: a newest-first prefix of the server-side history, the
// unread counter, and the pagination cursor.
//
// The unread counter is maintained independently of the cached list. The
// list is a bounded prefix, so the counter cannot be recomputed locally;
// it is nudged by discrete events (+1 on push, -1 on mark-read, reset on
// mark-all-read) and replaced wholesale by an explicit count fetch. The
// counter never goes negative.
//
// Ordering relies on the transport delivering items at or after the most
// recent fetch. An out-of-order push is prepended as given rather than
// sorted into position; see the package tests for the documented cases.
package store

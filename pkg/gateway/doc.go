// Package gateway wraps the superadmin notification REST endpoints in a
// stateless request/response client: list, unread count, mark-read,
// mark-all-read, broadcast, and delete.
//
// The server contract is fixed: every response carries the common
// {success, message, data, pagination} envelope, and non-2xx statuses
// map to the sentinel errors in errors.go for classification with
// errors.Is. The bearer credential is supplied by a TokenFunc on every
// request so rotation is picked up without rebuilding the client.
package gateway

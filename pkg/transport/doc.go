// Package transport maintains the persistent WebSocket connection used
// for server-push delivery of notifications.
//
// A Client owns at most one live connection. Inbound frames carry a kind
// tag; only notification frames reach the registered Listener, pong
// frames acknowledge the client's 30-second heartbeat, and anything else
// is dropped with a warning. Unplanned closes trigger reconnection with
// exponential backoff (1s doubling to a 30s cap) for a bounded number of
// attempts; exhausting the budget parks the client in StateFailed until
// an explicit Connect.
//
// Nothing in this package surfaces errors to its owner: connection and
// frame failures are recovered or logged, and giving up is observable
// only through the listener's connection state staying false.
package transport

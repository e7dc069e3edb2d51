// Package notification defines the domain types shared by the REST gateway
// and the WebSocket transport: the notification entity, broadcast requests,
// and the push-frame envelope.
//
// The JSON tags on these types are a wire contract; both delivery paths
// serialize the same field names, and identity is carried by the opaque ID
// so that a notification fetched over REST and one pushed over the socket
// can be reconciled.
package notification

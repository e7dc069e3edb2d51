package notification

// MessageKind tags a WebSocket frame.
type MessageKind string

const (
	// KindNotification carries a pushed notification in Data.
	KindNotification MessageKind = "notification"
	// KindPing is the client-initiated liveness check.
	KindPing MessageKind = "ping"
	// KindPong acknowledges a ping; it carries no payload.
	KindPong MessageKind = "pong"
)

// Envelope is the WebSocket frame shape in both directions.
// Data is present only for KindNotification frames.
type Envelope struct {
	Type MessageKind   `json:"type"`
	Data *Notification `json:"data,omitempty"`
}

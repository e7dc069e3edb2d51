package center

// Alerter receives the user-facing side effects of center operations:
// transient success and failure notices plus the arrival of pushed
// notifications. The UI typically renders these as toasts.
type Alerter interface {
	Success(msg string)
	Error(msg string)
	Notification(title, message string)
}

// NoopAlerter discards all alerts. It is the default when no Alerter is
// configured, so headless use of the center needs no wiring.
type NoopAlerter struct{}

func (NoopAlerter) Success(msg string) {}

func (NoopAlerter) Error(msg string) {}

func (NoopAlerter) Notification(title, message string) {}

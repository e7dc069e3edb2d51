package notification

// BroadcastTarget selects the audience of a broadcast.
type BroadcastTarget string

const (
	// TargetAll delivers to every user of the platform.
	TargetAll BroadcastTarget = "all"
	// TargetRole delivers to all users holding the role named by TargetValue.
	TargetRole BroadcastTarget = "role"
	// TargetCompany delivers to all users of the company named by TargetValue.
	TargetCompany BroadcastTarget = "company"
)

// BroadcastRequest creates notifications for many recipients at once.
// Authorization is enforced server-side; the core does not gate it.
type BroadcastRequest struct {
	Type        Type            `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Target      BroadcastTarget `json:"target"`
	TargetValue string          `json:"targetValue,omitempty"`
}

// Validate checks the request shape before it is sent to the gateway.
func (r BroadcastRequest) Validate() error {
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if r.Title == "" || r.Message == "" {
		return ErrEmptyContent
	}
	switch r.Target {
	case TargetAll:
	case TargetRole, TargetCompany:
		if r.TargetValue == "" {
			return ErrMissingTargetValue
		}
	default:
		return ErrInvalidTarget
	}
	return nil
}

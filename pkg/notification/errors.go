package notification

import "errors"

// Validation errors for broadcast requests. Stable identities for
// errors.Is checks at the caller.
var (
	ErrInvalidType        = errors.New("invalid notification type")
	ErrInvalidTarget      = errors.New("invalid broadcast target")
	ErrMissingTargetValue = errors.New("broadcast target requires a target value")
	ErrEmptyContent       = errors.New("notification title and message are required")
)

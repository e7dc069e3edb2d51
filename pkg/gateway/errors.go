package gateway

import "errors"

// Domain errors for gateway operations, designed for error wrapping and
// classification with errors.Is at the caller.
var (
	ErrRequestFailed  = errors.New("notification request failed")
	ErrUnauthorized   = errors.New("notification request unauthorized")
	ErrForbidden      = errors.New("notification request forbidden")
	ErrNotFound       = errors.New("notification not found")
	ErrDecodeResponse = errors.New("failed to decode notification response")
)

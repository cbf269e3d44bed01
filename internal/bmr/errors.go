package bmr

import "errors"

// Sentinel failures every Client implementation must surface. The auth
// message matches the controller's fixed login rejection; callers match
// with errors.Is rather than comparing the string.
var (
	ErrTimeout        = errors.New("timed out while communicating with the controller")
	ErrAuthFailed     = errors.New("authentication failed, check username/password")
	ErrUnknownCircuit = errors.New("unknown circuit")
)

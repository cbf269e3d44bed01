package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"bmrbridge/internal/bmr"
)

// clockSkewWindow is the window around local midnight in which auth
// failures are treated as transient. The controller's login handshake is
// date-dependent, so a clock desync near midnight produces spurious
// rejections.
const clockSkewWindow = 15 * time.Minute

// NotReadyError marks a transient failure; the caller retries with backoff.
type NotReadyError struct {
	Err error
}

func (e *NotReadyError) Error() string { return fmt.Sprintf("controller not ready: %v", e.Err) }
func (e *NotReadyError) Unwrap() error { return e.Err }

// AuthError marks a credential failure requiring user action.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("controller authentication failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// SetupError marks a non-retryable failure; the bridge fails to start.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("controller setup failed: %v", e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// Classify maps a device-client failure to the setup-lifecycle error
// taxonomy. Auth failures within the midnight clock-skew window are
// downgraded to not-ready and silently retried.
func Classify(err error, now time.Time) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, bmr.ErrAuthFailed) {
		if nearMidnight(now) {
			return &NotReadyError{Err: err}
		}
		return &AuthError{Err: err}
	}

	if isTimeout(err) {
		return &NotReadyError{Err: err}
	}

	return &SetupError{Err: err}
}

// nearMidnight reports whether now is within clockSkewWindow of local
// midnight, i.e. the window [now-15m, now+15m] spans a date boundary.
func nearMidnight(now time.Time) bool {
	before := now.Add(-clockSkewWindow)
	after := now.Add(clockSkewWindow)
	return before.Day() != now.Day() || after.Day() != now.Day()
}

func isTimeout(err error) bool {
	if errors.Is(err, bmr.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bmrbridge/internal/bmr"
)

func TestClassify_AuthNearMidnight(t *testing.T) {
	authErr := fmt.Errorf("login: %w", bmr.ErrAuthFailed)

	tests := []struct {
		name     string
		now      time.Time
		wantType string
	}{
		{"just before midnight", time.Date(2026, 3, 1, 23, 52, 0, 0, time.Local), "not_ready"},
		{"just after midnight", time.Date(2026, 3, 2, 0, 10, 0, 0, time.Local), "not_ready"},
		{"midday", time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local), "auth"},
		{"outside the window", time.Date(2026, 3, 1, 23, 40, 0, 0, time.Local), "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(authErr, tt.now)

			var notReady *NotReadyError
			var auth *AuthError
			switch tt.wantType {
			case "not_ready":
				if !errors.As(got, &notReady) {
					t.Fatalf("expected NotReadyError, got %T: %v", got, got)
				}
			case "auth":
				if !errors.As(got, &auth) {
					t.Fatalf("expected AuthError, got %T: %v", got, got)
				}
			}
			if !errors.Is(got, bmr.ErrAuthFailed) {
				t.Fatalf("classified error must wrap the original")
			}
		})
	}
}

func TestClassify_Timeouts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	for _, err := range []error{
		bmr.ErrTimeout,
		context.DeadlineExceeded,
		fmt.Errorf("get circuit: %w", bmr.ErrTimeout),
	} {
		var notReady *NotReadyError
		if got := Classify(err, now); !errors.As(got, &notReady) {
			t.Fatalf("Classify(%v) = %T, want NotReadyError", err, got)
		}
	}
}

func TestClassify_OtherErrorsAreSetup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	var setup *SetupError
	got := Classify(errors.New("malformed response"), now)
	if !errors.As(got, &setup) {
		t.Fatalf("expected SetupError, got %T: %v", got, got)
	}
}

func TestClassify_NilIsNil(t *testing.T) {
	if got := Classify(nil, time.Now()); got != nil {
		t.Fatalf("Classify(nil) = %v", got)
	}
}

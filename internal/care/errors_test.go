package care

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", &NotFoundError{Entity: "alert", ID: "a1"}, ErrNotFound},
		{"conflict", &ConflictError{Entity: "assignment", Detail: "duplicate"}, ErrConflict},
		{"transition", &TransitionError{AlertID: "a1", From: "RESOLVED", To: "ACKNOWLEDGED"}, ErrInvalidTransition},
		{"validation", &ValidationError{Field: "priority", Reason: "unknown"}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}

			// wrapping preserves the chain
			wrapped := fmt.Errorf("store: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("wrapped errors.Is = false")
			}

			// no cross-matching between kinds
			for _, other := range []error{ErrNotFound, ErrConflict, ErrInvalidTransition, ErrValidation} {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("%v matches unrelated sentinel %v", tt.err, other)
				}
			}
		})
	}
}

func TestErrorMessagesCarryDetail(t *testing.T) {
	t.Parallel()

	e := &TransitionError{AlertID: "a1", From: "RESOLVED", To: "ACKNOWLEDGED"}
	msg := e.Error()
	for _, want := range []string{"a1", "RESOLVED", "ACKNOWLEDGED"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestClampPaging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		page, pageSize int
		wantPage       int
		wantSize       int
	}{
		{"valid passes through", 2, 50, 2, 50},
		{"zero page", 0, 20, 1, 20},
		{"negative page", -3, 20, 1, 20},
		{"zero size", 1, 0, 1, DefaultPageSize},
		{"negative size", 1, -1, 1, DefaultPageSize},
		{"oversized", 1, 500, 1, MaxPageSize},
		{"at max", 1, MaxPageSize, 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotPage, gotSize := ClampPaging(tt.page, tt.pageSize)
			if gotPage != tt.wantPage || gotSize != tt.wantSize {
				t.Errorf("ClampPaging(%d, %d) = (%d, %d), want (%d, %d)",
					tt.page, tt.pageSize, gotPage, gotSize, tt.wantPage, tt.wantSize)
			}
		})
	}
}

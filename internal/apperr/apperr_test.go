package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := Wrap(KindRateLimited, "oracle.moderate", "scoring service is rate limited", errors.New("http 429"))

	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"direct", base, KindRateLimited},
		{"wrapped with fmt", fmt.Errorf("moderate: %w", base), KindRateLimited},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
		{"forbidden", Forbidden("rewards.claim", "user is flagged"), KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(KindServiceError, "op", "msg", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := Wrap(KindServiceError, "oracle.call", "scoring service unavailable", errors.New("dial tcp 10.0.0.1: refused"))
	if got := Message(err); got != "scoring service unavailable" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("raw")); got != "internal error" {
		t.Errorf("Message() for unclassified = %q", got)
	}
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: fmt.Errorf("wrap: %w", apperrors.Unauthenticated("no token")), want: "unauthenticated"},
		{name: "status error", err: fmt.Errorf("refresh: %w", &ports.StatusError{Op: "refresh", StatusCode: 401}), want: "http_401"},
		{name: "plain", err: errors.New("boom"), want: "errors_errorstring"},
		{name: "wrapped context", err: fmt.Errorf("x: %w", context.DeadlineExceeded), want: "context_deadlineexceedederror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

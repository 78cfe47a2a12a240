package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  &AppError{Code: ErrCodeNotFound, Message: "session slot not found"},
			want: "session slot not found",
		},
		{
			name: "with cause",
			err:  &AppError{Code: ErrCodeUnavailable, Message: "backend unreachable", Cause: errors.New("dial tcp")},
			want: "backend unreachable: dial tcp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(cause, ErrCodeInternal, "wrapped")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() should return the cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
		wantMsg  string
	}{
		{"NotFound", NotFound("missing"), ErrCodeNotFound, "missing"},
		{"NotFoundf", NotFoundf("session slot %q not found", "auth_token"), ErrCodeNotFound, `session slot "auth_token" not found`},
		{"Conflict", Conflict("race"), ErrCodeConflict, "race"},
		{"Validation", Validation("bad"), ErrCodeValidation, "bad"},
		{"Validationf", Validationf("role %s", "ghost"), ErrCodeValidation, "role ghost"},
		{"Unauthenticated", Unauthenticated("no token"), ErrCodeUnauthenticated, "no token"},
		{"Unavailablef", Unavailablef("status %d", 503), ErrCodeUnavailable, "status 503"},
		{"Internal", Internal("boom"), ErrCodeInternal, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestNewf_LiteralPercent(t *testing.T) {
	err := NotFound("100% missing")
	if err.Message != "100% missing" {
		t.Errorf("message without args must be kept verbatim, got %q", err.Message)
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("role", "unknown role")
	if err.Field != "role" {
		t.Errorf("Field = %q, want role", err.Field)
	}
	if GetField(err) != "role" {
		t.Errorf("GetField() = %q, want role", GetField(err))
	}
	if GetField(errors.New("plain")) != "" {
		t.Errorf("GetField() on plain error should be empty")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("eof"), ErrCodeUnavailable, "POST %s", "/auth/logout")
	if err.Message != "POST /auth/logout" {
		t.Errorf("Message = %q", err.Message)
	}
	if !IsUnavailable(err) {
		t.Errorf("expected Unavailable code")
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"not found", NotFound("x"), IsNotFound, true},
		{"not found on conflict", Conflict("x"), IsNotFound, false},
		{"conflict", Conflict("x"), IsConflict, true},
		{"validation", Validation("x"), IsValidation, true},
		{"unauthenticated", Unauthenticated("x"), IsUnauthenticated, true},
		{"unavailable", Unavailablef("x"), IsUnavailable, true},
		{"timeout", &AppError{Code: ErrCodeTimeout}, IsTimeout, true},
		{"canceled", &AppError{Code: ErrCodeCanceled}, IsCanceled, true},
		{"standard error", errors.New("x"), IsNotFound, false},
		{"nil error", nil, IsNotFound, false},
		{"wrapped by fmt", fmt.Errorf("outer: %w", NotFound("x")), IsNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("ctx: %w", Unauthenticated("x"))); got != ErrCodeUnauthenticated {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUnauthenticated)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode() on plain error = %v, want empty", got)
	}
}

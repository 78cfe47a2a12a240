package service

import (
	"errors"
	"fmt"

	"github.com/corruptguard/helix/internal/ports"
)

// AuthError reports a failed login. Message is safe to show to the user.
type AuthError struct {
	Op      string
	Message string
	Cause   error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Cause }

var (
	// ErrAuthenticationRequired is returned by APIRequest when a 401 could not be recovered by a refresh.
	ErrAuthenticationRequired = errors.New("Authentication required") //nolint:staticcheck // user-facing text
	// ErrNotAuthenticated is returned by operations that need a session when none is held.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// newAuthError wraps cause unless it already is an AuthError.
func newAuthError(op, message string, cause error) error {
	var ae *AuthError
	if errors.As(cause, &ae) {
		return cause
	}
	return &AuthError{Op: op, Message: message, Cause: cause}
}

// statusText extracts the HTTP reason phrase from a backend failure.
func statusText(err error) string {
	var se *ports.StatusError
	if errors.As(err, &se) {
		return se.StatusText()
	}
	return err.Error()
}

// CleanupResult reports the best-effort parts of a logout. Local state is always cleared.
type CleanupResult struct {
	BackendErr error
	StorageErr error
	WalletErr  error
	Notify     NotifyResult
}

// Err joins every failure, or returns nil when cleanup was complete.
func (r CleanupResult) Err() error {
	var errs []error
	if r.BackendErr != nil {
		errs = append(errs, fmt.Errorf("backend logout: %w", r.BackendErr))
	}
	if r.StorageErr != nil {
		errs = append(errs, fmt.Errorf("clear session storage: %w", r.StorageErr))
	}
	if r.WalletErr != nil {
		errs = append(errs, fmt.Errorf("disconnect wallet: %w", r.WalletErr))
	}
	if len(r.Notify.Failures) > 0 {
		errs = append(errs, fmt.Errorf("%d auth listener(s) panicked", len(r.Notify.Failures)))
	}
	return errors.Join(errs...)
}

package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Session event names.
const (
	EventForcedLogout  = "forced_logout"
	EventRefreshFailed = "refresh_failed"
	EventLoginFailed   = "login_failed"
	EventStorageFailed = "storage_failed"
)

// SessionEventPayload captures the canonical data we emit when a session leaves the happy path.
// Tokens are never part of the payload.
type SessionEventPayload struct {
	Event      string
	Principal  string
	Role       string
	SessionID  string
	AuthMode   string
	DemoMode   bool
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming session event notifications.
type Sink interface {
	SendSessionEvent(ctx context.Context, payload SessionEventPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload SessionEventPayload) error

// SendSessionEvent implements the Sink interface.
func (f SinkFunc) SendSessionEvent(ctx context.Context, payload SessionEventPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

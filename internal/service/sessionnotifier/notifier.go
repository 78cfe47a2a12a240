// Package sessionnotifier fans session events out to the configured notification sinks.
package sessionnotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corruptguard/helix/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the session notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// IncludeDemo forwards events from demo sessions too; by default they are dropped.
	IncludeDemo bool
	// Events limits delivery to these event names. Empty delivers every event.
	Events []string
}

// Service dispatches session events to all registered sinks.
type Service struct {
	logger      *slog.Logger
	sinks       []SinkRegistration
	includeDemo bool
	events      map[string]struct{}
}

// NewService constructs a session notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "session_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	var events map[string]struct{}
	if len(opts.Events) > 0 {
		events = make(map[string]struct{}, len(opts.Events))
		for _, e := range opts.Events {
			events[e] = struct{}{}
		}
	}

	return &Service{
		logger:      logger,
		sinks:       sinks,
		includeDemo: opts.IncludeDemo,
		events:      events,
	}
}

// NotifySessionEvent fans the payload out to all sinks and waits for delivery.
func (s *Service) NotifySessionEvent(ctx context.Context, payload notify.SessionEventPayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if payload.DemoMode && !s.includeDemo {
		s.logger.DebugContext(ctx, "skipping notification for demo session",
			"event", payload.Event,
			"session_id", payload.SessionID,
		)
		return
	}

	if s.events != nil {
		if _, ok := s.events[payload.Event]; !ok {
			return
		}
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now()
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendSessionEvent(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "session notifier delivery error",
					"sink", entry.Name,
					"event", payload.Event,
					"session_id", payload.SessionID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

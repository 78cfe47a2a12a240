package sessionnotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corruptguard/helix/internal/observability/notify"
)

func TestServiceNotifySessionEvent(t *testing.T) {
	ctx := context.Background()

	var received []notify.SessionEventPayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(_ context.Context, payload notify.SessionEventPayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	svc.NotifySessionEvent(ctx, notify.SessionEventPayload{
		Event:     notify.EventForcedLogout,
		SessionID: "sess-1",
	})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
	if received[0].OccurredAt.IsZero() {
		t.Fatal("expected timestamp to be filled")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "nil"}}})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}

	var nilSvc *Service
	nilSvc.NotifySessionEvent(context.Background(), notify.SessionEventPayload{})
	if nilSvc.Enabled() {
		t.Fatal("nil service must report disabled")
	}
}

func TestServiceFanOutSurvivesErrors(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(context.Context, notify.SessionEventPayload) error {
					return errors.New("boom")
				}),
			},
			{
				Sink: notify.SinkFunc(func(_ context.Context, p notify.SessionEventPayload) error {
					mu.Lock()
					delivered = append(delivered, p.Event)
					mu.Unlock()
					return nil
				}),
			},
		},
	})

	svc.NotifySessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventRefreshFailed})

	if len(delivered) != 1 || delivered[0] != notify.EventRefreshFailed {
		t.Fatalf("expected healthy sink to receive event, got %v", delivered)
	}
}

func TestServiceSkipsDemoSessions(t *testing.T) {
	var called bool
	sink := notify.SinkFunc(func(context.Context, notify.SessionEventPayload) error {
		called = true
		return nil
	})

	NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: sink}}}).
		NotifySessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventForcedLogout, DemoMode: true})
	if called {
		t.Fatal("expected sink not to be invoked for demo session")
	}

	NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: sink}}, IncludeDemo: true}).
		NotifySessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventForcedLogout, DemoMode: true})
	if !called {
		t.Fatal("expected demo events when IncludeDemo is set")
	}
}

func TestServiceFiltersEvents(t *testing.T) {
	var got []string
	sink := notify.SinkFunc(func(_ context.Context, p notify.SessionEventPayload) error {
		got = append(got, p.Event)
		return nil
	})

	svc := NewService(Options{
		Sinks:  []SinkRegistration{{Name: "capture", Sink: sink}},
		Events: []string{notify.EventForcedLogout},
	})
	svc.NotifySessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventLoginFailed})
	svc.NotifySessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventForcedLogout})

	if len(got) != 1 || got[0] != notify.EventForcedLogout {
		t.Fatalf("expected only forced_logout to be delivered, got %v", got)
	}
}

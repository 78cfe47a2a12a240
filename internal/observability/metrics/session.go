package metrics

import (
	"maps"
	"time"

	obserrors "github.com/corruptguard/helix/internal/observability/errors"
	"github.com/corruptguard/helix/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Session transitions.
const (
	TransitionLogin   = "login"
	TransitionLogout  = "logout"
	TransitionRestore = "restore"
	TransitionRefresh = "refresh"
	TransitionRetry   = "retry"
)

// SessionMetric captures details about a session lifecycle event for metric emission.
type SessionMetric struct {
	Transition string
	Mode       string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitSessionTransition emits standardised session lifecycle metrics.
func EmitSessionTransition(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Mode != "" {
		tags["mode"] = in.Mode
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// EmitAuthenticated records whether a session is currently held.
func EmitAuthenticated(sink statsd.Sink, authenticated bool) {
	if sink == nil {
		return
	}
	v := 0.0
	if authenticated {
		v = 1
	}
	sink.Gauge("session.authenticated", v, nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

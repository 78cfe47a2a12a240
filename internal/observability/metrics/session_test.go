package metrics

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/observability/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitSessionTransition(t *testing.T) {
	rec := statsd.NewRecorder()

	EmitSessionTransition(rec, SessionMetric{
		Transition: TransitionRefresh,
		Mode:       "wallet",
		Result:     ResultError,
		Duration:   15 * time.Millisecond,
		Err:        apperrors.Unauthenticated("refresh rejected"),
	})

	counts := rec.Counts("session.transition")
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"transition":  "refresh",
		"result":      "error",
		"mode":        "wallet",
		"error_class": "unauthenticated",
	}, counts[0].Tags)
	assert.Len(t, rec.Timings("session.duration"), 1)
}

func TestEmitSessionTransition_NoErrorClassOnSuccess(t *testing.T) {
	rec := statsd.NewRecorder()

	EmitSessionTransition(rec, SessionMetric{Transition: TransitionLogin, Result: ResultSuccess, Err: errors.New("ignored")})

	counts := rec.Counts("session.transition")
	require.Len(t, counts, 1)
	assert.NotContains(t, counts[0].Tags, "error_class")
	assert.NotContains(t, counts[0].Tags, "mode")
	assert.Empty(t, rec.Timings("session.duration"))
}

func TestEmitNilSink(t *testing.T) {
	EmitSessionTransition(nil, SessionMetric{Transition: TransitionLogout})
	EmitAuthenticated(nil, true)
}

func TestEmitAuthenticated(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitAuthenticated(rec, true)
	EmitAuthenticated(rec, false)

	gauges := rec.Gauges("session.authenticated")
	require.Len(t, gauges, 2)
	assert.Equal(t, 1.0, gauges[0].Value)
	assert.Equal(t, 0.0, gauges[1].Value)
}

package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corruptguard/helix/internal/observability/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{WebhookURL: "  "})
	require.Error(t, err)

	c, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test", RetryLimit: -2})
	require.NoError(t, err)
	assert.Equal(t, "helix", c.username)
	assert.Equal(t, 0, c.retryLimit)
}

func fieldTexts(msg message) string {
	var b strings.Builder
	for _, blk := range msg.Blocks {
		for _, f := range blk.Fields {
			b.WriteString(f.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#helix-ops",
		Username:   "bot",
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.SessionEventPayload{
		Event:      notify.EventForcedLogout,
		Principal:  "0.0.4821",
		Role:       "vendor",
		SessionID:  "sess-1",
		AuthMode:   "wallet",
		Error:      "refresh rejected by backend",
		ErrorClass: "unauthenticated",
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "bot", msg.Username)
	assert.Equal(t, "#helix-ops", msg.Channel)
	assert.Equal(t, "*Session forcibly logged out* `sess-1`", msg.Text)
	require.Len(t, msg.Blocks, 2)

	fields := fieldTexts(msg)
	for _, want := range []string{"0.0.4821", "vendor", "wallet", "refresh rejected", "unauthenticated", "critical", "2025-03-01T10:00:00Z"} {
		assert.Contains(t, fields, want)
	}
}

func TestFormatMessageEscapesAndSortsMetadata(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	require.NoError(t, err)

	msg := client.formatMessage(notify.SessionEventPayload{
		Event:     "custom",
		Principal: "a & <b>",
		DemoMode:  true,
		Metadata:  map[string]string{"b": "2", "a": "1"},
	})

	assert.Equal(t, "*Session event* (demo)", msg.Text)
	fields := fieldTexts(msg)
	assert.Contains(t, fields, "a &amp; &lt;b&gt;")
	assert.Less(t, strings.Index(fields, "*a*\n1"), strings.Index(fields, "*b*\n2"))
}

func TestFormatMessageChunksFields(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	require.NoError(t, err)

	meta := make(map[string]string)
	for i := range 12 {
		meta[fmt.Sprintf("k%02d", i)] = "v"
	}
	msg := client.formatMessage(notify.SessionEventPayload{Event: notify.EventLoginFailed, Metadata: meta})

	for _, blk := range msg.Blocks {
		assert.LessOrEqual(t, len(blk.Fields), 10)
	}
	assert.Greater(t, len(msg.Blocks), 2)
}

func TestSendSessionEventRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		var body message
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "helix", body.Username)
		assert.NotEmpty(t, body.Blocks)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1})
	require.NoError(t, err)
	require.NoError(t, client.SendSessionEvent(context.Background(), notify.SessionEventPayload{Event: notify.EventLoginFailed}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendSessionEventDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 3})
	require.NoError(t, err)

	err = client.SendSessionEvent(context.Background(), notify.SessionEventPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_token")
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendSessionEventStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = client.SendSessionEvent(ctx, notify.SessionEventPayload{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Package slack posts session events to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/corruptguard/helix/internal/observability/notify"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultUsername = "helix"
	retryBaseDelay  = 200 * time.Millisecond
)

// Config configures the webhook client.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client implements notify.Sink.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	http       *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg and returns a client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = defaultUsername
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		retryLimit: max(cfg.RetryLimit, 0),
		http:       hc,
	}, nil
}

// message is the webhook body. Text is the notification fallback; Blocks carry the layout.
type message struct {
	Text     string  `json:"text"`
	Username string  `json:"username"`
	Channel  string  `json:"channel,omitempty"`
	Blocks   []block `json:"blocks,omitempty"`
}

type block struct {
	Type   string       `json:"type"`
	Text   *textObject  `json:"text,omitempty"`
	Fields []textObject `json:"fields,omitempty"`
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) textObject { return textObject{Type: "mrkdwn", Text: s} }

// SendSessionEvent posts the event. 429 and 5xx responses are retried up to RetryLimit times.
func (c *Client) SendSessionEvent(ctx context.Context, payload notify.SessionEventPayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = c.post(ctx, body)
		var status *statusError
		retryable := errors.As(err, &status) && status.transient()
		if err == nil || !retryable || attempt >= c.retryLimit {
			return err
		}

		timer := time.NewTimer(time.Duration(attempt+1) * retryBaseDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

var eventTitles = map[string]string{
	notify.EventForcedLogout:  "Session forcibly logged out",
	notify.EventRefreshFailed: "Token refresh failed",
	notify.EventLoginFailed:   "Login failed",
	notify.EventStorageFailed: "Session storage failure",
}

func (c *Client) formatMessage(p notify.SessionEventPayload) message {
	title, ok := eventTitles[p.Event]
	if !ok {
		title = "Session event"
	}
	headline := "*" + title + "*"
	if p.SessionID != "" {
		headline += " `" + escape(p.SessionID) + "`"
	}
	if p.DemoMode {
		headline += " (demo)"
	}

	severity := p.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	at := p.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	var fields []textObject
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fields = append(fields, mrkdwn("*"+label+"*\n"+value))
		}
	}
	add("Severity", severity)
	add("Principal", escape(p.Principal))
	add("Role", p.Role)
	add("Auth mode", p.AuthMode)
	add("Error class", p.ErrorClass)
	add("Error", escape(p.Error))
	for _, k := range slices.Sorted(maps.Keys(p.Metadata)) {
		add(k, escape(p.Metadata[k]))
	}
	add("Timestamp", at.UTC().Format(time.RFC3339))

	blocks := []block{{Type: "section", Text: &textObject{Type: "mrkdwn", Text: headline}}}
	// Slack rejects sections with more than 10 fields.
	for chunk := range slices.Chunk(fields, 10) {
		blocks = append(blocks, block{Type: "section", Fields: chunk})
	}

	return message{
		Text:     headline,
		Username: c.username,
		Channel:  c.channel,
		Blocks:   blocks,
	}
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return slackEscaper.Replace(s) }

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("slack webhook %d %s: %s", e.code, http.StatusText(e.code), e.body)
}

func (e *statusError) transient() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

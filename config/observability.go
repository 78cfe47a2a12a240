package config

import (
	"slices"
	"strings"
	"time"
)

const (
	defaultMetricsPrefix       = "helix"
	defaultSlackUsername       = "helix"
	defaultNotificationTimeout = 5 * time.Second
)

// ObservabilityConfig groups StatsD metrics and session event notifications.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to both sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls the StatsD session transition counters.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"helix"`
}

// Sanitize disables metrics when no address is left after trimming.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled reports whether metrics should be emitted.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls the session event fan-out (forced logout,
// refresh failure, login failure, storage failure).
type ObservabilityNotificationsConfig struct {
	Enabled    bool          `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int           `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	// Events restricts delivery to the named events; empty means all of them.
	Events      []string                `env:"OBSERVABILITY_NOTIFICATIONS_EVENTS"       envSeparator:","`
	IncludeDemo bool                    `env:"OBSERVABILITY_NOTIFICATIONS_INCLUDE_DEMO" envDefault:"false"`
	Slack       SlackNotificationConfig `                                               envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
}

// Sanitize clamps timings and turns Slack off when it cannot deliver.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultNotificationTimeout
	}
	c.RetryLimit = max(c.RetryLimit, 0)

	events := c.Events[:0]
	for _, e := range c.Events {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !slices.Contains(events, e) {
			events = append(events, e)
		}
	}
	c.Events = events

	c.Slack.WebhookURL = strings.TrimSpace(c.Slack.WebhookURL)
	c.Slack.Channel = strings.TrimSpace(c.Slack.Channel)
	if c.Slack.Username == "" {
		c.Slack.Username = defaultSlackUsername
	}
	if !c.Enabled || c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}
}

// SlackNotificationConfig configures the Slack incoming-webhook sink.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"helix"`
}

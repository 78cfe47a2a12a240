package bootstrap

import (
	"log/slog"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/observability/notify/slack"
	"github.com/corruptguard/helix/internal/observability/statsd"
	"github.com/corruptguard/helix/internal/service/sessionnotifier"
)

// ObservabilityConfig configures metrics and session event fan-out.
type ObservabilityConfig struct {
	Observability config.ObservabilityConfig
	Mode          config.AuthMode
	Logger        *slog.Logger
}

// Observability holds the metrics client and the session notifier.
type Observability struct {
	Metrics  *statsd.Client
	Notifier *sessionnotifier.Service
}

// Close flushes the metrics connection.
func (o *Observability) Close() error {
	if o == nil || o.Metrics == nil {
		return nil
	}
	return o.Metrics.Close()
}

// BuildObservability never fails: a broken sink is logged and left disabled.
func BuildObservability(cfg ObservabilityConfig) *Observability {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Observability{
		Metrics:  buildMetrics(cfg, logger),
		Notifier: buildNotifier(cfg.Observability.Notifications, logger),
	}
}

func buildMetrics(cfg ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	m := cfg.Observability.Metrics
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    m.IsEnabled(),
		Address:    m.StatsdAddress,
		Prefix:     m.Prefix,
		Logger:     logger.With("component", "statsd"),
		GlobalTags: map[string]string{"auth_mode": string(cfg.Mode)},
	})
	if err != nil {
		logger.Warn("metrics disabled", "error", err, "address", m.StatsdAddress)
		// A disabled client drops everything.
		client, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}
	return client
}

func buildNotifier(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) *sessionnotifier.Service {
	var sinks []sessionnotifier.SinkRegistration
	if cfg.Enabled && cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Warn("slack notifications disabled", "error", err)
		} else {
			sinks = append(sinks, sessionnotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}
	return sessionnotifier.NewService(sessionnotifier.Options{
		Logger:      logger.With("component", "session_notifier"),
		Sinks:       sinks,
		IncludeDemo: cfg.IncludeDemo,
		Events:      cfg.Events,
	})
}

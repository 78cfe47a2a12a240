package config

import "strings"

const (
	defaultResponsePath = "not_null(data, @)"
	defaultHistoryLimit = 50
)

// ProcurementConfig configures the fraud and procurement API client.
type ProcurementConfig struct {
	// ResponsePath is a JMESPath expression that unwraps response envelopes.
	ResponsePath string `env:"FRAUD_RESPONSE_PATH" envDefault:"not_null(data, @)"`
	HistoryLimit int    `env:"FRAUD_HISTORY_LIMIT" envDefault:"50"`
}

// Sanitize restores defaults for blank or out-of-range values.
func (c *ProcurementConfig) Sanitize() {
	c.ResponsePath = strings.TrimSpace(c.ResponsePath)
	if c.ResponsePath == "" {
		c.ResponsePath = defaultResponsePath
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
}

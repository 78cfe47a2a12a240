package config

import (
	"fmt"
	"strings"
	"time"
)

// BackendMode selects how the auth backend is reached.
type BackendMode string

const (
	// BackendModeHTTP talks to the REST backend at VITE_BACKEND_URL.
	BackendModeHTTP BackendMode = "http"
	// BackendModeOffline uses the in-process demo backend (no network).
	BackendModeOffline BackendMode = "offline"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (m *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "http", "offline":
		*m = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: http, offline)", v)
	}
}

const defaultBackendTimeout = 15 * time.Second

// BackendConfig holds the remote endpoints the client talks to.
// Variable names keep the VITE_ prefix so an existing frontend .env can be reused.
type BackendConfig struct {
	URL            string        `env:"VITE_BACKEND_URL"        envDefault:"http://localhost:8000/api/v1"`
	HederaNetwork  string        `env:"VITE_HEDERA_NETWORK"     envDefault:"testnet"`
	IdentityURL    string        `env:"VITE_II_URL"             envDefault:"https://identity.ic0.app"`
	Mode           BackendMode   `env:"BACKEND_MODE"            envDefault:"http"`
	RequestTimeout time.Duration `env:"BACKEND_REQUEST_TIMEOUT" envDefault:"15s"`
}

// Sanitize trims URLs and restores a usable timeout.
func (c *BackendConfig) Sanitize() {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.IdentityURL = strings.TrimRight(strings.TrimSpace(c.IdentityURL), "/")
	c.HederaNetwork = strings.ToLower(strings.TrimSpace(c.HederaNetwork))
	if c.HederaNetwork == "" {
		c.HederaNetwork = "testnet"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultBackendTimeout
	}
	if c.Mode == "" {
		c.Mode = BackendModeHTTP
	}
}

package config

import (
	"strings"
	"time"
)

// IPFSConfig configures the Pinata pinning client.
// Credentials have no defaults; uploads fail until they are supplied.
type IPFSConfig struct {
	APIURL     string        `env:"API_URL"     envDefault:"https://api.pinata.cloud"`
	GatewayURL string        `env:"GATEWAY_URL" envDefault:"https://gateway.pinata.cloud/ipfs/"`
	APIKey     string        `env:"API_KEY"`
	SecretKey  string        `env:"SECRET_KEY"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"60s"`
}

// Sanitize normalises URLs.
func (c *IPFSConfig) Sanitize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.GatewayURL = strings.TrimSpace(c.GatewayURL)
	if c.GatewayURL != "" && !strings.HasSuffix(c.GatewayURL, "/") {
		c.GatewayURL += "/"
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// HasCredentials reports whether both Pinata keys are present.
func (c IPFSConfig) HasCredentials() bool {
	return c.APIKey != "" && c.SecretKey != ""
}

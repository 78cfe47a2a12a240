package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - backend.go: Backend API, Hedera network and identity provider endpoints
//   - auth.go: Login variant and refresh configuration
//   - storage.go: Session slot storage
//   - database.go: Database and Redis configuration
//   - ipfs.go: Document pinning
//   - procurement.go: Fraud and procurement API client
//   - observability.go: Metrics and notifications
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Backend BackendConfig
	Auth    AuthConfig
	Storage StorageConfig

	// Database configuration (used when SESSION_STORE=postgres or redis).
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	IPFS        IPFSConfig `envPrefix:"IPFS_"`
	Procurement ProcurementConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Backend.Sanitize()
	c.Auth.Sanitize()
	c.Storage.Sanitize()
	c.Postgres.Sanitize()
	c.IPFS.Sanitize()
	c.Procurement.Sanitize()
	c.Observability.Sanitize()

	// The identity provider defaults to the Internet Identity URL.
	if c.Auth.OIDC.IssuerURL == "" {
		c.Auth.OIDC.IssuerURL = c.Backend.IdentityURL
	}

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

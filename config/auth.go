package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the login variant used by the session manager.
type AuthMode string

const (
	// AuthModeWallet connects a Hedera wallet account.
	AuthModeWallet AuthMode = "wallet"
	// AuthModeDemo logs in as a fixed demo role.
	AuthModeDemo AuthMode = "demo"
	// AuthModeOIDC uses an OpenID Connect identity provider (Internet Identity bridge).
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "wallet", "demo", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: wallet, demo, oidc)", v)
	}
}

// WalletExchange selects how a connected wallet account becomes a session token.
type WalletExchange string

const (
	// WalletExchangeMock issues the fixed citizen grant without contacting the backend.
	WalletExchangeMock WalletExchange = "mock"
	// WalletExchangeBackend calls POST /auth/login/hedera.
	WalletExchangeBackend WalletExchange = "backend"
)

// UnmarshalText implements encoding.TextUnmarshaler for WalletExchange.
func (w *WalletExchange) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "mock", "backend":
		*w = WalletExchange(v)
		return nil
	default:
		return fmt.Errorf("invalid WalletExchange: %q (valid options: mock, backend)", v)
	}
}

// WalletConfig configures the wallet login variant.
type WalletConfig struct {
	// AccountID is the Hedera account (0.0.N) presented as the connected wallet.
	AccountID string         `env:"ACCOUNT_ID"`
	Exchange  WalletExchange `env:"EXCHANGE"   envDefault:"mock"`
	// MirrorURL overrides the mirror node derived from VITE_HEDERA_NETWORK.
	MirrorURL string `env:"MIRROR_URL"`
}

// DemoConfig configures the demo login variant.
type DemoConfig struct {
	Role        string `env:"ROLE"         envDefault:"citizen"`
	PrincipalID string `env:"PRINCIPAL_ID"`
}

// OIDCConfig contains OpenID Connect configuration for the oidc login variant.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"helix"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://127.0.0.1:8085/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	// IssuerURL defaults to VITE_II_URL.
	IssuerURL string `env:"ISSUER_URL"`
	// RoleMap entries are "group=role", separated by ';'.
	RoleMap      []string      `env:"ROLE_MAP"      envSeparator:";"`
	DefaultRole  string        `env:"DEFAULT_ROLE"  envDefault:"citizen"`
	LoginTimeout time.Duration `env:"LOGIN_TIMEOUT" envDefault:"5m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which login variant to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"wallet"`

	// RefreshInterval is how often the agent refreshes a live non-demo session.
	RefreshInterval time.Duration `env:"AUTH_REFRESH_INTERVAL" envDefault:"1h"`

	Wallet WalletConfig `envPrefix:"AUTH_WALLET_"`
	Demo   DemoConfig   `envPrefix:"AUTH_DEMO_"`
	OIDC   OIDCConfig   `envPrefix:"AUTH_OIDC_"`
}

// Sanitize normalises role names and restores safe durations.
func (c *AuthConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = AuthModeWallet
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = time.Hour
	}
	if c.Wallet.Exchange == "" {
		c.Wallet.Exchange = WalletExchangeMock
	}
	c.Wallet.AccountID = strings.TrimSpace(c.Wallet.AccountID)
	c.Wallet.MirrorURL = strings.TrimRight(strings.TrimSpace(c.Wallet.MirrorURL), "/")
	c.Demo.Role = strings.ToLower(strings.TrimSpace(c.Demo.Role))
	c.OIDC.DefaultRole = strings.ToLower(strings.TrimSpace(c.OIDC.DefaultRole))
	c.OIDC.IssuerURL = strings.TrimRight(strings.TrimSpace(c.OIDC.IssuerURL), "/")
	if c.OIDC.LoginTimeout <= 0 {
		c.OIDC.LoginTimeout = 5 * time.Minute
	}
}

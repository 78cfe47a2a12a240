package bootstrap

import (
	"testing"

	"github.com/corruptguard/helix/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, config.AuthModeWallet, cfg.Auth.Mode)
	assert.Equal(t, config.StoreKindFile, cfg.Storage.Kind)
	assert.Equal(t, "https://identity.ic0.app", cfg.Auth.OIDC.IssuerURL)
	assert.NoError(t, ValidateConfig(&cfg))
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("SESSION_STORE", "sqlite")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.AppConfig)
		wantErr string
	}{
		{
			name:    "http backend without url",
			mutate:  func(c *config.AppConfig) { c.Backend.URL = "" },
			wantErr: "VITE_BACKEND_URL",
		},
		{
			name:   "offline backend without url",
			mutate: func(c *config.AppConfig) { c.Backend.URL = ""; c.Backend.Mode = config.BackendModeOffline },
		},
		{
			name:    "unknown network",
			mutate:  func(c *config.AppConfig) { c.Backend.HederaNetwork = "devnet" },
			wantErr: "unknown hedera network",
		},
		{
			name: "unknown network with mirror override",
			mutate: func(c *config.AppConfig) {
				c.Backend.HederaNetwork = "devnet"
				c.Auth.Wallet.MirrorURL = "http://mirror.local"
			},
		},
		{
			name:    "malformed account id",
			mutate:  func(c *config.AppConfig) { c.Auth.Wallet.AccountID = "4821" },
			wantErr: "AUTH_WALLET_ACCOUNT_ID",
		},
		{
			name: "demo with bad role",
			mutate: func(c *config.AppConfig) {
				c.Auth.Mode = config.AuthModeDemo
				c.Auth.Demo.Role = "mayor"
			},
			wantErr: "AUTH_DEMO_ROLE",
		},
		{
			name: "oidc without issuer",
			mutate: func(c *config.AppConfig) {
				c.Auth.Mode = config.AuthModeOIDC
				c.Auth.OIDC.IssuerURL = ""
			},
			wantErr: "AUTH_OIDC_ISSUER_URL",
		},
		{
			name: "oidc with bad default role",
			mutate: func(c *config.AppConfig) {
				c.Auth.Mode = config.AuthModeOIDC
				c.Auth.OIDC.DefaultRole = "root"
			},
			wantErr: "AUTH_OIDC_DEFAULT_ROLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)

			err := ValidateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	assert.Error(t, ValidateConfig(nil))
}

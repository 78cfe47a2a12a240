package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/adapters/hedera"
	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/joho/godotenv"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig checks that the selected login variant has what it needs.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Backend.Mode == config.BackendModeHTTP && cfg.Backend.URL == "" {
		return errors.New("VITE_BACKEND_URL is required when BACKEND_MODE=http")
	}
	if _, ok := hedera.MirrorURLFor(cfg.Backend.HederaNetwork); !ok && cfg.Auth.Wallet.MirrorURL == "" {
		return fmt.Errorf("unknown hedera network %q; set AUTH_WALLET_MIRROR_URL", cfg.Backend.HederaNetwork)
	}

	switch cfg.Auth.Mode {
	case config.AuthModeDemo:
		if _, err := domainauth.ParseUserRole(cfg.Auth.Demo.Role); err != nil {
			return fmt.Errorf("AUTH_DEMO_ROLE: %w", err)
		}
	case config.AuthModeWallet:
		if cfg.Auth.Wallet.AccountID != "" && !hedera.ValidAccountID(cfg.Auth.Wallet.AccountID) {
			return fmt.Errorf("AUTH_WALLET_ACCOUNT_ID %q is not a 0.0.N account id", cfg.Auth.Wallet.AccountID)
		}
	case config.AuthModeOIDC:
		if cfg.Auth.OIDC.IssuerURL == "" {
			return errors.New("AUTH_OIDC_ISSUER_URL or VITE_II_URL is required for AUTH_MODE=oidc")
		}
		if _, err := domainauth.ParseUserRole(cfg.Auth.OIDC.DefaultRole); err != nil {
			return fmt.Errorf("AUTH_OIDC_DEFAULT_ROLE: %w", err)
		}
	}
	return nil
}

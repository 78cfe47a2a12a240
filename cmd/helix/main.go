package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)

	app, err := bootstrap.New(ctx, bootstrap.AppOptions{Config: &cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close app failed", "error", cerr)
		}
	}()

	return app.RunAgent(ctx)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting helix session agent",
		"auth_mode", cfg.Auth.Mode,
		"backend_mode", cfg.Backend.Mode,
		"session_store", cfg.Storage.Kind,
		"refresh_interval", cfg.Auth.RefreshInterval,
		"hedera_network", cfg.Backend.HederaNetwork)
}

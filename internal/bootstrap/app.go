package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/adapters/ipfs"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/corruptguard/helix/internal/service"
)

const shutdownWaitTimeout = 10 * time.Second

// AppOptions configures New.
type AppOptions struct {
	Config *config.AppConfig // Required
	Logger *slog.Logger
	// OpenBrowser presents the identity provider URL during oidc login.
	OpenBrowser func(ctx context.Context, authURL string) error
}

// App is the wired session client: storage, session manager and procurement API.
type App struct {
	Config        *config.AppConfig
	Logger        *slog.Logger
	Storage       *Storage
	Observability *Observability
	Backend       BackendHandle
	Sessions      *service.SessionManager
	Procurement   *service.ProcurementService
	Documents     ports.DocumentStore
}

// New builds every component named by cfg. Call Close when done.
func New(ctx context.Context, opts AppOptions) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := ValidateConfig(opts.Config); err != nil {
		return nil, err
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{Config: cfg, Logger: logger}
	app.Observability = BuildObservability(ObservabilityConfig{
		Observability: cfg.Observability,
		Mode:          cfg.Auth.Mode,
		Logger:        logger,
	})

	var err error
	app.Storage, err = BuildSessionStore(ctx, StorageConfig{
		Storage:  cfg.Storage,
		Postgres: cfg.Postgres,
		Redis:    cfg.Redis,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("session store: %w", err), app.Close())
	}

	if app.Backend, err = BuildBackend(cfg.Backend, logger); err != nil {
		return nil, errors.Join(err, app.Close())
	}

	if err = app.buildSessions(ctx, opts.OpenBrowser); err != nil {
		return nil, errors.Join(err, app.Close())
	}

	app.Documents = buildDocuments(cfg.IPFS, logger)
	app.Procurement, err = service.NewProcurementService(service.ProcurementServiceOptions{
		Requester:    app.Sessions,
		Documents:    app.Documents,
		ResponsePath: cfg.Procurement.ResponsePath,
		HistoryLimit: cfg.Procurement.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("procurement service: %w", err), app.Close())
	}
	return app, nil
}

func (a *App) buildSessions(ctx context.Context, openBrowser func(context.Context, string) error) error {
	cfg := a.Config
	deps := service.AuthDeps{Backend: a.Backend.Backend}

	if cfg.Auth.Mode == config.AuthModeWallet {
		wallet, err := BuildWallet(cfg, a.Backend.Client, a.Logger)
		if err != nil {
			return err
		}
		deps.Wallet = wallet
	}

	authn, err := BuildAuthenticator(ctx, AuthenticatorConfig{
		App:         cfg,
		Backend:     a.Backend.Backend,
		Wallet:      deps.Wallet,
		Store:       a.Storage.Store,
		OpenBrowser: openBrowser,
		Logger:      a.Logger,
	})
	if err != nil {
		return fmt.Errorf("login variant %s: %w", cfg.Auth.Mode, err)
	}
	deps.Authenticator = authn

	a.Sessions, err = service.NewSessionManager(service.SessionManagerOptions{
		Auth:  deps,
		Store: a.Storage.Store,
		HTTP:  service.HTTPConfig{BaseURL: a.Backend.BaseURL, Client: a.Backend.Client},
		Telemetry: service.Telemetry{
			Logger:   a.Logger,
			Metrics:  a.Observability.Metrics,
			Notifier: a.Observability.Notifier,
			Mode:     string(cfg.Auth.Mode),
		},
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	return nil
}

//nolint:ireturn // nil disables invoice pinning.
func buildDocuments(cfg config.IPFSConfig, logger *slog.Logger) ports.DocumentStore {
	if !cfg.HasCredentials() {
		logger.Debug("IPFS credentials not configured, invoice pinning disabled")
		return nil
	}
	client, err := ipfs.NewPinataClient(ipfs.Config{
		APIURL:     cfg.APIURL,
		GatewayURL: cfg.GatewayURL,
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		logger.Warn("invoice pinning disabled", "error", err)
		return nil
	}
	return client
}

// Close releases storage connections and the metrics socket.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.Storage.Close(), a.Observability.Close())
}

// RunAgent restores the session and keeps it refreshed until SIGINT or SIGTERM.
func (a *App) RunAgent(ctx context.Context) error {
	if err := a.Sessions.Init(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if !a.Sessions.IsAuthenticated() {
		a.Logger.WarnContext(ctx, "no stored session, run `helix-admin login` first")
	}

	refresher, err := service.NewRefresher(service.RefresherOptions{
		Target:   a.Sessions,
		Interval: a.Config.Auth.RefreshInterval,
		Logger:   a.Logger,
	})
	if err != nil {
		return fmt.Errorf("token refresher: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if runErr := refresher.Run(runCtx); runErr != nil {
			errCh <- runErr
		}
	}()

	return waitForShutdown(shutdownConfig{
		ctx:    runCtx,
		cancel: cancel,
		errCh:  errCh,
		done:   done,
		logger: a.Logger,
	})
}

type shutdownConfig struct {
	ctx    context.Context
	cancel context.CancelFunc
	errCh  <-chan error
	done   <-chan struct{}
	logger *slog.Logger
}

func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down token refresher...")
		cfg.cancel()
		waitForService(cfg.done, "token refresher", cfg.logger)
		return nil
	case <-cfg.ctx.Done():
		waitForService(cfg.done, "token refresher", cfg.logger)
		return nil
	case err := <-cfg.errCh:
		cfg.logger.Error("token refresher failed", "error", err)
		cfg.cancel()
		waitForService(cfg.done, "token refresher", cfg.logger)
		return err
	}
}

func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}

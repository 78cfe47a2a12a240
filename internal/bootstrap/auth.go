package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/adapters/authroles"
	"github.com/corruptguard/helix/internal/adapters/backend"
	"github.com/corruptguard/helix/internal/adapters/devauth"
	"github.com/corruptguard/helix/internal/adapters/hedera"
	"github.com/corruptguard/helix/internal/adapters/oidc"
	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/corruptguard/helix/internal/service"
)

// BackendHandle is the auth backend plus the HTTP settings guarded requests share with it.
type BackendHandle struct {
	Backend ports.AuthBackend
	BaseURL string
	Client  *http.Client
}

// BuildBackend returns the REST backend client, or the in-process demo backend in offline mode.
func BuildBackend(cfg config.BackendConfig, logger *slog.Logger) (BackendHandle, error) {
	if cfg.Mode == config.BackendModeOffline {
		if logger != nil {
			logger.Warn("BACKEND_MODE=offline, tokens are issued in-process")
		}
		return BackendHandle{
			Backend: devauth.New(),
			BaseURL: cfg.URL,
			Client:  &http.Client{Timeout: cfg.RequestTimeout},
		}, nil
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return BackendHandle{}, fmt.Errorf("backend client: %w", err)
	}
	return BackendHandle{Backend: client, BaseURL: client.BaseURL(), Client: client.HTTPClient()}, nil
}

// BuildWallet returns the mirror-node wallet connector.
func BuildWallet(cfg *config.AppConfig, client *http.Client, logger *slog.Logger) (*hedera.Connector, error) {
	conn, err := hedera.NewConnector(hedera.Config{
		AccountID:  cfg.Auth.Wallet.AccountID,
		Network:    cfg.Backend.HederaNetwork,
		MirrorURL:  cfg.Auth.Wallet.MirrorURL,
		HTTPClient: client,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("hedera connector: %w", err)
	}
	return conn, nil
}

// AuthenticatorConfig groups what BuildAuthenticator needs.
type AuthenticatorConfig struct {
	App         *config.AppConfig
	Backend     ports.AuthBackend
	Wallet      ports.WalletConnector
	Store       ports.SessionStore
	OpenBrowser func(ctx context.Context, authURL string) error
	Logger      *slog.Logger
}

// BuildAuthenticator selects the login variant named by AUTH_MODE.
//
//nolint:ireturn // the variant is chosen at runtime.
func BuildAuthenticator(ctx context.Context, cfg AuthenticatorConfig) (ports.Authenticator, error) {
	auth := cfg.App.Auth
	switch auth.Mode {
	case config.AuthModeDemo:
		role, err := domainauth.ParseUserRole(auth.Demo.Role)
		if err != nil {
			return nil, fmt.Errorf("demo role: %w", err)
		}
		return &service.DemoAuthenticator{Backend: cfg.Backend, Role: role, PrincipalID: auth.Demo.PrincipalID}, nil

	case config.AuthModeOIDC:
		return buildIdentityAuthenticator(ctx, cfg)

	default:
		if cfg.Wallet == nil {
			return nil, errors.New("wallet login requires a wallet connector")
		}
		opts := service.WalletAuthenticatorOptions{
			Wallet:  cfg.Wallet,
			Network: cfg.App.Backend.HederaNetwork,
			Logger:  cfg.Logger,
		}
		if auth.Wallet.Exchange == config.WalletExchangeBackend {
			opts.Backend = cfg.Backend
		}
		return service.NewWalletAuthenticator(opts)
	}
}

func buildIdentityAuthenticator(ctx context.Context, cfg AuthenticatorConfig) (*service.IdentityAuthenticator, error) {
	oc := cfg.App.Auth.OIDC

	roles, err := authroles.ParseRoleMap(oc.RoleMap, oc.DefaultRole)
	if err != nil {
		return nil, fmt.Errorf("role map: %w", err)
	}

	provider, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  oc.RedirectURL,
		Scope:        oc.Scope,
		IssuerURL:    oc.IssuerURL,
	})
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	receiver, err := oidc.NewLoopbackReceiver(oc.RedirectURL, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("identity callback: %w", err)
	}

	return service.NewIdentityAuthenticator(service.IdentityAuthenticatorOptions{
		Provider:    provider,
		Callback:    loopbackCallback{receiver: receiver, timeout: oc.LoginTimeout},
		Roles:       roles,
		Store:       cfg.Store,
		RedirectURL: oc.RedirectURL,
		OpenBrowser: cfg.OpenBrowser,
		Logger:      cfg.Logger,
	})
}

// loopbackCallback bounds the browser round trip by the configured login timeout.
type loopbackCallback struct {
	receiver *oidc.LoopbackReceiver
	timeout  time.Duration
}

func (c loopbackCallback) Listen(ctx context.Context, state string) (func() (string, error), error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	wait, err := c.receiver.Listen(ctx, state)
	if err != nil {
		cancel()
		return nil, err
	}
	return func() (string, error) {
		defer cancel()
		res, waitErr := wait()
		if waitErr != nil {
			return "", waitErr
		}
		return res.Code, nil
	}, nil
}

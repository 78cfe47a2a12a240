package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/google/uuid"
)

// Fixed values of the mocked wallet exchange.
const (
	MockWalletToken = "mock_hedera_token"
	MockWalletName  = "Hedera User"
)

var (
	_ ports.Authenticator = (*WalletAuthenticator)(nil)
	_ ports.Authenticator = (*DemoAuthenticator)(nil)
	_ ports.Authenticator = (*IdentityAuthenticator)(nil)
)

// WalletAuthenticatorOptions configures WalletAuthenticator.
type WalletAuthenticatorOptions struct {
	Wallet ports.WalletConnector // Required
	// Backend performs the token exchange. When nil the mocked exchange is used.
	Backend ports.AuthBackend
	Network string
	Logger  *slog.Logger
}

// WalletAuthenticator logs in with a connected wallet account.
type WalletAuthenticator struct {
	wallet  ports.WalletConnector
	backend ports.AuthBackend
	network string
	logger  *slog.Logger
	newID   func() string
}

// NewWalletAuthenticator constructs a WalletAuthenticator.
func NewWalletAuthenticator(opts WalletAuthenticatorOptions) (*WalletAuthenticator, error) {
	if opts.Wallet == nil {
		return nil, errors.New("WalletConnector is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletAuthenticator{
		wallet:  opts.Wallet,
		backend: opts.Backend,
		network: opts.Network,
		logger:  logger.With("component", "wallet_login"),
		newID:   uuid.NewString,
	}, nil
}

func (a *WalletAuthenticator) Login(ctx context.Context) (domainauth.Session, error) {
	acct, err := a.wallet.Connect(ctx)
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "wallet_login", Message: "Wallet connection failed", Cause: err}
	}
	if acct.AccountID == "" {
		return domainauth.Session{}, &AuthError{Op: "wallet_login", Message: "No account ID returned from wallet"}
	}
	network := acct.Network
	if network == "" {
		network = a.network
	}

	grant, err := a.exchange(ctx, acct.AccountID, network)
	if err != nil {
		return domainauth.Session{}, err
	}

	sessionID := grant.SessionID
	if sessionID == "" {
		sessionID = a.newID()
	}
	principal := grant.PrincipalID
	if principal == "" {
		principal = acct.AccountID
	}
	a.logger.DebugContext(ctx, "wallet exchange complete", "account_id", acct.AccountID, "network", network)

	return domainauth.Session{
		Token:     grant.AccessToken,
		SessionID: sessionID,
		User:      userFromGrant(principal, grant, domainauth.RoleCitizen, MockWalletName),
		DemoMode:  false,
	}, nil
}

func (a *WalletAuthenticator) exchange(ctx context.Context, accountID, network string) (domainauth.TokenGrant, error) {
	if a.backend == nil {
		return domainauth.TokenGrant{
			AccessToken: MockWalletToken,
			TokenType:   "Bearer",
			Role:        string(domainauth.RoleCitizen),
			UserInfo:    domainauth.UserInfo{Name: MockWalletName, Permissions: []string{}},
		}, nil
	}
	grant, err := a.backend.WalletLogin(ctx, ports.WalletLoginInput{AccountID: accountID, Network: network})
	if err != nil {
		return domainauth.TokenGrant{}, &AuthError{Op: "wallet_login", Message: "Wallet login failed: " + statusText(err), Cause: err}
	}
	if grant.AccessToken == "" {
		return domainauth.TokenGrant{}, &AuthError{Op: "wallet_login", Message: "Wallet login failed: no access token issued"}
	}
	return grant, nil
}

// DemoAuthenticator logs in as a fixed demo role.
type DemoAuthenticator struct {
	Backend     ports.AuthBackend
	Role        domainauth.UserRole
	PrincipalID string
}

func (a *DemoAuthenticator) Login(ctx context.Context) (domainauth.Session, error) {
	if a.Backend == nil {
		return domainauth.Session{}, errors.New("demo login: AuthBackend is required")
	}
	return demoLogin(ctx, a.Backend, a.PrincipalID, a.Role)
}

// CallbackWaiter receives the authorization code on the redirect URL.
// Listen must bind before the browser is sent to the provider.
type CallbackWaiter interface {
	Listen(ctx context.Context, state string) (wait func() (code string, err error), err error)
}

// IdentityAuthenticatorOptions configures IdentityAuthenticator.
type IdentityAuthenticatorOptions struct {
	Provider    ports.IdentityProvider // Required
	Callback    CallbackWaiter         // Required
	Roles       ports.RoleMapper       // Required
	Store       ports.SessionStore     // Required
	RedirectURL string
	// OpenBrowser presents the authorization URL to the user.
	OpenBrowser func(ctx context.Context, authURL string) error
	Logger      *slog.Logger
}

// IdentityAuthenticator runs the identity-provider authorization-code flow.
type IdentityAuthenticator struct {
	provider    ports.IdentityProvider
	callback    CallbackWaiter
	roles       ports.RoleMapper
	store       ports.SessionStore
	redirectURL string
	openBrowser func(ctx context.Context, authURL string) error
	logger      *slog.Logger
	newID       func() string
}

// NewIdentityAuthenticator constructs an IdentityAuthenticator.
func NewIdentityAuthenticator(opts IdentityAuthenticatorOptions) (*IdentityAuthenticator, error) {
	switch {
	case opts.Provider == nil:
		return nil, errors.New("IdentityProvider is required")
	case opts.Callback == nil:
		return nil, errors.New("CallbackWaiter is required")
	case opts.Roles == nil:
		return nil, errors.New("RoleMapper is required")
	case opts.Store == nil:
		return nil, errors.New("SessionStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "identity_login")
	open := opts.OpenBrowser
	if open == nil {
		open = func(ctx context.Context, authURL string) error {
			logger.InfoContext(ctx, "open this URL to continue login", "url", authURL)
			return nil
		}
	}
	return &IdentityAuthenticator{
		provider:    opts.Provider,
		callback:    opts.Callback,
		roles:       opts.Roles,
		store:       opts.Store,
		redirectURL: opts.RedirectURL,
		openBrowser: open,
		logger:      logger,
		newID:       uuid.NewString,
	}, nil
}

func (a *IdentityAuthenticator) Login(ctx context.Context) (domainauth.Session, error) {
	authURL, state, nonce, err := a.provider.Begin(ctx, ports.BeginInput{RedirectURL: a.redirectURL})
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "identity_login", Message: "Identity login failed", Cause: err}
	}
	wait, err := a.callback.Listen(ctx, state)
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "identity_login", Message: "Identity login failed", Cause: err}
	}
	if err := a.openBrowser(ctx, authURL); err != nil {
		a.logger.WarnContext(ctx, "open browser failed", "error", err)
	}

	code, err := wait()
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "identity_login", Message: "Identity login failed", Cause: err}
	}
	ident, rawToken, err := a.provider.Exchange(ctx, ports.ExchangeInput{Code: code, State: state, Nonce: nonce})
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "identity_login", Message: "Identity login failed", Cause: err}
	}
	if ident.Subject == "" {
		return domainauth.Session{}, &AuthError{Op: "identity_login", Message: "Identity login failed: no subject in identity"}
	}

	role := a.roles.Map(ident.Groups)
	profile := domainauth.Profile(role)
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = profile.DisplayName
	}
	user := domainauth.User{
		Principal:   ident.Subject,
		Role:        role,
		Name:        name,
		Permissions: append([]string{}, profile.Permissions...),
	}
	if ident.Email != "" {
		user.UserInfo = map[string]any{"email": ident.Email}
	}

	if err := saveIdentity(ctx, a.store, user, rawToken); err != nil {
		return domainauth.Session{}, fmt.Errorf("identity login: %w", err)
	}
	return domainauth.Session{Token: rawToken, SessionID: a.newID(), User: user}, nil
}

package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"fmt"
	"io"
	"net/http"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
)

// Authenticator is one login variant (wallet, demo, identity provider).
// It produces a complete session but does not persist it.
type Authenticator interface {
	Login(ctx context.Context) (domainauth.Session, error)
}

// WalletConnector wraps a wallet SDK and yields the connected account.
type WalletConnector interface {
	Connect(ctx context.Context) (domainauth.WalletAccount, error)
	Disconnect(ctx context.Context) error
}

// BeginInput carries inputs for initiating an identity-provider flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// IdentityProvider initiates and completes an authorization-code flow against an IdP.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the identity
	// together with the raw ID token.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, string, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.UserRole
}

// LogoutInput is the body of a backend logout call.
type LogoutInput struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

// WalletLoginInput is the body of a backend wallet exchange.
type WalletLoginInput struct {
	AccountID string `json:"account_id"`
	Network   string `json:"network"`
}

// AuthBackend is the remote authentication API.
type AuthBackend interface {
	DemoLogin(ctx context.Context, role domainauth.UserRole) (domainauth.TokenGrant, error)
	WalletLogin(ctx context.Context, in WalletLoginInput) (domainauth.TokenGrant, error)
	Logout(ctx context.Context, in LogoutInput) error
	// VerifyToken is an opaque predicate; callers must not assume how validity is decided.
	VerifyToken(ctx context.Context, token string) (bool, error)
	// Refresh exchanges token for a new one.
	Refresh(ctx context.Context, token string) (string, error)
	MockUsers(ctx context.Context) ([]domainauth.DemoUser, error)
}

// SessionStore is a key-value slot store that survives process restarts.
// Get returns an internal/errors NotFound error when the key is absent.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Update performs an atomic read-modify-write of key. fn receives nil when the key is absent;
	// returning nil from fn leaves the slot untouched.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// DocumentStore pins documents to content-addressed storage.
type DocumentStore interface {
	UploadDocument(ctx context.Context, name string, r io.Reader) (string, error)
	UploadJSON(ctx context.Context, name string, v any) (string, error)
	URL(hash string) string
}

// StatusError reports a non-2xx response from a remote collaborator.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, e.StatusText(), e.Body)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.StatusText())
}

// StatusText returns the canonical reason phrase for the status code.
func (e *StatusError) StatusText() string {
	if t := http.StatusText(e.StatusCode); t != "" {
		return t
	}
	return "Unknown Status"
}

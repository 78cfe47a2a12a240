package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.WalletConnector  = (*MockWalletConnector)(nil)
	_ ports.Authenticator    = (*MockAuthenticator)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.RoleMapper       = (*StaticRoleMapper)(nil)
)

// MockIdentityProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, string, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	IDToken     string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		IDToken:     "mock-id-token",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		Subject: "mock-principal-1",
		Name:    "Mock Auditor",
		Email:   "mock.auditor@example.com",
		Groups:  []string{"auditors"},
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockIdentityProvider) Exchange(
	ctx context.Context,
	in ports.ExchangeInput,
) (domainauth.Identity, string, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.Subject == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)

	token := m.IDToken
	if token == "" {
		token = "mock-id-token"
	}
	return user, token, nil
}

// MockWalletConnector returns a fixed account or a configured error.
type MockWalletConnector struct {
	Account       domainauth.WalletAccount
	ConnectErr    error
	DisconnectErr error

	mu          sync.Mutex
	connects    int
	disconnects int
}

func (m *MockWalletConnector) Connect(_ context.Context) (domainauth.WalletAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	if m.ConnectErr != nil {
		return domainauth.WalletAccount{}, m.ConnectErr
	}
	return m.Account, nil
}

func (m *MockWalletConnector) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	return m.DisconnectErr
}

// Calls reports how many times Connect and Disconnect were invoked.
func (m *MockWalletConnector) Calls() (connects, disconnects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects, m.disconnects
}

// MockAuthenticator returns LoginFunc's result, or Session/Err when LoginFunc is nil.
type MockAuthenticator struct {
	LoginFunc func(ctx context.Context) (domainauth.Session, error)
	Session   domainauth.Session
	Err       error
}

func (m *MockAuthenticator) Login(ctx context.Context) (domainauth.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx)
	}
	return m.Session, m.Err
}

// MemorySessionStore is an in-memory slot store for unit tests.
// Setting FailWrites makes every Set/Update/Delete fail, simulating a broken medium.
// FailSet fails Set for the listed slots only.
type MemorySessionStore struct {
	mu         sync.Mutex
	slots      map[string][]byte
	FailWrites error
	FailSet    map[string]error
}

// NewMemorySessionStore creates a new in-memory slot store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{slots: make(map[string][]byte)}
}

func (m *MemorySessionStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[key]
	if !ok {
		return nil, apperrors.NotFoundf("session slot %q not found", key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemorySessionStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	if err := m.FailSet[key]; err != nil {
		return err
	}
	if m.slots == nil {
		m.slots = make(map[string][]byte)
	}
	m.slots[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for _, k := range keys {
		delete(m.slots, k)
	}
	return nil
}

func (m *MemorySessionStore) Update(_ context.Context, key string, fn func([]byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	var current []byte
	if v, ok := m.slots[key]; ok {
		current = append([]byte(nil), v...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if m.slots == nil {
		m.slots = make(map[string][]byte)
	}
	m.slots[key] = append([]byte(nil), next...)
	return nil
}

// Keys returns the currently stored slot names.
func (m *MemorySessionStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.slots))
	for k := range m.slots {
		out = append(out, k)
	}
	return out
}

// StaticRoleMapper maps groups by exact membership, falling back to Default.
type StaticRoleMapper struct {
	Groups  map[string]domainauth.UserRole
	Default domainauth.UserRole
}

func (m StaticRoleMapper) Map(groups []string) domainauth.UserRole {
	for _, g := range groups {
		if r, ok := m.Groups[g]; ok {
			return r
		}
	}
	if m.Default != "" {
		return m.Default
	}
	return domainauth.RoleCitizen
}

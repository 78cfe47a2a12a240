package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	obserrors "github.com/corruptguard/helix/internal/observability/errors"
	"github.com/corruptguard/helix/internal/observability/metrics"
	"github.com/corruptguard/helix/internal/observability/notify"
	"github.com/corruptguard/helix/internal/observability/statsd"
	"github.com/corruptguard/helix/internal/ports"
	"golang.org/x/sync/singleflight"
)

// DemoSessionID is the session identifier used when the backend issues none for a demo login.
const DemoSessionID = "demo-session"

// EventNotifier fans session events out to operators.
type EventNotifier interface {
	NotifySessionEvent(ctx context.Context, payload notify.SessionEventPayload)
}

// AuthDeps groups the collaborators that produce and revoke credentials.
type AuthDeps struct {
	Backend       ports.AuthBackend   // Required
	Authenticator ports.Authenticator // Optional: Login fails without it
	Wallet        ports.WalletConnector
}

// HTTPConfig configures guarded API requests.
type HTTPConfig struct {
	BaseURL string
	Client  *http.Client
}

// Telemetry groups optional observability hooks.
type Telemetry struct {
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier EventNotifier
	// Mode tags metrics and events with the configured login variant.
	Mode string
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Auth      AuthDeps
	Store     ports.SessionStore // Required
	HTTP      HTTPConfig
	Telemetry Telemetry
}

// SessionManager owns the client session: login variants, persistence, the
// token guard around API calls, and auth listeners. It is safe for concurrent use.
type SessionManager struct {
	backend       ports.AuthBackend
	authenticator ports.Authenticator
	wallet        ports.WalletConnector
	slots         sessionSlots

	baseURL string
	client  *http.Client

	logger   *slog.Logger
	metrics  statsd.Sink
	notifier EventNotifier
	mode     string

	listeners *listenerRegistry
	refreshes singleflight.Group

	mu      sync.RWMutex
	session *domainauth.Session
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Auth.Backend == nil {
		return nil, errors.New("AuthBackend is required")
	}
	if opts.Store == nil {
		return nil, errors.New("SessionStore is required")
	}

	logger := opts.Telemetry.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session_manager")

	client := opts.HTTP.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &SessionManager{
		backend:       opts.Auth.Backend,
		authenticator: opts.Auth.Authenticator,
		wallet:        opts.Auth.Wallet,
		slots:         sessionSlots{store: opts.Store},
		baseURL:       strings.TrimRight(opts.HTTP.BaseURL, "/"),
		client:        client,
		logger:        logger,
		metrics:       opts.Telemetry.Metrics,
		notifier:      opts.Telemetry.Notifier,
		mode:          opts.Telemetry.Mode,
		listeners:     newListenerRegistry(logger),
	}, nil
}

// Init restores a persisted session, if any. It never fails on a missing or stale session.
func (m *SessionManager) Init(ctx context.Context) error {
	if m.RestoreAuth(ctx) {
		m.logger.InfoContext(ctx, "session restored", "principal", m.Principal())
	}
	return ctx.Err()
}

// Login runs the configured login variant and establishes the resulting session.
func (m *SessionManager) Login(ctx context.Context) (domainauth.User, error) {
	start := time.Now()
	if m.authenticator == nil {
		return domainauth.User{}, &AuthError{Op: "login", Message: "no login method configured"}
	}

	sess, err := m.authenticator.Login(ctx)
	if err == nil && !sess.Valid() {
		err = &AuthError{Op: "login", Message: "login produced an incomplete session"}
	}
	if err != nil {
		m.loginFailed(ctx, start, err, false)
		return domainauth.User{}, newAuthError("login", "Login failed", err)
	}

	if err := m.establish(ctx, sess); err != nil {
		m.loginFailed(ctx, start, err, sess.DemoMode)
		return domainauth.User{}, err
	}
	m.emit(metrics.TransitionLogin, metrics.ResultSuccess, time.Since(start), nil)
	return sess.User, nil
}

// LoginDemo logs in as a demo identity for role. An empty principalID uses the backend's
// principal, then "demo_<role>".
func (m *SessionManager) LoginDemo(ctx context.Context, principalID string, role domainauth.UserRole) (domainauth.User, error) {
	start := time.Now()
	sess, err := demoLogin(ctx, m.backend, principalID, role)
	if err != nil {
		m.loginFailed(ctx, start, err, true)
		return domainauth.User{}, err
	}
	if err := m.establish(ctx, sess); err != nil {
		m.loginFailed(ctx, start, err, true)
		return domainauth.User{}, err
	}
	m.emit(metrics.TransitionLogin, metrics.ResultSuccess, time.Since(start), nil)
	return sess.User, nil
}

// demoLogin calls the demo endpoint and builds the demo session.
func demoLogin(ctx context.Context, backend ports.AuthBackend, principalID string, role domainauth.UserRole) (domainauth.Session, error) {
	if !role.Valid() {
		return domainauth.Session{}, &AuthError{
			Op:      "demo_login",
			Message: fmt.Sprintf("Demo login failed: invalid role %q", role),
			Cause:   apperrors.ValidationField("role", "unknown role"),
		}
	}
	grant, err := backend.DemoLogin(ctx, role)
	if err != nil {
		return domainauth.Session{}, &AuthError{Op: "demo_login", Message: "Demo login failed: " + statusText(err), Cause: err}
	}
	if grant.AccessToken == "" {
		return domainauth.Session{}, &AuthError{Op: "demo_login", Message: "Demo login failed: no access token issued"}
	}

	principal := principalID
	if principal == "" {
		principal = grant.PrincipalID
	}
	if principal == "" {
		principal = "demo_" + string(role)
	}
	sessionID := grant.SessionID
	if sessionID == "" {
		sessionID = DemoSessionID
	}

	return domainauth.Session{
		Token:     grant.AccessToken,
		SessionID: sessionID,
		User:      userFromGrant(principal, grant, role, "Demo User"),
		DemoMode:  true,
	}, nil
}

// userFromGrant maps a token grant onto a User. Unknown or missing roles fall back to fallbackRole.
func userFromGrant(principal string, grant domainauth.TokenGrant, fallbackRole domainauth.UserRole, fallbackName string) domainauth.User {
	role, err := domainauth.ParseUserRole(grant.Role)
	if err != nil {
		role = fallbackRole
	}
	name := grant.UserInfo.Name
	if name == "" {
		name = fallbackName
	}
	perms := grant.UserInfo.Permissions
	if perms == nil {
		perms = []string{}
	}
	return domainauth.User{Principal: principal, Role: role, Name: name, Permissions: slices.Clone(perms)}
}

// establish persists sess, then publishes it. The manager only becomes authenticated
// once the session is stored. A failed save leaves nothing stored, so any session held
// from an earlier login is dropped as well.
func (m *SessionManager) establish(ctx context.Context, sess domainauth.Session) error {
	if err := m.slots.save(ctx, sess); err != nil {
		m.event(ctx, notify.EventStorageFailed, &sess, err)
		m.purge(ctx)
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.session = &sess
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "authenticated",
		"principal", sess.User.Principal,
		"role", sess.User.Role,
		"demo_mode", sess.DemoMode,
	)
	metrics.EmitAuthenticated(m.metrics, true)
	m.listeners.notify(ctx, m.State())
	return nil
}

func (m *SessionManager) loginFailed(ctx context.Context, start time.Time, err error, demo bool) {
	m.logger.WarnContext(ctx, "login failed", "error", err, "demo_mode", demo)
	m.emit(metrics.TransitionLogin, metrics.ResultError, time.Since(start), err)
	m.eventPayload(ctx, notify.SessionEventPayload{
		Event:    notify.EventLoginFailed,
		DemoMode: demo,
		Severity: notify.SeverityWarning,
	}, err)
}

// Logout revokes the session best-effort and always clears local state.
// Calling it while logged out is harmless.
func (m *SessionManager) Logout(ctx context.Context) CleanupResult {
	start := time.Now()
	m.mu.Lock()
	sess := m.session
	m.session = nil
	m.mu.Unlock()

	var res CleanupResult
	if sess != nil && sess.Token != "" {
		res.BackendErr = m.backend.Logout(ctx, ports.LogoutInput{Token: sess.Token, SessionID: sess.SessionID})
		if res.BackendErr != nil {
			m.logger.WarnContext(ctx, "backend logout failed", "error", res.BackendErr)
		}
	}

	res.StorageErr = m.slots.clear(ctx)
	if res.StorageErr != nil {
		m.logger.ErrorContext(ctx, "clear session storage failed", "error", res.StorageErr)
		m.event(ctx, notify.EventStorageFailed, sess, res.StorageErr)
	}

	metrics.EmitAuthenticated(m.metrics, false)
	res.Notify = m.listeners.notify(ctx, domainauth.AuthState{})

	if m.wallet != nil {
		if res.WalletErr = m.wallet.Disconnect(ctx); res.WalletErr != nil {
			m.logger.WarnContext(ctx, "wallet disconnect failed", "error", res.WalletErr)
		}
	}

	result := metrics.ResultSuccess
	if sess == nil {
		result = metrics.ResultNoop
	}
	m.emit(metrics.TransitionLogout, result, time.Since(start), nil)
	return res
}

// RestoreAuth rehydrates the persisted session when its token still verifies.
// Any failure purges the stored session and reports false.
func (m *SessionManager) RestoreAuth(ctx context.Context) bool {
	start := time.Now()
	sess, err := m.slots.load(ctx)
	switch {
	case apperrors.IsNotFound(err):
		m.emit(metrics.TransitionRestore, metrics.ResultNoop, time.Since(start), nil)
		return false
	case err != nil:
		m.logger.WarnContext(ctx, "stored session unreadable", "error", err)
	case !sess.Valid():
		err = errors.New("stored session is incomplete")
	case !m.VerifyToken(ctx, sess.Token):
		err = errors.New("stored token is no longer valid")
	}

	if err != nil {
		m.logger.InfoContext(ctx, "discarding stored session", "reason", err)
		m.purge(ctx)
		m.emit(metrics.TransitionRestore, metrics.ResultError, time.Since(start), err)
		return false
	}

	m.mu.Lock()
	m.session = &sess
	m.mu.Unlock()

	metrics.EmitAuthenticated(m.metrics, true)
	m.listeners.notify(ctx, m.State())
	m.emit(metrics.TransitionRestore, metrics.ResultSuccess, time.Since(start), nil)
	return true
}

// purge drops the stored session without calling the backend.
func (m *SessionManager) purge(ctx context.Context) {
	if err := m.slots.clear(ctx); err != nil {
		m.logger.ErrorContext(ctx, "clear session storage failed", "error", err)
	}
	m.mu.Lock()
	was := m.session != nil
	m.session = nil
	m.mu.Unlock()
	if was {
		metrics.EmitAuthenticated(m.metrics, false)
		m.listeners.notify(ctx, domainauth.AuthState{})
	}
}

// VerifyToken asks the backend whether token is still valid. Any failure reads as invalid.
func (m *SessionManager) VerifyToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	ok, err := m.backend.VerifyToken(ctx, token)
	if err != nil {
		m.logger.DebugContext(ctx, "token verification failed", "error", err)
		return false
	}
	return ok
}

// AddAuthListener registers fn. Each call yields a distinct handle, even for the same func.
func (m *SessionManager) AddAuthListener(fn AuthListener) ListenerHandle {
	return m.listeners.add(fn)
}

// RemoveAuthListener unregisters the listener behind h. It reports whether h was registered.
func (m *SessionManager) RemoveAuthListener(h ListenerHandle) bool {
	return m.listeners.remove(h)
}

// State returns a snapshot of the current authentication state.
func (m *SessionManager) State() domainauth.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return domainauth.AuthState{}
	}
	u := cloneUser(m.session.User)
	return domainauth.AuthState{IsAuthenticated: true, User: &u, Principal: u.Principal}
}

// IsAuthenticated reports whether a session is held.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// User returns the current user.
func (m *SessionManager) User() (domainauth.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return domainauth.User{}, false
	}
	return cloneUser(m.session.User), true
}

// Principal returns the current principal, or "".
func (m *SessionManager) Principal() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.User.Principal
}

// Token returns the current bearer token, or "".
func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// SessionID returns the current session identifier, or "".
func (m *SessionManager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.SessionID
}

// DemoMode reports whether the held session is a demo session.
func (m *SessionManager) DemoMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil && m.session.DemoMode
}

// HasPermission reports whether the current user carries permission.
func (m *SessionManager) HasPermission(permission string) bool {
	u, ok := m.User()
	return ok && u.HasPermission(permission)
}

// HasRole reports whether the current user has role.
func (m *SessionManager) HasRole(role domainauth.UserRole) bool {
	u, ok := m.User()
	return ok && u.HasRole(role)
}

// HasAnyRole reports whether the current user has any of roles.
func (m *SessionManager) HasAnyRole(roles ...domainauth.UserRole) bool {
	u, ok := m.User()
	return ok && u.HasAnyRole(roles...)
}

// GetDemoUsers lists the backend's demo identities. Failures yield an empty list.
func (m *SessionManager) GetDemoUsers(ctx context.Context) []domainauth.DemoUser {
	users, err := m.backend.MockUsers(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "list demo users failed", "error", err)
		return []domainauth.DemoUser{}
	}
	if users == nil {
		return []domainauth.DemoUser{}
	}
	return users
}

func cloneUser(u domainauth.User) domainauth.User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}

func (m *SessionManager) emit(transition, result string, d time.Duration, err error) {
	metrics.EmitSessionTransition(m.metrics, metrics.SessionMetric{
		Transition: transition,
		Mode:       m.mode,
		Result:     result,
		Duration:   d,
		Err:        err,
	})
}

func (m *SessionManager) event(ctx context.Context, name string, sess *domainauth.Session, err error) {
	payload := notify.SessionEventPayload{Event: name}
	if sess != nil {
		payload.Principal = sess.User.Principal
		payload.Role = string(sess.User.Role)
		payload.SessionID = sess.SessionID
		payload.DemoMode = sess.DemoMode
	}
	m.eventPayload(ctx, payload, err)
}

func (m *SessionManager) eventPayload(ctx context.Context, payload notify.SessionEventPayload, err error) {
	if m.notifier == nil {
		return
	}
	payload.AuthMode = m.mode
	if err != nil {
		payload.Error = err.Error()
		payload.ErrorClass = obserrors.Classify(err)
	}
	m.notifier.NotifySessionEvent(ctx, payload)
}

// BaseURL returns the backend base URL guarded requests resolve against.
func (m *SessionManager) BaseURL() string { return m.baseURL }

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/observability/metrics"
	"github.com/corruptguard/helix/internal/observability/notify"
)

// Auth header names attached to guarded requests.
const (
	HeaderSessionID   = "X-Session-ID"
	HeaderPrincipalID = "X-Principal-ID"
)

// profileFailure prefixes every GetUserProfile error.
const profileFailure = "Failed to get user profile"

// refreshTimeout bounds one shared refresh exchange.
const refreshTimeout = 30 * time.Second

// RequestOptions describes a guarded API request. Body is replayed on retry.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

// JSONBody encodes v for RequestOptions.Body.
func JSONBody(v any) ([]byte, error) {
	return json.Marshal(v)
}

// AuthHeaders returns the credential headers for the held session, empty when logged out.
func (m *SessionManager) AuthHeaders() http.Header {
	h := http.Header{}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.Token == "" {
		return h
	}
	h.Set("Authorization", "Bearer "+m.session.Token)
	h.Set(HeaderSessionID, m.session.SessionID)
	h.Set(HeaderPrincipalID, m.session.User.Principal)
	return h
}

// APIRequest sends a request with session credentials. On a 401 it refreshes the token once
// and replays the request; a second 401 or a failed refresh yields ErrAuthenticationRequired.
// The caller owns the returned response body.
func (m *SessionManager) APIRequest(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error) {
	resp, err := m.send(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	if !m.RefreshToken(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrAuthenticationRequired
	}

	m.emit(metrics.TransitionRetry, metrics.ResultSuccess, 0, nil)
	resp, err = m.send(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, ErrAuthenticationRequired
	}
	return resp, nil
}

func (m *SessionManager) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	return m.baseURL + endpoint
}

func (m *SessionManager) send(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, vs := range m.AuthHeaders() {
		req.Header[k] = vs
	}
	for k, vs := range opts.Header {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// RefreshToken exchanges the held token for a new one and persists it. Concurrent callers
// share one backend call. Any failure, including holding no token, logs the session out.
//
// The shared call is detached from every caller's cancellation and bounded by
// refreshTimeout instead. A caller whose ctx ends stops waiting and gets false; the
// refresh itself carries on for the others.
func (m *SessionManager) RefreshToken(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	ch := m.refreshes.DoChan("refresh", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return m.refresh(fctx), nil
	})
	select {
	case <-ctx.Done():
		return false
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok
	}
}

func (m *SessionManager) refresh(ctx context.Context) bool {
	start := time.Now()
	m.mu.RLock()
	var snapshot *domainauth.Session
	if m.session != nil {
		s := *m.session
		snapshot = &s
	}
	m.mu.RUnlock()

	if snapshot == nil || snapshot.Token == "" {
		m.emit(metrics.TransitionRefresh, metrics.ResultError, time.Since(start), ErrNotAuthenticated)
		m.Logout(ctx)
		return false
	}

	token, err := m.backend.Refresh(ctx, snapshot.Token)
	if err != nil {
		m.emit(metrics.TransitionRefresh, metrics.ResultError, time.Since(start), err)
		m.logger.WarnContext(ctx, "token refresh failed, logging out", "error", err)
		// ctx may have hit refreshTimeout; cleanup still needs a live context.
		cleanupCtx := context.WithoutCancel(ctx)
		m.event(cleanupCtx, notify.EventForcedLogout, snapshot, err)
		m.Logout(cleanupCtx)
		return false
	}

	m.mu.Lock()
	swapped := m.session != nil && m.session.Token == snapshot.Token
	if swapped {
		m.session.Token = token
	}
	m.mu.Unlock()
	if !swapped {
		// A logout or re-login raced the refresh; the newer state wins.
		return m.IsAuthenticated()
	}

	if err := m.slots.mutate(ctx, func(s *domainauth.Session) { s.Token = token }); err != nil {
		m.logger.ErrorContext(ctx, "persist refreshed token failed", "error", err)
		m.event(ctx, notify.EventStorageFailed, snapshot, err)
	}
	if snapshot.DemoMode {
		if err := m.slots.store.Set(ctx, SlotDemoToken, []byte(token)); err != nil {
			m.logger.WarnContext(ctx, "persist refreshed demo token failed", "error", err)
		}
	}

	m.emit(metrics.TransitionRefresh, metrics.ResultSuccess, time.Since(start), nil)
	m.logger.DebugContext(ctx, "token refreshed", "principal", snapshot.User.Principal)
	return true
}

type profileResponse struct {
	Success bool            `json:"success"`
	Data    domainauth.User `json:"data"`
}

// GetUserProfile fetches the profile through the token guard and replaces the held user with it.
// On failure the held profile is left unchanged.
func (m *SessionManager) GetUserProfile(ctx context.Context) (domainauth.User, error) {
	resp, err := m.APIRequest(ctx, "/auth/profile", RequestOptions{Method: http.MethodGet})
	if err != nil {
		return domainauth.User{}, fmt.Errorf("%s: %w", profileFailure, err)
	}
	defer discard(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domainauth.User{}, fmt.Errorf("%s: %s", profileFailure, resp.Status)
	}
	var out profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domainauth.User{}, fmt.Errorf("%s: decode response: %w", profileFailure, err)
	}
	if !out.Success {
		return domainauth.User{}, errors.New(profileFailure)
	}

	user := out.Data
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return domainauth.User{}, fmt.Errorf("%s: %w", profileFailure, ErrNotAuthenticated)
	}
	if user.Principal == "" {
		user.Principal = m.session.User.Principal
	}
	m.session.User = user
	m.mu.Unlock()

	if err := m.slots.mutate(ctx, func(s *domainauth.Session) { s.User = user }); err != nil {
		m.logger.WarnContext(ctx, "persist profile failed", "error", err)
	}
	return cloneUser(user), nil
}

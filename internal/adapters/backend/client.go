package backend

// Package backend is the REST client for the CorruptGuard authentication API.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"golang.org/x/net/publicsuffix"
)

var _ ports.AuthBackend = (*Client)(nil)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 1024

// Config configures the REST client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client. Its cookie jar is left untouched.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the backend auth endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client with a public-suffix aware cookie jar.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, apperrors.ValidationField("base_url", "backend base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: base, http: hc, logger: logger.With("component", "backend_client")}, nil
}

// BaseURL returns the API root every relative endpoint is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient returns the shared transport so guarded API calls reuse cookies and timeouts.
func (c *Client) HTTPClient() *http.Client { return c.http }

func (c *Client) DemoLogin(ctx context.Context, role domainauth.UserRole) (domainauth.TokenGrant, error) {
	var grant domainauth.TokenGrant
	err := c.do(ctx, "demo login", http.MethodPost, "/auth/demo-login/"+url.PathEscape(string(role)), "", nil, &grant)
	return grant, err
}

func (c *Client) WalletLogin(ctx context.Context, in ports.WalletLoginInput) (domainauth.TokenGrant, error) {
	var grant domainauth.TokenGrant
	err := c.do(ctx, "wallet login", http.MethodPost, "/auth/login/hedera", "", in, &grant)
	return grant, err
}

func (c *Client) Logout(ctx context.Context, in ports.LogoutInput) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", in.Token, in, nil)
}

type verifyResponse struct {
	Data struct {
		Valid bool `json:"valid"`
	} `json:"data"`
}

func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	var out verifyResponse
	if err := c.do(ctx, "verify token", http.MethodPost, "/auth/verify-token", "", map[string]string{"token": token}, &out); err != nil {
		return false, err
	}
	return out.Data.Valid, nil
}

type refreshResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var out refreshResponse
	if err := c.do(ctx, "refresh token", http.MethodPost, "/auth/refresh", token, map[string]string{"token": token}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", apperrors.Unauthenticated("refresh rejected by backend")
	}
	if out.Data.Token == "" {
		return "", apperrors.Unauthenticated("refresh response carried no token")
	}
	return out.Data.Token, nil
}

type mockUsersResponse struct {
	Data struct {
		MockUsers []domainauth.DemoUser `json:"mock_users"`
	} `json:"data"`
}

func (c *Client) MockUsers(ctx context.Context) ([]domainauth.DemoUser, error) {
	var out mockUsersResponse
	if err := c.do(ctx, "list mock users", http.MethodGet, "/auth/dev/mock-users", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Data.MockUsers, nil
}

// do sends a JSON request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "%s request failed", op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.DebugContext(ctx, "backend call failed", "op", op, "status", resp.StatusCode)
		return &ports.StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

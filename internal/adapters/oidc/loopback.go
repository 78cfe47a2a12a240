package oidc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallbackResult is what the identity provider delivers to the redirect URL.
type CallbackResult struct {
	Code  string
	State string
}

// LoopbackReceiver serves the redirect URL on the local machine and captures one callback.
type LoopbackReceiver struct {
	redirect *url.URL
	logger   *slog.Logger
}

// NewLoopbackReceiver validates redirectURL and returns a receiver bound to its host and path.
func NewLoopbackReceiver(redirectURL string, logger *slog.Logger) (*LoopbackReceiver, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("loopback redirect must use http, got %q", u.Scheme)
	}
	host := u.Hostname()
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("redirect host %q is not a loopback address", host)
		}
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoopbackReceiver{redirect: u, logger: logger.With("component", "oidc_loopback")}, nil
}

// Listen binds the redirect address. The returned wait function blocks until the callback
// arrives with a matching state or ctx ends; it always shuts the server down.
func (r *LoopbackReceiver) Listen(ctx context.Context, expectedState string) (func() (CallbackResult, error), error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", r.redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", r.redirect.Host, err)
	}

	results := make(chan CallbackResult, 1)
	failures := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(r.redirect.Path, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "login failed", http.StatusBadRequest)
			select {
			case failures <- fmt.Errorf("identity provider error: %s %s", e, q.Get("error_description")):
			default:
			}
			return
		}
		if q.Get("state") != expectedState {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintln(w, "Login complete. You can close this window.")
		select {
		case results <- CallbackResult{Code: code, State: q.Get("state")}:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			r.logger.Error("loopback server failed", "error", serveErr)
		}
	}()

	wait := func() (CallbackResult, error) {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		select {
		case res := <-results:
			return res, nil
		case err := <-failures:
			return CallbackResult{}, err
		case <-ctx.Done():
			return CallbackResult{}, ctx.Err()
		}
	}
	return wait, nil
}

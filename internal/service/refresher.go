package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"
)

// RefreshTarget is the part of SessionManager the refresher drives.
type RefreshTarget interface {
	IsAuthenticated() bool
	DemoMode() bool
	RefreshToken(ctx context.Context) bool
}

// RefresherOptions configures Refresher.
type RefresherOptions struct {
	Target   RefreshTarget // Required
	Interval time.Duration // Required, > 0
	Logger   *slog.Logger
}

// Refresher renews the held token on a fixed interval while a non-demo session is held.
type Refresher struct {
	target   RefreshTarget
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher constructs a Refresher.
func NewRefresher(opts RefresherOptions) (*Refresher, error) {
	if opts.Target == nil {
		return nil, errors.New("RefreshTarget is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("refresh interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		target:   opts.Target,
		interval: opts.Interval,
		logger:   logger.With("component", "token_refresher"),
	}, nil
}

// Run blocks until ctx is done. It returns nil on cancellation.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting token refresher", "interval", r.interval)
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "token refresher stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one refresh when a refreshable session is held. It reports whether a refresh was attempted.
func (r *Refresher) Tick(ctx context.Context) bool {
	if !r.target.IsAuthenticated() || r.target.DemoMode() {
		return false
	}
	if r.target.RefreshToken(ctx) {
		r.logger.DebugContext(ctx, "scheduled refresh succeeded")
	} else {
		r.logger.WarnContext(ctx, "scheduled refresh failed")
	}
	return true
}

func (r *Refresher) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefreshTarget struct {
	authenticated bool
	demo          bool
	ok            bool
	calls         atomic.Int32
}

func (f *fakeRefreshTarget) IsAuthenticated() bool { return f.authenticated }
func (f *fakeRefreshTarget) DemoMode() bool        { return f.demo }
func (f *fakeRefreshTarget) RefreshToken(context.Context) bool {
	f.calls.Add(1)
	return f.ok
}

func TestNewRefresher_Validation(t *testing.T) {
	_, err := NewRefresher(RefresherOptions{Interval: time.Minute})
	require.Error(t, err)
	_, err = NewRefresher(RefresherOptions{Target: &fakeRefreshTarget{}})
	require.Error(t, err)
}

func TestRefresher_Tick(t *testing.T) {
	tests := []struct {
		name      string
		target    *fakeRefreshTarget
		attempted bool
	}{
		{name: "logged out", target: &fakeRefreshTarget{}},
		{name: "demo session", target: &fakeRefreshTarget{authenticated: true, demo: true}},
		{name: "wallet session", target: &fakeRefreshTarget{authenticated: true, ok: true}, attempted: true},
		{name: "failed refresh", target: &fakeRefreshTarget{authenticated: true}, attempted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRefresher(RefresherOptions{Target: tt.target, Interval: time.Hour})
			require.NoError(t, err)
			assert.Equal(t, tt.attempted, r.Tick(context.Background()))
			if tt.attempted {
				assert.Equal(t, int32(1), tt.target.calls.Load())
			} else {
				assert.Zero(t, tt.target.calls.Load())
			}
		})
	}
}

func TestRefresher_RunRefreshesUntilCanceled(t *testing.T) {
	target := &fakeRefreshTarget{authenticated: true, ok: true}
	r, err := NewRefresher(RefresherOptions{Target: target, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_RunReturnsDeadline(t *testing.T) {
	r, err := NewRefresher(RefresherOptions{Target: &fakeRefreshTarget{}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
}

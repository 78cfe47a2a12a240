package service

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
)

// AuthListener receives every authentication state transition.
type AuthListener func(domainauth.AuthState)

// ListenerHandle identifies one listener registration.
type ListenerHandle uint64

// ListenerFailure records a listener that panicked during notification.
type ListenerFailure struct {
	Handle ListenerHandle
	Panic  any
}

// NotifyResult reports how a notification round went.
type NotifyResult struct {
	Delivered int
	Failures  []ListenerFailure
}

type listenerEntry struct {
	handle ListenerHandle
	fn     AuthListener
}

// listenerRegistry calls listeners synchronously in registration order.
// Listeners run outside the registry lock, so they may add or remove listeners.
type listenerRegistry struct {
	logger *slog.Logger

	mu      sync.Mutex
	next    ListenerHandle
	entries []listenerEntry
}

func newListenerRegistry(logger *slog.Logger) *listenerRegistry {
	return &listenerRegistry{logger: logger}
}

func (r *listenerRegistry) add(fn AuthListener) ListenerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.entries = append(r.entries, listenerEntry{handle: r.next, fn: fn})
	return r.next
}

func (r *listenerRegistry) remove(h ListenerHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.handle == h {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *listenerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *listenerRegistry) notify(ctx context.Context, state domainauth.AuthState) NotifyResult {
	r.mu.Lock()
	snapshot := make([]listenerEntry, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	var res NotifyResult
	for _, e := range snapshot {
		if p, stack := r.call(e.fn, state); p != nil {
			r.logger.ErrorContext(ctx, "auth listener panicked",
				"listener", uint64(e.handle),
				"panic", p,
				"stack", string(stack),
			)
			res.Failures = append(res.Failures, ListenerFailure{Handle: e.handle, Panic: p})
			continue
		}
		res.Delivered++
	}
	return res
}

func (r *listenerRegistry) call(fn AuthListener, state domainauth.AuthState) (recovered any, stack []byte) {
	defer func() {
		if recovered = recover(); recovered != nil {
			stack = debug.Stack()
		}
	}()
	fn(state)
	return nil, nil
}

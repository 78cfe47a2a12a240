// Package filestore is a ports.SessionStore backed by a single JSON file.
// It is the local-storage analogue for single-user installs.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/gofrs/flock"
)

var _ ports.SessionStore = (*Store)(nil)

const lockRetryDelay = 10 * time.Millisecond

// Store keeps all slots in one file. Every operation re-reads the file under an
// advisory lock on a sibling ".lock" file, so processes sharing the path (the agent
// and the admin CLI) never overwrite each other's changes. Mutations replace the
// file atomically. An empty path keeps slots in memory only.
type Store struct {
	path string
	lock *flock.Flock

	mu    sync.Mutex
	slots map[string][]byte // memory stores only
}

// New returns a Store persisting to path.
func New(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// NewMemory returns a Store that never touches the filesystem.
func NewMemory() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Path returns the backing file, or "" for memory stores.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.with(ctx, false, func(slots map[string][]byte) (bool, error) {
		v, ok := slots[key]
		if !ok {
			return false, apperrors.NotFoundf("session slot %q not found", key)
		}
		out = append([]byte(nil), v...)
		return false, nil
	})
	return out, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return apperrors.ValidationField("key", "slot key is required")
	}
	return s.with(ctx, true, func(slots map[string][]byte) (bool, error) {
		slots[key] = append([]byte(nil), value...)
		return true, nil
	})
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.with(ctx, true, func(slots map[string][]byte) (bool, error) {
		changed := false
		for _, k := range keys {
			if _, ok := slots[k]; ok {
				delete(slots, k)
				changed = true
			}
		}
		return changed, nil
	})
}

func (s *Store) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	return s.with(ctx, true, func(slots map[string][]byte) (bool, error) {
		var current []byte
		if v, ok := slots[key]; ok {
			current = append([]byte(nil), v...)
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return false, err
		}
		slots[key] = append([]byte(nil), next...)
		return true, nil
	})
}

// with runs fn over the current slots. When fn reports a change, the slots are written
// back before the lock is released. fn must not change slots when it returns an error.
func (s *Store) with(ctx context.Context, exclusive bool, fn func(map[string][]byte) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		_, err := fn(s.slots)
		return err
	}

	unlock, err := s.acquire(ctx, exclusive)
	if err != nil {
		return err
	}
	defer unlock()

	slots, err := s.read()
	if err != nil {
		return err
	}
	dirty, err := fn(slots)
	if err != nil || !dirty {
		return err
	}
	return s.write(slots)
}

func (s *Store) acquire(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	try := s.lock.TryRLockContext
	if exclusive {
		try = s.lock.TryLockContext
	}
	ok, err := try(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock session file: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock session file: %w", ctx.Err())
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// fileLayout stores raw slot values as strings so the file stays human-readable.
type fileLayout map[string]string

func (s *Store) read() (map[string][]byte, error) {
	slots := make(map[string][]byte)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return slots, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return slots, nil
	}
	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	for k, v := range layout {
		slots[k] = []byte(v)
	}
	return slots, nil
}

func (s *Store) write(slots map[string][]byte) error {
	layout := make(fileLayout, len(slots))
	for k, v := range slots {
		layout[k] = string(v)
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

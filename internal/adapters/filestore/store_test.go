package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s := New(path)
	require.NoError(t, s.Set(ctx, "corruptguard_auth", []byte(`{"token":"t1"}`)))
	require.NoError(t, s.Set(ctx, "demo_user_role", []byte("deputy")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := New(path)
	got, err := reopened.Get(ctx, "corruptguard_auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"t1"}`, string(got))
}

func TestStore_GetMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "session.json"))

	_, err := s.Get(context.Background(), "corruptguard_auth")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := New(path)
	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))

	require.NoError(t, s.Delete(ctx, "a", "b", "missing"))

	_, err := New(path).Get(ctx, "a")
	assert.True(t, apperrors.IsNotFound(err))

	// Deleting nothing is a no-op.
	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "session.json"))

	require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		assert.Nil(t, cur)
		return nil, nil
	}))
	_, err := s.Get(ctx, "k")
	assert.True(t, apperrors.IsNotFound(err), "nil result must not create the slot")

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		return append(cur, "-next"...), nil
	}))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1-next", string(got))
}

func TestStore_UpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, s.Set(ctx, "n", []byte("")))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "n", func(cur []byte) ([]byte, error) {
				return append(cur, 'x'), nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "n")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path).Get(context.Background(), "k")
	assert.ErrorContains(t, err, "decode session file")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
	assert.Empty(t, s.Path())
}

func TestStore_RejectsEmptyKey(t *testing.T) {
	err := NewMemory().Set(context.Background(), "", []byte("v"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestStore_SharedPathSeesOtherInstanceWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	agent := New(path)
	cli := New(path)

	require.NoError(t, agent.Set(ctx, "corruptguard_auth", []byte(`{"token":"t1"}`)))
	require.NoError(t, cli.Delete(ctx, "corruptguard_auth"))
	require.NoError(t, agent.Set(ctx, "demo_access_token", []byte("t2")))

	_, err := New(path).Get(ctx, "corruptguard_auth")
	assert.True(t, apperrors.IsNotFound(err), "deleted slot must stay deleted")
	_, err = agent.Get(ctx, "corruptguard_auth")
	assert.True(t, apperrors.IsNotFound(err))

	got, err := cli.Get(ctx, "demo_access_token")
	require.NoError(t, err)
	assert.Equal(t, "t2", string(got))
}

func TestStore_UpdateConcurrentAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	stores := []*Store{New(path), New(path)}
	require.NoError(t, stores[0].Set(ctx, "n", []byte("")))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			assert.NoError(t, s.Update(ctx, "n", func(cur []byte) ([]byte, error) {
				return append(cur, 'x'), nil
			}))
		}(stores[i%2])
	}
	wg.Wait()

	got, err := New(path).Get(ctx, "n")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestStore_LockHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = holder.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = New(path).Set(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

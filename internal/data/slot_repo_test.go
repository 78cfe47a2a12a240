package data

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRepo_SetGetDelete(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		repo := NewSlotRepo(db, WithClock(func() time.Time { return fixed }))
		ctx := context.Background()

		_, err := repo.Get(ctx, "corruptguard_auth")
		assert.True(t, apperrors.IsNotFound(err))

		require.NoError(t, repo.Set(ctx, "corruptguard_auth", []byte(`{"token":"a"}`)))
		require.NoError(t, repo.Set(ctx, "corruptguard_auth", []byte(`{"token":"b"}`)))
		require.NoError(t, repo.Set(ctx, "demo_user_role", []byte("deputy")))

		got, err := repo.Get(ctx, "corruptguard_auth")
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"b"}`, string(got))

		var updatedAt time.Time
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT updated_at FROM session_slots WHERE key = 'corruptguard_auth'`).Scan(&updatedAt))
		assert.True(t, updatedAt.Equal(fixed))

		require.NoError(t, repo.Delete(ctx, "corruptguard_auth", "demo_user_role", "absent"))
		_, err = repo.Get(ctx, "demo_user_role")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSlotRepo_Update(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewSlotRepo(db)
		ctx := context.Background()

		require.NoError(t, repo.Update(ctx, "k", func(cur []byte) ([]byte, error) {
			assert.Nil(t, cur)
			return []byte("v1"), nil
		}))
		require.NoError(t, repo.Update(ctx, "k", func(cur []byte) ([]byte, error) {
			assert.Equal(t, "v1", string(cur))
			return []byte("v2"), nil
		}))

		boom := errors.New("boom")
		err := repo.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("v3"), boom })
		require.ErrorIs(t, err, boom)

		got, err := repo.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(got))
	})
}

func TestSlotRepo_UpdateSerializes(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewSlotRepo(db)
		ctx := context.Background()
		require.NoError(t, repo.Set(ctx, "counter", []byte{}))

		runner := testutil.NewConcurrentTestRunner(t)
		appendX := func() error {
			return repo.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
				return append(cur, 'x'), nil
			})
		}
		runner.AssertNoErrors(runner.RunConcurrent(appendX, appendX, appendX, appendX))

		got, err := repo.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, "xxxx", string(got))
	})
}

package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corruptguard/helix/internal/data/pgxutil"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/jackc/pgx/v5"
)

var _ ports.SessionStore = (*SlotRepo)(nil)

// SlotRepo stores session slots in the session_slots table.
type SlotRepo struct {
	DB    *sql.DB
	clock func() time.Time
}

// SlotRepoOption customises a SlotRepo.
type SlotRepoOption func(*SlotRepo)

// WithClock overrides the source of updated_at timestamps.
func WithClock(clock func() time.Time) SlotRepoOption {
	return func(r *SlotRepo) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewSlotRepo returns a repository over db. Run migrate.Run first.
func NewSlotRepo(db *sql.DB, opts ...SlotRepoOption) *SlotRepo {
	r := &SlotRepo{DB: db, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const upsertSlotSQL = `
	INSERT INTO session_slots (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

func (r *SlotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM session_slots WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("session slot %q not found", key)
		}
		return nil, fmt.Errorf("get slot %s: %w", key, apperrors.MapDBError(err))
	}
	return value, nil
}

func (r *SlotRepo) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.DB.ExecContext(ctx, upsertSlotSQL, key, value, r.now()); err != nil {
		return fmt.Errorf("set slot %s: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

func (r *SlotRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM session_slots WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("delete slots: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent writers serialize.
// An absent row is not locked; a concurrent insert then surfaces as a Conflict error.
func (r *SlotRepo) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			var current []byte
			scanErr := tx.QueryRow(ctx,
				`SELECT value FROM session_slots WHERE key = $1 FOR UPDATE`, key,
			).Scan(&current)
			exists := scanErr == nil
			if scanErr != nil && !errors.Is(scanErr, pgx.ErrNoRows) {
				return apperrors.MapDBError(scanErr)
			}

			next, fnErr := fn(current)
			if fnErr != nil {
				return fnErr
			}
			if next == nil {
				return nil
			}

			if exists {
				_, execErr := tx.Exec(ctx,
					`UPDATE session_slots SET value = $2, updated_at = $3 WHERE key = $1`,
					key, next, r.now())
				return apperrors.MapDBError(execErr)
			}
			_, execErr := tx.Exec(ctx,
				`INSERT INTO session_slots (key, value, updated_at) VALUES ($1, $2, $3)`,
				key, next, r.now())
			return apperrors.MapDBError(execErr)
		},
	})
	if err != nil {
		return fmt.Errorf("update slot %s: %w", key, err)
	}
	return nil
}

func (r *SlotRepo) now() time.Time {
	return r.clock().UTC()
}

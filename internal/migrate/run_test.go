package migrate_test

import (
	"context"
	"testing"

	"github.com/corruptguard/helix/internal/migrate"
	"github.com/corruptguard/helix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions_Sorted(t *testing.T) {
	versions, err := migrate.Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_create_session_slots", versions[0])
	assert.IsNonDecreasing(t, versions)
}

func TestRun_Idempotent(t *testing.T) {
	db := testutil.SetupAutoDB(t)
	ctx := context.Background()

	// SetupAutoDB already migrated once; a second run must be a no-op.
	applied, err := migrate.Run(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM schema_migrations WHERE version = '0001_create_session_slots'`,
	).Scan(&n))
	assert.Equal(t, 1, n)
}

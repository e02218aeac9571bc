package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/microseis/gridloc/internal/timeutil"
)

// newTestDB opens a migrated database in a per-test temp dir with a pinned
// clock.
func newTestDB(t *testing.T) (*DB, *timeutil.MockClock) {
	t.Helper()

	handle, err := NewDB(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { handle.Close() })

	require.NoError(t, handle.MigrateUp())

	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	handle.SetClock(clock)
	return handle, clock
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	handle, _ := newTestDB(t)

	version, dirty, err := handle.MigrateVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	// Up is idempotent at the latest version.
	require.NoError(t, handle.MigrateUp())

	// Down then up restores the schema.
	require.NoError(t, handle.MigrateDown())
	version, _, err = handle.MigrateVersion()
	require.NoError(t, err)
	require.Equal(t, uint(0), version)
	require.NoError(t, handle.MigrateUp())

	_, err = handle.CreateJob("w.gwf", "{}")
	require.NoError(t, err)
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microseis/gridloc/internal/db"
	"github.com/microseis/gridloc/internal/testutil"
	"github.com/microseis/gridloc/internal/timeutil"
	"github.com/microseis/gridloc/internal/waveform"
)

func TestProcessNextEmptyQueue(t *testing.T) {
	t.Parallel()

	r := New(testutil.NewDB(t), testutil.Site(), testutil.Params())
	processed, err := r.ProcessNext()
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessNextLocatesEvents(t *testing.T) {
	t.Parallel()

	store := testutil.NewDB(t)
	path, _ := testutil.WriteSyntheticRecord(t, t.TempDir())

	job, err := store.CreateJob(path, "{}")
	require.NoError(t, err)

	r := New(store, testutil.Site(), testutil.Params())
	processed, err := r.ProcessNext()
	require.NoError(t, err)
	require.True(t, processed)

	got, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusFinished, got.Status)

	locations, err := store.JobLocations(job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, locations)
	for _, loc := range locations {
		assert.InDelta(t, 0.0, loc.X, 1e-6)
		assert.InDelta(t, 0.0, loc.Y, 1e-6)
		assert.InDelta(t, -500.0, loc.Z, 1e-6)
		assert.Equal(t, 0.0, loc.Misfit)
	}

	logs, err := store.JobLogs(job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)

	cube, ok := r.Cube(job.ID)
	require.True(t, ok)
	assert.Equal(t, len(locations), cube.Events)
	assert.Len(t, cube.Cube, cube.Events*cube.Grid.NodeCount())
}

func TestProcessNextJobOverrides(t *testing.T) {
	t.Parallel()

	store := testutil.NewDB(t)
	path, _ := testutil.WriteSyntheticRecord(t, t.TempDir())

	// Per-job overrides shrink the search grid; the true node stays on the
	// lattice, so the events still locate exactly.
	job, err := store.CreateJob(path, `{"grid_nx": 2, "grid_ny": 2, "grid_nz": 2}`)
	require.NoError(t, err)

	r := New(store, testutil.Site(), testutil.Params())
	processed, err := r.ProcessNext()
	require.NoError(t, err)
	require.True(t, processed)

	got, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusFinished, got.Status)

	locations, err := store.JobLocations(job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, locations)
	for _, loc := range locations {
		assert.InDelta(t, -500.0, loc.Z, 1e-6)
		assert.Equal(t, 0.0, loc.Misfit)
	}

	cube, ok := r.Cube(job.ID)
	require.True(t, ok)
	assert.Equal(t, 8, cube.Grid.NodeCount())
}

func TestProcessNextFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing waveform", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewDB(t)
		job, err := store.CreateJob("/does/not/exist.gwf", "{}")
		require.NoError(t, err)

		r := New(store, testutil.Site(), testutil.Params())
		processed, err := r.ProcessNext()
		require.NoError(t, err)
		require.True(t, processed)

		got, err := store.GetJob(job.ID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusFailed, got.Status)
		require.NotNil(t, got.Error)
	})

	t.Run("invalid parameter override", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewDB(t)
		path, _ := testutil.WriteSyntheticRecord(t, t.TempDir())
		job, err := store.CreateJob(path, `{"accuracy": -1}`)
		require.NoError(t, err)

		r := New(store, testutil.Site(), testutil.Params())
		processed, err := r.ProcessNext()
		require.NoError(t, err)
		require.True(t, processed)

		got, err := store.GetJob(job.ID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusFailed, got.Status)
	})

	t.Run("station count mismatch", func(t *testing.T) {
		t.Parallel()
		store := testutil.NewDB(t)

		dir := t.TempDir()
		path := dir + "/short.gwf"
		header := waveform.Header{Stations: 2, Samples: 50, Frequency: 10}
		require.NoError(t, waveform.WriteFile(path, header, make([]float32, 100)))

		job, err := store.CreateJob(path, "{}")
		require.NoError(t, err)

		r := New(store, testutil.Site(), testutil.Params())
		processed, err := r.ProcessNext()
		require.NoError(t, err)
		require.True(t, processed)

		got, err := store.GetJob(job.ID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusFailed, got.Status)
		require.NotNil(t, got.Error)
		assert.Contains(t, *got.Error, "stations")
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	r := New(testutil.NewDB(t), testutil.Site(), testutil.Params())
	r.SetClock(timeutil.NewMockClock(time.Unix(0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

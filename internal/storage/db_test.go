package storage

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/forge/internal/build"
	"github.com/stolasapp/forge/internal/storage/db"
)

func TestDB(t *testing.T) {
	t.Parallel()

	store, err := NewDB(t.Context(), filepath.Join(t.TempDir(), "nested", "history.sqlite"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2025, 3, 4, 5, 6, 7, 8, time.UTC)

	t.Run("CreateRun", func(t *testing.T) {
		t.Parallel()

		run := db.Run{
			Name:       t.Name(),
			Version:    "1.2.3",
			Kind:       "js",
			Inputs:     []string{"src/a.js", "src/b.js"},
			Output:     "dist/app.js",
			Status:     "succeeded",
			Files:      1,
			Bytes:      42,
			Digest:     "abc",
			Compared:   map[string]bool{"DEBUG": true},
			StartedAt:  base,
			FinishedAt: base.Add(time.Second),
		}
		created, err := store.CreateRun(t.Context(), run)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		actual, err := store.GetRun(t.Context(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, actual)
		assert.Equal(t, time.Second, actual.Elapsed())
	})

	t.Run("GetRun", func(t *testing.T) {
		t.Parallel()

		_, err := store.GetRun(t.Context(), 1)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListRuns", func(t *testing.T) {
		t.Parallel()

		name := t.Name()
		res, err := store.ListRuns(t.Context(), name, 10)
		require.NoError(t, err)
		assert.Empty(t, res)

		for idx := range 3 {
			_, err = store.CreateRun(t.Context(), db.Run{
				Name:       name,
				Output:     "out",
				Status:     "succeeded",
				StartedAt:  base.Add(time.Duration(idx) * time.Minute),
				FinishedAt: base.Add(time.Duration(idx) * time.Minute),
			})
			require.NoError(t, err)
		}

		res, err = store.ListRuns(t.Context(), name, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, base.Add(2*time.Minute), res[0].StartedAt)
		assert.Equal(t, base.Add(time.Minute), res[1].StartedAt)

		all, err := store.ListRuns(t.Context(), "", 100)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)
	})
}

func TestDB_PruneRuns(t *testing.T) {
	t.Parallel()

	store, err := NewDB(t.Context(), filepath.Join(t.TempDir(), "history.sqlite"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, time.Hour, 48 * time.Hour} {
		_, err = store.CreateRun(t.Context(), db.Run{
			Name:       "app",
			Output:     "out",
			Status:     "succeeded",
			StartedAt:  base.Add(offset),
			FinishedAt: base.Add(offset),
		})
		require.NoError(t, err)
	}

	removed, err := store.PruneRuns(t.Context(), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	res, err := store.ListRuns(t.Context(), "app", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, base.Add(48*time.Hour), res[0].StartedAt)
}

func TestDB_Record(t *testing.T) {
	t.Parallel()

	store, err := NewDB(t.Context(), filepath.Join(t.TempDir(), "history.sqlite"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	start := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	id, err := store.Record(t.Context(), build.Record{
		Name:     "styles",
		Kind:     build.KindCSS,
		Inputs:   []string{"src/a.css", "src/b.css"},
		Output:   "dist/app.css",
		Start:    start,
		End:      start.Add(250 * time.Millisecond),
		Status:   build.StatusFailed,
		Compared: map[string]bool{"/* legacy */": false, "@import": true},
		Error:    "boom",
	})
	require.NoError(t, err)

	run, err := store.GetRun(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "styles", run.Name)
	assert.Equal(t, "css", run.Kind)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, []string{"src/a.css", "src/b.css"}, run.Inputs)
	assert.Equal(t, map[string]bool{"/* legacy */": false, "@import": true}, run.Compared)
	assert.True(t, start.Equal(run.StartedAt))
	assert.Equal(t, 250*time.Millisecond, run.Elapsed())
}

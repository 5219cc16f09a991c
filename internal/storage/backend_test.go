package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/spine-editor/internal/config"
)

// backends returns a fresh instance of every implementation.
func backends(t *testing.T) map[string]StorageBackend {
	t.Helper()

	badgerBackend, cleanup := setupTestBadgerBackend(t)
	t.Cleanup(cleanup)

	memory := NewMemoryBackend()
	require.NoError(t, memory.Initialize("", false))

	return map[string]StorageBackend{
		"Badger": badgerBackend,
		"Memory": memory,
	}
}

func at(minute int) time.Time {
	return time.Date(2026, 10, 18, 12, minute, 0, 0, time.UTC)
}

func TestStorageBackend_SaveEdit(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			rec := &EditRecord{
				Source:       "hero.json",
				Operation:    "clean",
				RemovedSlots: []string{"ghost"},
			}
			require.NoError(t, backend.SaveEdit(ctx, rec))
			assert.NotEmpty(t, rec.ID)
			assert.False(t, rec.CreatedAt.IsZero())

			got, err := backend.GetEdit(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.Source, got.Source)
			assert.Equal(t, "clean", got.Operation)
			assert.Equal(t, []string{"ghost"}, got.RemovedSlots)
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestStorageBackend_SaveEdit_KeepsIDAndTime(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			rec := &EditRecord{ID: "fixed", Source: "a.json", Operation: "scale", CreatedAt: at(5)}
			require.NoError(t, backend.SaveEdit(ctx, rec))
			assert.Equal(t, "fixed", rec.ID)
			assert.Equal(t, at(5), rec.CreatedAt)
		})
	}
}

func TestStorageBackend_GetEdit_NotFound(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := backend.GetEdit(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrEditNotFound)
		})
	}
}

func TestStorageBackend_ListEdits(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			for _, rec := range []*EditRecord{
				{ID: "1", Source: "a.json", Operation: "clean", CreatedAt: at(1)},
				{ID: "2", Source: "b.json", Operation: "clean", CreatedAt: at(2)},
				{ID: "3", Source: "a.json", Operation: "scale", CreatedAt: at(3)},
				{ID: "4", Source: "a.json:x", Operation: "clean", CreatedAt: at(4)},
			} {
				require.NoError(t, backend.SaveEdit(ctx, rec))
			}

			ids := func(recs []*EditRecord) []string {
				out := make([]string, len(recs))
				for i, r := range recs {
					out[i] = r.ID
				}
				return out
			}

			recs, err := backend.ListEdits(ctx, "a.json")
			require.NoError(t, err)
			assert.Equal(t, []string{"3", "1"}, ids(recs))

			recs, err = backend.ListEdits(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"4", "3", "2", "1"}, ids(recs))

			recs, err = backend.ListEdits(ctx, "none.json")
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestStorageBackend_DeleteEdits(t *testing.T) {
	t.Parallel()

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			require.NoError(t, backend.SaveEdit(ctx, &EditRecord{Source: "a.json", Operation: "clean"}))
			require.NoError(t, backend.SaveEdit(ctx, &EditRecord{Source: "a.json", Operation: "scale"}))
			require.NoError(t, backend.SaveEdit(ctx, &EditRecord{Source: "b.json", Operation: "clean"}))

			n, err := backend.DeleteEdits(ctx, "a.json")
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			recs, err := backend.ListEdits(ctx, "")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "b.json", recs[0].Source)

			n, err = backend.DeleteEdits(ctx, "a.json")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestMemoryBackend_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := NewMemoryBackend()

	rec := &EditRecord{Source: "a.json", Operation: "clean", RemovedSlots: []string{"ghost"}}
	require.NoError(t, backend.SaveEdit(ctx, rec))
	rec.RemovedSlots[0] = "changed"

	got, err := backend.GetEdit(ctx, rec.ID)
	require.NoError(t, err)
	got.RemovedSlots = append(got.RemovedSlots, "extra")

	again, err := backend.GetEdit(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, again.RemovedSlots)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("InMemory", func(t *testing.T) {
		t.Parallel()
		b, err := Open(config.StorageConfig{InMemory: true}, false)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &MemoryBackend{}, b)
	})

	t.Run("Badger", func(t *testing.T) {
		t.Parallel()
		b, err := Open(config.StorageConfig{Path: filepath.Join(t.TempDir(), "history")}, false)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &BadgerBackend{}, b)
	})
}

package sqlite

import (
	"context"
	"testing"

	"github.com/sandevgo/screenmate/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidatedRepo_InsertAndSearch(t *testing.T) {
	repo := NewConsolidatedRepo(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Insert(ctx, core.ConsolidatedMemory{
		Content:   "Summary of 3 related notes (backups): check logs",
		SourceIDs: []int64{1, 2, 3},
		Timestamp: 100,
		Topics:    []string{"backups"},
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.SearchContent(ctx, "backups", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int64{1, 2, 3}, got[0].SourceIDs)
	assert.Equal(t, []string{"backups"}, got[0].Topics)
	assert.Equal(t, 0, got[0].AccessCount)

	got, err = repo.SearchContent(ctx, "unrelated", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsolidatedRepo_TouchAndRecency(t *testing.T) {
	repo := NewConsolidatedRepo(newTestDB(t))
	ctx := context.Background()

	first, err := repo.Insert(ctx, core.ConsolidatedMemory{Content: "first", Timestamp: 10})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, core.ConsolidatedMemory{Content: "second", Timestamp: 20})
	require.NoError(t, err)

	require.NoError(t, repo.Touch(ctx, first, 30))
	require.NoError(t, repo.Touch(ctx, first, 40))

	got, err := repo.RecentlyAccessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, 2, got[0].AccessCount)
	assert.Equal(t, 40.0, got[0].LastAccessed)
}

func TestConsolidatedRepo_DeleteStale(t *testing.T) {
	repo := NewConsolidatedRepo(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Insert(ctx, core.ConsolidatedMemory{Content: "stale", Timestamp: 10})
	require.NoError(t, err)
	accessed, err := repo.Insert(ctx, core.ConsolidatedMemory{Content: "accessed", Timestamp: 10})
	require.NoError(t, err)
	require.NoError(t, repo.Touch(ctx, accessed, 11))
	require.NoError(t, repo.Touch(ctx, accessed, 12))
	_, err = repo.Insert(ctx, core.ConsolidatedMemory{Content: "recent", Timestamp: 200})
	require.NoError(t, err)

	deleted, err := repo.DeleteStale(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := repo.SearchContent(ctx, "stale", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

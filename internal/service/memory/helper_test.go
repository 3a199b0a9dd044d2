package memory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.NewDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestSystem(t *testing.T, cfg *config.MemoryConfig) (*System, *sql.DB) {
	t.Helper()

	if cfg == nil {
		cfg = &config.MemoryConfig{
			RelevanceThreshold:     0.6,
			ConsolidationThreshold: 10,
			RetentionDays:          30,
			DedupeCacheSize:        100,
			QueueSize:              64,
			EconomyMode:            true,
		}
	}

	db := newTestDB(t)
	system := NewSystem(
		cfg,
		sqlite.NewInsightsRepo(db),
		sqlite.NewConsolidatedRepo(db),
		sqlite.NewProfileRepo(db),
		sqlite.NewJournalRepo(db),
		nil,
	)
	return system, db
}

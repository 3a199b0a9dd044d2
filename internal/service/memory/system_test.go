package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/internal/storage/sqlite"
	"github.com/sandevgo/screenmate/pkg/srv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem_StoreInsight_TaggedPath(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	result, err := s.StoreInsight(ctx, StoreRequest{
		Content: "random note that would never clear scoring on its own!!",
		Source:  core.SourceSeed,
		Topics:  []string{"notes"},
	})
	require.NoError(t, err)
	require.Equal(t, core.StoreStored, result.Status)

	ins, found, err := s.GetInsight(ctx, result.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.8, ins.RelevanceScore, 1e-9)
	assert.Equal(t, []string{"notes"}, ins.Topics)
	assert.False(t, ins.IsConsolidated)
}

func TestSystem_StoreInsight_TooShortRejected(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	result, err := s.StoreInsight(ctx, StoreRequest{Content: "ok", AnalyzeNow: true})
	require.NoError(t, err)
	assert.Equal(t, core.StoreRejected, result.Status)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalInsights)
}

func TestSystem_StoreInsight_DuplicateRejected(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	req := StoreRequest{
		Content: "You should rotate the staging credentials before the audit",
		Topics:  []string{"security"},
	}

	first, err := s.StoreInsight(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, core.StoreStored, first.Status)

	second, err := s.StoreInsight(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, core.StoreRejected, second.Status)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInsights)
}

func TestSystem_StoreInsight_BelowThresholdRejected(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	// Clears the content filter (length) but not the 0.6 relevance gate.
	result, err := s.StoreInsight(ctx, StoreRequest{
		Content:    "a long meandering paragraph about nothing in particular today",
		AnalyzeNow: true,
	})
	require.NoError(t, err)
	assert.Equal(t, core.StoreRejected, result.Status)
}

func TestSystem_StoreInsight_ScoredPathEndToEnd(t *testing.T) {
	// The weighted formula tops out well below the default 0.6 gate for
	// content without profile or history, so the scored path is exercised
	// with a lowered threshold.
	s, _ := newTestSystem(t, &config.MemoryConfig{
		RelevanceThreshold:     0.1,
		ConsolidationThreshold: 10,
		DedupeCacheSize:        100,
		QueueSize:              64,
		EconomyMode:            true,
	})
	ctx := context.Background()

	result, err := s.StoreInsight(ctx, StoreRequest{
		Content:    "You should submit the quarterly report by Friday, it's important",
		Source:     core.SourceCapture,
		AppName:    "Mail",
		AnalyzeNow: true,
	})
	require.NoError(t, err)
	require.Equal(t, core.StoreStored, result.Status)

	ins, found, err := s.GetInsight(ctx, result.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.GreaterOrEqual(t, ins.RelevanceScore, 0.1)
	assert.Contains(t, ins.Topics, "friday")

	memories, err := s.RetrieveRelevant(ctx, "", "friday planning session", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, memories)
	assert.Equal(t, result.ID, memories[0].ID)
}

func TestSystem_RetrieveRelevant_TouchesAccessCount(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	result, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should renew the TLS certificate for the blog",
		Topics:  []string{"tls", "blog"},
	})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		memories, err := s.RetrieveRelevant(ctx, "certificate", "", "", 5)
		require.NoError(t, err)
		require.NotEmpty(t, memories)

		ins, found, err := s.GetInsight(ctx, result.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, i, ins.AccessCount)
		assert.Greater(t, ins.LastAccessed, 0.0)
	}
}

func TestSystem_RetrieveRelevant_PriorityOrder(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	mustStore := func(content, app string, topics []string) int64 {
		res, err := s.StoreInsight(ctx, StoreRequest{Content: content, AppName: app, Topics: topics})
		require.NoError(t, err)
		require.Equal(t, core.StoreStored, res.Status)
		return res.ID
	}

	queryID := mustStore("notes about the migration runbook rollout", "Terminal", []string{"migration"})
	topicID := mustStore("the gardening calendar says prune roses in spring", "Safari", []string{"gardening"})
	appID := mustStore("scratch buffer contents with assorted thoughts", "Obsidian", []string{"scratch"})

	// Explicit query wins.
	got, err := s.RetrieveRelevant(ctx, "runbook", "", "Obsidian", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, queryID, got[0].ID)

	// Context topics beat the app fallback.
	got, err = s.RetrieveRelevant(ctx, "", "gardening advice needed", "Obsidian", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, topicID, got[0].ID)

	// App fallback when context yields no topics.
	got, err = s.RetrieveRelevant(ctx, "", "a an or", "Obsidian", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, appID, got[0].ID)
}

func TestSystem_RetrieveRelevant_PadsWithConsolidated(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	_, err := s.consolidated.Insert(ctx, core.ConsolidatedMemory{
		Content:   "Summary of past kitchen renovation research",
		SourceIDs: []int64{101, 102, 103},
		Timestamp: core.NowUnix(),
		Topics:    []string{"renovation"},
	})
	require.NoError(t, err)

	memories, err := s.RetrieveRelevant(ctx, "renovation", "", "", 5)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, core.KindConsolidated, memories[0].Kind)
	assert.Equal(t, []int64{101, 102, 103}, memories[0].SourceIDs)
}

func TestSystem_ClearOld_ConjunctiveGates(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	old := core.NowUnix() - 90*86400

	// Old, low relevance, never accessed: deletable.
	staleID, err := s.insights.Insert(ctx, core.Insight{
		Content: "stale low value note", Timestamp: old, RelevanceScore: 0.6,
	})
	require.NoError(t, err)

	// Old but high relevance: kept.
	keepRelevantID, err := s.insights.Insert(ctx, core.Insight{
		Content: "old but precious", Timestamp: old, RelevanceScore: 0.9,
	})
	require.NoError(t, err)

	// Old, low relevance, frequently accessed: kept.
	keepAccessedID, err := s.insights.Insert(ctx, core.Insight{
		Content: "old but often used", Timestamp: old, RelevanceScore: 0.6,
	})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.insights.Touch(ctx, keepAccessedID, core.NowUnix()))
	}

	// Recent: kept regardless.
	recentID, err := s.insights.Insert(ctx, core.Insight{
		Content: "fresh low value note", Timestamp: core.NowUnix(), RelevanceScore: 0.6,
	})
	require.NoError(t, err)

	deleted, err := s.ClearOld(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, found, err := s.GetInsight(ctx, staleID)
	require.NoError(t, err)
	assert.False(t, found)

	for _, id := range []int64{keepRelevantID, keepAccessedID, recentID} {
		_, found, err := s.GetInsight(ctx, id)
		require.NoError(t, err)
		assert.True(t, found)
	}
}

func TestSystem_AllCategoriesIncludesGeneral(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	_, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should book the flights for the conference next month",
		Topics:  []string{"travel", "conference"},
	})
	require.NoError(t, err)

	categories, err := s.AllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "conference", "travel"}, categories)
}

func TestSystem_AllTopicsIdempotent(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	seeds := []struct {
		content string
		topics  []string
	}{
		{"You should write down the generics refactor idea", []string{"go", "testing"}},
		{"You should benchmark the allocation hot path next week", []string{"go"}},
		{"You should vacuum the database after the bulk import", []string{"sqlite"}},
	}
	for _, seed := range seeds {
		_, err := s.StoreInsight(ctx, StoreRequest{Content: seed.content, Topics: seed.topics})
		require.NoError(t, err)
	}

	first, err := s.AllTopics(ctx)
	require.NoError(t, err)
	second, err := s.AllTopics(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first["go"])
	assert.Equal(t, 1, first["sqlite"])
}

func TestSystem_UpdateInsightCategoryAppendsOnce(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	res, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should re-check the smoke test flakiness on CI",
		Topics:  []string{"ci"},
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		found, err := s.UpdateInsightCategory(ctx, res.ID, "testing")
		require.NoError(t, err)
		assert.True(t, found)
	}

	ins, _, err := s.GetInsight(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ci", "testing"}, ins.Topics)

	found, err := s.UpdateInsightCategory(ctx, 9999, "testing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSystem_SearchMemories_MinQueryLength(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	results, err := s.SearchMemories(ctx, "ab", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSystem_AddJournalEntry_SynthesizesInsight(t *testing.T) {
	s, _ := newTestSystem(t, nil)
	ctx := context.Background()

	id, err := s.AddJournalEntry(ctx,
		"Garden progress",
		"Planted the tomato seedlings today and set up the drip irrigation lines along the back fence.",
		"happy",
		[]string{"garden"},
	)
	require.NoError(t, err)

	entry, found, err := s.GetJournalEntry(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Garden progress", entry.Title)
	assert.Equal(t, "happy", entry.Mood)

	// The derived insight is pre-tagged, so it lands synchronously.
	insights, err := s.SearchMemories(ctx, "Journal Entry: Garden progress", 10)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, core.SourceJournal, insights[0].Source)
	assert.Equal(t, "journal", insights[0].AppName)
	assert.InDelta(t, 0.8, insights[0].RelevanceScore, 1e-9)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("alpha beta", "beta alpha"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("alpha", "beta"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("", "beta"), 1e-9)

	// two shared words, four total distinct
	got := Similarity("red green blue", "red green yellow")
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestSystem_WorkerProcessesQueuedStores(t *testing.T) {
	s, _ := newTestSystem(t, &config.MemoryConfig{
		RelevanceThreshold:     0.1,
		ConsolidationThreshold: 100,
		DedupeCacheSize:        100,
		QueueSize:              64,
		EconomyMode:            true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(done)
	}()

	result, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should remember to send the meeting notes to Dana Fields",
		AppName: "Mail",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StoreQueued, result.Status)

	require.Eventually(t, func() bool {
		stats, err := s.Stats(context.Background())
		return err == nil && stats.TotalInsights == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestSystem_ShutdownAppliesPendingJobs(t *testing.T) {
	s, _ := newTestSystem(t, &config.MemoryConfig{
		RelevanceThreshold:     0.1,
		ConsolidationThreshold: 100,
		DedupeCacheSize:        100,
		QueueSize:              64,
		EconomyMode:            true,
	})
	ctx := context.Background()

	// No worker running; the store sits in the queue.
	result, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should remember to renew the passport before the trip",
		AppName: "Safari",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StoreQueued, result.Status)

	require.NoError(t, s.Shutdown(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInsights)
}

func TestSystem_ShutdownServicesDrainsBeforeDBClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.NewDB(context.Background(), dbPath)
	require.NoError(t, err)

	s := NewSystem(
		&config.MemoryConfig{
			RelevanceThreshold:     0.1,
			ConsolidationThreshold: 100,
			DedupeCacheSize:        100,
			QueueSize:              64,
			EconomyMode:            true,
		},
		sqlite.NewInsightsRepo(db),
		sqlite.NewConsolidatedRepo(db),
		sqlite.NewProfileRepo(db),
		sqlite.NewJournalRepo(db),
		nil,
	)

	// Same registration order as the application wiring: the database
	// cleanup is registered before the memory system that uses it.
	services := []srv.Service{srv.NewCleanup(db.Close), s}

	ctx, cancel := context.WithCancel(context.Background())
	result, err := s.StoreInsight(ctx, StoreRequest{
		Content: "You should archive the contract drafts tonight, it is important.",
		AppName: "Mail",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StoreQueued, result.Status)

	cancel()
	srv.ShutdownServices(ctx, services)

	// The drained insight must survive the restart.
	reopened, err := sqlite.NewDB(context.Background(), dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := sqlite.NewInsightsRepo(reopened).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSystem_ConsolidationTriggersAtThreshold(t *testing.T) {
	s, db := newTestSystem(t, &config.MemoryConfig{
		RelevanceThreshold:     0.1,
		ConsolidationThreshold: 10,
		DedupeCacheSize:        100,
		QueueSize:              64,
		EconomyMode:            true,
	})
	consolidated := sqlite.NewConsolidatedRepo(db)
	ctx := context.Background()

	subjects := []string{
		"alpha", "bravo", "charlie", "delta", "echo",
		"foxtrot", "golf", "hotel", "india", "juliet",
	}

	store := func(i int) {
		result, err := s.StoreInsight(ctx, StoreRequest{
			Content:    fmt.Sprintf("You should check the Atlas backup job %s today, it is important.", subjects[i]),
			AppName:    "Terminal",
			AnalyzeNow: true,
		})
		require.NoError(t, err)
		require.Equal(t, core.StoreStored, result.Status)
	}

	for i := 0; i < 9; i++ {
		store(i)
	}
	require.NoError(t, s.Shutdown(ctx)) // apply anything queued

	count, err := consolidated.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "below the threshold nothing consolidates")

	unconsolidated, err := s.insights.CountUnconsolidated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, unconsolidated)

	store(9)
	require.NoError(t, s.Shutdown(ctx)) // run the queued consolidation pass

	count, err = consolidated.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	memories, err := consolidated.RecentlyAccessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Len(t, memories[0].SourceIDs, 10)

	for _, id := range memories[0].SourceIDs {
		ins, err := s.insights.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, ins.IsConsolidated)
	}

	unconsolidated, err = s.insights.CountUnconsolidated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unconsolidated)

	// The consolidation pass also refreshed the profile.
	profile, err := s.profiles.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.NotEmpty(t, profile.Interests)
}

package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/pkg/log"
)

// Relevance assigned to pre-tagged content, which bypasses scoring.
const taggedRelevance = 0.8

const defaultMaxTopics = 3

type jobKind int

const (
	jobStore jobKind = iota
	jobConsolidate
	jobUpdateProfile
)

type job struct {
	kind      jobKind
	candidate core.Insight
}

// StoreRequest is a candidate insight arriving from the capture pipeline,
// the journal, or the presentation layer.
type StoreRequest struct {
	Content    string
	Source     string
	Context    string
	AppName    string
	Topics     []string // pre-tagged content skips scoring entirely
	AnalyzeNow bool     // score and store synchronously instead of queueing
}

// System is the smart memory facade. It owns the intake gate, scoring,
// topic indexing, retrieval and the single background worker that drains
// store/consolidate/profile-update jobs in FIFO order.
type System struct {
	cfg          *config.MemoryConfig
	insights     core.InsightRepository
	consolidated core.ConsolidatedRepository
	profiles     core.ProfileRepository
	journal      core.JournalRepository

	filter       *ContentFilter
	scorer       *Scorer
	consolidator *Consolidator
	updater      *ProfileUpdater

	jobs chan job
}

func NewSystem(
	cfg *config.MemoryConfig,
	insights core.InsightRepository,
	consolidated core.ConsolidatedRepository,
	profiles core.ProfileRepository,
	journal core.JournalRepository,
	provider core.InsightProvider,
) *System {
	return &System{
		cfg:          cfg,
		insights:     insights,
		consolidated: consolidated,
		profiles:     profiles,
		journal:      journal,
		filter:       NewContentFilter(cfg.DedupeCacheSize),
		scorer:       NewScorer(insights, profiles),
		consolidator: NewConsolidator(insights, consolidated, provider, cfg.EconomyMode),
		updater:      NewProfileUpdater(insights, profiles),
		jobs:         make(chan job, cfg.QueueSize),
	}
}

// Start drains the job queue until the context is cancelled. A failed job
// is logged and the worker moves on; it never takes the process down.
func (s *System) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting memory worker")

	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.jobs:
			if err := s.runJob(ctx, j); err != nil {
				logger.Error().Err(err).Int("kind", int(j.kind)).Msg("memory job failed")
			}
		}
	}
}

// Shutdown applies whatever is still queued so accepted insights are not
// lost across a restart. The worker has already stopped by the time the
// service runner calls this, and the runner's context is already cancelled.
func (s *System) Shutdown(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case j := <-s.jobs:
			if err := s.runJob(ctx, j); err != nil {
				log.FromCtx(ctx).Error().Err(err).Int("kind", int(j.kind)).Msg("memory job failed during shutdown")
			}
		default:
			return nil
		}
	}
}

func (s *System) runJob(ctx context.Context, j job) error {
	switch j.kind {
	case jobStore:
		_, err := s.analyzeAndStore(ctx, j.candidate)
		return err
	case jobConsolidate:
		if err := s.consolidator.Run(ctx); err != nil {
			return err
		}
		s.enqueue(ctx, job{kind: jobUpdateProfile})
		return nil
	case jobUpdateProfile:
		return s.updater.Update(ctx)
	default:
		return fmt.Errorf("unknown job kind %d", j.kind)
	}
}

func (s *System) enqueue(ctx context.Context, j job) {
	select {
	case s.jobs <- j:
	default:
		log.FromCtx(ctx).Warn().Int("kind", int(j.kind)).Msg("memory queue full, dropping job")
	}
}

// StoreInsight runs the intake path: dedupe and quick relevance first, then
// either the explicit-topics bypass (stored immediately at a fixed high
// relevance) or scoring against the threshold. Without AnalyzeNow the
// scored path is queued and the caller gets StoreQueued.
func (s *System) StoreInsight(ctx context.Context, req StoreRequest) (core.StoreResult, error) {
	if !s.filter.ShouldAccept(req.Content, req.AppName) {
		return core.StoreResult{Status: core.StoreRejected}, nil
	}

	candidate := core.Insight{
		Content:   req.Content,
		Source:    req.Source,
		Timestamp: core.NowUnix(),
		Context:   req.Context,
		AppName:   req.AppName,
	}

	if len(req.Topics) > 0 {
		candidate.Topics = req.Topics
		candidate.RelevanceScore = taggedRelevance

		id, err := s.insights.Insert(ctx, candidate)
		if err != nil {
			return core.StoreResult{}, fmt.Errorf("store tagged insight: %w", err)
		}
		return core.StoreResult{Status: core.StoreStored, ID: id}, nil
	}

	if req.AnalyzeNow {
		return s.analyzeAndStoreResult(ctx, candidate)
	}

	s.enqueue(ctx, job{kind: jobStore, candidate: candidate})
	return core.StoreResult{Status: core.StoreQueued}, nil
}

func (s *System) analyzeAndStoreResult(ctx context.Context, candidate core.Insight) (core.StoreResult, error) {
	id, err := s.analyzeAndStore(ctx, candidate)
	if err != nil {
		return core.StoreResult{}, err
	}
	if id == 0 {
		return core.StoreResult{Status: core.StoreRejected}, nil
	}
	return core.StoreResult{Status: core.StoreStored, ID: id}, nil
}

// analyzeAndStore scores the candidate and stores it when it clears the
// relevance threshold. Returns 0 when the candidate was dropped.
func (s *System) analyzeAndStore(ctx context.Context, candidate core.Insight) (int64, error) {
	score := s.scorer.Score(ctx, candidate.Content, candidate.Context, candidate.AppName)
	if score < s.cfg.RelevanceThreshold {
		log.FromCtx(ctx).Debug().Float64("score", score).Msg("insight below relevance threshold")
		return 0, nil
	}

	candidate.RelevanceScore = score
	candidate.Topics = ExtractTopics(candidate.Content, defaultMaxTopics)

	id, err := s.insights.Insert(ctx, candidate)
	if err != nil {
		return 0, fmt.Errorf("store insight: %w", err)
	}

	s.maybeTriggerConsolidation(ctx)
	return id, nil
}

func (s *System) maybeTriggerConsolidation(ctx context.Context) {
	count, err := s.insights.CountUnconsolidated(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to count unconsolidated insights")
		return
	}
	if count >= s.cfg.ConsolidationThreshold {
		s.enqueue(ctx, job{kind: jobConsolidate})
	}
}

// RetrieveRelevant serves the memories most relevant to the current moment.
// An explicit query outranks context-derived topics, which outrank the app
// fallback; with nothing to go on it returns recent high-relevance entries.
// Results are padded with consolidated memories when short, and every
// returned record has its access count bumped.
func (s *System) RetrieveRelevant(ctx context.Context, query, contextText, appName string, limit int) ([]core.RetrievedMemory, error) {
	if limit <= 0 {
		limit = 5
	}

	var (
		insights []core.Insight
		err      error
	)

	switch {
	case query != "":
		insights, err = s.insights.SearchContent(ctx, query, limit)
	case contextText != "":
		topics := QuickTopics(contextText)
		if len(topics) > 0 {
			insights, err = s.insights.SearchTopics(ctx, topics, limit)
		} else {
			insights, err = s.insights.ByApp(ctx, appName, limit)
		}
	default:
		insights, err = s.insights.TopRelevant(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve insights: %w", err)
	}

	results := make([]core.RetrievedMemory, 0, limit)
	for _, ins := range insights {
		results = append(results, insightView(ins))
	}

	if len(results) < limit {
		remaining := limit - len(results)

		var memories []core.ConsolidatedMemory
		if query != "" {
			memories, err = s.consolidated.SearchContent(ctx, query, remaining)
		} else {
			memories, err = s.consolidated.RecentlyAccessed(ctx, remaining)
		}
		if err != nil {
			return nil, fmt.Errorf("retrieve consolidated: %w", err)
		}
		for _, mem := range memories {
			results = append(results, consolidatedView(mem))
		}
	}

	now := core.NowUnix()
	for _, r := range results {
		var touchErr error
		if r.Kind == core.KindConsolidated {
			touchErr = s.consolidated.Touch(ctx, r.ID, now)
		} else {
			touchErr = s.insights.Touch(ctx, r.ID, now)
		}
		if touchErr != nil {
			log.FromCtx(ctx).Warn().Err(touchErr).Int64("id", r.ID).Msg("failed to bump access count")
		}
	}

	return results, nil
}

// ClearOld deletes insights older than the threshold that are also
// low-relevance and rarely accessed, plus stale consolidated memories.
// Age alone never deletes anything.
func (s *System) ClearOld(ctx context.Context, daysThreshold int) (int64, error) {
	before := core.NowUnix() - float64(daysThreshold)*86400

	deleted, err := s.insights.DeleteStale(ctx, before)
	if err != nil {
		return 0, err
	}

	consolidatedDeleted, err := s.consolidated.DeleteStale(ctx, before)
	if err != nil {
		return deleted, err
	}

	return deleted + consolidatedDeleted, nil
}

func (s *System) Stats(ctx context.Context) (core.MemoryStats, error) {
	var stats core.MemoryStats
	var err error

	if stats.TotalInsights, err = s.insights.Count(ctx); err != nil {
		return stats, err
	}
	if stats.ConsolidatedCount, err = s.consolidated.Count(ctx); err != nil {
		return stats, err
	}
	if stats.AvgRelevance, err = s.insights.AvgRelevance(ctx); err != nil {
		return stats, err
	}

	topics, err := s.insights.AllTopics(ctx)
	if err != nil {
		return stats, err
	}
	stats.TopTopics = rankTopics(topics, 5)
	return stats, nil
}

func (s *System) AllTopics(ctx context.Context) (map[string]int, error) {
	return s.insights.AllTopics(ctx)
}

// AllCategories returns every distinct topic plus the always-present
// "General" bucket, sorted.
func (s *System) AllCategories(ctx context.Context) ([]string, error) {
	topics, err := s.insights.AllTopics(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(topics)+1)
	for topic := range topics {
		set[topic] = struct{}{}
	}
	set["General"] = struct{}{}

	categories := make([]string, 0, len(set))
	for category := range set {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories, nil
}

// SearchMemories matches content or captured context. Queries shorter than
// three characters return nothing.
func (s *System) SearchMemories(ctx context.Context, query string, limit int) ([]core.Insight, error) {
	if len([]rune(query)) < 3 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.insights.SearchText(ctx, query, limit)
}

func (s *System) FilteredInsights(ctx context.Context, since float64, category string, limit int) ([]core.Insight, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.insights.Filtered(ctx, since, category, limit)
}

func (s *System) RecentInsights(ctx context.Context, limit int) ([]core.Insight, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.insights.Recent(ctx, limit)
}

func (s *System) GetInsight(ctx context.Context, id int64) (core.Insight, bool, error) {
	ins, err := s.insights.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Insight{}, false, nil
	}
	if err != nil {
		return core.Insight{}, false, err
	}
	return ins, true, nil
}

func (s *System) UpdateInsightContent(ctx context.Context, id int64, content string) error {
	return s.insights.UpdateContent(ctx, id, content)
}

// UpdateInsightCategory appends the category to the insight's topic list if
// absent. Existing topics are never removed, so repeated recategorization
// accumulates.
func (s *System) UpdateInsightCategory(ctx context.Context, id int64, category string) (bool, error) {
	ins, found, err := s.GetInsight(ctx, id)
	if err != nil || !found {
		return false, err
	}

	for _, topic := range ins.Topics {
		if topic == category {
			return true, nil
		}
	}

	topics := append(ins.Topics, category)
	if err := s.insights.UpdateTopics(ctx, id, topics); err != nil {
		return false, err
	}
	return true, nil
}

func (s *System) DeleteInsight(ctx context.Context, id int64) error {
	return s.insights.Delete(ctx, id)
}

// AddJournalEntry stores the entry and synthesizes a derived insight so the
// journal participates in retrieval and topic indexing.
func (s *System) AddJournalEntry(ctx context.Context, title, content, mood string, tags []string) (int64, error) {
	now := core.NowUnix()
	id, err := s.journal.Add(ctx, core.JournalEntry{
		Title:        title,
		Content:      content,
		Mood:         mood,
		Tags:         tags,
		Timestamp:    now,
		LastModified: now,
	})
	if err != nil {
		return 0, err
	}

	topics := ExtractTopics(content, defaultMaxTopics)
	derived := StoreRequest{
		Content: fmt.Sprintf("Journal Entry: %s\n%s...", title, truncateRunes(content, 200)),
		Source:  core.SourceJournal,
		Context: content,
		AppName: "journal",
		Topics:  topics,
	}
	if _, err := s.StoreInsight(ctx, derived); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Int64("entry", id).Msg("failed to index journal entry")
	}

	return id, nil
}

func (s *System) JournalEntries(ctx context.Context, limit, offset int, mood, tag string) ([]core.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.journal.List(ctx, limit, offset, mood, tag)
}

func (s *System) GetJournalEntry(ctx context.Context, id int64) (core.JournalEntry, bool, error) {
	entry, err := s.journal.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.JournalEntry{}, false, nil
	}
	if err != nil {
		return core.JournalEntry{}, false, err
	}
	return entry, true, nil
}

func (s *System) UpdateJournalEntry(ctx context.Context, id int64, upd core.JournalUpdate) error {
	return s.journal.Update(ctx, id, upd)
}

func (s *System) DeleteJournalEntry(ctx context.Context, id int64) error {
	return s.journal.Delete(ctx, id)
}

func (s *System) JournalStats(ctx context.Context) (core.JournalStats, error) {
	return s.journal.Stats(ctx)
}

// Similarity is a plain word-overlap (Jaccard) measure between two texts.
func Similarity(text1, text2 string) float64 {
	words1 := wordSet(text1)
	words2 := wordSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func insightView(ins core.Insight) core.RetrievedMemory {
	return core.RetrievedMemory{
		ID:             ins.ID,
		Kind:           core.KindInsight,
		Content:        ins.Content,
		Topics:         ins.Topics,
		RelevanceScore: ins.RelevanceScore,
		Timestamp:      ins.Timestamp,
		Source:         ins.Source,
		AppName:        ins.AppName,
		AccessCount:    ins.AccessCount,
	}
}

func consolidatedView(mem core.ConsolidatedMemory) core.RetrievedMemory {
	return core.RetrievedMemory{
		ID:          mem.ID,
		Kind:        core.KindConsolidated,
		Content:     mem.Content,
		Topics:      mem.Topics,
		Timestamp:   mem.Timestamp,
		SourceIDs:   mem.SourceIDs,
		AccessCount: mem.AccessCount,
	}
}

func rankTopics(counts map[string]int, limit int) []core.TopicCount {
	ranked := make([]core.TopicCount, 0, len(counts))
	for topic, count := range counts {
		ranked = append(ranked, core.TopicCount{Topic: topic, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

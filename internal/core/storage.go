package core

import "context"

type InsightRepository interface {
	Insert(ctx context.Context, ins Insight) (int64, error)
	GetByID(ctx context.Context, id int64) (Insight, error)
	Recent(ctx context.Context, limit int) ([]Insight, error)

	// Retrieval query shapes, in falling priority order.
	SearchContent(ctx context.Context, query string, limit int) ([]Insight, error)
	SearchTopics(ctx context.Context, topics []string, limit int) ([]Insight, error)
	ByApp(ctx context.Context, appName string, limit int) ([]Insight, error)
	TopRelevant(ctx context.Context, limit int) ([]Insight, error)

	// SearchText matches content or the raw captured context.
	SearchText(ctx context.Context, query string, limit int) ([]Insight, error)
	Filtered(ctx context.Context, since float64, category string, limit int) ([]Insight, error)

	Unconsolidated(ctx context.Context) ([]Insight, error)
	CountUnconsolidated(ctx context.Context) (int, error)
	MarkConsolidated(ctx context.Context, ids []int64) error

	Touch(ctx context.Context, id int64, when float64) error
	MeanTopicEngagement(ctx context.Context, topic string) (float64, error)
	CountByApp(ctx context.Context, appName string) (int, error)

	UpdateContent(ctx context.Context, id int64, content string) error
	UpdateTopics(ctx context.Context, id int64, topics []string) error
	Delete(ctx context.Context, id int64) error
	DeleteStale(ctx context.Context, before float64) (int64, error)

	Count(ctx context.Context) (int, error)
	AvgRelevance(ctx context.Context) (float64, error)
	AllTopics(ctx context.Context) (map[string]int, error)
	FrequentApps(ctx context.Context, limit int) ([]string, error)
}

type ConsolidatedRepository interface {
	Insert(ctx context.Context, mem ConsolidatedMemory) (int64, error)
	SearchContent(ctx context.Context, query string, limit int) ([]ConsolidatedMemory, error)
	RecentlyAccessed(ctx context.Context, limit int) ([]ConsolidatedMemory, error)
	Touch(ctx context.Context, id int64, when float64) error
	DeleteStale(ctx context.Context, before float64) (int64, error)
	Count(ctx context.Context) (int, error)
}

// ProfileRepository holds the singleton user profile row.
type ProfileRepository interface {
	Get(ctx context.Context) (*UserProfile, error) // nil when no profile exists yet
	Save(ctx context.Context, profile UserProfile) error
}

type JournalUpdate struct {
	Title   *string
	Content *string
	Mood    *string
	Tags    *[]string
}

type JournalRepository interface {
	Add(ctx context.Context, entry JournalEntry) (int64, error)
	GetByID(ctx context.Context, id int64) (JournalEntry, error)
	List(ctx context.Context, limit, offset int, mood, tag string) ([]JournalEntry, error)
	Update(ctx context.Context, id int64, upd JournalUpdate) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (JournalStats, error)
}

package core

import "time"

const (
	MateName      = "ScreenMate"
	MateUserAgent = "ScreenMate-Agent/0.1"
	MateVersion   = "0.1.0"
)

// Insight sources.
const (
	SourceCapture = "screen_analysis"
	SourceJournal = "journal"
	SourceSeed    = "sample_seed"
)

// Timestamps are stored as REAL seconds since epoch, matching the on-disk
// schema. Sub-second precision is kept.
func NowUnix() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Insight is a single stored observation that passed relevance filtering.
type Insight struct {
	ID             int64    `json:"id"`
	Content        string   `json:"content"`
	Source         string   `json:"source,omitempty"`
	Timestamp      float64  `json:"timestamp"`
	RelevanceScore float64  `json:"relevance_score"`
	Context        string   `json:"context,omitempty"`
	AppName        string   `json:"app_name,omitempty"`
	Topics         []string `json:"topics"`
	IsConsolidated bool     `json:"is_consolidated"`
	AccessCount    int      `json:"access_count"`
	LastAccessed   float64  `json:"last_accessed,omitempty"`
}

// ConsolidatedMemory is a generated summary replacing a topic-cohesive
// group of at least three insights.
type ConsolidatedMemory struct {
	ID           int64    `json:"id"`
	Content      string   `json:"content"`
	SourceIDs    []int64  `json:"source_ids"`
	Timestamp    float64  `json:"timestamp"`
	Topics       []string `json:"topics"`
	AccessCount  int      `json:"access_count"`
	LastAccessed float64  `json:"last_accessed,omitempty"`
}

// UserProfile is the singleton aggregate derived from memory history.
// It is fully overwritten on every profile-update cycle.
type UserProfile struct {
	Interests    []string `json:"interests"`
	CommonTasks  []string `json:"common_tasks"`
	FrequentApps []string `json:"frequent_apps"`
	LastUpdated  float64  `json:"last_updated"`
}

type JournalEntry struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Mood         string   `json:"mood,omitempty"`
	Tags         []string `json:"tags"`
	Timestamp    float64  `json:"timestamp"`
	LastModified float64  `json:"last_modified"`
}

// Snapshot is what the screen/context source hands us: OCR text plus the
// foreground application at capture time.
type Snapshot struct {
	Text      string  `json:"text"`
	AppName   string  `json:"app_name,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

// StoreStatus tells the caller what happened to a candidate insight.
// Rejection is a normal outcome, not an error.
type StoreStatus string

const (
	StoreStored   StoreStatus = "stored"
	StoreQueued   StoreStatus = "queued"
	StoreRejected StoreStatus = "rejected"
)

type StoreResult struct {
	Status StoreStatus
	ID     int64 // valid only when Status == StoreStored
}

// Retrieval kinds.
const (
	KindInsight      = "insight"
	KindConsolidated = "consolidated"
)

// RetrievedMemory is the flattened view served by the retrieval layer,
// covering both plain insights and consolidated summaries.
type RetrievedMemory struct {
	ID             int64    `json:"id"`
	Kind           string   `json:"kind"`
	Content        string   `json:"content"`
	Topics         []string `json:"topics"`
	RelevanceScore float64  `json:"relevance_score,omitempty"`
	Timestamp      float64  `json:"timestamp"`
	Source         string   `json:"source,omitempty"`
	AppName        string   `json:"app_name,omitempty"`
	SourceIDs      []int64  `json:"source_ids,omitempty"`
	AccessCount    int      `json:"access_count"`
}

type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type MemoryStats struct {
	TotalInsights     int          `json:"total_memories"`
	ConsolidatedCount int          `json:"consolidated_memories"`
	AvgRelevance      float64      `json:"avg_relevance"`
	TopTopics         []TopicCount `json:"top_topics"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type JournalStats struct {
	TotalEntries     int            `json:"total_entries"`
	MoodDistribution map[string]int `json:"mood_distribution"`
	TopTags          []TagCount     `json:"top_tags"`
}

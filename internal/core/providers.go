package core

import "context"

// InsightProvider is the LLM collaborator. Failures are transient: callers
// log, fall back to local substitutes and retry on the next cycle.
type InsightProvider interface {
	// GetInsight turns captured screen text (plus recent input context)
	// into a short observation worth remembering.
	GetInsight(ctx context.Context, screenText, inputContext string) (string, error)

	// Summarize condenses the contents of a topic-cohesive memory group
	// into a single consolidated summary.
	Summarize(ctx context.Context, contents []string, topics []string) (string, error)
}

// ContextSource supplies screen snapshots on demand. Empty text is a valid
// answer and is rejected downstream by the content filter length rule.
type ContextSource interface {
	Capture(ctx context.Context) (Snapshot, error)
}

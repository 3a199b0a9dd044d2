package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/pkg/log"
)

const (
	// Groups smaller than this are left alone; a summary of one or two
	// notes would not buy anything.
	minGroupSize = 3

	// Token budget for the concatenated member contents handed to the
	// summarizer.
	summaryInputBudget = 3000
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

// Consolidator merges topic-cohesive groups of unconsolidated insights into
// single summaries. Grouping is a greedy single pass over newest-first
// insights: each insight joins the first existing group whose topic set
// intersects its own, growing that group's topic set as it goes. The result
// is order-dependent on purpose; it mirrors the established behavior and
// keeps partitions reproducible for a fixed insert order.
type Consolidator struct {
	insights     core.InsightRepository
	consolidated core.ConsolidatedRepository
	provider     core.InsightProvider
	economy      bool
}

func NewConsolidator(
	insights core.InsightRepository,
	consolidated core.ConsolidatedRepository,
	provider core.InsightProvider,
	economy bool,
) *Consolidator {
	return &Consolidator{
		insights:     insights,
		consolidated: consolidated,
		provider:     provider,
		economy:      economy,
	}
}

type topicGroup struct {
	topics  []string
	members []core.Insight
}

func (g *topicGroup) overlaps(topics []string) bool {
	for _, t := range topics {
		for _, gt := range g.topics {
			if t == gt {
				return true
			}
		}
	}
	return false
}

func (g *topicGroup) absorb(ins core.Insight) {
	g.members = append(g.members, ins)
	for _, t := range ins.Topics {
		found := false
		for _, gt := range g.topics {
			if t == gt {
				found = true
				break
			}
		}
		if !found {
			g.topics = append(g.topics, t)
		}
	}
}

func (c *Consolidator) Run(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	unconsolidated, err := c.insights.Unconsolidated(ctx)
	if err != nil {
		return fmt.Errorf("load unconsolidated insights: %w", err)
	}

	groups := groupByTopicOverlap(unconsolidated)

	for _, group := range groups {
		if len(group.members) < minGroupSize {
			continue
		}

		summary := c.summarize(ctx, group)
		if summary == "" {
			// Left unconsolidated, retried on the next trigger.
			continue
		}

		ids := make([]int64, 0, len(group.members))
		for _, m := range group.members {
			ids = append(ids, m.ID)
		}

		if _, err := c.consolidated.Insert(ctx, core.ConsolidatedMemory{
			Content:   summary,
			SourceIDs: ids,
			Timestamp: core.NowUnix(),
			Topics:    group.topics,
		}); err != nil {
			return fmt.Errorf("store consolidated memory: %w", err)
		}

		if err := c.insights.MarkConsolidated(ctx, ids); err != nil {
			return fmt.Errorf("mark consolidated: %w", err)
		}

		logger.Info().Int("members", len(ids)).Strs("topics", group.topics).Msg("memories consolidated")
	}

	return nil
}

func groupByTopicOverlap(insights []core.Insight) []*topicGroup {
	var groups []*topicGroup

	for _, ins := range insights {
		if len(ins.Topics) == 0 {
			continue
		}

		assigned := false
		for _, group := range groups {
			if group.overlaps(ins.Topics) {
				group.absorb(ins)
				assigned = true
				break
			}
		}
		if !assigned {
			groups = append(groups, &topicGroup{
				topics:  append([]string(nil), ins.Topics...),
				members: []core.Insight{ins},
			})
		}
	}

	return groups
}

// summarize asks the LLM collaborator for a summary, falling back to a
// local digest on failure or in economy mode. An empty return means the
// group is skipped this cycle.
func (c *Consolidator) summarize(ctx context.Context, group *topicGroup) string {
	contents := make([]string, 0, len(group.members))
	for _, m := range group.members {
		contents = append(contents, m.Content)
	}

	if c.economy || c.provider == nil {
		return localSummary(contents, group.topics)
	}

	capped := capTokens(contents, summaryInputBudget)
	summary, err := c.provider.Summarize(ctx, capped, group.topics)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("summary generation failed, using local fallback")
		return localSummary(contents, group.topics)
	}
	return strings.TrimSpace(summary)
}

// localSummary is the deterministic no-API substitute: the leading sentence
// of each member, stitched together under the group's topics.
func localSummary(contents, topics []string) string {
	leads := make([]string, 0, len(contents))
	for _, content := range contents {
		if lead := firstSentence(content); lead != "" {
			leads = append(leads, lead)
		}
	}
	if len(leads) == 0 {
		return ""
	}
	return fmt.Sprintf("Summary of %d related notes (%s): %s",
		len(contents), strings.Join(topics, ", "), strings.Join(leads, " "))
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?\n"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return text
}

// capTokens trims the content list so the combined token count stays inside
// the budget; a member that would overflow the budget is truncated rather
// than dropped when it is the first one.
func capTokens(contents []string, budget int) []string {
	enc := getTokenizer()
	if enc == nil {
		return contents
	}

	var capped []string
	used := 0
	for _, content := range contents {
		ids := enc.Encode(content, nil, nil)
		if used+len(ids) > budget {
			if len(capped) == 0 && budget > 0 {
				capped = append(capped, enc.Decode(ids[:budget]))
			}
			break
		}
		capped = append(capped, content)
		used += len(ids)
	}
	return capped
}

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tk = nil
		}
	})
	return tk
}

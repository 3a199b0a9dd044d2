package memory

import (
	"context"
	"regexp"
	"strings"

	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/pkg/log"
)

var taskKeywords = []string{
	"task", "todo", "deadline", "project", "remember",
	"important", "meeting", "call", "email",
}

// Specific details (dates, times, amounts, proper names) tend to be more
// useful than vague text; the first matching pattern earns the bonus once.
var specificityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+[\/\-\.]\d+[\/\-\.]\d+\b`),
	regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
	regexp.MustCompile(`\$\d+`),
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`),
}

// Scorer estimates how useful an insight will be later. Four independent
// sub-scores are combined as 0.4*rule + 0.3*interest + 0.2*historical +
// 0.1*app and clamped to [0,1]. The historical and app components read the
// store; read failures degrade that component to zero instead of failing
// the ingestion path.
type Scorer struct {
	insights core.InsightRepository
	profiles core.ProfileRepository
}

func NewScorer(insights core.InsightRepository, profiles core.ProfileRepository) *Scorer {
	return &Scorer{insights: insights, profiles: profiles}
}

func (s *Scorer) Score(ctx context.Context, content, contextText, appName string) float64 {
	rule := ruleScore(content)
	interest := s.interestScore(ctx, content)
	historical := s.historicalScore(ctx, content)
	app := s.appScore(ctx, appName)

	score := rule*0.4 + interest*0.3 + historical*0.2 + app*0.1
	return clamp01(score)
}

func ruleScore(content string) float64 {
	score := 0.0
	lower := strings.ToLower(content)

	for _, keyword := range taskKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.2
			break
		}
	}

	for _, pattern := range specificityPatterns {
		if pattern.MatchString(content) {
			score += 0.15
			break
		}
	}

	if strings.Contains(lower, "you") || strings.Contains(lower, "your") {
		score += 0.1
	}
	return score
}

func (s *Scorer) interestScore(ctx context.Context, content string) float64 {
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load profile for scoring")
		return 0
	}
	if profile == nil {
		return 0
	}

	lower := strings.ToLower(content)
	for _, interest := range profile.Interests {
		if strings.Contains(lower, strings.ToLower(interest)) {
			return 0.3
		}
	}
	return 0
}

func (s *Scorer) historicalScore(ctx context.Context, content string) float64 {
	topics := QuickTopics(content)
	if len(topics) == 0 {
		return 0
	}

	total := 0.0
	for _, topic := range topics {
		engagement, err := s.insights.MeanTopicEngagement(ctx, topic)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("topic", topic).Msg("topic engagement query failed")
			continue
		}
		total += engagement
	}

	avg := total / float64(len(topics))
	return min(0.3, avg*0.1)
}

func (s *Scorer) appScore(ctx context.Context, appName string) float64 {
	if appName == "" {
		return 0
	}

	count, err := s.insights.CountByApp(ctx, appName)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("app", appName).Msg("app count query failed")
		return 0
	}
	return min(0.2, float64(count)*0.02)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

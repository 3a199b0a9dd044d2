package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandevgo/screenmate/internal/core"
)

const (
	profileSampleSize  = 100
	profileMaxTopics   = 10
	profileMaxFreqApps = 5
)

// ProfileUpdater rebuilds the singleton user profile from recent memory
// history. The profile is an aggregate, not an archive: each update fully
// overwrites interests and frequent apps from the current window, so stale
// interests age out naturally. CommonTasks is carried over untouched.
type ProfileUpdater struct {
	insights core.InsightRepository
	profiles core.ProfileRepository
}

func NewProfileUpdater(insights core.InsightRepository, profiles core.ProfileRepository) *ProfileUpdater {
	return &ProfileUpdater{insights: insights, profiles: profiles}
}

func (u *ProfileUpdater) Update(ctx context.Context) error {
	recent, err := u.insights.Recent(ctx, profileSampleSize)
	if err != nil {
		return fmt.Errorf("load recent insights: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	apps, err := u.insights.FrequentApps(ctx, profileMaxFreqApps)
	if err != nil {
		return fmt.Errorf("load frequent apps: %w", err)
	}

	existing, err := u.profiles.Get(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	profile := core.UserProfile{
		Interests:    topInterests(recent, profileMaxTopics),
		FrequentApps: apps,
		LastUpdated:  core.NowUnix(),
	}
	if existing != nil {
		profile.CommonTasks = existing.CommonTasks
	}

	if err := u.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// topInterests flattens the topics of the sampled insights and ranks them by
// frequency, ties broken by first occurrence.
func topInterests(insights []core.Insight, limit int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	seq := 0

	for _, ins := range insights {
		for _, topic := range ins.Topics {
			if _, ok := counts[topic]; !ok {
				firstSeen[topic] = seq
				seq++
			}
			counts[topic]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for topic := range counts {
		ranked = append(ranked, topic)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

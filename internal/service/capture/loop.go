package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/internal/service/memory"
	"github.com/sandevgo/screenmate/pkg/log"
)

const (
	tickInterval = time.Second

	// Last few exchanges handed to the provider so its observations stay
	// grounded in the ongoing session.
	exchangeWindow = 5
)

// Loop polls the context source and runs each new snapshot through the
// provider and into the memory system. It ticks every second but only
// analyzes when the configured interval has elapsed, so interval changes
// take effect without restarting the loop.
type Loop struct {
	source   core.ContextSource
	provider core.InsightProvider
	system   *memory.System
	interval time.Duration
	economy  bool

	exchanges []string
}

func NewLoop(
	source core.ContextSource,
	provider core.InsightProvider,
	system *memory.System,
	interval time.Duration,
	economy bool,
) *Loop {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Loop{
		source:   source,
		provider: provider,
		system:   system,
		interval: interval,
		economy:  economy,
	}
}

func (l *Loop) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "capture_loop").Logger()
	logger.Info().Dur("interval", l.interval).Msg("starting capture loop")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var lastAnalysis time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down capture loop")
			return nil
		case <-ticker.C:
			if time.Since(lastAnalysis) < l.interval {
				continue
			}
			lastAnalysis = time.Now()

			if err := l.analyzeOnce(ctx); err != nil {
				logger.Error().Err(err).Msg("capture cycle failed")
			}
		}
	}
}

func (l *Loop) Shutdown(ctx context.Context) error {
	return nil
}

func (l *Loop) analyzeOnce(ctx context.Context) error {
	snap, err := l.source.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	if strings.TrimSpace(snap.Text) == "" {
		return nil
	}

	insight, err := l.observe(ctx, snap)
	if err != nil {
		return fmt.Errorf("analyze snapshot: %w", err)
	}
	if insight == "" {
		return nil
	}

	l.remember(insight)

	result, err := l.system.StoreInsight(ctx, memory.StoreRequest{
		Content: insight,
		Source:  core.SourceCapture,
		Context: snap.Text,
		AppName: snap.AppName,
	})
	if err != nil {
		return fmt.Errorf("store insight: %w", err)
	}

	log.FromCtx(ctx).Debug().
		Str("status", string(result.Status)).
		Str("app", snap.AppName).
		Msg("snapshot analyzed")
	return nil
}

// observe turns raw screen text into a short observation. Economy mode (or a
// missing provider) skips the API and hands the snapshot text straight to
// the memory system, whose own filter and scorer decide whether it is worth
// keeping.
func (l *Loop) observe(ctx context.Context, snap core.Snapshot) (string, error) {
	if l.economy || l.provider == nil {
		return localObservation(snap), nil
	}

	insight, err := l.provider.GetInsight(ctx, snap.Text, l.recentContext())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(insight), nil
}

func localObservation(snap core.Snapshot) string {
	text := strings.TrimSpace(snap.Text)
	if snap.AppName != "" {
		return fmt.Sprintf("Observed in %s: %s", snap.AppName, text)
	}
	return text
}

func (l *Loop) remember(insight string) {
	l.exchanges = append(l.exchanges, insight)
	if len(l.exchanges) > exchangeWindow {
		l.exchanges = l.exchanges[len(l.exchanges)-exchangeWindow:]
	}
}

func (l *Loop) recentContext() string {
	return strings.Join(l.exchanges, "\n")
}

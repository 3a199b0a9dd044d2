package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/screenmate/pkg/log"
)

type MemoryConfig struct {
	// Insights scoring below this are not stored.
	RelevanceThreshold float64 `env:"RELEVANCE_THRESHOLD" envDefault:"0.6"`

	// Unconsolidated-insight count that triggers a consolidation pass.
	ConsolidationThreshold int `env:"CONSOLIDATION_THRESHOLD" envDefault:"10"`

	RetentionDays   int `env:"RETENTION_DAYS" envDefault:"30"`
	DedupeCacheSize int `env:"DEDUPE_CACHE_SIZE" envDefault:"100"`
	QueueSize       int `env:"MEMORY_QUEUE_SIZE" envDefault:"256"`

	// EconomyMode disables every LLM collaborator call, forcing the
	// local-only processing paths.
	EconomyMode bool `env:"ECONOMY_MODE" envDefault:"false"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	return c
}

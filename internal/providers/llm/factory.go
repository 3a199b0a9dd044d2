package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/pkg/log"
)

// NewProvider creates the InsightProvider selected by configuration.
// Provider-specific config (API keys) is only parsed for the chosen one.
func NewProvider(ctx context.Context, provider string) (core.InsightProvider, error) {
	switch provider {
	case "anthropic":
		cfg := config.NewAnthropicConfig(ctx)
		logProvider(ctx, provider, cfg.Model)
		return NewAnthropic(cfg.APIKey, cfg.Model), nil
	case "openrouter":
		cfg := config.NewOpenRouterConfig(ctx)
		logProvider(ctx, provider, cfg.Model)
		return NewOpenRouter(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

func logProvider(ctx context.Context, provider, model string) {
	log.FromCtx(ctx).Info().
		Str("provider", provider).
		Str("model", model).
		Msg("starting llm provider")
}

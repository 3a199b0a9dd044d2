package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/screenmate/pkg/log"
)

type AnthropicConfig struct {
	APIKey string `env:"ANTHROPIC_API_KEY,required,notEmpty"`
	Model  string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
}

func NewAnthropicConfig(ctx context.Context) *AnthropicConfig {
	c := &AnthropicConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Anthropic config")
	}
	return c
}

type OpenRouterConfig struct {
	APIKey string `env:"OPENROUTER_API_KEY,required,notEmpty"`
	Model  string `env:"OPENROUTER_MODEL,required,notEmpty" envDefault:"google/gemma-3-27b-it:free"`
}

func NewOpenRouterConfig(ctx context.Context) *OpenRouterConfig {
	c := &OpenRouterConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenRouter config")
	}
	return c
}

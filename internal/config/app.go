package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/sandevgo/screenmate/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"SCREENMATE_RUNTIME_PATH" envDefault:".screenmate"`
	// Allow selecting the provider
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"anthropic"`

	// Capture loop
	EnableCapture    bool          `env:"ENABLE_CAPTURE" envDefault:"true"`
	AnalysisInterval time.Duration `env:"ANALYSIS_INTERVAL" envDefault:"10s"`

	// Presentation
	EnableMCP bool `env:"ENABLE_MCP" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	path := c.RuntimePath
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "memory.db")
}

func (c AppConfig) GetSnapshotPath() string {
	return filepath.Join(c.GetRuntimePath(), "snapshots.jsonl")
}

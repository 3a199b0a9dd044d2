package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/internal/core"
	captureprov "github.com/sandevgo/screenmate/internal/providers/capture"
	"github.com/sandevgo/screenmate/internal/providers/llm"
	"github.com/sandevgo/screenmate/internal/service/capture"
	"github.com/sandevgo/screenmate/internal/service/memory"
	"github.com/sandevgo/screenmate/internal/storage/sqlite"
	mcptransport "github.com/sandevgo/screenmate/internal/transport/mcp"
	"github.com/sandevgo/screenmate/pkg/log"
	"github.com/sandevgo/screenmate/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	// 3. LLM provider. Economy mode runs fully local, no provider at all.
	var provider core.InsightProvider
	if !memCfg.EconomyMode {
		provider, err = llm.NewProvider(ctx, appCfg.LLMProvider)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
		}
	}

	// 4. Memory system and its background worker
	system := memory.NewSystem(
		memCfg,
		sqlite.NewInsightsRepo(db),
		sqlite.NewConsolidatedRepo(db),
		sqlite.NewProfileRepo(db),
		sqlite.NewJournalRepo(db),
		provider,
	)
	services = append(services, system)

	// 5. Capture loop
	if appCfg.EnableCapture {
		source := captureprov.NewFileSource(appCfg.GetSnapshotPath())
		loop := capture.NewLoop(source, provider, system, appCfg.AnalysisInterval, memCfg.EconomyMode)
		services = append(services, loop)
	}

	// 6. MCP transport
	if appCfg.EnableMCP {
		services = append(services, mcptransport.NewServer(system))
	}

	return services
}

// newSystem wires a memory system for one-shot commands (stats, search,
// clean) without starting the background services. The returned closer
// releases the database.
func newSystem(ctx context.Context) (*memory.System, func(), error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, nil, err
	}

	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}

	system := memory.NewSystem(
		memCfg,
		sqlite.NewInsightsRepo(db),
		sqlite.NewConsolidatedRepo(db),
		sqlite.NewProfileRepo(db),
		sqlite.NewJournalRepo(db),
		nil,
	)
	return system, func() { _ = db.Close() }, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/screenmate/internal/config"
	"github.com/sandevgo/screenmate/pkg/env"
	"github.com/sandevgo/screenmate/pkg/log"
	"github.com/spf13/cobra"
)

var (
	initProvider string
	initAPIKey   string
	initModel    string
	initEconomy  bool
)

var initCmd = &cobra.Command{
	Use:           "init",
	Short:         "Initialize the runtime directory and write a .env file",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0o755); err != nil {
			return fmt.Errorf("create runtime directory: %w", err)
		}

		envPath := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return fmt.Errorf("%s already exists, remove it first to reinitialize", envPath)
		}

		content, err := buildEnvFile()
		if err != nil {
			return err
		}

		if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Setup complete! You can now run 'screenmate start'.")
		return nil
	},
}

func buildEnvFile() (string, error) {
	var content string

	appPart, err := env.MarshalEnv(&config.AppConfig{LLMProvider: initProvider})
	if err != nil {
		return "", err
	}
	content += appPart

	switch initProvider {
	case "anthropic":
		part, err := env.MarshalEnv(&config.AnthropicConfig{APIKey: initAPIKey, Model: initModel})
		if err != nil {
			return "", err
		}
		content += part
	case "openrouter":
		part, err := env.MarshalEnv(&config.OpenRouterConfig{APIKey: initAPIKey, Model: initModel})
		if err != nil {
			return "", err
		}
		content += part
	}

	if initEconomy {
		content += "ECONOMY_MODE=true\n"
	}
	return content, nil
}

func init() {
	initCmd.Flags().StringVar(&initProvider, "provider", "anthropic", "LLM provider (anthropic, openrouter)")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key for the selected provider")
	initCmd.Flags().StringVar(&initModel, "model", "", "model override for the selected provider")
	initCmd.Flags().BoolVar(&initEconomy, "economy", false, "skip all LLM calls and run fully local")
	rootCmd.AddCommand(initCmd)
}

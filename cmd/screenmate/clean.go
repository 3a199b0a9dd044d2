package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanDays int

var cleanCmd = &cobra.Command{
	Use:           "clean",
	Short:         "Delete old low-value memories",
	Long:          `Deletes memories older than the threshold that are also low-relevance and rarely accessed. Age alone never deletes anything.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		system, closeDB, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		deleted, err := system.ClearOld(ctx, cleanDays)
		if err != nil {
			return err
		}

		fmt.Printf("deleted %d memories\n", deleted)
		return nil
	},
}

func init() {
	cleanCmd.Flags().IntVar(&cleanDays, "days", 30, "age threshold in days")
	rootCmd.AddCommand(cleanCmd)
}

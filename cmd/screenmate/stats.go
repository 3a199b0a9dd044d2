package main

import (
	"fmt"

	"github.com/sandevgo/screenmate/internal/service/ui"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:           "stats",
	Short:         "Show memory statistics",
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

		stats, err := system.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ui.TitleStyle.Render("MEMORY"))
		fmt.Printf("  insights:       %d\n", stats.TotalInsights)
		fmt.Printf("  consolidated:   %d\n", stats.ConsolidatedCount)
		fmt.Printf("  avg relevance:  %s\n", ui.ScoreStyle.Render(fmt.Sprintf("%.2f", stats.AvgRelevance)))

		if len(stats.TopTopics) > 0 {
			fmt.Println(ui.TitleStyle.Render("TOP TOPICS"))
			for _, topic := range stats.TopTopics {
				fmt.Printf("  %s %s\n", topic.Topic, ui.MetaStyle.Render(fmt.Sprintf("(%d)", topic.Count)))
			}
		}

		journal, err := system.JournalStats(ctx)
		if err != nil {
			return err
		}
		if journal.TotalEntries > 0 {
			fmt.Println(ui.TitleStyle.Render("JOURNAL"))
			fmt.Printf("  entries: %d\n", journal.TotalEntries)
			for mood, count := range journal.MoodDistribution {
				fmt.Printf("  %s %s\n", mood, ui.MetaStyle.Render(fmt.Sprintf("(%d)", count)))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

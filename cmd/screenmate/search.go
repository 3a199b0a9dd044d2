package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/screenmate/internal/service/ui"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:           "search <query>",
	Short:         "Search stored memories",
	Args:          cobra.MinimumNArgs(1),
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

		query := strings.Join(args, " ")
		insights, err := system.SearchMemories(ctx, query, searchLimit)
		if err != nil {
			return err
		}

		if len(insights) == 0 {
			fmt.Println(ui.MetaStyle.Render("no memories found"))
			return nil
		}

		for _, ins := range insights {
			when := time.Unix(int64(ins.Timestamp), 0).Format("2006-01-02 15:04")
			header := fmt.Sprintf("#%d %s %s", ins.ID,
				ui.ScoreStyle.Render(fmt.Sprintf("%.2f", ins.RelevanceScore)),
				ui.MetaStyle.Render(when))
			if ins.AppName != "" {
				header += " " + ui.MetaStyle.Render(ins.AppName)
			}
			fmt.Println(header)
			fmt.Println("  " + ins.Content)
			if len(ins.Topics) > 0 {
				fmt.Println("  " + ui.UsageStyle.Render(strings.Join(ins.Topics, ", ")))
			}
			fmt.Println()
		}

		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

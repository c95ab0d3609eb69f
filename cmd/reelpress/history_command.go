package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelpress/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var user string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently produced posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			var runs []history.Run
			if user != "" {
				runs, err = store.Recent(cmd.Context(), user, limit)
			} else {
				runs, err = store.RecentAll(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No posts recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					run.UserID,
					run.Title,
					run.Audio,
					run.VideoPath,
				})
			}
			headers := []string{"ID", "Created", "User", "Title", "Audio", "Video"}
			fmt.Fprintln(out, renderTable(headers, rows, 1))

			total, err := store.Count(cmd.Context())
			if err == nil && total > len(runs) {
				fmt.Fprintf(out, "Showing %d of %d posts\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of posts to show")
	cmd.Flags().StringVar(&user, "user", "", "Only show posts for one chat user")
	return cmd
}

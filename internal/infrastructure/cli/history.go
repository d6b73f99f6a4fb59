package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/zai-go/internal/app"
	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/infrastructure/history"
)

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect served suggestions and sync shell history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Records(limit, search)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no suggestions recorded yet")
				return nil
			}
			for _, record := range records {
				fmt.Fprintf(out, "%-14s %-8s %-9s %s\n",
					relativeTime(record.Timestamp), record.Prefix, record.Source, record.Suggestion)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultHistoryLimit, "Maximum records to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show records containing this text")

	cmd.AddCommand(newHistorySyncCommand(container))
	cmd.AddCommand(newHistoryStatsCommand(container))
	cmd.AddCommand(newHistoryClearCommand(container))
	cmd.AddCommand(newHistoryPathCommand(container))
	return cmd
}

const maxStatsRecords = 1000

func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded suggestions by prefix and source",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Records(maxStatsRecords, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no suggestions recorded yet")
				return nil
			}

			byPrefix := map[string]int{}
			bySource := map[string]int{}
			var totalMS int64
			for _, record := range records {
				byPrefix[record.Prefix]++
				bySource[string(record.Source)]++
				totalMS += record.DurationMS
			}

			fmt.Fprintf(out, "%s suggestions recorded (newest %s)\n",
				humanize.Comma(int64(len(records))), relativeTime(records[0].Timestamp))
			fmt.Fprintf(out, "average latency %dms\n", totalMS/int64(len(records)))
			fmt.Fprintln(out, "by source:")
			for _, source := range []string{"server", "cache", "local", "fallback"} {
				if count := bySource[source]; count > 0 {
					fmt.Fprintf(out, "  %-9s %d\n", source, count)
				}
			}
			fmt.Fprintln(out, "by prefix:")
			for _, prefix := range domain.SupportedPrefixes() {
				if count := byPrefix[prefix]; count > 0 {
					fmt.Fprintf(out, "  %-9s %d\n", prefix, count)
				}
			}
			return nil
		},
	}
}

func newHistorySyncCommand(container *app.Container) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the cleaned history file from the shell's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				source = history.DefaultSourcePath()
			}
			count, err := container.Cleaner.Sync(source, container.Config.History.File)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d commands to %s\n", count, container.Config.History.File)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Shell history file to ingest (default: $HISTFILE or ~/.zsh_history)")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "suggestion log cleared")
			return nil
		},
	}
}

func newHistoryPathCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the suggestion log location",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := container.OpenStore()
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

func relativeTime(stamp time.Time) string {
	if stamp.IsZero() {
		return "unknown"
	}
	return humanize.Time(stamp)
}

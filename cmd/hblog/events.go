package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rhomel/hblog-i18n/internal/analytics"
)

var eventsOpts struct {
	limit  int
	counts bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded reader interaction events",
	Long: `List the most recent interaction events recorded by hblog serve.

Examples:
  hblog events --limit 50
  hblog events --counts`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().IntVarP(&eventsOpts.limit, "limit", "n", 20, "Maximum events to list")
	eventsCmd.Flags().BoolVar(&eventsOpts.counts, "counts", false, "Show totals per event name instead")
}

func runEvents(cmd *cobra.Command, args []string) error {
	if !cfg.Analytics.Enabled {
		return fmt.Errorf("analytics is disabled")
	}
	store, err := analytics.Open(cfg.Analytics.Database)
	if err != nil {
		return fmt.Errorf("failed to open analytics store: %w", err)
	}
	defer store.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	if eventsOpts.counts {
		counts, err := store.CountByName(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\n", name, humanize.Comma(counts[name]))
		}
		return nil
	}

	events, err := store.Recent(cmd.Context(), eventsOpts.limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.Time(e.CreatedAt), e.Name, e.Params)
	}
	return nil
}

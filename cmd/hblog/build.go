package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhomel/hblog-i18n/internal/metrics"
	"github.com/rhomel/hblog-i18n/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the site once",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	n, err := site.New(cfg, logger, metrics.New()).Build()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "generated %d pages in %s\n", n, time.Since(start).Round(time.Millisecond))
	return nil
}

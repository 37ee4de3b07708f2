package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	filepathx "github.com/yargevad/filepathx"

	"github.com/rhomel/hblog-i18n/internal/readtime"
)

var readingTimeOpts struct {
	dryRun bool
}

var readingTimeCmd = &cobra.Command{
	Use:   "reading-time",
	Short: "Stamp reading_time into article frontmatter",
	Long: `Estimate the reading time of every article and write it into the
article's frontmatter as reading_time. Articles without frontmatter are
skipped.`,
	RunE: runReadingTime,
}

func init() {
	rootCmd.AddCommand(readingTimeCmd)

	readingTimeCmd.Flags().BoolVar(&readingTimeOpts.dryRun, "dry-run", false,
		"Print estimates without rewriting files")
}

func runReadingTime(cmd *cobra.Command, args []string) error {
	dir := filepath.Join(cfg.Paths.Content, "articles")
	out := cmd.OutOrStdout()

	paths, err := filepathx.Glob(filepath.Join(dir, "**", "*.md"))
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}

	updated := 0
	for _, path := range paths {
		doc, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		stamped, minutes, err := readtime.Stamp(doc, cfg.Reading.WordsPerMinute)
		if errors.Is(err, readtime.ErrNoFrontmatter) {
			logger.Warn("skipping article without frontmatter", "path", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Fprintf(out, "%3d min  %s\n", minutes, filepath.Base(path))
		if readingTimeOpts.dryRun || bytes.Equal(doc, stamped) {
			continue
		}
		if err := os.WriteFile(path, stamped, 0644); err != nil {
			return err
		}
		updated++
	}

	logger.Info("reading times stamped", "updated", updated)
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhomel/hblog-i18n/internal/analytics"
	"github.com/rhomel/hblog-i18n/internal/livereload"
	"github.com/rhomel/hblog-i18n/internal/metrics"
	"github.com/rhomel/hblog-i18n/internal/server"
	"github.com/rhomel/hblog-i18n/internal/site"
)

var serveOpts struct {
	addr  string
	watch bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated site",
	Long: `Serve the generated site with per-reader language and theme resolution.

With --watch the content directory is watched, the site is rebuilt after
each burst of changes, and open pages reload themselves.

Examples:
  hblog serve
  hblog serve --watch --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.addr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVarP(&serveOpts.watch, "watch", "w", false, "Rebuild and live-reload on content changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveOpts.addr != "" {
		addr = serveOpts.addr
	}

	m := metrics.New()
	opts := server.Options{
		PublicDir: cfg.Paths.Public,
		Logger:    logger,
		Metrics:   m,
	}

	if cfg.Analytics.Enabled {
		store, err := analytics.Open(cfg.Analytics.Database)
		if err != nil {
			return fmt.Errorf("failed to open analytics store: %w", err)
		}
		defer store.Close()
		opts.Tracker = analytics.NewRecorder(store, logger)
	}

	if serveOpts.watch {
		debounce, err := cfg.DebounceInterval()
		if err != nil {
			return err
		}
		opts.Reload = livereload.NewBroadcaster()
		gen := site.New(cfg, logger, m)
		watcher := &livereload.Watcher{
			Dir:      cfg.Paths.Content,
			Debounce: debounce,
			Logger:   logger,
			Rebuild: func() {
				n, err := gen.Build()
				if err != nil {
					logger.Error("rebuild failed", "error", err)
					return
				}
				logger.Info("rebuilt site", "pages", n, "clients", opts.Reload.Clients())
				opts.Reload.Broadcast("reload")
			},
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
		logger.Info("watching for changes", "dir", cfg.Paths.Content, "debounce", debounce)
	}

	return server.New(opts).ListenAndServe(ctx, addr)
}

// Package server is the blog's HTTP front: it serves the generated site,
// resolves each reader's language and theme, and records preference changes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rhomel/hblog-i18n/internal/analytics"
	"github.com/rhomel/hblog-i18n/internal/livereload"
	"github.com/rhomel/hblog-i18n/internal/locale"
	"github.com/rhomel/hblog-i18n/internal/metrics"
	"github.com/rhomel/hblog-i18n/internal/theme"
)

// Options configures a Server. Only PublicDir is required.
type Options struct {
	PublicDir string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Tracker   analytics.Tracker
	// Reload enables the live-reload endpoint and script injection.
	Reload *livereload.Broadcaster
}

// Server serves a generated site.
type Server struct {
	public  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracker analytics.Tracker
	reload  *livereload.Broadcaster
}

func New(opts Options) *Server {
	s := &Server{
		public:  opts.PublicDir,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracker: opts.Tracker,
		reload:  opts.Reload,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracker == nil {
		s.tracker = analytics.Nop{}
	}
	return s
}

// Routes returns the server's handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.servePage)
	mux.HandleFunc("/_prefs/lang", s.setLanguage)
	mux.HandleFunc("/_prefs/theme", s.setTheme)
	mux.HandleFunc("/_events", s.trackEvent)
	if s.reload != nil {
		mux.Handle("/_sse", s.reload)
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return s.instrument(mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
// Open live-reload streams are closed so shutdown does not wait on them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if s.reload != nil {
		srv.RegisterOnShutdown(s.reload.Close)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// session holds the request-scoped resolvers of one reader.
type session struct {
	languages *locale.Resolver
	themes    *theme.Resolver
	root      *theme.ClassList
}

func newSession(w http.ResponseWriter, r *http.Request) *session {
	jar := newCookieJar(w, r)
	root := &theme.ClassList{}
	return &session{
		languages: &locale.Resolver{
			Client:  true,
			Path:    locale.PathFunc(func() string { return r.URL.Path }),
			Cookies: jar,
			Ambient: locale.AmbientFunc(func() string { return browserLanguage(r) }),
		},
		themes: &theme.Resolver{
			Client:      true,
			Storage:     jar,
			ColorScheme: theme.ColorSchemeFunc(func() bool { return prefersDark(r) }),
			Root:        root,
		},
		root: root,
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		observer := &statusObserver{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("Accept-CH", colorSchemeHint)
		next.ServeHTTP(observer, r)
		s.metrics.Request(routeKind(r.URL.Path), observer.status)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", observer.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"remote", r.RemoteAddr,
		)
	})
}

type statusObserver struct {
	http.ResponseWriter
	status int
}

func (o *statusObserver) WriteHeader(status int) {
	o.status = status
	o.ResponseWriter.WriteHeader(status)
}

func (o *statusObserver) Flush() {
	if flusher, ok := o.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func routeKind(path string) string {
	switch path {
	case "/_prefs/lang", "/_prefs/theme":
		return "prefs"
	case "/_events":
		return "events"
	case "/_sse":
		return "sse"
	case "/metrics":
		return "metrics"
	}
	if isPagePath(path) {
		return "page"
	}
	return "asset"
}

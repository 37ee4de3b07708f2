// Package livereload pushes reload notifications to open browser tabs and
// rebuilds the site when content changes.
package livereload

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Script subscribes a page to reload events. It is injected before </head>.
const Script = `<script>
var es = new EventSource('/_sse');
es.onmessage = function(e) { if (e.data === 'reload') window.location.reload(); };
</script>`

// Inject adds Script to an HTML document.
func Inject(page []byte) []byte {
	return bytes.Replace(page, []byte("</head>"), []byte(Script+"</head>"), 1)
}

// Broadcaster fans messages out to SSE clients.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	done    chan struct{}
	once    sync.Once
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[chan string]struct{}), done: make(chan struct{})}
}

// Close ends every open stream. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.once.Do(func() { close(b.done) })
}

// Broadcast sends msg to every client without blocking on slow ones.
func (b *Broadcaster) Broadcast(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) subscribe() chan string {
	ch := make(chan string, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// ServeHTTP streams messages as server-sent events until the client leaves
// or the broadcaster is closed.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.done:
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// Watcher rebuilds on file changes below a directory.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Rebuild  func()
	Logger   *slog.Logger

	building sync.Mutex
}

// rebuild runs Rebuild, one call at a time.
func (w *Watcher) rebuild() {
	w.building.Lock()
	defer w.building.Unlock()
	w.Rebuild()
}

// Run watches until ctx is done. Rebuild runs once at start and then after
// each burst of changes settles for Debounce. Rebuilds never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to init watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			if err := watcher.Add(path); err != nil {
				logger.Warn("cannot watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.rebuild()

	var mu sync.Mutex
	var timer *time.Timer
	reset := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.Debounce, w.rebuild)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// new directories need their own watch
				if isDir(ev.Name) {
					_ = watcher.Add(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				reset()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

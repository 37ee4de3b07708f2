package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rhomel/hblog-i18n/internal/analytics"
	"github.com/rhomel/hblog-i18n/internal/livereload"
	"github.com/rhomel/hblog-i18n/internal/locale"
	"github.com/rhomel/hblog-i18n/internal/site"
	"github.com/rhomel/hblog-i18n/internal/theme"
)

const maxEventBodyBytes = 4 * 1024

func isPagePath(p string) bool {
	return p == "/" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}

// servePage serves generated HTML with the reader's theme applied, and any
// other file as a static asset. The bare root serves the index of the
// reader's resolved language.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if !isPagePath(r.URL.Path) {
		http.FileServer(http.Dir(s.public)).ServeHTTP(w, r)
		return
	}

	sess := newSession(w, r)
	w.Header().Set("Vary", varyHeaders)

	switch {
	case clean == "/" || clean == "/index.html":
		lang, src := sess.languages.ResolveWithSource()
		s.metrics.Language(string(src), string(lang))
		clean = "/" + string(lang) + "/index.html"
	case strings.HasSuffix(r.URL.Path, "/"):
		clean += "/index.html"
	}

	data, err := os.ReadFile(filepath.Join(s.public, filepath.FromSlash(clean)))
	if err != nil {
		s.notFound(w, r, sess)
		return
	}

	t, src := sess.themes.GetWithSource()
	s.metrics.Theme(string(src), string(t))
	s.render(w, sess, data, http.StatusOK)
}

// notFound serves the generated 404 page of the reader's language, or a
// plain-text 404 when the site has none.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request, sess *session) {
	lang := sess.languages.Resolve()
	data, err := os.ReadFile(filepath.Join(s.public, filepath.FromSlash(site.NotFoundRoute(lang))))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, sess, data, http.StatusNotFound)
}

// render writes a generated page with the reader's theme applied.
func (s *Server) render(w http.ResponseWriter, sess *session, data []byte, status int) {
	sess.themes.Apply()

	out := stampRootClass(data, sess.root.String())
	if s.reload != nil {
		out = livereload.Inject(out)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

var (
	htmlTag   = regexp.MustCompile(`(?i)<html\b[^>]*>`)
	classAttr = regexp.MustCompile(`(?i)\s+class\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
)

// stampRootClass sets the class attribute of the document's <html> element.
func stampRootClass(doc []byte, class string) []byte {
	loc := htmlTag.FindIndex(doc)
	if loc == nil {
		return doc
	}
	tag := classAttr.ReplaceAll(doc[loc[0]:loc[1]], nil)
	if class != "" {
		tag = append(tag[:len(tag)-1:len(tag)-1], []byte(` class="`+class+`">`)...)
	}

	out := make([]byte, 0, len(doc)+len(class)+16)
	out = append(out, doc[:loc[0]]...)
	out = append(out, tag...)
	out = append(out, doc[loc[1]:]...)
	return out
}

func (s *Server) setLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	lang := locale.Language(r.FormValue("lang"))
	sess := newSession(w, r)
	if err := sess.languages.Set(lang); err != nil {
		var invalid *locale.InvalidLanguageError
		if errors.As(err, &invalid) {
			s.logger.Warn("rejected language change", "lang", invalid.Code)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.tracker.Track(r.Context(), analytics.ChangeLanguage, map[string]string{"language": string(lang)})

	// the bare root lets the new cookie decide the language
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	sess := newSession(w, r)
	var next theme.Theme
	switch v := r.FormValue("theme"); v {
	case "toggle":
		next = sess.themes.Toggle()
	default:
		t, ok := theme.Parse(v)
		if !ok {
			http.Error(w, "invalid theme", http.StatusBadRequest)
			return
		}
		sess.themes.Set(t)
		next = t
	}
	s.tracker.Track(r.Context(), analytics.ChangeTheme, map[string]string{"theme": string(next)})

	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the local path the request came from, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	return path.Clean("/" + ref.Path)
}

func (s *Server) trackEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name   string            `json:"name"`
		Params map[string]string `json:"params"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !analytics.Known(req.Name) {
		http.Error(w, "unknown event", http.StatusBadRequest)
		return
	}

	s.tracker.Track(r.Context(), req.Name, req.Params)
	w.WriteHeader(http.StatusNoContent)
}

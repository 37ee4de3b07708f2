package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhomel/hblog-i18n/internal/analytics"
	"github.com/rhomel/hblog-i18n/internal/livereload"
	"github.com/rhomel/hblog-i18n/internal/metrics"
)

type trackedEvent struct {
	name   string
	params map[string]string
}

type fakeTracker struct {
	events []trackedEvent
}

func (f *fakeTracker) Track(_ context.Context, name string, params map[string]string) {
	f.events = append(f.events, trackedEvent{name: name, params: params})
}

func writePublic(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestServer(t *testing.T, reload *livereload.Broadcaster) (http.Handler, *fakeTracker, *metrics.Metrics) {
	t.Helper()
	dir := t.TempDir()
	writePublic(t, dir, "en/index.html", `<!DOCTYPE html><html lang="en" class=""><head></head><body>english home</body></html>`)
	writePublic(t, dir, "it/index.html", `<!DOCTYPE html><html lang="it" class=""><head></head><body>home italiana</body></html>`)
	writePublic(t, dir, "it/blog/rust.html", `<!DOCTYPE html><html lang="it" class=""><head></head><body>post</body></html>`)
	writePublic(t, dir, "it/404.html", `<!DOCTYPE html><html lang="it" class=""><head></head><body><h1>404</h1>Pagina non trovata</body></html>`)
	writePublic(t, dir, "img/logo.txt", "logo")

	tracker := &fakeTracker{}
	m := metrics.New()
	srv := New(Options{PublicDir: dir, Tracker: tracker, Metrics: m, Reload: reload})
	return srv.Routes(), tracker, m
}

func get(h http.Handler, target string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(h http.Handler, target string, form url.Values, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func cookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func TestRootResolvesLanguage(t *testing.T) {
	h, _, m := newTestServer(t, nil)

	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   string
	}{
		{name: "default", want: "english home"},
		{name: "accept-language subtag", mutate: func(r *http.Request) { r.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.8") }, want: "home italiana"},
		{name: "accept-language weights", mutate: func(r *http.Request) { r.Header.Set("Accept-Language", "en;q=0.2, it;q=0.9") }, want: "home italiana"},
		{name: "unsupported accept-language", mutate: func(r *http.Request) { r.Header.Set("Accept-Language", "fr-FR") }, want: "english home"},
		{name: "malformed accept-language", mutate: func(r *http.Request) { r.Header.Set("Accept-Language", ";;;,=") }, want: "english home"},
		{name: "cookie beats header", mutate: func(r *http.Request) {
			r.Header.Set("Accept-Language", "en-US")
			r.AddCookie(&http.Cookie{Name: "lang", Value: "it"})
		}, want: "home italiana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, "/", tt.mutate)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Equal(t, varyHeaders, rec.Header().Get("Vary"))
			assert.Equal(t, colorSchemeHint, rec.Header().Get("Accept-CH"))
		})
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LanguageResolutions.WithLabelValues("ambient", "it")))
}

func TestPagesCarryThemeClass(t *testing.T) {
	h, _, m := newTestServer(t, nil)

	rec := get(h, "/it/blog/rust.html", func(r *http.Request) { r.Header.Set(colorSchemeHint, `"dark"`) })
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<html lang="it" class="dark">`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThemeResolutions.WithLabelValues("os", "dark")))

	rec = get(h, "/it/blog/rust.html", cookie("theme", "theme-light"))
	assert.Contains(t, rec.Body.String(), `<html lang="it">`)

	rec = get(h, "/it/", cookie("theme", "theme-dark"))
	assert.Contains(t, rec.Body.String(), `<html lang="it" class="dark">`)
	assert.Contains(t, rec.Body.String(), "home italiana")
}

func TestMissingPageAndAssets(t *testing.T) {
	h, _, _ := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, get(h, "/en/blog/missing.html", nil).Code)

	rec := get(h, "/it/blog/missing.html", cookie("theme", "theme-dark"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<html lang="it" class="dark">`)
	assert.Contains(t, rec.Body.String(), "Pagina non trovata")

	// a missing page outside any language follows the reader's cookie
	rec = get(h, "/nope.html", cookie("lang", "it"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pagina non trovata")

	rec = get(h, "/img/logo.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logo", rec.Body.String())
}

func TestLiveReloadInjection(t *testing.T) {
	h, _, _ := newTestServer(t, livereload.NewBroadcaster())
	assert.Contains(t, get(h, "/", nil).Body.String(), "EventSource('/_sse')")

	plain, _, _ := newTestServer(t, nil)
	assert.NotContains(t, get(plain, "/", nil).Body.String(), "EventSource")
}

func TestSetLanguage(t *testing.T) {
	h, tracker, _ := newTestServer(t, nil)

	rec := postForm(h, "/_prefs/lang", url.Values{"lang": {"it"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "lang", cookies[0].Name)
	assert.Equal(t, "it", cookies[0].Value)
	assert.Equal(t, 365*24*60*60, cookies[0].MaxAge)

	require.Len(t, tracker.events, 1)
	assert.Equal(t, analytics.ChangeLanguage, tracker.events[0].name)
	assert.Equal(t, "it", tracker.events[0].params["language"])

	// following the redirect with the new cookie lands on the Italian index
	follow := get(h, "/", cookie("lang", cookies[0].Value))
	assert.Contains(t, follow.Body.String(), "home italiana")
}

func TestSetLanguageRejectsUnsupported(t *testing.T) {
	h, tracker, _ := newTestServer(t, nil)

	rec := postForm(h, "/_prefs/lang", url.Values{"lang": {"fr"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, tracker.events)

	assert.Equal(t, http.StatusMethodNotAllowed, get(h, "/_prefs/lang", nil).Code)
}

func TestSetTheme(t *testing.T) {
	h, tracker, _ := newTestServer(t, nil)

	rec := postForm(h, "/_prefs/theme", url.Values{"theme": {"dark"}}, func(r *http.Request) {
		r.Header.Set("Referer", "http://example.com/it/blog/rust.html")
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/it/blog/rust.html", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "theme", cookies[0].Name)
	assert.Equal(t, "theme-dark", cookies[0].Value)
	require.Len(t, tracker.events, 1)
	assert.Equal(t, "dark", tracker.events[0].params["theme"])

	rec = postForm(h, "/_prefs/theme", url.Values{"theme": {"toggle"}}, cookie("theme", "theme-dark"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "theme-light", rec.Result().Cookies()[0].Value)

	rec = postForm(h, "/_prefs/theme", url.Values{"theme": {"toggle"}}, func(r *http.Request) {
		r.Header.Set(colorSchemeHint, "dark")
		r.Header.Set("Referer", "https://elsewhere.example/x")
	})
	assert.Equal(t, "theme-light", rec.Result().Cookies()[0].Value)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusBadRequest, postForm(h, "/_prefs/theme", url.Values{"theme": {"sepia"}}, nil).Code)
}

func TestTrackEvent(t *testing.T) {
	h, tracker, _ := newTestServer(t, nil)

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/_events", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, post(`{"name":"share_twitter","params":{"title":"Why Rust"}}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"page_view"}`))
	assert.Equal(t, http.StatusBadRequest, post(`not json`))
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"copy_code"}{"name":"copy_code"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"name":"copy_code","params":{"code":"`+strings.Repeat("x", maxEventBodyBytes)+`"}}`))

	require.Len(t, tracker.events, 1)
	assert.Equal(t, "share_twitter", tracker.events[0].name)
	assert.Equal(t, "Why Rust", tracker.events[0].params["title"])
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newTestServer(t, nil)
	get(h, "/", nil)

	rec := get(h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hblog_http_requests_total{kind="page",status="200"} 1`)
}

func TestStampRootClass(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		class string
		want  string
	}{
		{name: "add", doc: `<html lang="en"><body>`, class: "dark", want: `<html lang="en" class="dark"><body>`},
		{name: "replace", doc: `<html lang="en" class="x"><body>`, class: "dark", want: `<html lang="en" class="dark"><body>`},
		{name: "remove", doc: `<html lang="en" class="dark"><body>`, class: "", want: `<html lang="en"><body>`},
		{name: "no html tag", doc: `<p>fragment</p>`, class: "dark", want: `<p>fragment</p>`},
		{name: "single quoted", doc: `<html lang="en" class='x'><body>`, class: "dark", want: `<html lang="en" class="dark"><body>`},
		{name: "unquoted", doc: `<html class=x lang="en"><body>`, class: "dark", want: `<html lang="en" class="dark"><body>`},
		{name: "spaced equals", doc: `<html lang="en" class = "x"><body>`, class: "", want: `<html lang="en"><body>`},
		{name: "body class untouched", doc: `<html class="dark"><body class="x">`, class: "", want: `<html><body class="x">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stampRootClass([]byte(tt.doc), tt.class)))
		})
	}
}

func TestCookieJarOverlayAndIdempotence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "theme-light"})
	rec := httptest.NewRecorder()
	jar := newCookieJar(rec, req)

	v, ok := jar.GetItem("theme")
	require.True(t, ok)
	assert.Equal(t, "theme-light", v)

	jar.SetItem("theme", "theme-dark")
	jar.SetItem("theme", "theme-dark")
	jar.Set("lang", "it", 0)

	v, _ = jar.GetItem("theme")
	assert.Equal(t, "theme-dark", v)

	lines := rec.Header().Values("Set-Cookie")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "theme=theme-dark"))
	assert.True(t, strings.HasPrefix(lines[1], "lang=it"))

	_, ok = jar.Get("missing")
	assert.False(t, ok)
}

func TestBrowserLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "it-IT,it;q=0.9", want: "it-IT"},
		{header: "en;q=0.1, it;q=0.8", want: "it"},
		{header: "fr-CH, it;q=0.5", want: "fr-CH"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			assert.Equal(t, tt.want, browserLanguage(req))
		})
	}
}

func TestServeShutsDownWithOpenReloadStream(t *testing.T) {
	reload := livereload.NewBroadcaster()
	srv := New(Options{PublicDir: t.TempDir(), Reload: reload})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/_sse")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return reload.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	started := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Less(t, time.Since(started), 2*time.Second)
	case <-time.After(4 * time.Second):
		t.Fatal("server still running with a reload stream open")
	}
}

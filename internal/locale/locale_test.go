package locale

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCookies struct {
	values  map[string]string
	expires map[string]time.Duration
	writes  int
}

func newMemCookies() *memCookies {
	return &memCookies{values: map[string]string{}, expires: map[string]time.Duration{}}
}

func (m *memCookies) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memCookies) Set(key, value string, expires time.Duration) {
	m.values[key] = value
	m.expires[key] = expires
	m.writes++
}

func clientResolver(path, ambient string, cookies *memCookies) *Resolver {
	return &Resolver{
		Client:  true,
		Path:    PathFunc(func() string { return path }),
		Cookies: cookies,
		Ambient: AmbientFunc(func() string { return ambient }),
	}
}

func TestSetThenResolveRoundTrip(t *testing.T) {
	for _, lang := range Supported() {
		t.Run(string(lang), func(t *testing.T) {
			cookies := newMemCookies()
			r := clientResolver("/blog/some-post.html", "fr-FR", cookies)

			require.NoError(t, r.Set(lang))
			assert.Equal(t, lang, r.Resolve())
			assert.Equal(t, CookieMaxAge, cookies.expires[CookieName])
		})
	}
}

func TestResolvePathOverridesCookie(t *testing.T) {
	cookies := newMemCookies()
	cookies.values[CookieName] = "en"
	r := clientResolver("/it/blog/rust.html", "en-US", cookies)

	lang, src := r.ResolveWithSource()
	assert.Equal(t, Italian, lang)
	assert.Equal(t, SourcePath, src)
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		cookie  string
		ambient string
		want    Language
		source  Source
	}{
		{name: "subtag reduction", path: "/", ambient: "it-IT", want: Italian, source: SourceAmbient},
		{name: "underscore subtag", path: "/", ambient: "it_CH", want: Italian, source: SourceAmbient},
		{name: "exact ambient", path: "/", ambient: "it", want: Italian, source: SourceAmbient},
		{name: "unsupported ambient", path: "/", ambient: "fr-FR", want: English, source: SourceDefault},
		{name: "empty ambient", path: "", ambient: "", want: English, source: SourceDefault},
		{name: "malformed ambient", path: "/", ambient: "-_-", want: English, source: SourceDefault},
		{name: "cookie beats ambient", path: "/blog", cookie: "it", ambient: "en-GB", want: Italian, source: SourceCookie},
		{name: "unsupported cookie ignored", path: "/blog", cookie: "de", ambient: "it", want: Italian, source: SourceAmbient},
		{name: "path is case sensitive", path: "/IT/blog", ambient: "", want: English, source: SourceDefault},
		{name: "path without trailing slash", path: "/it", want: Italian, source: SourcePath},
		{name: "language only in later segment", path: "/blog/it/", want: English, source: SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := newMemCookies()
			if tt.cookie != "" {
				cookies.values[CookieName] = tt.cookie
			}
			lang, src := clientResolver(tt.path, tt.ambient, cookies).ResolveWithSource()
			assert.Equal(t, tt.want, lang)
			assert.Equal(t, tt.source, src)
		})
	}
}

func TestResolveOutsideClient(t *testing.T) {
	cookies := newMemCookies()
	cookies.values[CookieName] = "it"
	r := clientResolver("/it/", "it-IT", cookies)
	r.Client = false

	lang, src := r.ResolveWithSource()
	assert.Equal(t, English, lang)
	assert.Equal(t, SourceDefault, src)

	var nilResolver *Resolver
	assert.Equal(t, Default, nilResolver.Resolve())
	assert.Equal(t, Default, (&Resolver{}).Resolve())
}

func TestSetRejectsUnsupported(t *testing.T) {
	cookies := newMemCookies()
	r := clientResolver("/", "", cookies)

	err := r.Set(Language("fr"))
	var invalid *InvalidLanguageError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "fr", invalid.Code)
	assert.Zero(t, cookies.writes)
}

func TestSetIsIdempotent(t *testing.T) {
	cookies := newMemCookies()
	r := clientResolver("/", "", cookies)

	require.NoError(t, r.Set(Italian))
	first := cookies.values[CookieName]
	require.NoError(t, r.Set(Italian))

	assert.Equal(t, first, cookies.values[CookieName])
	assert.Len(t, cookies.values, 1)
	assert.Equal(t, Italian, r.Resolve())
}

func TestSetOutsideClientSkipsWrite(t *testing.T) {
	cookies := newMemCookies()
	r := &Resolver{Cookies: cookies}

	require.NoError(t, r.Set(Italian))
	assert.Zero(t, cookies.writes)
}

func TestMatch(t *testing.T) {
	lang, ok := Match("  it-IT ")
	assert.True(t, ok)
	assert.Equal(t, Italian, lang)

	_, ok = Match("english")
	assert.False(t, ok)
}

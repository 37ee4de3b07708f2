// Package locale resolves the active UI language of the blog.
//
// The language is decided by a fixed precedence chain: a leading path
// segment, then the persisted "lang" cookie, then the language reported by
// the reader's browser, then the default. Outside a client environment
// (static generation) the default is returned without consulting anything.
package locale

import (
	"fmt"
	"strings"
	"time"
)

// Language is a supported UI language code.
type Language string

const (
	English Language = "en"
	Italian Language = "it"

	// Default is returned whenever no signal selects a supported language.
	Default = English
)

const (
	// CookieName is the cookie holding the persisted language.
	CookieName = "lang"
	// CookieMaxAge is how long a persisted language survives.
	CookieMaxAge = 365 * 24 * time.Hour
)

var supported = [...]Language{English, Italian}

// Supported returns the supported languages, default first.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported[:])
	return out
}

// Parse reports whether s is exactly a supported language code.
func Parse(s string) (Language, bool) {
	for _, l := range supported {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

func (l Language) String() string { return string(l) }

// InvalidLanguageError is returned when persisting a language outside the
// supported set.
type InvalidLanguageError struct {
	Code string
}

func (e *InvalidLanguageError) Error() string {
	return fmt.Sprintf("locale: unsupported language %q", e.Code)
}

// Source identifies which signal decided a resolution.
type Source string

const (
	SourceDefault Source = "default"
	SourcePath    Source = "path"
	SourceCookie  Source = "cookie"
	SourceAmbient Source = "ambient"
)

// CookieStore reads and writes client cookies.
type CookieStore interface {
	Get(key string) (string, bool)
	Set(key, value string, expires time.Duration)
}

// PathReader returns the current URL path.
type PathReader interface {
	Path() string
}

// PathFunc adapts a function to PathReader.
type PathFunc func() string

func (f PathFunc) Path() string { return f() }

// AmbientLanguage returns the language tag negotiated by the reader's
// browser, e.g. "it-IT". It may be empty or malformed.
type AmbientLanguage interface {
	Language() string
}

// AmbientFunc adapts a function to AmbientLanguage.
type AmbientFunc func() string

func (f AmbientFunc) Language() string { return f() }

// Resolver decides the active language. Collaborators are only consulted
// when Client is true and may be nil otherwise.
type Resolver struct {
	Client  bool
	Path    PathReader
	Cookies CookieStore
	Ambient AmbientLanguage
}

// Resolve returns the active language. It never fails.
func (r *Resolver) Resolve() Language {
	lang, _ := r.ResolveWithSource()
	return lang
}

// ResolveWithSource returns the active language and the signal that chose it.
func (r *Resolver) ResolveWithSource() (Language, Source) {
	if r == nil || !r.Client {
		return Default, SourceDefault
	}

	if r.Path != nil {
		if lang, ok := FromPath(r.Path.Path()); ok {
			return lang, SourcePath
		}
	}

	if r.Cookies != nil {
		if raw, ok := r.Cookies.Get(CookieName); ok {
			if lang, ok := Parse(raw); ok {
				return lang, SourceCookie
			}
		}
	}

	if r.Ambient != nil {
		if lang, ok := Match(r.Ambient.Language()); ok {
			return lang, SourceAmbient
		}
	}

	return Default, SourceDefault
}

// Set persists lang as the reader's preference. It does not change the
// language of anything already rendered.
func (r *Resolver) Set(lang Language) error {
	if _, ok := Parse(string(lang)); !ok {
		return &InvalidLanguageError{Code: string(lang)}
	}
	if !r.Client || r.Cookies == nil {
		return nil
	}
	r.Cookies.Set(CookieName, string(lang), CookieMaxAge)
	return nil
}

// FromPath returns the language named by the first segment of path, if any.
// Matching is case-sensitive.
func FromPath(path string) (Language, bool) {
	path = strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(path, "/")
	return Parse(segment)
}

// Match maps a browser language tag to a supported language: the full tag
// first, then its primary subtag.
func Match(tag string) (Language, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", false
	}
	if lang, ok := Parse(tag); ok {
		return lang, true
	}
	primary := tag
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		primary = tag[:i]
	}
	return Parse(primary)
}

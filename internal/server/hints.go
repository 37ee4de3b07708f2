package server

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

const (
	colorSchemeHint = "Sec-CH-Prefers-Color-Scheme"
	varyHeaders     = "Cookie, Accept-Language, " + colorSchemeHint
)

// browserLanguage returns the reader's preferred language tag from
// Accept-Language, highest weight first. Unparseable headers fall back to
// their first entry so the resolver can still try a subtag match.
func browserLanguage(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err == nil && len(tags) > 0 {
		return tags[0].String()
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

// prefersDark reads the color-scheme client hint.
func prefersDark(r *http.Request) bool {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(colorSchemeHint)), `"`)
	return strings.EqualFold(v, "dark")
}

package server

import (
	"net/http"
	"strings"
	"time"
)

// storageLifetime stands in for browser local storage, which never expires.
// Browsers cap cookie lifetimes at 400 days.
const storageLifetime = 400 * 24 * time.Hour

// cookieJar is a request-scoped cookie store. Writes are sent as
// Set-Cookie headers and are visible to later reads on the same jar.
type cookieJar struct {
	r       *http.Request
	w       http.ResponseWriter
	pending map[string]string
	now     func() time.Time
}

func newCookieJar(w http.ResponseWriter, r *http.Request) *cookieJar {
	return &cookieJar{r: r, w: w, pending: map[string]string{}, now: time.Now}
}

func (j *cookieJar) Get(key string) (string, bool) {
	if v, ok := j.pending[key]; ok {
		return v, true
	}
	c, err := j.r.Cookie(key)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// Set writes a cookie, replacing an earlier write of the same key in this
// response.
func (j *cookieJar) Set(key, value string, expires time.Duration) {
	j.pending[key] = value

	header := j.w.Header()
	var kept []string
	for _, line := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(line, key+"=") {
			kept = append(kept, line)
		}
	}
	header.Del("Set-Cookie")
	for _, line := range kept {
		header.Add("Set-Cookie", line)
	}

	http.SetCookie(j.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(expires.Seconds()),
		Expires:  j.now().Add(expires).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (j *cookieJar) GetItem(key string) (string, bool) { return j.Get(key) }

func (j *cookieJar) SetItem(key, value string) { j.Set(key, value, storageLifetime) }

package site

import (
	"html/template"
	"io"
	"strings"

	"github.com/rhomel/hblog-i18n/internal/locale"
	"github.com/rhomel/hblog-i18n/internal/share"
)

// head carries the metadata rendered into <head>.
type head struct {
	Title         string
	Description   string
	CanonicalURL  string
	SiteName      string
	OGType        string
	OGLocale      string
	TwitterHandle string
}

type listItem struct {
	DateStr     string
	Title       string
	Href        string
	ReadingTime int
}

type languageOption struct {
	Code     string
	Label    string
	Selected bool
}

type page struct {
	Lang      locale.Language
	RootClass string
	Head      head
	CSS       template.CSS
	UI        uiStrings
	Languages []languageOption
	HomeHref  string

	// index pages
	Intro    template.HTML
	Articles []listItem

	// post pages
	Post        bool
	DateStr     string
	ReadingTime int
	Content     template.HTML
	ShareLinks  []shareLink
	Related     []listItem

	NotFound bool
}

type shareLink struct {
	Kind  string
	Event string
	Href  string
}

func shareLinks(p share.Post) []shareLink {
	links := share.Links(p)
	out := make([]shareLink, 0, len(links))
	for _, l := range links {
		out = append(out, shareLink{Kind: string(l.Kind), Event: l.Kind.EventName(), Href: l.Href})
	}
	return out
}

func languageOptions(current locale.Language) []languageOption {
	var opts []languageOption
	for _, l := range locale.Supported() {
		opts = append(opts, languageOption{Code: string(l), Label: strings.ToUpper(string(l)), Selected: l == current})
	}
	return opts
}

func (p page) render(w io.Writer) error {
	return layout.Execute(w, p)
}

var layout = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" class="{{.RootClass}}">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Head.Title}}</title>
  <link rel="canonical" href="{{.Head.CanonicalURL}}">
  <meta name="description" content="{{.Head.Description}}">
  <meta property="og:title" content="{{.Head.Title}}">
  <meta property="og:description" content="{{.Head.Description}}">
  <meta property="og:type" content="{{.Head.OGType}}">
  <meta property="og:url" content="{{.Head.CanonicalURL}}">
  <meta property="og:site_name" content="{{.Head.SiteName}}">
  <meta property="og:locale" content="{{.Head.OGLocale}}">
{{- if .Head.TwitterHandle}}
  <meta name="twitter:creator" content="{{.Head.TwitterHandle}}">
  <meta name="twitter:site" content="{{.Head.TwitterHandle}}">
{{- end}}
  <meta name="twitter:url" content="{{.Head.CanonicalURL}}">
  <meta name="twitter:title" content="{{.Head.Title}}">
  <meta name="twitter:description" content="{{.Head.Description}}">
  <style>
{{.CSS}}
  </style>
</head>
<body>
  <div class="container">
    <nav class="controls">
      <a href="{{.HomeHref}}">{{.Head.SiteName}}</a>
      <form method="post" action="/_prefs/lang">
        <label>{{.UI.Language}}
          <select name="lang" onchange="this.form.submit()">
{{- range .Languages}}
            <option value="{{.Code}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{- end}}
          </select>
        </label>
      </form>
      <form method="post" action="/_prefs/theme">
        <button type="submit" name="theme" value="toggle">{{.UI.ToggleTheme}}</button>
      </form>
    </nav>
{{- if .Post}}
    <p class="muted"><span>{{.DateStr}}</span> <span>{{.ReadingTime}} {{.UI.MinRead}}</span></p>
{{.Content}}
    <p><a href="{{.HomeHref}}">{{.UI.DiscoverMore}}</a></p>
    <div class="share">
{{- range .ShareLinks}}
      <a href="{{.Href}}" data-event="{{.Event}}" target="_blank" rel="noopener">{{.Kind}}</a>
{{- end}}
    </div>
{{- if .Related}}
    <h3>{{.UI.Related}}</h3>
    <ul class="related">
{{- range .Related}}
      <li><a href="{{.Href}}" data-event="click_related_article" data-title="{{.Title}}">{{.Title}}</a></li>
{{- end}}
    </ul>
{{- end}}
{{- else if .NotFound}}
    <div class="not-found">
      <h1>404</h1>
      <h2>{{.UI.NotFound}}</h2>
      <h3><a href="{{.HomeHref}}">{{.UI.BackHome}}</a></h3>
    </div>
{{- else}}
{{.Intro}}
{{- if .Articles}}
    <h2>{{.UI.Articles}}</h2>
    <ul>
{{- range .Articles}}
      <li><span class="muted">{{.DateStr}}</span> <a href="{{.Href}}">{{.Title}}</a> <span class="muted">{{.ReadingTime}} {{$.UI.MinRead}}</span></li>
{{- end}}
    </ul>
{{- end}}
{{- end}}
  </div>
  <script>
  document.addEventListener('click', function (e) {
    var el = e.target.closest('[data-event]');
    if (!el || !navigator.sendBeacon) return;
    var params = { title: el.dataset.title || document.title };
    navigator.sendBeacon('/_events', JSON.stringify({ name: el.dataset.event, params: params }));
  });
  document.addEventListener('copy', function () {
    var code = String(window.getSelection()).slice(0, 200);
    if (code && navigator.sendBeacon) {
      navigator.sendBeacon('/_events', JSON.stringify({ name: 'copy_code', params: { code: code } }));
    }
  });
  </script>
</body>
</html>
`))

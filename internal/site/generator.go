// Package site generates the static blog: one index per language, one page
// per article, styled with the light and dark palettes.
package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/russross/blackfriday/v2"

	"github.com/rhomel/hblog-i18n/internal/config"
	"github.com/rhomel/hblog-i18n/internal/locale"
	"github.com/rhomel/hblog-i18n/internal/metrics"
	"github.com/rhomel/hblog-i18n/internal/share"
	"github.com/rhomel/hblog-i18n/internal/theme"
)

// Generator renders the site described by a config.
type Generator struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Generator. logger and m may be nil.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger, metrics: m}
}

// build-time presentation state, computed outside a client environment
type buildState struct {
	lang      locale.Language
	rootClass string
	css       template.CSS
}

// Build performs a single site generation. Returns total HTML files produced.
func (g *Generator) Build() (int, error) {
	palettes, err := theme.LoadPalettes(g.cfg.Paths.Palette)
	if err != nil {
		return 0, fmt.Errorf("unable to load palettes: %w", err)
	}

	languages := &locale.Resolver{}
	root := &theme.ClassList{}
	themes := &theme.Resolver{Root: root}
	themes.Apply()
	state := buildState{
		lang:      languages.Resolve(),
		rootClass: root.String(),
		css:       template.CSS(palettes.CSS()),
	}

	public := g.cfg.Paths.Public
	for _, lang := range locale.Supported() {
		if err := os.MkdirAll(filepath.Join(public, string(lang), "blog"), 0755); err != nil {
			return 0, err
		}
	}

	articles, warnings := loadArticles(filepath.Join(g.cfg.Paths.Content, "articles"), g.cfg.Reading.WordsPerMinute)
	for _, w := range warnings {
		g.logger.Warn("skipping article", "detail", w)
	}

	count := 0
	for _, a := range articles {
		if err := g.writeArticle(a, articles, state); err != nil {
			g.logger.Warn("failed to write article", "article", a.MDName, "error", err)
			continue
		}
		count++
	}

	for _, lang := range locale.Supported() {
		if err := g.writeIndex(lang, articles, state, IndexRoute(lang), IndexRoute(lang)); err != nil {
			return count, err
		}
		if err := g.writeNotFound(lang, state); err != nil {
			return count, err
		}
		count += 2
	}

	// the root index is the build-time language's index
	if err := g.writeIndex(state.lang, articles, state, "/index.html", "/"); err != nil {
		return count, err
	}
	count++

	g.metrics.Pages(count)
	return count, nil
}

func (g *Generator) writeArticle(a article, all []article, state buildState) error {
	canonical := g.cfg.Site.URL + a.Route()
	author := a.Author
	if author == "" {
		author = g.cfg.Site.Author
	}
	description := a.Description
	if description == "" {
		description = g.cfg.Site.Description
	}

	p := g.basePage(a.Lang, state)
	p.Head.Title = a.Title
	p.Head.Description = description
	p.Head.CanonicalURL = canonical
	p.Head.OGType = "article"
	p.Post = true
	p.DateStr = a.DateStr
	p.ReadingTime = a.ReadingTime
	p.Content = template.HTML(blackfriday.Run(a.Body))
	p.ShareLinks = shareLinks(share.Post{URL: canonical, Title: a.Title, Author: author, Description: description})
	p.Related = listItems(related(all, a, g.cfg.Site.RelatedPosts))

	return writePage(filepath.Join(g.cfg.Paths.Public, filepath.FromSlash(a.Route())), p)
}

func (g *Generator) writeIndex(lang locale.Language, all []article, state buildState, route, canonicalPath string) error {
	intro, title, err := g.loadIntro(lang)
	if err != nil {
		return err
	}

	var own []article
	for _, a := range all {
		if a.Lang == lang {
			own = append(own, a)
		}
	}

	p := g.basePage(lang, state)
	p.Head.Title = title
	p.Head.Description = g.cfg.Site.Description
	p.Head.CanonicalURL = g.cfg.Site.URL + canonicalPath
	p.Head.OGType = "website"
	p.Intro = intro
	p.Articles = listItems(own)

	return writePage(filepath.Join(g.cfg.Paths.Public, filepath.FromSlash(route)), p)
}

func (g *Generator) writeNotFound(lang locale.Language, state buildState) error {
	p := g.basePage(lang, state)
	p.Head.Title = p.UI.NotFound
	p.Head.Description = g.cfg.Site.Description
	p.Head.CanonicalURL = g.cfg.Site.URL + NotFoundRoute(lang)
	p.Head.OGType = "website"
	p.NotFound = true

	return writePage(filepath.Join(g.cfg.Paths.Public, filepath.FromSlash(NotFoundRoute(lang))), p)
}

// loadIntro renders index.<lang>.md, falling back to index.md.
func (g *Generator) loadIntro(lang locale.Language) (template.HTML, string, error) {
	candidates := []string{
		filepath.Join(g.cfg.Paths.Content, "index."+string(lang)+".md"),
		filepath.Join(g.cfg.Paths.Content, "index.md"),
	}
	for _, path := range candidates {
		md, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		title := extractTitle(md)
		if title == "(no title)" {
			title = g.cfg.Site.Title
		}
		return template.HTML(blackfriday.Run(md)), title, nil
	}
	return "", g.cfg.Site.Title, nil
}

func (g *Generator) basePage(lang locale.Language, state buildState) page {
	s := stringsFor(lang)
	return page{
		Lang:      lang,
		RootClass: state.rootClass,
		CSS:       state.css,
		UI:        s,
		Languages: languageOptions(lang),
		HomeHref:  IndexRoute(lang),
		Head: head{
			SiteName:      g.cfg.Site.Title,
			OGLocale:      s.OGLocale,
			TwitterHandle: g.cfg.Site.TwitterHandle,
		},
	}
}

func listItems(articles []article) []listItem {
	items := make([]listItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, listItem{DateStr: a.DateStr, Title: a.Title, Href: a.Route(), ReadingTime: a.ReadingTime})
	}
	return items
}

func writePage(path string, p page) error {
	var buf bytes.Buffer
	if err := p.render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

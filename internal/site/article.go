package site

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhomel/hblog-i18n/internal/locale"
	"github.com/rhomel/hblog-i18n/internal/readtime"
)

type article struct {
	MDName      string
	Date        time.Time
	DateStr     string
	Title       string
	Slug        string
	Lang        locale.Language
	Author      string
	Description string
	ReadingTime int
	Body        []byte // markdown without frontmatter
}

// Route is the site path of the article.
func (a article) Route() string {
	return PostRoute(a.Lang, a.Slug)
}

// PostRoute returns the path of a post in a language.
func PostRoute(lang locale.Language, slug string) string {
	return "/" + string(lang) + "/blog/" + slug + ".html"
}

// NotFoundRoute returns the path of a language's 404 page.
func NotFoundRoute(lang locale.Language) string {
	return "/" + string(lang) + "/404.html"
}

// IndexRoute returns the path of a language's index page.
func IndexRoute(lang locale.Language) string {
	return "/" + string(lang) + "/index.html"
}

type frontmatter struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Lang        string `yaml:"lang"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	ReadingTime string `yaml:"reading_time"`
}

var articleName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.md$`)

func loadArticles(dir string, wpm int) ([]article, []string) {
	var arts []article
	var warns []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		warns = append(warns, fmt.Sprintf("cannot read directory %s: %v", dir, err))
		return arts, warns
	}
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := articleName.FindStringSubmatch(name)
		if m == nil {
			warns = append(warns, fmt.Sprintf("%s: filename does not match YYYY-MM-DD-name.md", name))
			continue
		}
		date, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: invalid date %s", name, m[1]))
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		a, err := parseArticle(raw, wpm)
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		a.MDName = name
		a.Date = date
		a.DateStr = m[1]
		if a.Slug == "" {
			a.Slug = m[2]
		}
		if prev, dup := seen[a.Route()]; dup {
			warns = append(warns, fmt.Sprintf("%s: route %s already used by %s", name, a.Route(), prev))
			continue
		}
		seen[a.Route()] = name
		arts = append(arts, a)
	}
	sort.SliceStable(arts, func(i, j int) bool { return arts[i].Date.After(arts[j].Date) })
	return arts, warns
}

func parseArticle(raw []byte, wpm int) (article, error) {
	var a article
	var fm frontmatter
	head, body, ok := readtime.Split(raw)
	if ok {
		if err := yaml.Unmarshal(head, &fm); err != nil {
			return a, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	a.Lang = locale.Default
	if fm.Lang != "" {
		lang, ok := locale.Parse(fm.Lang)
		if !ok {
			return a, fmt.Errorf("unsupported language %q", fm.Lang)
		}
		a.Lang = lang
	}

	a.Body = body
	a.Title = fm.Title
	if a.Title == "" {
		a.Title = extractTitle(body)
	}
	a.Slug = strings.Trim(fm.Slug, "/")
	a.Author = fm.Author
	a.Description = fm.Description

	a.ReadingTime = readtime.Estimate(string(body), wpm)
	if n, err := strconv.Atoi(strings.TrimSpace(fm.ReadingTime)); err == nil && n > 0 {
		a.ReadingTime = n
	}
	return a, nil
}

func extractTitle(md []byte) string {
	for _, line := range bytes.Split(md, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("# ")) {
			return strings.TrimSpace(string(bytes.TrimPrefix(line, []byte("# "))))
		}
	}
	return "(no title)"
}

// related picks up to n other articles in the same language, newest first.
func related(all []article, a article, n int) []article {
	var out []article
	for _, other := range all {
		if len(out) >= n {
			break
		}
		if other.Lang != a.Lang || other.Route() == a.Route() {
			continue
		}
		out = append(out, other)
	}
	return out
}

package theme

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Palette holds site-wide styling properties for one theme.
type Palette struct {
	FontFamily        string
	FontColor         string
	BackgroundColor   string
	LinkColor         string
	MaxContentWidth   string
	TextDeEmphasize   string // color for de-emphasized text, e.g. dates
	ArticleLineHeight string // CSS line-height for article content
}

// Palettes pairs the light and dark palettes of a site.
type Palettes struct {
	Light Palette
	Dark  Palette
}

// DefaultPalettes is used when no palette file exists.
func DefaultPalettes() Palettes {
	light := Palette{
		FontFamily:        "Helvetica, Arial, sans-serif",
		FontColor:         "#31363b",
		BackgroundColor:   "#f5f5f5",
		LinkColor:         "#1f5fa8",
		MaxContentWidth:   "760px",
		TextDeEmphasize:   "#676767",
		ArticleLineHeight: "1.6",
	}
	dark := light
	dark.FontColor = "#e8e8e8"
	dark.BackgroundColor = "#1c1f22"
	dark.LinkColor = "#7fb4ef"
	dark.TextDeEmphasize = "#9a9a9a"
	return Palettes{Light: light, Dark: dark}
}

var propertyLine = regexp.MustCompile(`^\-\s*([a-z\-]+):\s*(.+)$`)

// LoadPalettes reads a Markdown palette file. Properties are listed under
// "# Light" and "# Dark" headers as lines like:
//   - font-family: Helvetica
//   - font-color: #333333
//   - text-de-emphasize: #676767
//   - article-line-height: 1.5
//
// A "# Properties" section is read as the light palette. Dark properties
// that are not listed inherit the light value. A missing file yields
// DefaultPalettes.
func LoadPalettes(path string) (Palettes, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPalettes(), nil
		}
		return Palettes{}, err
	}
	return ParsePalettes(content), nil
}

// ParsePalettes parses palette Markdown over DefaultPalettes.
func ParsePalettes(content []byte) Palettes {
	defaults := DefaultPalettes()
	lightSet := map[string]string{}
	darkSet := map[string]string{}

	var current map[string]string
	for _, line := range bytes.Split(content, []byte("\n")) {
		trim := strings.TrimSpace(string(line))
		if strings.HasPrefix(trim, "# ") {
			switch strings.ToLower(strings.TrimSpace(trim[2:])) {
			case "light", "properties":
				current = lightSet
			case "dark":
				current = darkSet
			default:
				current = nil
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := propertyLine.FindStringSubmatch(trim); m != nil {
			current[m[1]] = strings.TrimSpace(m[2])
		}
	}

	light := defaults.Light
	applyProperties(&light, lightSet)
	// dark starts from the defaults' dark colors but follows light layout
	dark := defaults.Dark
	dark.FontFamily = light.FontFamily
	dark.MaxContentWidth = light.MaxContentWidth
	dark.ArticleLineHeight = light.ArticleLineHeight
	applyProperties(&dark, darkSet)

	return Palettes{Light: light, Dark: dark}
}

func applyProperties(p *Palette, props map[string]string) {
	for key, value := range props {
		switch key {
		case "font-family":
			p.FontFamily = value
		case "font-color":
			p.FontColor = value
		case "background-color":
			p.BackgroundColor = value
		case "link-color":
			p.LinkColor = value
		case "max-content-width":
			p.MaxContentWidth = value
		case "text-de-emphasize":
			p.TextDeEmphasize = value
		case "article-line-height":
			p.ArticleLineHeight = value
		}
	}
}

// CSS renders the palettes as a stylesheet. The dark palette applies when
// the root element carries DarkClass.
func (p Palettes) CSS() string {
	return fmt.Sprintf(`
	:root { --font-color: %s; --background-color: %s; --link-color: %s; --de-emphasize: %s; }
	html.%s { --font-color: %s; --background-color: %s; --link-color: %s; --de-emphasize: %s; }
	body { font-family: %s; color: var(--font-color); background-color: var(--background-color); }
	a { color: var(--link-color); }
	.muted { color: var(--de-emphasize); }
	.container { max-width: %s; margin: auto; }
	.container p { line-height: %s }
	.share, .related, .controls { display: flex; gap: 16px; flex-wrap: wrap; }
	.not-found { display: flex; flex-direction: column; align-items: center; }
	.not-found h1 { font-size: 15em; margin: 0; color: var(--de-emphasize); }
	@media screen and (max-width: 640px) { .not-found h1 { font-size: 5em; } }
		`,
		p.Light.FontColor, p.Light.BackgroundColor, p.Light.LinkColor, p.Light.TextDeEmphasize,
		DarkClass, p.Dark.FontColor, p.Dark.BackgroundColor, p.Dark.LinkColor, p.Dark.TextDeEmphasize,
		p.Light.FontFamily, p.Light.MaxContentWidth, p.Light.ArticleLineHeight,
	)
}

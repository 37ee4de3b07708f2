package site

import "github.com/rhomel/hblog-i18n/internal/locale"

type uiStrings struct {
	Articles     string
	MinRead      string
	Related      string
	DiscoverMore string
	Share        string
	Language     string
	ToggleTheme  string
	NotFound     string
	BackHome     string
	OGLocale     string
}

var ui = map[locale.Language]uiStrings{
	locale.English: {
		Articles:     "Articles",
		MinRead:      "min read",
		Related:      "You might also like",
		DiscoverMore: "Discover more",
		Share:        "Share",
		Language:     "Language",
		ToggleTheme:  "Toggle theme",
		NotFound:     "Page not found",
		BackHome:     "Go back to home",
		OGLocale:     "en_US",
	},
	locale.Italian: {
		Articles:     "Articoli",
		MinRead:      "min di lettura",
		Related:      "Potrebbe interessarti anche",
		DiscoverMore: "Scopri di più",
		Share:        "Condividi",
		Language:     "Lingua",
		ToggleTheme:  "Cambia tema",
		NotFound:     "Pagina non trovata",
		BackHome:     "Torna alla home",
		OGLocale:     "it_IT",
	},
}

func stringsFor(lang locale.Language) uiStrings {
	if s, ok := ui[lang]; ok {
		return s
	}
	return ui[locale.Default]
}

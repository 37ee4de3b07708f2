// Package theme resolves and persists the reader's color theme and loads
// the light and dark palettes pages are styled with.
package theme

// Theme is a color theme.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"

	// Default is used when no signal is available.
	Default = Light
)

const (
	// StorageKey is the key the persisted marker is stored under.
	StorageKey = "theme"
	// DarkClass is the root-scope class that switches styling to the dark palette.
	DarkClass = "dark"

	markerDark  = "theme-dark"
	markerLight = "theme-light"
)

// Marker returns the storage marker for t.
func (t Theme) Marker() string {
	if t == Dark {
		return markerDark
	}
	return markerLight
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// FromMarker maps a stored marker to its theme.
func FromMarker(marker string) (Theme, bool) {
	switch marker {
	case markerDark:
		return Dark, true
	case markerLight:
		return Light, true
	}
	return "", false
}

// Parse maps a theme name ("dark" or "light") to a Theme.
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Dark:
		return Dark, true
	case Light:
		return Light, true
	}
	return "", false
}

// Source identifies which signal decided a resolution.
type Source string

const (
	SourceDefault Source = "default"
	SourceStorage Source = "storage"
	SourceOS      Source = "os"
)

// Storage is a durable client-scoped key/value store.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
}

// ColorScheme reports the operating system color-scheme preference.
type ColorScheme interface {
	PrefersDark() bool
}

// ColorSchemeFunc adapts a function to ColorScheme.
type ColorSchemeFunc func() bool

func (f ColorSchemeFunc) PrefersDark() bool { return f() }

// RootScope is the root presentation scope downstream styling reads.
type RootScope interface {
	AddClass(name string)
	RemoveClass(name string)
}

// Resolver decides, persists and presents the active theme. Storage and
// ColorScheme are only consulted when Client is true.
type Resolver struct {
	Client      bool
	Storage     Storage
	ColorScheme ColorScheme
	Root        RootScope
}

// Get returns the active theme. It never fails and never writes.
func (r *Resolver) Get() Theme {
	t, _ := r.GetWithSource()
	return t
}

// GetWithSource returns the active theme and the signal that chose it.
func (r *Resolver) GetWithSource() (Theme, Source) {
	if r == nil || !r.Client {
		return Default, SourceDefault
	}
	if t, ok := r.stored(); ok {
		return t, SourceStorage
	}
	if r.ColorScheme != nil && r.ColorScheme.PrefersDark() {
		return Dark, SourceOS
	}
	return Default, SourceDefault
}

// Set persists t and applies the dark marker to the root scope.
func (r *Resolver) Set(t Theme) {
	if t != Dark {
		t = Light
	}
	if r.Client && r.Storage != nil {
		r.Storage.SetItem(StorageKey, t.Marker())
	}
	r.present(t)
}

// Toggle switches to the opposite of the active theme and returns it.
func (r *Resolver) Toggle() Theme {
	next := r.Get().Opposite()
	r.Set(next)
	return next
}

// Apply presents the active theme on the root scope without persisting it.
func (r *Resolver) Apply() Theme {
	t := r.Get()
	r.present(t)
	return t
}

// IsDark reports whether the active theme is dark.
func (r *Resolver) IsDark() bool { return r.Get() == Dark }

// IsLight reports whether the active theme is light.
func (r *Resolver) IsLight() bool { return r.Get() == Light }

// IsDefined reports whether the reader has explicitly chosen a theme.
func (r *Resolver) IsDefined() bool {
	if r == nil || !r.Client {
		return false
	}
	_, ok := r.stored()
	return ok
}

func (r *Resolver) stored() (Theme, bool) {
	if r.Storage == nil {
		return "", false
	}
	raw, ok := r.Storage.GetItem(StorageKey)
	if !ok {
		return "", false
	}
	return FromMarker(raw)
}

// present is the only place the dark class is written.
func (r *Resolver) present(t Theme) {
	if r.Root == nil {
		return
	}
	if t == Dark {
		r.Root.AddClass(DarkClass)
	} else {
		r.Root.RemoveClass(DarkClass)
	}
}

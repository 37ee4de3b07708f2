// Package config handles configuration file loading and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/rhomel/hblog-i18n/internal/readtime"
)

// Default configuration values.
const (
	DefaultPath        = "hblog.toml"
	DefaultAddr        = "localhost:8888"
	DefaultContentDir  = "blog"
	DefaultPublicDir   = "public"
	DefaultPaletteFile = "blog/themes/default.md"
	DefaultAnalyticsDB = ".data/analytics.db"
	DefaultDebounce    = 500 * time.Millisecond
	DefaultRelated     = 3
)

// ErrInvalid is wrapped by validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the hblog configuration.
type Config struct {
	Site      SiteConfig      `toml:"site"`
	Paths     PathsConfig     `toml:"paths"`
	Server    ServerConfig    `toml:"server"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Reading   ReadingConfig   `toml:"reading"`
}

// SiteConfig holds metadata rendered into page heads.
type SiteConfig struct {
	Title         string `toml:"title"`
	Description   string `toml:"description"`
	Author        string `toml:"author"`
	URL           string `toml:"url"` // absolute, no trailing slash
	TwitterHandle string `toml:"twitter_handle"`
	RelatedPosts  int    `toml:"related_posts"`
}

// PathsConfig holds input and output locations.
type PathsConfig struct {
	Content string `toml:"content"`
	Public  string `toml:"public"`
	Palette string `toml:"palette"`
}

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	Debounce string `toml:"debounce"` // rebuild debounce in watch mode
}

// AnalyticsConfig controls interaction event recording.
type AnalyticsConfig struct {
	Enabled  bool   `toml:"enabled"`
	Database string `toml:"database"`
}

// ReadingConfig controls reading-time estimates.
type ReadingConfig struct {
	WordsPerMinute int `toml:"words_per_minute"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Title:        "hblog",
			URL:          "http://" + DefaultAddr,
			RelatedPosts: DefaultRelated,
		},
		Paths: PathsConfig{
			Content: DefaultContentDir,
			Public:  DefaultPublicDir,
			Palette: DefaultPaletteFile,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			Debounce: DefaultDebounce.String(),
		},
		Analytics: AnalyticsConfig{
			Enabled:  true,
			Database: DefaultAnalyticsDB,
		},
		Reading: ReadingConfig{
			WordsPerMinute: readtime.DefaultWPM,
		},
	}
}

// Load reads the configuration at path over the defaults, then applies
// HBLOG_* environment overrides (a .env file next to the working directory
// is loaded first when present). A missing config file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("HBLOG_ADDR"); ok {
		if v == "" {
			return fmt.Errorf("%w: HBLOG_ADDR must not be empty", ErrInvalid)
		}
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("HBLOG_SITE_URL"); ok {
		c.Site.URL = v
	}
	if v, ok := os.LookupEnv("HBLOG_ANALYTICS_DB"); ok {
		if v == "" {
			c.Analytics.Enabled = false
		} else {
			c.Analytics.Database = v
		}
	}
	if v, ok := os.LookupEnv("HBLOG_WPM"); ok {
		wpm, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HBLOG_WPM must be an integer: %v", ErrInvalid, err)
		}
		c.Reading.WordsPerMinute = wpm
	}
	if v, ok := os.LookupEnv("HBLOG_DEBOUNCE"); ok {
		c.Server.Debounce = v
	}
	return nil
}

// Validate checks value ranges and normalizes the site URL.
func (c *Config) Validate() error {
	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	if c.Site.URL == "" {
		return fmt.Errorf("%w: site.url must not be empty", ErrInvalid)
	}
	if c.Reading.WordsPerMinute < 1 || c.Reading.WordsPerMinute > 10000 {
		return fmt.Errorf("%w: reading.words_per_minute must be between 1 and 10000", ErrInvalid)
	}
	if c.Site.RelatedPosts < 0 {
		return fmt.Errorf("%w: site.related_posts must not be negative", ErrInvalid)
	}
	if _, err := c.DebounceInterval(); err != nil {
		return err
	}
	if filepath.Clean(c.Paths.Public) == "." {
		return fmt.Errorf("%w: paths.public must not resolve to current directory", ErrInvalid)
	}
	return nil
}

// DebounceInterval parses the watch-mode rebuild debounce.
func (c *Config) DebounceInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.Debounce)
	if err != nil {
		return 0, fmt.Errorf("%w: server.debounce must be a valid duration: %v", ErrInvalid, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: server.debounce must be greater than 0", ErrInvalid)
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	FormatJSON = "json"
	FormatAtom = "atom"
	FormatRSS2 = "rss2"
)

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Search   SearchConfig   `mapstructure:"search"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Media    MediaConfig    `mapstructure:"media"`
}

type FeedConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Format            string        `mapstructure:"format"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	AllowLocal        bool          `mapstructure:"allow_local"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Timezone string        `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
	Archive     bool          `mapstructure:"archive"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
}

type MediaConfig struct {
	DefaultOpener string `mapstructure:"default_opener"`
	// ImageViewers are tried in order for image URLs; the first one found
	// on PATH wins.
	ImageViewers []string `mapstructure:"image_viewers"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Feed: FeedConfig{
			BaseURL:     "https://api.flickr.com/services/feeds/",
			Format:      FormatJSON,
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "fotag/1.0 (https://github.com/pders01/fotag)",
		},
		Search: SearchConfig{
			Debounce: 1000 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".fotag.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".fotag", "index.bleve"),
			Archive:     true,
		},
		Log: LogConfig{
			Level: "off",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
			},
		},
		Media: MediaConfig{
			DefaultOpener: getDefaultOpener(),
			ImageViewers:  getDefaultImageViewers(),
		},
	}
}

func getDefaultImageViewers() []string {
	if runtime.GOOS == "linux" {
		return []string{"feh", "sxiv", "eog"}
	}
	return []string{}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is the config file used when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "fotag", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, "", fileView(defaultConfig()))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FOTAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Feed.Format {
	case FormatJSON, FormatAtom, FormatRSS2:
	default:
		return fmt.Errorf("invalid feed format %q (want json, atom or rss2)", c.Feed.Format)
	}
	if c.Feed.RequestsPerSecond < 0 {
		return fmt.Errorf("feed.requests_per_second must not be negative")
	}
	if c.Search.Debounce <= 0 {
		return fmt.Errorf("search.debounce must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves search.timezone; empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Search.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Search.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Search.Timezone, err)
	}
	return loc, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// Dump renders cfg as TOML with durations as strings.
func Dump(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(fileView(cfg))
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

func Save(config *Config, path string) error {
	data, err := Dump(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// fileView converts durations to strings so the TOML stays readable and
// parses back through viper.
func fileView(c *Config) map[string]any {
	return map[string]any{
		"feed": map[string]any{
			"base_url":            c.Feed.BaseURL,
			"format":              c.Feed.Format,
			"http_timeout":        c.Feed.HTTPTimeout.String(),
			"user_agent":          c.Feed.UserAgent,
			"requests_per_second": c.Feed.RequestsPerSecond,
			"allow_local":         c.Feed.AllowLocal,
		},
		"search": map[string]any{
			"debounce": c.Search.Debounce.String(),
			"timezone": c.Search.Timezone,
		},
		"database": map[string]any{
			"path":         c.Database.Path,
			"timeout":      c.Database.Timeout.String(),
			"search_index": c.Database.SearchIndex,
			"archive":      c.Database.Archive,
		},
		"log": map[string]any{
			"level": c.Log.Level,
			"file":  c.Log.File,
		},
		"ui": map[string]any{
			"colors": map[string]any{
				"primary":   c.UI.Colors.Primary,
				"secondary": c.UI.Colors.Secondary,
				"accent":    c.UI.Colors.Accent,
				"text":      c.UI.Colors.Text,
				"muted":     c.UI.Colors.Muted,
				"error":     c.UI.Colors.Error,
			},
		},
		"media": map[string]any{
			"default_opener": c.Media.DefaultOpener,
			"image_viewers":  c.Media.ImageViewers,
		},
	}
}

// setDefaults registers every leaf of m so partial files and env vars
// override single keys instead of whole sections.
func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, val)
	}
}

package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config suitable for testing. Files live under dir;
// the feed points at baseURL and local hosts are allowed.
func TestConfig(dir, baseURL string) *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL:     baseURL,
			Format:      FormatJSON,
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "fotag-test/1.0",
			AllowLocal:  true,
		},
		Search: SearchConfig{
			Debounce: 20 * time.Millisecond,
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dir, "test.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dir, "index.bleve"),
			Archive:     true,
		},
		Log:   LogConfig{Level: "off"},
		UI:    defaultConfig().UI,
		Media: defaultConfig().Media,
	}
}

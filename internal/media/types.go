package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed photo_types.toml
var photoTypesTOML []byte

type Type int

const (
	TypeUnknown Type = iota
	TypeImage
	TypePage
)

func (t Type) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypePage:
		return "page"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Image TypeConfig `toml:"image"`
	Page  TypeConfig `toml:"page"`
}

// TypeDetector classifies photo URLs.
type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var cfg TypesConfig
	if err := toml.Unmarshal(photoTypesTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing photo types: %w", err)
	}
	return &TypeDetector{config: &cfg}, nil
}

func (d *TypeDetector) DetectType(raw string) Type {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return TypeUnknown
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext != "" && contains(d.config.Image.Extensions, ext) {
		return TypeImage
	}

	hostPath := strings.ToLower(u.Host + u.Path)
	if matchesPattern(hostPath, d.config.Image.URLPatterns) {
		return TypeImage
	}
	if matchesPattern(hostPath, d.config.Page.URLPatterns) {
		return TypePage
	}
	return TypeUnknown
}

func contains(values []string, v string) bool {
	for _, e := range values {
		if e == v {
			return true
		}
	}
	return false
}

func matchesPattern(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fotag/internal/config"
)

func TestShowBanner(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Flickr Tag Gallery v1.0.0-test") {
		t.Errorf("Expected banner to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator, got: %s", out)
	}
}

func TestTagline(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"", "Flickr Tag Gallery"},
		{"dev", "Flickr Tag Gallery"},
		{"1.2.0", "Flickr Tag Gallery v1.2.0"},
		{"v1.2.0", "Flickr Tag Gallery v1.2.0"},
	}
	for _, tt := range tests {
		if got := Tagline(tt.version); got != tt.want {
			t.Errorf("Tagline(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestGetCompactBanner(t *testing.T) {
	result := GetCompactBanner("Test message")

	if !strings.Contains(result, "Test message") {
		t.Errorf("Expected compact banner to contain message, got: %s", result)
	}
	if !strings.Contains(result, "▄████") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 5 {
		t.Errorf("Expected 5 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 5 {
		t.Errorf("Expected 5 banner colors, got %d", len(BannerColors))
	}
}

func TestApplyTheme(t *testing.T) {
	primary, muted := PrimaryColor, MutedColor
	t.Cleanup(func() {
		PrimaryColor, MutedColor = primary, muted
		buildStyles()
	})

	ApplyTheme(config.UIColors{Primary: "#123456"})

	if PrimaryColor != lipgloss.Color("#123456") {
		t.Errorf("PrimaryColor = %v, want #123456", PrimaryColor)
	}
	if MutedColor != muted {
		t.Errorf("empty entries should keep the built-in color, got %v", MutedColor)
	}
	if LogoStyle.GetForeground() != lipgloss.Color("#123456") {
		t.Errorf("styles were not rebuilt")
	}
}

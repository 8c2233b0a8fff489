package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fotag/internal/config"
)

const AppName = "fotag"

// LogoLines is the canonical fotag logo.
var LogoLines = []string{
	" ▄████ ▄████▄ ▄██████ ▄████▄  ▄████▄",
	"██▀    ██  ██   ██   ██  ██ ██▀  ▀▀",
	"██▀▀▀▀ ██  ██   ██   ██▀▀██ ██ ▄▄▄",
	"██     ██  ██   ██   ██  ██ ██▄  ██",
	"██      ▀███▀   ██   ██  ██  ▀████▀",
}

const CompactLogo = `fotag ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#FF6B6B"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	HighlightColor = lipgloss.Color("#FFE66D")
	ErrorColor     = lipgloss.Color("#EF4444")
	SuccessColor   = lipgloss.Color("#10B981")
)

// Styled components, rebuilt by ApplyTheme.
var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	ErrorMessageStyle  lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	SpinnerStyle       lipgloss.Style

	// Empty style for resetting
	EmptyStyle = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

// ApplyTheme replaces the brand colors with the configured ones. Empty
// entries keep the built-in color.
func ApplyTheme(colors config.UIColors) {
	set := func(dst *lipgloss.Color, value string) {
		if value != "" {
			*dst = lipgloss.Color(value)
		}
	}
	set(&PrimaryColor, colors.Primary)
	set(&SecondaryColor, colors.Secondary)
	set(&AccentColor, colors.Accent)
	set(&TextColor, colors.Text)
	set(&MutedColor, colors.Muted)
	set(&ErrorColor, colors.Error)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(HighlightColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(AccentColor)
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Type a tag to search public photos")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Tagline returns the banner subtitle for version.
func Tagline(version string) string {
	if version == "" || version == "dev" {
		return "Flickr Tag Gallery"
	}
	if version[0] != 'v' && version[0] != 'V' {
		version = "v" + version
	}
	return fmt.Sprintf("Flickr Tag Gallery %s", version)
}

func ShowBanner(version string) {
	lines := make([]string, len(LogoLines)+1, len(LogoLines)+2)
	copy(lines, LogoLines)
	lines = append(lines, "    "+Tagline(version))

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}

		colorIdx := i % len(BannerColors)
		style := lipgloss.NewStyle().
			Foreground(BannerColors[colorIdx]).
			Bold(i < len(LogoLines))

		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	borderStyle := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	banner := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)
	output := borderStyle.Render(banner)

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(output))

	separator := lipgloss.NewStyle().
		Foreground(AccentColor).
		Render("◆ ◇ ◆ ◇ ◆")

	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render(separator))
}

package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	title = clip(title, width-2)
	subtitle = clip(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderStatus renders a transient status message by severity.
func renderStatus(text string, kind StatusKind) string {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render(text)
	case StatusWarn:
		return StatusWarnStyle.Render(text)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + text)
	default:
		return StatusInfoStyle.Render(text)
	}
}

// clip cuts s to width terminal cells, ending in an ellipsis when cut.
func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// clipMiddle keeps both ends of s, which matters for photo URLs where the
// host and the file name identify the photo.
func clipMiddle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	head := (width - 1) / 2
	tail := width - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/search"
)

// waitForChange blocks until the pipeline signals a change or the app is
// closed.
func (a *App) waitForChange() tea.Cmd {
	changes, done := a.changes, a.done
	return func() tea.Msg {
		select {
		case <-changes:
			return stateChangedMsg{}
		case <-done:
			return nil
		}
	}
}

// detailMarkdown renders a photo as markdown for the detail pane.
func detailMarkdown(p gallery.DisplayPhoto) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", photoTitle(p)))
	if p.PublishedAt != "" {
		content.WriteString(fmt.Sprintf("*Published: %s*\n\n", p.PublishedAt))
	}
	if author := strings.TrimSpace(p.Author); author != "" {
		content.WriteString(fmt.Sprintf("**By:** %s\n\n", author))
	}
	if p.URL != "" {
		content.WriteString(fmt.Sprintf("[View image](%s)\n\n", p.URL))
	}

	content.WriteString("---\n\n")

	if text := gallery.PlainText(p.Description); text != "" {
		content.WriteString(text)
	} else {
		content.WriteString("_No description._")
	}
	content.WriteString("\n")
	return content.String()
}

func (a *App) renderDetail(p gallery.DisplayPhoto) tea.Cmd {
	renderer, err := a.getRenderer()
	if err != nil {
		return func() tea.Msg {
			return failed("render", err)
		}
	}
	markdown := detailMarkdown(p)
	return func() tea.Msg {
		rendered, err := renderer.Render(markdown)
		if err != nil {
			return detailRenderedMsg{content: markdown}
		}
		return detailRenderedMsg{content: rendered}
	}
}

func (a *App) searchArchive(query string) tea.Cmd {
	searcher := a.searcher
	return func() tea.Msg {
		results, err := searcher.Search(query, search.DefaultLimit)
		if err != nil {
			return failed("archive search", err)
		}
		return archiveResultsMsg{query: query, results: results}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	opener := a.opener
	return func() tea.Msg {
		if opener == nil {
			return errorMsg{err: fmt.Errorf("no opener configured")}
		}
		if err := opener.Open(url); err != nil {
			return failed("open", err)
		}
		return statusMsg{text: MsgOpened(url), kind: StatusSuccess}
	}
}

// failed reports err as the outcome of action in the status bar.
func failed(action string, err error) tea.Msg {
	return errorMsg{err: fmt.Errorf("%s: %w", action, err)}
}

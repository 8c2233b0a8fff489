package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// archiveDebounce delays archive searches while the user is typing.
const archiveDebounce = 150 * time.Millisecond

type KeyHandler struct {
	app        *App
	archiveSeq int
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := kh.app.keys
	if key.Matches(msg, keys.ForceQuit) {
		return kh.app, tea.Quit
	}

	// Any key dismisses the last status message.
	kh.app.clearStatus()

	switch kh.app.view {
	case ViewDetail:
		return kh.handleDetailKeys(msg)
	case ViewArchive:
		return kh.handleArchiveKeys(msg)
	}

	if key.Matches(msg, keys.Archive) {
		return kh.enterArchive()
	}
	if kh.app.focus == FocusInput {
		return kh.handleQueryKeys(msg)
	}
	return kh.handlePhotoKeys(msg)
}

func (kh *KeyHandler) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, a.keys.ClearQuery):
		a.queryInput.SetValue("")
		if err := a.pipeline.ClearQuery(); err != nil {
			a.setStatus(err.Error(), StatusError)
		}
		return a, nil

	case key.Matches(msg, a.keys.SwitchFocus, a.keys.Down), msg.Type == tea.KeyEnter:
		if len(a.photos) > 0 {
			a.focusList()
		}
		return a, nil
	}

	prev := a.queryInput.Value()
	var cmd tea.Cmd
	a.queryInput, cmd = a.queryInput.Update(msg)
	if value := a.queryInput.Value(); value != prev {
		if err := a.pipeline.SubmitQuery(value); err != nil {
			a.setStatus(err.Error(), StatusError)
		}
	}
	return a, cmd
}

func (kh *KeyHandler) handlePhotoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.SwitchFocus), msg.String() == "/":
		a.focusInput()
		return a, nil

	case key.Matches(msg, a.keys.Back):
		kh.clearSelection()
		a.focusInput()
		return a, nil

	case key.Matches(msg, a.keys.ClearSelection):
		kh.clearSelection()
		a.setStatus(MsgSelectionCleared, StatusInfo)
		return a, nil

	case key.Matches(msg, a.keys.Details):
		if !kh.selectCurrent() {
			return a, nil
		}
		return kh.openDetail()

	case key.Matches(msg, a.keys.Open):
		if !kh.selectCurrent() {
			return a, nil
		}
		photo, _ := a.selectedPhoto()
		return a, a.openURL(photo.URL)
	}

	prev := a.photoList.Index()
	var cmd tea.Cmd
	a.photoList, cmd = a.photoList.Update(msg)
	if a.photoList.Index() != prev {
		kh.selectCurrent()
	}
	return a, cmd
}

// selectCurrent publishes the list cursor as the pipeline selection and
// reports whether a photo is selected afterwards.
func (kh *KeyHandler) selectCurrent() bool {
	a := kh.app
	if len(a.photos) == 0 {
		return false
	}
	if err := a.pipeline.SelectItem(a.photoList.Index()); err != nil {
		a.setStatus(err.Error(), StatusError)
		return false
	}
	a.state = a.pipeline.State().Current()
	_, ok := a.selectedPhoto()
	return ok
}

func (kh *KeyHandler) clearSelection() {
	a := kh.app
	if err := a.pipeline.ClearSelection(); err != nil {
		a.setStatus(err.Error(), StatusError)
		return
	}
	a.state = a.pipeline.State().Current()
}

func (kh *KeyHandler) openDetail() (tea.Model, tea.Cmd) {
	a := kh.app
	photo, ok := a.selectedPhoto()
	if !ok {
		a.setStatus(MsgNoSelection, StatusWarn)
		return a, nil
	}
	a.detailPhoto = &photo
	a.view = ViewDetail
	a.renderingDetail = true
	return a, a.renderDetail(photo)
}

func (kh *KeyHandler) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, a.keys.Back, a.keys.Quit, a.keys.ClearSelection):
		a.view = ViewGallery
		a.detailPhoto = nil
		a.renderingDetail = false
		return a, nil

	case key.Matches(msg, a.keys.Open):
		if a.detailPhoto == nil {
			return a, nil
		}
		return a, a.openURL(a.detailPhoto.URL)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) enterArchive() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.searcher == nil {
		a.setStatus(MsgArchiveDisabled, StatusWarn)
		return a, nil
	}
	a.view = ViewArchive
	a.archiveFocus = FocusInput
	a.queryInput.Blur()
	return a, a.archiveInput.Focus()
}

func (kh *KeyHandler) leaveArchive() (tea.Model, tea.Cmd) {
	a := kh.app
	a.view = ViewGallery
	a.archiveInput.Blur()
	if a.focus == FocusInput {
		return a, a.queryInput.Focus()
	}
	return a, nil
}

func (kh *KeyHandler) handleArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if key.Matches(msg, a.keys.Back) {
		return kh.leaveArchive()
	}

	if a.archiveFocus == FocusInput {
		if key.Matches(msg, a.keys.SwitchFocus, a.keys.Down) || msg.Type == tea.KeyEnter {
			if len(a.archiveList.Items()) > 0 {
				a.archiveFocus = FocusList
				a.archiveInput.Blur()
				a.archiveList.Select(0)
			}
			return a, nil
		}
		return kh.delegateToArchiveInput(msg)
	}

	switch {
	case key.Matches(msg, a.keys.SwitchFocus):
		a.archiveFocus = FocusInput
		return a, a.archiveInput.Focus()

	case key.Matches(msg, a.keys.Details, a.keys.Open):
		item, ok := a.archiveList.SelectedItem().(archiveItem)
		if !ok {
			return a, nil
		}
		target := item.result.Photo.Link
		if target == "" {
			target = item.result.Photo.MediaURL
		}
		return a, a.openURL(target)

	case key.Matches(msg, a.keys.Up) && a.archiveList.Index() == 0:
		a.archiveFocus = FocusInput
		return a, a.archiveInput.Focus()
	}

	var cmd tea.Cmd
	a.archiveList, cmd = a.archiveList.Update(msg)
	return a, cmd
}

// delegateToArchiveInput updates the archive query and schedules a search
// once typing pauses.
func (kh *KeyHandler) delegateToArchiveInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	prev := a.archiveInput.Value()
	var cmd tea.Cmd
	a.archiveInput, cmd = a.archiveInput.Update(msg)

	value := strings.TrimSpace(a.archiveInput.Value())
	if value == strings.TrimSpace(prev) {
		return a, cmd
	}
	kh.archiveSeq++
	if len([]rune(value)) < 2 {
		a.archiveList.SetItems(nil)
		return a, cmd
	}
	seq := kh.archiveSeq
	return a, tea.Batch(cmd, tea.Tick(archiveDebounce, func(time.Time) tea.Msg {
		return archiveDebounceMsg{seq: seq, query: value}
	}))
}

// handleArchiveDebounce runs the search if no newer input arrived.
func (kh *KeyHandler) handleArchiveDebounce(msg archiveDebounceMsg) tea.Cmd {
	if msg.seq != kh.archiveSeq || kh.app.view != ViewArchive {
		return nil
	}
	return kh.app.searchArchive(msg.query)
}

// HelpBindings returns the keys shown in the status bar for the current
// view and focus.
func (kh *KeyHandler) HelpBindings() bindings {
	a := kh.app
	k := a.keys
	switch a.view {
	case ViewDetail:
		return bindings{k.Back, k.Open, k.ForceQuit}
	case ViewArchive:
		if a.archiveFocus == FocusInput {
			return bindings{k.SwitchFocus, k.Back, k.ForceQuit}
		}
		return bindings{k.Details, k.SwitchFocus, k.Back}
	}
	if a.focus == FocusInput {
		b := bindings{k.ClearQuery, k.Down, k.ForceQuit}
		if a.searcher != nil {
			b = append(b, k.Archive)
		}
		return b
	}
	return bindings{k.Details, k.Open, k.ClearSelection, k.SwitchFocus, k.Quit}
}

type archiveDebounceMsg struct {
	seq   int
	query string
}

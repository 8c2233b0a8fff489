package tui

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/search"
)

// Opener launches a URL in an external application.
type Opener interface {
	Open(url string) error
}

type App struct {
	config          *config.Config
	pipeline        *gallery.Pipeline
	opener          Opener
	searcher        search.Searcher
	keys            keyMap
	keyHandler      *KeyHandler
	queryInput      textinput.Model
	photoList       list.Model
	archiveInput    textinput.Model
	archiveList     list.Model
	viewport        viewport.Model
	spinner         spinner.Model
	help            help.Model
	view            View
	focus           Focus
	archiveFocus    Focus
	state           gallery.UiState
	photos          []gallery.DisplayPhoto
	detailPhoto     *gallery.DisplayPhoto
	changes         chan struct{}
	done            chan struct{}
	closeOnce       sync.Once
	unsubscribe     []func()
	spinning        bool
	status          string
	statusKind      StatusKind
	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	renderingDetail bool
}

// NewApp builds the gallery model around an initialized pipeline. searcher
// may be nil, which disables the archive view.
func NewApp(cfg *config.Config, pipeline *gallery.Pipeline, opener Opener, searcher search.Searcher) *App {
	ApplyTheme(cfg.UI.Colors)

	photoList := list.New([]list.Item{}, newDelegate(), 0, 0)
	photoList.Title = "› photos"
	photoList.Styles.Title = TitleStyle
	photoList.SetShowStatusBar(false)
	photoList.SetFilteringEnabled(false)
	photoList.SetShowHelp(false)

	archiveList := list.New([]list.Item{}, newDelegate(), 0, 0)
	archiveList.Title = "› archive"
	archiveList.Styles.Title = TitleStyle
	archiveList.SetShowStatusBar(false)
	archiveList.SetFilteringEnabled(false)
	archiveList.SetShowHelp(false)

	qi := textinput.New()
	qi.Placeholder = "Search a tag..."
	qi.Prompt = "# "
	qi.Focus()

	ai := textinput.New()
	ai.Placeholder = "Search archived photos..."

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(SpinnerStyle),
	)

	app := &App{
		config:       cfg,
		pipeline:     pipeline,
		opener:       opener,
		searcher:     searcher,
		keys:         newKeyMap(),
		queryInput:   qi,
		photoList:    photoList,
		archiveInput: ai,
		archiveList:  archiveList,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		help:         help.New(),
		view:         ViewGallery,
		focus:        FocusInput,
		changes:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	app.keyHandler = NewKeyHandler(app)

	// Observers run on whichever goroutine changed the state, so they only
	// signal; the state itself is read back on the UI goroutine.
	notify := func() {
		select {
		case app.changes <- struct{}{}:
		default:
		}
	}
	app.unsubscribe = []func(){
		pipeline.State().Subscribe(func(gallery.UiState) { notify() }),
		pipeline.SubscribeQuery(func(string) { notify() }),
	}
	app.syncState()

	return app
}

func newDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(AccentColor).
		BorderForeground(AccentColor)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(SecondaryColor).
		BorderForeground(AccentColor)
	return d
}

// Close detaches the app from the pipeline.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		for _, unsubscribe := range a.unsubscribe {
			unsubscribe()
		}
		close(a.done)
	})
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.waitForChange(), textinput.Blink}
	if a.loading() {
		a.spinning = true
		cmds = append(cmds, a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		if a.view == ViewDetail && a.detailPhoto != nil {
			return a, a.renderDetail(*a.detailPhoto)
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case stateChangedMsg:
		return a, tea.Batch(a.syncState(), a.waitForChange())

	case spinner.TickMsg:
		if !a.loading() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case detailRenderedMsg:
		if a.view == ViewDetail {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.renderingDetail = false
		}

	case archiveDebounceMsg:
		return a, a.keyHandler.handleArchiveDebounce(msg)

	case archiveResultsMsg:
		if a.view == ViewArchive && msg.query == strings.TrimSpace(a.archiveInput.Value()) {
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = archiveItem{result: r}
			}
			a.archiveList.SetItems(items)
			if len(items) == 0 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else {
				a.setStatus(MsgResultsCount(len(items)), StatusInfo)
			}
		}

	case statusMsg:
		a.setStatus(msg.text, msg.kind)

	case errorMsg:
		a.renderingDetail = false
		a.setStatus(msg.err.Error(), StatusError)
	}

	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	// header, framed input, separator and status bar
	listHeight := max(height-8, 3)
	a.photoList.SetSize(width, listHeight)
	a.archiveList.SetSize(width, listHeight)

	a.viewport.Width = width
	a.viewport.Height = max(height-5, 1)

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = max(width-4, 1)
	}
	a.queryInput.Width = inputWidth
	a.archiveInput.Width = inputWidth
	a.help.Width = width
}

// syncState reads the latest snapshot from the pipeline into the widgets.
func (a *App) syncState() tea.Cmd {
	state := a.pipeline.State().Current()
	a.state = state

	photos := gallery.PhotosOf(state)
	if !slices.Equal(a.photos, photos) {
		a.photos = photos
		items := make([]list.Item, len(photos))
		for i, p := range photos {
			items[i] = photoItem{photo: p}
		}
		a.photoList.SetItems(items)
		a.photoList.ResetSelected()
	}
	if sel := gallery.SelectedOf(state); sel >= 0 && sel < len(a.photos) && a.photoList.Index() != sel {
		a.photoList.Select(sel)
	}
	if len(a.photos) == 0 && a.focus == FocusList {
		a.focusInput()
	}

	if q := a.pipeline.Query(); q != a.queryInput.Value() {
		a.queryInput.SetValue(q)
		a.queryInput.CursorEnd()
	}

	if a.loading() && !a.spinning {
		a.spinning = true
		return a.spinner.Tick
	}
	return nil
}

func (a *App) loading() bool {
	return gallery.StatusOf(a.state).Loading
}

func (a *App) connectionFailed() bool {
	return gallery.StatusOf(a.state).Error == gallery.ErrorConnectionFailed
}

// selectedPhoto returns the photo selected in the pipeline state.
func (a *App) selectedPhoto() (gallery.DisplayPhoto, bool) {
	sel := gallery.SelectedOf(a.state)
	if sel < 0 || sel >= len(a.photos) {
		return gallery.DisplayPhoto{}, false
	}
	return a.photos[sel], true
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) focusInput() {
	a.focus = FocusInput
	a.queryInput.Focus()
}

func (a *App) focusList() {
	a.focus = FocusList
	a.queryInput.Blur()
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewGallery:
		content = a.galleryView()
	case ViewDetail:
		content = a.detailView()
	case ViewArchive:
		content = a.archiveView()
	}

	content = ContentWrapper(a.width, max(a.height-2, 0)).Render(content)

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.getCustomStatusBar())
}

func (a *App) galleryView() string {
	rows := []string{a.galleryHeader()}
	rows = append(rows, renderInputFrame(a.queryInput.View(), a.focus == FocusInput, a.queryInput.Width))

	if a.connectionFailed() {
		rows = append(rows, ErrorMessageStyle.Render("✗ "+MsgConnectionFailed))
	}

	switch {
	case len(a.photos) > 0:
		rows = append(rows, a.photoList.View())
	case a.queryInput.Value() == "":
		rows = append(rows, renderCentered(a.width, max(a.height-8, 0), GetWelcomeMessage()))
	case !a.loading():
		rows = append(rows, renderCentered(a.width, max(a.height-8, 0), renderMuted(MsgNoPhotos)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) galleryHeader() string {
	title := LogoStyle.Render(CompactLogo)
	if a.loading() {
		return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", a.spinner.View(), renderMuted(MsgSearching))
	}
	if n := len(a.photos); n > 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", renderMuted(MsgPhotosCount(a.pipeline.Query(), n)))
	}
	return title
}

func (a *App) detailView() string {
	if a.detailPhoto == nil {
		return renderCentered(a.width, max(a.height-2, 0), renderMuted(MsgNoSelection))
	}
	header := renderHeader("› "+photoTitle(*a.detailPhoto), a.detailPhoto.PublishedAt, a.width)
	if a.renderingDetail {
		return lipgloss.JoinVertical(lipgloss.Top, header, renderMuted(MsgRenderingDetail))
	}
	return lipgloss.JoinVertical(lipgloss.Top, header, a.viewport.View())
}

func (a *App) archiveView() string {
	rows := []string{
		renderHeader("› archive", "search photos from earlier tag searches", a.width),
		renderInputFrame(a.archiveInput.View(), a.archiveFocus == FocusInput, a.archiveInput.Width),
	}
	if len(a.archiveList.Items()) > 0 {
		rows = append(rows, a.archiveList.View())
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

func (a *App) getCustomStatusBar() string {
	style := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(MutedColor)

	if a.status != "" {
		return style.Render(renderStatus(a.status, a.statusKind))
	}
	return style.Render(a.help.View(a.keyHandler.HelpBindings()))
}

func photoTitle(p gallery.DisplayPhoto) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "Untitled"
}

type photoItem struct {
	photo gallery.DisplayPhoto
}

func (i photoItem) Title() string { return photoTitle(i.photo) }

func (i photoItem) Description() string {
	parts := make([]string, 0, 2)
	if author := strings.TrimSpace(i.photo.Author); author != "" {
		parts = append(parts, author)
	}
	if i.photo.PublishedAt != "" {
		parts = append(parts, i.photo.PublishedAt)
	}
	return strings.Join(parts, " • ")
}

func (i photoItem) FilterValue() string { return i.photo.Title }

type archiveItem struct {
	result *search.Result
}

func (i archiveItem) Title() string {
	if t := strings.TrimSpace(i.result.Photo.Title); t != "" {
		return t
	}
	return "Untitled"
}

func (i archiveItem) Description() string {
	desc := strings.Join(i.result.Photo.Queries, ", ")
	if len(i.result.Matches) > 0 {
		m := i.result.Matches[0]
		desc = fmt.Sprintf("%s • %s: %s", desc, m.Field, clip(m.Text, 60))
	}
	return desc
}

func (i archiveItem) FilterValue() string { return i.result.Photo.Title }

type stateChangedMsg struct{}

type detailRenderedMsg struct {
	content string
}

type archiveResultsMsg struct {
	query   string
	results []*search.Result
}

type statusMsg struct {
	text string
	kind StatusKind
}

type errorMsg struct {
	err error
}

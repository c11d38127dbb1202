package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/pathoscreen/internal/database/repository"
	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/media"
	"github.com/jask/pathoscreen/internal/screening"
)

// Analysis runs attempts and lists the local history.
type Analysis interface {
	Run(ctx context.Context, req screening.AnalysisRequest) (screening.AnalysisResult, error)
	Recent(ctx context.Context, limit int) ([]repository.Analysis, error)
}

// Library is the slide source behind the picker.
type Library interface {
	RequestPermission(ctx context.Context) error
	List(ctx context.Context) ([]media.Entry, error)
	Open(path string) (screening.SlideImage, error)
}

// Deps are the collaborators of the screen.
type Deps struct {
	Analysis Analysis
	Library  Library
	// VariantSelected is called after the user changes model, e.g. to persist it.
	VariantSelected func(tag string)
}

const historyLimit = 20

// App is the single analysis screen.
type App struct {
	ctx       context.Context
	ctrl      *screening.Controller
	presenter screening.Presenter
	deps      Deps

	focus      focusField
	modal      modalState
	cardCursor int

	organ    textinput.Model
	clinical textinput.Model
	spinner  spinner.Model
	bar      progress.Model
	picker   list.Model
	help     help.Model
	keys     keyMap

	history []repository.Analysis
	notice  *screening.Notice
	status  string
	width   int
	height  int
}

type focusField string

const (
	focusVariants focusField = "variants"
	focusOrgan    focusField = "organ"
	focusContext  focusField = "context"
)

type modalState string

const (
	modalNone    modalState = ""
	modalPicker  modalState = "picker"
	modalHistory modalState = "history"
)

func New(ctx context.Context, ctrl *screening.Controller, deps Deps) *App {
	organ := textinput.New()
	organ.Placeholder = "Enter organ (e.g., Liver, Kidney...)"
	organ.CharLimit = 64
	organ.Prompt = ""

	clinical := textinput.New()
	clinical.Placeholder = "Add clinical history, staining details, etc."
	clinical.CharLimit = 500
	clinical.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	picker := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Upload Pathology Slide"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(false)
	picker.SetShowHelp(false)
	picker.DisableQuitKeybindings()

	a := &App{
		ctx:       ctx,
		ctrl:      ctrl,
		presenter: screening.NewPresenter(ctrl),
		deps:      deps,
		focus:     focusVariants,
		organ:     organ,
		clinical:  clinical,
		spinner:   sp,
		bar:       progress.New(progress.WithSolidFill(string(barColor)), progress.WithoutPercentage(), progress.WithWidth(cardWidth-4)),
		picker:    picker,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	a.cardCursor = max(0, ctrl.Catalog().Index(ctrl.State().Variant.Tag))
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.resize()
		return a, nil
	case tea.KeyMsg:
		if key.Matches(m, a.keys.ForceQuit) {
			return a, tea.Quit
		}
		// notices are one-shot: the next key dismisses them
		a.notice = nil
		switch a.modal {
		case modalPicker:
			return a.handlePickerKey(m)
		case modalHistory:
			return a.handleHistoryKey(m)
		}
		switch a.ctrl.Phase() {
		case screening.PhaseSubmitting:
			return a.handleSubmittingKey(m)
		case screening.PhaseResultReady:
			return a.handleResultKey(m)
		default:
			return a.handleConfiguringKey(m)
		}
	case spinner.TickMsg:
		if a.ctrl.Phase() != screening.PhaseSubmitting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case analysisDoneMsg:
		if !a.ctrl.OnSuccess(m.id, m.result) {
			logx.Debug().Str("request_id", m.id).Msg("dropping stale analysis result")
			return a, nil
		}
		// the result screen has no fields; keys go back to the cards afterwards
		a.setFocus(focusVariants)
		a.status = ""
		return a, nil
	case analysisFailedMsg:
		notice, applied := a.ctrl.OnFailure(m.id, m.err)
		if !applied {
			logx.Debug().Str("request_id", m.id).Msg("dropping stale analysis failure")
			return a, nil
		}
		a.notice = &notice
		a.status = ""
		return a, nil
	case libraryMsg:
		a.picker.SetItems(m.items)
		a.picker.Select(0)
		a.modal = modalPicker
		a.status = ""
		if len(m.items) == 0 {
			a.status = "no images in the slide library"
		}
		return a, nil
	case noticeMsg:
		n := screening.Notice(m)
		a.notice = &n
		a.status = ""
		return a, nil
	case historyMsg:
		a.history = []repository.Analysis(m)
		a.modal = modalHistory
		return a, nil
	case errMsg:
		a.status = "error: " + m.Error()
		return a, nil
	}
	return a, nil
}

func (a *App) handleConfiguringKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	typing := a.focus != focusVariants
	switch {
	case key.Matches(m, a.keys.Next):
		return a, a.moveFocus(1)
	case key.Matches(m, a.keys.Prev):
		return a, a.moveFocus(-1)
	case key.Matches(m, a.keys.Submit):
		return a, a.submit()
	case m.String() == "ctrl+o":
		return a, a.openPicker()
	case typing && key.Matches(m, a.keys.Back):
		a.setFocus(focusVariants)
		return a, nil
	case typing:
		return a, a.updateInput(m)
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Left):
		a.moveCard(-1)
	case key.Matches(m, a.keys.Right):
		a.moveCard(1)
	case key.Matches(m, a.keys.Pick):
		return a, a.openPicker()
	case key.Matches(m, a.keys.History):
		return a, a.loadHistory()
	}
	return a, nil
}

func (a *App) handleSubmittingKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Left):
		a.moveCard(-1)
	case key.Matches(m, a.keys.Right):
		a.moveCard(1)
	}
	// everything else, a second submit included, waits for the response
	return a, nil
}

func (a *App) handleResultKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.New):
		if a.presenter.NewAnalysis() {
			a.organ.SetValue("")
			a.clinical.SetValue("")
			a.setFocus(focusVariants)
		}
	case key.Matches(m, a.keys.Pick):
		return a, a.openPicker()
	case key.Matches(m, a.keys.History):
		return a, a.loadHistory()
	}
	return a, nil
}

func (a *App) handlePickerKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		// cancelled picker keeps the previous slide
		a.modal = modalNone
		a.status = ""
		return a, nil
	case "enter":
		item, ok := a.picker.SelectedItem().(slideItem)
		a.modal = modalNone
		if !ok {
			return a, nil
		}
		img, err := a.deps.Library.Open(item.entry.Path)
		if err != nil {
			if errors.Is(err, media.ErrNotImage) {
				n := screening.InvalidImageNotice(item.entry.Name)
				a.notice = &n
				return a, nil
			}
			a.status = "error: " + err.Error()
			return a, nil
		}
		a.ctrl.SetImage(&img)
		a.status = ""
		return a, nil
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(m)
	return a, cmd
}

func (a *App) handleHistoryKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Back), key.Matches(m, a.keys.History), key.Matches(m, a.keys.Quit):
		a.modal = modalNone
	}
	return a, nil
}

// submit is the only path from the screen into Controller.Submit.
func (a *App) submit() tea.Cmd {
	req, ok := a.ctrl.Submit()
	if !ok {
		if !a.ctrl.CanSubmit() && a.ctrl.Phase() == screening.PhaseConfiguring {
			a.status = a.blockedReason()
		}
		return nil
	}
	a.status = ""
	logx.Info().Str("request_id", req.ID).Str("variant", req.Variant.Tag).Msg("analysis submitted")
	return tea.Batch(a.analyzeCmd(req), a.spinner.Tick)
}

func (a *App) blockedReason() string {
	s := a.ctrl.State()
	switch {
	case s.Image == nil:
		return "attach a slide first"
	default:
		return "organ is required"
	}
}

func (a *App) analyzeCmd(req screening.AnalysisRequest) tea.Cmd {
	if a.deps.Analysis == nil {
		return func() tea.Msg {
			return analysisFailedMsg{id: req.ID, err: fmt.Errorf("analysis service not configured")}
		}
	}
	ctx := a.ctx
	run := a.deps.Analysis.Run
	return func() tea.Msg {
		res, err := run(ctx, req)
		if err != nil {
			return analysisFailedMsg{id: req.ID, err: err}
		}
		return analysisDoneMsg{id: req.ID, result: res}
	}
}

func (a *App) openPicker() tea.Cmd {
	if a.ctrl.Phase() == screening.PhaseSubmitting {
		return nil
	}
	if a.deps.Library == nil {
		return func() tea.Msg { return noticeMsg(screening.PermissionNotice()) }
	}
	lib := a.deps.Library
	ctx := a.ctx
	a.status = "opening slide library..."
	return func() tea.Msg {
		if err := lib.RequestPermission(ctx); err != nil {
			logx.Warn().Err(err).Msg("slide library permission")
			return noticeMsg(screening.PermissionNotice())
		}
		entries, err := lib.List(ctx)
		if err != nil {
			if errors.Is(err, media.ErrPermissionDenied) {
				return noticeMsg(screening.PermissionNotice())
			}
			return errMsg{err}
		}
		items := make([]list.Item, 0, len(entries))
		for _, e := range entries {
			items = append(items, slideItem{entry: e})
		}
		return libraryMsg{items: items}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.deps.Analysis == nil {
		return func() tea.Msg { return historyMsg(nil) }
	}
	ctx := a.ctx
	recent := a.deps.Analysis.Recent
	return func() tea.Msg {
		rows, err := recent(ctx, historyLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(rows)
	}
}

func (a *App) moveCard(delta int) {
	tiers := a.ctrl.Catalog().Tiers()
	if len(tiers) == 0 {
		return
	}
	next := a.cardCursor + delta
	if next < 0 || next >= len(tiers) {
		return
	}
	a.cardCursor = next
	v := tiers[next].Variant
	a.ctrl.SelectVariant(v)
	if a.deps.VariantSelected != nil {
		a.deps.VariantSelected(v.Tag)
	}
}

func (a *App) moveFocus(delta int) tea.Cmd {
	order := []focusField{focusVariants, focusOrgan, focusContext}
	idx := 0
	for i, f := range order {
		if f == a.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return a.setFocus(order[idx])
}

func (a *App) setFocus(f focusField) tea.Cmd {
	a.focus = f
	a.blurInputs()
	switch f {
	case focusOrgan:
		return a.organ.Focus()
	case focusContext:
		return a.clinical.Focus()
	}
	return nil
}

func (a *App) blurInputs() {
	a.organ.Blur()
	a.clinical.Blur()
}

// updateInput forwards a key to the focused field and mirrors it into the controller.
func (a *App) updateInput(m tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusOrgan:
		a.organ, cmd = a.organ.Update(m)
		a.ctrl.SetOrgan(a.organ.Value())
	case focusContext:
		a.clinical, cmd = a.clinical.Update(m)
		a.ctrl.SetClinicalContext(a.clinical.Value())
	}
	return cmd
}

func (a *App) resize() {
	w := a.width - 4
	if w < 30 {
		w = 30
	}
	a.organ.Width = w - 4
	a.clinical.Width = w - 4
	a.picker.SetSize(min(70, w), max(6, a.height-6))
	a.help.Width = a.width
}

// messages
type analysisDoneMsg struct {
	id     string
	result screening.AnalysisResult
}

type analysisFailedMsg struct {
	id  string
	err error
}

type libraryMsg struct {
	items []list.Item
}

type noticeMsg screening.Notice

type historyMsg []repository.Analysis

type errMsg struct{ error }

type slideItem struct {
	entry media.Entry
}

func (s slideItem) Title() string { return s.entry.Name }
func (s slideItem) Description() string {
	return fmt.Sprintf("%s · %s", s.entry.MIME, humanSize(s.entry.Size))
}
func (s slideItem) FilterValue() string { return s.entry.Name }

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

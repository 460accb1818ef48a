package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"projcal/internal/api"
	"projcal/internal/calendar"
	"projcal/internal/loader"
	"projcal/internal/model"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Hooks let the host react to navigation out of the calendar. A nil hook
// falls back to the built-in behaviour.
type Hooks struct {
	// OnProjectClick runs after the day overlay closes on a project. The
	// default opens the project summary view.
	OnProjectClick func(model.Project) tea.Cmd
	// OnEpicClick runs as the epic detail opens.
	OnEpicClick func(model.Epic) tea.Cmd
	// OnTaskSaved runs when a task detail closes.
	OnTaskSaved func(model.Task) tea.Cmd
}

type Options struct {
	Loader    *loader.Loader
	Clock     calendar.Clock
	Location  *time.Location
	WeekStart time.Weekday
	// AgendaThreshold is the width below which the agenda layout is used.
	AgendaThreshold int
	DashboardURL    string
	// ScopeTitle names the initial project scope in the header.
	ScopeTitle string
	Hooks      Hooks
	Logger     *log.Logger
	// OpenURL opens a dashboard link; defaults to the platform opener.
	OpenURL func(string) error
	Context context.Context
}

type shellState int

const (
	stateLoading shellState = iota
	stateReady
)

type loadDoneMsg struct {
	result loader.Result
}

type openProjectMsg struct {
	project model.Project
}

type urlOpenDoneMsg struct {
	url string
	err error
}

type appModel struct {
	ctx       context.Context
	loader    *loader.Loader
	clock     calendar.Clock
	loc       *time.Location
	weekStart time.Weekday
	threshold int
	dashboard string
	hooks     Hooks
	log       *log.Logger
	openURL   func(string) error

	width  int
	height int

	// ref is the displayed month and carries the wall-clock time the
	// navigation started from; cursor is ref's day at midnight.
	ref    time.Time
	cursor time.Time

	spinner spinner.Model
	// bodyOffset is the first visible line of the scrolled month body.
	bodyOffset int

	day      *dayOverlay
	detail   *entityDetail
	project  *projectSummary
	jump     *jumpPrompt
	showHelp bool

	scopeTitle string
	status     string
	statusErr  bool
}

func newAppModel(opts Options) appModel {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	clock := opts.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = OpenInBrowser
	}

	m := appModel{
		ctx:        ctx,
		loader:     opts.Loader,
		clock:      clock,
		loc:        loc,
		weekStart:  opts.WeekStart,
		threshold:  opts.AgendaThreshold,
		dashboard:  strings.TrimSpace(opts.DashboardURL),
		hooks:      opts.Hooks,
		log:        logger.WithPrefix("tui"),
		openURL:    openURL,
		scopeTitle: strings.TrimSpace(opts.ScopeTitle),
	}
	if m.threshold <= 0 {
		m.threshold = DefaultAgendaThreshold
	}
	if m.hooks.OnProjectClick == nil {
		m.hooks.OnProjectClick = func(p model.Project) tea.Cmd {
			return func() tea.Msg { return openProjectMsg{project: p} }
		}
	}

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot

	m.setCursor(m.now())
	return m
}

func (m appModel) Init() tea.Cmd {
	return m.startLoad()
}

func (m appModel) now() time.Time {
	return m.clock.Now().In(m.loc)
}

func (m appModel) today() time.Time {
	return calendar.StartOfDay(m.now())
}

func (m appModel) state() shellState {
	if m.loader.Loading() {
		return stateLoading
	}
	return stateReady
}

// startLoad issues a new ticket and runs it off the update loop. Only the
// latest ticket's result is applied when it comes back.
func (m appModel) startLoad() tea.Cmd {
	wasLoading := m.loader.Loading()
	t := m.loader.Start()
	l, ctx := m.loader, m.ctx
	run := func() tea.Msg { return loadDoneMsg{result: l.Run(ctx, t)} }
	if wasLoading {
		return run
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncBodyOffset()
		return m, nil

	case loadDoneMsg:
		if !m.loader.Apply(msg.result) {
			return m, nil
		}
		if err := msg.result.Err; err != nil {
			m.setError(loadErrorHint(err))
		} else if m.statusErr {
			m.clearStatus()
		}
		m.syncBodyOffset()
		return m, nil

	case spinner.TickMsg:
		if !m.loader.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case openProjectMsg:
		m.project = &projectSummary{project: msg.project}
		return m, nil

	case urlOpenDoneMsg:
		if msg.err != nil {
			m.log.Warn("open url failed", "url", msg.url, "err", msg.err)
			m.setError("Could not open " + msg.url + ": " + msg.err.Error())
		} else {
			m.setStatus("Opened " + msg.url)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.jump != nil {
		var cmd tea.Cmd
		m.jump.input, cmd = m.jump.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	switch {
	case m.jump != nil:
		return m.updateJump(msg)
	case m.showHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	case m.detail != nil:
		return m.updateDetail(msg)
	case m.day != nil:
		return m.updateDay(msg)
	case m.project != nil:
		return m.updateProject(msg)
	}
	return m.updateCalendar(msg)
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	m.loader.Close()
	return m, tea.Quit
}

func (m appModel) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "left", "h":
		m.moveCursor(-1)
	case "right", "l":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-7)
	case "down", "j":
		m.moveCursor(7)
	case "[", "p", "pgup":
		m.setCursor(calendar.AddMonths(m.ref, -1))
	case "]", "n", "pgdown":
		m.setCursor(calendar.AddMonths(m.ref, 1))
	case "t":
		m.setCursor(m.now())
	case "m":
		m.jump = newJumpPrompt(jumpMonth, m.cursor)
		return m, textinput.Blink
	case "y":
		m.jump = newJumpPrompt(jumpYear, m.cursor)
		return m, textinput.Blink
	case "enter":
		m.day = newDayOverlay(m.cursor, m.loader.Bucket().At(m.cursor))
	case "r":
		m.clearStatus()
		return m, m.startLoad()
	case "a":
		if !m.loader.Scope().IsAll() {
			m.loader.SetScope(model.AllScope())
			m.scopeTitle = ""
			m.clearStatus()
			return m, m.startLoad()
		}
	case "?":
		m.showHelp = true
	}
	return m, nil
}

func (m *appModel) moveCursor(days int) {
	m.setCursor(m.ref.AddDate(0, 0, days))
}

// setCursor focuses t's day; the displayed month follows it. t is kept as
// given in ref so month and year jumps keep its time of day.
func (m *appModel) setCursor(t time.Time) {
	m.ref = t
	m.cursor = calendar.StartOfDay(t)
	m.syncBodyOffset()
}

func (m appModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.jump = nil
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.jump.input.Value())
		if raw == "" {
			m.jump = nil
			return m, nil
		}
		if m.jump.field == jumpMonth {
			mon, ok := calendar.ParseMonth(raw)
			if !ok {
				m.jump.err = "Unknown month: " + raw
				return m, nil
			}
			m.setCursor(calendar.WithMonth(m.ref, mon))
		} else {
			y, err := strconv.Atoi(raw)
			if err != nil || y < 1 || y > 9999 {
				m.jump.err = "Not a year: " + raw
				return m, nil
			}
			m.setCursor(calendar.WithYear(m.ref, y))
		}
		m.jump = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.jump.input, cmd = m.jump.input.Update(msg)
	m.jump.err = ""
	return m, cmd
}

func (m appModel) updateDay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		return m.closeDay()
	case "up", "k", "shift+tab":
		m.day.move(-1)
	case "down", "j", "tab":
		m.day.move(1)
	case "enter":
		e, ok := m.day.current()
		if !ok {
			return m, nil
		}
		switch v := e.(type) {
		case model.Project:
			m2, reload := m.closeDay()
			return m2, tea.Batch(reload, m.hooks.OnProjectClick(v))
		case model.Epic:
			m.detail = newEntityDetail(v, m.width, m.height)
			if m.hooks.OnEpicClick != nil {
				return m, m.hooks.OnEpicClick(v)
			}
		case model.Task:
			m.detail = newEntityDetail(v, m.width, m.height)
		}
	}
	return m, nil
}

// closeDay clears the selected day and reloads if a nested detail may have
// changed something.
func (m appModel) closeDay() (appModel, tea.Cmd) {
	mutated := m.day != nil && m.day.mutated
	m.day = nil
	if mutated {
		return m, m.startLoad()
	}
	return m, nil
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		e := m.detail.entity
		m.detail = nil
		if m.day != nil {
			m.day.mutated = true
		}
		if t, ok := e.(model.Task); ok && m.hooks.OnTaskSaved != nil {
			return m, m.hooks.OnTaskSaved(t)
		}
		return m, nil
	case "o":
		return m, m.openDashboard(m.detail.entity)
	}
	var cmd tea.Cmd
	m.detail.vp, cmd = m.detail.vp.Update(msg)
	return m, cmd
}

func (m appModel) updateProject(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.project = nil
	case "c":
		p := m.project.project
		m.project = nil
		m.loader.SetScope(model.ProjectScope(p.ID))
		m.scopeTitle = p.Title
		m.clearStatus()
		return m, m.startLoad()
	case "o":
		return m, m.openDashboard(m.project.project)
	}
	return m, nil
}

func (m *appModel) openDashboard(e model.Entity) tea.Cmd {
	u, err := api.DashboardURL(m.dashboard, e)
	if err != nil {
		m.setError("Cannot link " + e.Kind().Label() + ": " + err.Error())
		return nil
	}
	open := m.openURL
	return func() tea.Msg { return urlOpenDoneMsg{url: u, err: open(u)} }
}

func (m *appModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *appModel) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *appModel) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func loadErrorHint(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "Not authorised: check PROJCAL_TOKEN. Showing cached data (r to retry)."
	default:
		return "Load failed: " + err.Error() + ". Showing cached data (r to retry)."
	}
}

// syncBodyOffset keeps the cursor day (agenda) or week (grid) inside the
// scrolled body.
func (m *appModel) syncBodyOffset() {
	h := m.scrollHeight()
	if h <= 0 {
		m.bodyOffset = 0
		return
	}
	var top, bottom int
	if modeFor(m.width, m.threshold) == layoutGrid {
		_, top, bottom = renderGridWeeks(m.monthView())
	} else {
		_, top, bottom = renderAgenda(m.monthView())
	}
	if top < m.bodyOffset {
		m.bodyOffset = top
	}
	if bottom >= m.bodyOffset+h {
		m.bodyOffset = bottom - h + 1
	}
	if m.bodyOffset > top {
		m.bodyOffset = top
	}
	m.bodyOffset = max(m.bodyOffset, 0)
}

func (m appModel) monthView() monthView {
	return monthView{
		ref:       m.ref,
		cursor:    m.cursor,
		today:     m.today(),
		weekStart: m.weekStart,
		bucket:    m.loader.Bucket(),
		width:     m.width,
	}
}

// bodyHeight is the space left for the month after the header, legend and
// status lines.
func (m appModel) bodyHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(m.height-4, 1)
}

// scrollHeight is the viewport height for the scrolled part of the body.
// The grid's weekday header stays pinned above it.
func (m appModel) scrollHeight() int {
	h := m.bodyHeight()
	if h <= 0 {
		return 0
	}
	if modeFor(m.width, m.threshold) == layoutGrid {
		return max(h-2, 1)
	}
	return h
}

func newBodyViewport(content string, w, h, offset int) viewport.Model {
	vp := viewport.New(w, h)
	vp.SetContent(content)
	vp.SetYOffset(offset)
	return vp
}

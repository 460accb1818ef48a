package tui

import (
	"strconv"
	"strings"
	"time"

	"projcal/internal/calendar"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.project != nil {
		return m.project.render(m.width, m.height)
	}

	base := m.viewCalendar()
	var fg string
	switch {
	case m.jump != nil:
		fg = m.jump.render(m.width)
	case m.showHelp:
		fg = renderHelp(m.width)
	case m.detail != nil:
		fg = m.detail.render(m.width)
	case m.day != nil:
		fg = m.day.render(m.width)
	}
	if fg == "" {
		return base
	}
	if m.detail != nil && m.day != nil && m.jump == nil && !m.showHelp {
		// The day list stays visible behind the nested detail.
		base = composeCentered(base, m.width, m.height, m.day.render(m.width))
	}
	return composeCentered(base, m.width, m.height, fg)
}

func (m appModel) viewCalendar() string {
	v := m.monthView()

	var body string
	if modeFor(m.width, m.threshold) == layoutGrid {
		weeks, _, _ := renderGridWeeks(v)
		body = renderGridHeader(v) + "\n" + m.scrolled(weeks, m.width)
	} else {
		content, _, _ := renderAgenda(v)
		body = m.scrolled(content, max(m.width, 20))
	}

	parts := []string{m.viewHeader(), body, renderLegend(), m.viewStatus()}
	return strings.Join(parts, "\n")
}

// scrolled shows content through a viewport at bodyOffset, or whole when
// the terminal height is not known yet.
func (m appModel) scrolled(content string, width int) string {
	h := m.scrollHeight()
	if h <= 0 {
		return content
	}
	return newBodyViewport(content, width, h, m.bodyOffset).View()
}

func (m appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render(
		styleChrome().Render(glyphPrev()) + " " + m.ref.Format("January 2006") + " " + styleChrome().Render(glyphNext()),
	)
	scope := "All projects"
	if s := m.loader.Scope(); !s.IsAll() {
		scope = m.scopeTitle
		if scope == "" {
			scope = "Project #" + strconv.Itoa(s.ProjectID)
		}
	}
	head := title + "   " + styleMuted().Render("Scope: ") + scope
	if m.state() == stateLoading {
		head += "   " + m.spinner.View() + " Loading" + glyphEllipsis()
	}
	if m.width > 0 {
		return fitWidth(head, m.width)
	}
	return head
}

func (m appModel) viewStatus() string {
	if m.status != "" {
		if m.statusErr {
			return styleError().Render(m.status)
		}
		return styleMuted().Render(m.status)
	}
	return styleMuted().Render("arrows: move   [ ]: month   t: today   enter: open day   r: reload   ?: help   q: quit")
}

// MonthOptions describes a one-shot month rendering.
type MonthOptions struct {
	Ref             time.Time
	Today           time.Time
	WeekStart       time.Weekday
	Bucket          calendar.Bucket
	Width           int
	AgendaThreshold int
}

// RenderMonth renders a month outside the interactive shell, picking the
// grid or agenda layout from the width like the shell does.
func RenderMonth(o MonthOptions) string {
	v := monthView{
		ref:       o.Ref,
		cursor:    time.Time{},
		today:     o.Today,
		weekStart: o.WeekStart,
		bucket:    o.Bucket,
		width:     o.Width,
	}
	head := lipgloss.NewStyle().Bold(true).Render(o.Ref.Format("January 2006"))
	var body string
	if modeFor(o.Width, o.AgendaThreshold) == layoutGrid {
		body = renderGrid(v)
	} else {
		body, _, _ = renderAgenda(v)
	}
	return head + "\n" + body + "\n" + renderLegend()
}

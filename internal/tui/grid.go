package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"projcal/internal/calendar"
	"projcal/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const (
	// maxVisiblePerDay caps the entities drawn in a day cell or agenda day;
	// the rest collapse into a "+N more" line.
	maxVisiblePerDay = 4

	// DefaultAgendaThreshold is the terminal width below which the month is
	// shown as an agenda list instead of a grid.
	DefaultAgendaThreshold = 100

	minCellWidth = 8

	// gridCellHeight is the day line, the entity rows and the "+N more" line.
	gridCellHeight = 1 + maxVisiblePerDay + 1
)

type layoutMode int

const (
	layoutAgenda layoutMode = iota
	layoutGrid
)

func modeFor(width, threshold int) layoutMode {
	if threshold <= 0 {
		threshold = DefaultAgendaThreshold
	}
	if width >= threshold {
		return layoutGrid
	}
	return layoutAgenda
}

// monthView is everything the renderers need; it holds no UI state.
type monthView struct {
	ref       time.Time
	cursor    time.Time
	today     time.Time
	weekStart time.Weekday
	bucket    calendar.Bucket
	width     int
}

// visibleSplit returns how many of n entities are drawn and how many are
// folded into "+N more".
func visibleSplit(n int) (shown, hidden int) {
	shown = min(n, maxVisiblePerDay)
	return shown, n - shown
}

func moreLine(hidden int) string {
	return "+" + strconv.Itoa(hidden) + " more"
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}

func gridCellWidth(width int) int {
	return max((width-8)/7, minCellWidth)
}

func gridRule(cellW int) string {
	return lipgloss.NewStyle().Foreground(colorBorder).Render(
		"├" + strings.Repeat(strings.Repeat("─", cellW)+"┼", 6) + strings.Repeat("─", cellW) + "┤")
}

func gridBar() string {
	return lipgloss.NewStyle().Foreground(colorBorder).Render("│")
}

// renderGrid draws the weekday header and one bordered row per week.
// Out-of-month cells show a muted day number and nothing else.
func renderGrid(v monthView) string {
	weeks, _, _ := renderGridWeeks(v)
	return renderGridHeader(v) + "\n" + weeks
}

// renderGridHeader is the weekday line and the rule under it. The calendar
// screen keeps it pinned while the weeks scroll.
func renderGridHeader(v monthView) string {
	cellW := gridCellWidth(v.width)
	bar := gridBar()
	cells := make([]string, 7)
	for i, h := range calendar.WeekdayHeaders(v.weekStart) {
		cells[i] = styleChrome().Bold(true).Render(fitWidth(" "+h, cellW))
	}
	return bar + strings.Join(cells, bar) + bar + "\n" + gridRule(cellW)
}

// renderGridWeeks draws the week rows, each followed by a rule. It also
// returns the line range of the cursor's week, rule included.
func renderGridWeeks(v monthView) (content string, cursorTop, cursorBottom int) {
	cellW := gridCellWidth(v.width)
	bar := gridBar()
	rule := gridRule(cellW)

	var lines []string
	for _, week := range calendar.BuildWeeks(v.ref, v.weekStart) {
		start := len(lines)
		rendered := make([][]string, 7)
		for i, day := range week {
			rendered[i] = renderCell(v, day, cellW)
			if calendar.SameDay(day, v.cursor) {
				cursorTop, cursorBottom = start, start+gridCellHeight
			}
		}
		for line := 0; line < gridCellHeight; line++ {
			row := make([]string, 7)
			for i := range row {
				row[i] = rendered[i][line]
			}
			lines = append(lines, bar+strings.Join(row, bar)+bar)
		}
		lines = append(lines, rule)
	}
	return strings.Join(lines, "\n"), cursorTop, cursorBottom
}

func renderCell(v monthView, day time.Time, w int) []string {
	lines := make([]string, gridCellHeight)
	for i := range lines {
		lines[i] = strings.Repeat(" ", w)
	}
	if !calendar.SameMonth(day, v.ref) {
		lines[0] = styleMuted().Render(fitWidth(fmt.Sprintf(" %2d", day.Day()), w))
		return lines
	}

	items := v.bucket.At(day)
	focused := calendar.SameDay(day, v.cursor)

	head := fmt.Sprintf(" %2d", day.Day())
	if calendar.SameDay(day, v.today) {
		head += " " + styleToday().Render("Today")
	}
	if n := len(items); n > 0 {
		head += styleMuted().Render(" (" + strconv.Itoa(n) + ")")
	}
	lines[0] = fitWidth(head, w)

	shown, hidden := visibleSplit(len(items))
	for i := 0; i < shown; i++ {
		e := items[i]
		lines[1+i] = fitWidth(" "+kindBadge(e.Kind())+" "+e.EntityTitle(), w)
	}
	if hidden > 0 {
		lines[1+shown] = styleMuted().Render(fitWidth(" "+moreLine(hidden), w))
	}

	if focused {
		for i := range lines {
			lines[i] = styleSelected().Render(fitWidth(stripStyles(lines[i]), w))
		}
	}
	return lines
}

// renderAgenda lists every day of the month. It also returns the line
// range occupied by the cursor day so callers can keep it scrolled into view.
func renderAgenda(v monthView) (content string, cursorTop, cursorBottom int) {
	width := max(v.width, 20)
	var lines []string
	for _, day := range calendar.MonthDays(v.ref) {
		items := v.bucket.At(day)
		focused := calendar.SameDay(day, v.cursor)
		start := len(lines)

		marker := "  "
		if focused {
			marker = glyphCursor() + " "
		}
		head := marker + day.Format("Mon 02 Jan")
		if calendar.SameDay(day, v.today) {
			head += "  " + styleToday().Render("Today")
		}
		head += "  " + styleMuted().Render(itemCount(len(items)))
		if focused {
			head = styleSelected().Render(fitWidth(stripStyles(head), width))
		} else {
			head = fitWidth(head, width)
		}
		lines = append(lines, head)

		shown, hidden := visibleSplit(len(items))
		for _, e := range items[:shown] {
			row := "    " + kindBadge(e.Kind()) + " " + e.EntityTitle() + "  " + styleMuted().Render(e.Kind().Label())
			lines = append(lines, fitWidth(row, width))
		}
		if hidden > 0 {
			lines = append(lines, styleMuted().Render(fitWidth("    "+moreLine(hidden), width)))
		}
		if focused {
			cursorTop, cursorBottom = start, len(lines)-1
		}
	}
	return strings.Join(lines, "\n"), cursorTop, cursorBottom
}

func renderLegend() string {
	parts := make([]string, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		parts = append(parts, kindBadge(k)+" "+k.Label())
	}
	return strings.Join(parts, "   ")
}

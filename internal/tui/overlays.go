package tui

import (
	"fmt"
	"strings"
	"time"

	"projcal/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// dayOverlay lists the entities due on one day. The list is a snapshot of
// the bucket taken when the overlay opened.
type dayOverlay struct {
	day      time.Time
	entities []model.Entity
	selected int
	// mutated is set when a nested detail closed; the calendar reloads when
	// this overlay closes.
	mutated bool
}

func newDayOverlay(day time.Time, entities []model.Entity) *dayOverlay {
	return &dayOverlay{day: day, entities: append([]model.Entity(nil), entities...)}
}

func (d *dayOverlay) move(delta int) {
	if len(d.entities) == 0 {
		return
	}
	d.selected = (d.selected + delta + len(d.entities)) % len(d.entities)
}

func (d *dayOverlay) current() (model.Entity, bool) {
	if d.selected < 0 || d.selected >= len(d.entities) {
		return nil, false
	}
	return d.entities[d.selected], true
}

func (d *dayOverlay) render(termW int) string {
	w := modalWidth(termW, 72)
	bodyW := modalBodyWidth(w)

	var lines []string
	if len(d.entities) == 0 {
		lines = append(lines, styleMuted().Render("No items scheduled"))
	}
	for i, e := range d.entities {
		row := "  " + kindBadge(e.Kind()) + " " + e.EntityTitle() + "  " + styleMuted().Render("["+e.Kind().Label()+"]")
		if i == d.selected {
			row = styleSelected().Render(fitWidth(glyphCursor()+" "+kindIcon(e.Kind())+" "+e.EntityTitle()+"  ["+e.Kind().Label()+"]", bodyW))
		}
		lines = append(lines, row)
		if desc := firstLine(model.Description(e)); desc != "" {
			lines = append(lines, styleMuted().Render(fitWidth("    "+desc, bodyW)))
		}
	}
	lines = append(lines, "", styleMuted().Render("j/k: move   enter: open   esc: close"))
	return renderModalBox(w, d.day.Format("Monday, January 2 2006"), strings.Join(lines, "\n"))
}

// entityDetail is the nested overlay for an epic or task.
type entityDetail struct {
	entity model.Entity
	vp     viewport.Model
}

func newEntityDetail(e model.Entity, termW, termH int) *entityDetail {
	w := modalWidth(termW, 80)
	bodyW := modalBodyWidth(w)
	h := max(termH-12, 5)
	vp := viewport.New(bodyW, h)
	vp.SetContent(detailBody(e, bodyW))
	if n := vp.TotalLineCount(); n < h {
		vp.Height = max(n, 1)
	}
	return &entityDetail{entity: e, vp: vp}
}

func (d *entityDetail) render(termW int) string {
	w := modalWidth(termW, 80)
	title := d.entity.Kind().Label() + ": " + d.entity.EntityTitle()
	help := styleMuted().Render("j/k: scroll   o: open in dashboard   esc: back")
	return renderModalBox(w, title, d.vp.View()+"\n\n"+help)
}

// detailBody is the metadata block followed by the rendered description.
func detailBody(e model.Entity, width int) string {
	var meta []string
	add := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		meta = append(meta, styleMuted().Render(label+": ")+value)
	}
	add("Status", model.Status(e))
	switch v := e.(type) {
	case model.Epic:
		add("Priority", v.Priority)
		add("Project", fmt.Sprintf("#%d", v.ProjectID))
	case model.Task:
		add("Type", v.IssueType)
		add("Priority", v.Priority)
		if v.Project != nil && v.Project.Title != "" {
			add("Project", v.Project.Title)
		} else if pid := v.OwningProjectID(); pid != 0 {
			add("Project", fmt.Sprintf("#%d", pid))
		}
		if v.BigTaskID != nil {
			add("Epic", fmt.Sprintf("#%d", *v.BigTaskID))
		}
		add("Created by", v.CreatorName)
	}
	add("Due", e.DueRaw())

	body := strings.Join(meta, "\n")
	desc := renderMarkdown(model.Description(e), width)
	if desc == "" {
		desc = styleMuted().Render("No description")
	}
	return body + "\n\n" + desc
}

// projectSummary is the default destination of a project click: a
// read-only summary from which the calendar can be scoped to the project.
type projectSummary struct {
	project model.Project
}

func (p projectSummary) render(w, h int) string {
	bodyW := max(w-4, 20)
	title := lipgloss.NewStyle().Bold(true).Foreground(colorProject).Render(kindIcon(model.KindProject) + " " + p.project.Title)
	parts := []string{title, "", detailBody(p.project, bodyW), "",
		styleMuted().Render("c: show this project's calendar   o: open in dashboard   esc: back")}
	return lipgloss.NewStyle().Padding(1, 2).Render(normalizePane(strings.Join(parts, "\n"), bodyW, max(h-2, 0)))
}

type jumpField int

const (
	jumpMonth jumpField = iota
	jumpYear
)

type jumpPrompt struct {
	field jumpField
	input textinput.Model
	err   string
}

func newJumpPrompt(field jumpField, current time.Time) *jumpPrompt {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 12
	if field == jumpMonth {
		in.Placeholder = current.Month().String()
	} else {
		in.Placeholder = fmt.Sprintf("%d", current.Year())
	}
	in.Focus()
	return &jumpPrompt{field: field, input: in}
}

func (j *jumpPrompt) render(termW int) string {
	w := modalWidth(termW, 44)
	title := "Jump to month"
	hint := "1-12 or a month name"
	if j.field == jumpYear {
		title = "Jump to year"
		hint = "a year, e.g. 2025"
	}
	body := " " + j.input.View() + "\n\n" + styleMuted().Render(hint+"   enter: go   esc: cancel")
	if j.err != "" {
		body += "\n" + styleError().Render(j.err)
	}
	return renderModalBox(w, title, body)
}

func renderHelp(termW int) string {
	rows := [][2]string{
		{"←/→/↑/↓ h/l/k/j", "move the day cursor"},
		{"[ p pgup", "previous month"},
		{"] n pgdown", "next month"},
		{"t", "today"},
		{"m / y", "jump to month / year"},
		{"enter", "open day"},
		{"a", "show all projects"},
		{"r", "reload"},
		{"?", "toggle help"},
		{"q ctrl+c", "quit"},
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Bold(true).Width(18).Render(r[0]) + r[1])
	}
	return renderModalBox(modalWidth(termW, 52), "Keys", b.String())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

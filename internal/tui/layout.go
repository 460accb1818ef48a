package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// fitWidth cuts s (ANSI-aware) to at most width columns, marking the cut
// with an ellipsis, and pads it to exactly width.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		if width == 1 {
			s = xansi.Cut(s, 0, 1)
		} else {
			s = xansi.Cut(s, 0, width-1) + "\x1b[0m" + glyphEllipsis()
		}
		w = xansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// normalizePane forces s to exactly width columns and height lines, so
// joined columns and composed overlays line up. height <= 0 keeps the line
// count.
func normalizePane(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i := range lines {
		lines[i] = fitWidth(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

// composeCentered draws fg over the centre of bg, keeping the background
// visible around it.
func composeCentered(bg string, width, height int, fg string) string {
	if width <= 0 || height <= 0 {
		return fg
	}
	bgLines := strings.Split(normalizePane(bg, width, height), "\n")
	if fg == "" {
		return strings.Join(bgLines, "\n")
	}
	fgLines := strings.Split(fg, "\n")

	fgW := 0
	for _, ln := range fgLines {
		if w := xansi.StringWidth(ln); w > fgW {
			fgW = w
		}
	}
	fgW = min(fgW, width)
	fgH := min(len(fgLines), height)

	offX := max((width-fgW)/2, 0)
	offY := max((height-fgH)/2, 0)

	for row := 0; row < fgH; row++ {
		y := offY + row
		base := bgLines[y]
		prefix := xansi.Cut(base, 0, offX)
		suffix := xansi.Cut(base, offX+fgW, width)
		bgLines[y] = prefix + "\x1b[0m" + fitWidth(fgLines[row], fgW) + "\x1b[0m" + suffix
	}
	return strings.Join(bgLines, "\n")
}

// modalWidth picks an overlay width for the terminal.
func modalWidth(termW, preferred int) int {
	w := preferred
	if termW > 0 && w > termW-4 {
		w = termW - 4
	}
	return max(w, 24)
}

// modalBodyWidth is the usable text width inside renderModalBox.
func modalBodyWidth(w int) int {
	return max(w-4, 10)
}

// renderModalBox draws a bordered overlay of total width w.
func renderModalBox(w int, title, body string) string {
	bodyW := modalBodyWidth(w)
	head := lipgloss.NewStyle().Bold(true).Render(fitWidth(title, bodyW))
	content := head + "\n\n" + normalizePane(body, bodyW, 0)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorModalBorder).
		Padding(0, 1).
		Render(content)
}

// stripStyles drops ANSI styling so a line can be restyled as a whole.
func stripStyles(s string) string {
	return xansi.Strip(s)
}

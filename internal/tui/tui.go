// Package tui is the interactive month calendar.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the calendar in the alternate screen until the user quits.
func Run(opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference()

	m := newAppModel(opts)
	var pOpts []tea.ProgramOption
	pOpts = append(pOpts, tea.WithAltScreen())
	if opts.Context != nil {
		pOpts = append(pOpts, tea.WithContext(opts.Context))
	}
	_, err := tea.NewProgram(m, pOpts...).Run()
	opts.Loader.Close()
	return err
}

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"projcal/internal/calendar"
	"projcal/internal/tui"

	"github.com/spf13/cobra"
)

const defaultPrintWidth = 120

func newMonthCmd(app *App) *cobra.Command {
	var (
		date  string
		width int
	)
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Print one month of the calendar",
		Long: strings.TrimSpace(`
Print a month without the interactive loop. Wide output uses the grid
layout; narrow output (below agenda_threshold) uses the agenda list.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			today := app.Clock.Now()
			ref, err := parseMonthFlag(date, today)
			if err != nil {
				return writeErr(cmd, err)
			}
			if width <= 0 {
				width = terminalWidth()
			}

			bucket, err := fetchBucket(cmd, cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := tui.RenderMonth(tui.MonthOptions{
				Ref:             ref,
				Today:           today,
				WeekStart:       cfg.WeekStartDay(),
				Bucket:          bucket,
				Width:           width,
				AgendaThreshold: cfg.AgendaThreshold,
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Month to print (YYYY-MM; default: current month)")
	cmd.Flags().IntVar(&width, "width", 0, "Output width in columns (default: $COLUMNS or 120)")
	return cmd
}

// parseMonthFlag returns the first day of the month named by a YYYY-MM
// value, or of today's month when empty.
func parseMonthFlag(s string, today time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return calendar.StartOfMonth(today), nil
	}
	t, err := time.ParseInLocation("2006-01", s, today.Location())
	if err != nil {
		return time.Time{}, usageErrorf("invalid --date %q (want YYYY-MM)", s)
	}
	return t, nil
}

func terminalWidth() int {
	if n, err := strconv.Atoi(strings.TrimSpace(envOr("COLUMNS", ""))); err == nil && n > 0 {
		return n
	}
	return defaultPrintWidth
}

package cli

import (
	"strings"
	"time"

	"projcal/internal/calendar"

	"github.com/spf13/cobra"
)

func newBucketsCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Write the day buckets (day key -> scheduled items)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			fromKey, err := parseDayFlag("from", from)
			if err != nil {
				return writeErr(cmd, err)
			}
			toKey, err := parseDayFlag("to", to)
			if err != nil {
				return writeErr(cmd, err)
			}
			if fromKey != "" && toKey != "" && fromKey > toKey {
				return writeErr(cmd, usageErrorf("--from %s is after --to %s", fromKey, toKey))
			}

			bucket, err := fetchBucket(cmd, cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			bucket = bucket.Between(fromKey, toKey)
			return writeOut(cmd, app, map[string]any{
				"data": bucket.Refs(),
				"meta": map[string]any{
					"scope": scopeOf(cfg).String(),
					"days":  len(bucket),
					"items": bucket.Count(),
				},
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")
	return cmd
}

func parseDayFlag(name, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(calendar.DayKeyLayout, s)
	if err != nil {
		return "", usageErrorf("invalid --%s %q (want YYYY-MM-DD)", name, s)
	}
	return calendar.DayKey(t), nil
}

package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"projcal/internal/tui"
	"projcal/internal/webterm"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var (
		addr string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the interactive calendar in a browser tab",
		Long: strings.TrimSpace(`
Serve the interactive calendar over a local websocket. Each browser tab runs
its own calendar session on a pseudo-terminal, using the same API, scope and
configuration as this command.
`),
		Example: strings.TrimSpace(`
# Serve on localhost and open a browser tab
projcal web

# One project's calendar, no browser
projcal --project 12 web --addr 127.0.0.1:3336 --open=false
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			logger := stderrLogger(cmd.ErrOrStderr(), cfg)

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, usageErrorf("web: missing --addr"))
			}
			title := "projcal"
			if cfg.Project > 0 {
				title = "projcal: project #" + strconv.Itoa(cfg.Project)
			}
			srv, err := webterm.NewServer(webterm.ServerConfig{
				Addr:   listenAddr,
				Args:   sessionArgs(cmd, app),
				Env:    sessionEnv(cfg.Token),
				Title:  title,
				Logger: logger,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/calendar"

			opened := false
			openErr := ""
			if open {
				if err := tui.OpenInBrowser(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}
			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"scope":     scopeOf(cfg).String(),
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "projcal web running at %s\n", url)
			if openErr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", openErr)
			}

			return serve(cmd.Context(), ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the calendar in your default browser")
	return cmd
}

// sessionArgs forwards the persistent flags the user set to every browser
// session. The token travels in the environment, not on the command line.
func sessionArgs(cmd *cobra.Command, app *App) []string {
	var args []string
	flags := cmd.Flags()
	add := func(name, value string) {
		if flags.Changed(name) {
			args = append(args, "--"+name, value)
		}
	}
	add("api", app.APIURL)
	add("project", strconv.Itoa(app.Project))
	add("week-start", app.WeekStart)
	add("log-file", app.LogFile)
	add("log-level", app.LogLevel)
	if app.ConfigFile != "" {
		args = append(args, "--config", app.ConfigFile)
	}
	return args
}

func sessionEnv(token string) []string {
	if token == "" {
		return nil
	}
	return []string{"PROJCAL_TOKEN=" + token}
}

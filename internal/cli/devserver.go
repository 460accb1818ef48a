package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"projcal/internal/config"
	"projcal/internal/devapi"

	"github.com/spf13/cobra"
)

func newDevServerCmd(app *App) *cobra.Command {
	var (
		dbPath string
		addr   string
		seed   string
		token  string
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve a local fixture API backed by SQLite",
		Long: strings.TrimSpace(`
Serve the read-only project/epic/task endpoints the calendar fetches from,
backed by a local SQLite database. Use --seed to replace the database
contents with a JSON fixture: {"projects": [], "epics": [], "tasks": []}.
`),
		Example: strings.TrimSpace(`
# Seed and serve on the default API address
projcal devserver --seed testdata/fixture.json

# Point the calendar at it
projcal --api http://127.0.0.1:8000
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			logger := stderrLogger(cmd.ErrOrStderr(), cfg)
			ctx := cmd.Context()

			if strings.TrimSpace(dbPath) == "" {
				dir, err := config.Dir()
				if err != nil {
					return writeErr(cmd, err)
				}
				dbPath = filepath.Join(dir, "devapi.db")
			}
			store, err := devapi.Open(ctx, dbPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer store.Close()

			if strings.TrimSpace(seed) != "" {
				fx, err := devapi.LoadFixture(seed)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := store.Seed(ctx, fx); err != nil {
					return writeErr(cmd, err)
				}
				logger.Info("seeded", "fixture", seed, "projects", len(fx.Projects), "epics", len(fx.Epics), "tasks", len(fx.Tasks))
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, usageErrorf("devserver: missing --addr"))
			}
			srv, err := devapi.NewServer(devapi.ServerConfig{
				Addr:   listenAddr,
				Store:  store,
				Token:  token,
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

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       "http://" + actualAddr,
					"db":        dbPath,
					"auth":      strings.TrimSpace(token) != "",
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "projcal devserver running at http://%s (db=%s)\n", actualAddr, dbPath)

			return serve(ctx, ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.projcal/devapi.db)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON fixture to load before serving")
	cmd.Flags().StringVar(&token, "require-token", envOr("PROJCAL_DEVAPI_TOKEN", ""), "Bearer token clients must present")
	return cmd
}

// serve runs until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

// Package webterm serves the interactive calendar in a browser tab: every
// websocket connection gets its own projcal process on a pseudo-terminal,
// rendered client-side by xterm.js.
package webterm

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

//go:embed templates/*.html
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// Command is the executable run per session; defaults to the running binary.
	Command string
	// Args and Env are passed to every session process.
	Args   []string
	Env    []string
	Title  string
	Logger *log.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *log.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webterm: missing addr")
	}
	if strings.TrimSpace(cfg.Command) == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		cfg.Command = exe
	}
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = "projcal"
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: logger.WithPrefix("webterm")}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/calendar", http.StatusFound)
	})
	mux.HandleFunc("GET /calendar", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

type terminalVM struct {
	Title string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", terminalVM{Title: s.cfg.Title}); err != nil {
		s.log.Error("render terminal page", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

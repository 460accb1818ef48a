package devapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type ServerConfig struct {
	Addr  string
	Store *Store
	// Token, when set, must be presented as a bearer token.
	Token  string
	Logger *log.Logger
}

type Server struct {
	cfg ServerConfig
	log *log.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Store == nil {
		return nil, errors.New("devapi: store is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, log: logger.WithPrefix("devapi")}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /projects/{$}", s.handleProjects)
	mux.HandleFunc("GET /projects/big_tasks/big_tasks/{$}", s.handleEpics)
	mux.HandleFunc("GET /projects/big_tasks/big_tasks", s.handleEpics)
	mux.HandleFunc("GET /projects/tasks/{$}", s.handleTasks)
	mux.HandleFunc("GET /projects/tasks", s.handleTasks)
	mux.HandleFunc("GET /projects/{projectId}", s.handleProject)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		if r.URL.Path != "/health" && !s.authorized(r) {
			rec.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(rec, "unauthorized", http.StatusUnauthorized)
		} else {
			next.ServeHTTP(rec, r)
		}
		s.log.Debug("request", "method", r.Method, "path", r.URL.RequestURI(), "status", rec.code, "took", time.Since(start))
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.cfg.Token)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.cfg.Store.Projects(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("projectId"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}
	p, ok, err := s.cfg.Store.Project(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleEpics accepts mine_only for parity with the real service; fixtures
// carry no membership data so it does not narrow the result.
func (s *Server) handleEpics(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectFilter(w, r)
	if !ok {
		return
	}
	es, err := s.cfg.Store.Epics(r.Context(), pid)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, es)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectFilter(w, r)
	if !ok {
		return
	}
	ts, err := s.cfg.Store.Tasks(r.Context(), pid)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func projectFilter(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if raw == "" {
		return 0, true
	}
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid project_id"})
		return 0, false
	}
	return pid, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error("query failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

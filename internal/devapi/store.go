// Package devapi is a local stand-in for the project service: it serves the
// entity endpoints the calendar reads from a SQLite fixture database.
package devapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"projcal/internal/model"

	_ "modernc.org/sqlite"
)

// Fixture is the seed file format.
type Fixture struct {
	Projects []model.Project `json:"projects"`
	Epics    []model.Epic    `json:"epics"`
	Tasks    []model.Task    `json:"tasks"`
}

// ReadFixture decodes a fixture document.
func ReadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer f.Close()
	return ReadFixture(f)
}

type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the fixture database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("devapi: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL UNIQUE,
			json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS epics (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL UNIQUE,
			project_id INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_epics_project ON epics(project_id);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL UNIQUE,
			project_id INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Seed replaces the database contents with f. Rows are served back in
// fixture order.
func (s *Store) Seed(ctx context.Context, f Fixture) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range []string{"tasks", "epics", "projects"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}
	for _, p := range f.Projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id, json) VALUES(?, ?)`, p.ID, string(raw)); err != nil {
			return fmt.Errorf("seed project %d: %w", p.ID, err)
		}
	}
	for _, e := range f.Epics {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO epics(id, project_id, json) VALUES(?, ?, ?)`, e.ID, e.ProjectID, string(raw)); err != nil {
			return fmt.Errorf("seed epic %d: %w", e.ID, err)
		}
	}
	for _, t := range f.Tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(id, project_id, json) VALUES(?, ?, ?)`, t.ID, t.OwningProjectID(), string(raw)); err != nil {
			return fmt.Errorf("seed task %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Projects(ctx context.Context) ([]model.Project, error) {
	return readJSONRows[model.Project](ctx, s.db, `SELECT json FROM projects ORDER BY seq`)
}

// Project returns the project with id; ok is false when it does not exist.
func (s *Store) Project(ctx context.Context, id int) (p model.Project, ok bool, err error) {
	var js string
	err = s.db.QueryRowContext(ctx, `SELECT json FROM projects WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, false, nil
	}
	if err != nil {
		return model.Project{}, false, err
	}
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		return model.Project{}, false, err
	}
	return p, true, nil
}

// Epics lists epics; projectID <= 0 lists all of them.
func (s *Store) Epics(ctx context.Context, projectID int) ([]model.Epic, error) {
	if projectID <= 0 {
		return readJSONRows[model.Epic](ctx, s.db, `SELECT json FROM epics ORDER BY seq`)
	}
	return readJSONRows[model.Epic](ctx, s.db, `SELECT json FROM epics WHERE project_id = ? ORDER BY seq`, projectID)
}

// Tasks lists tasks; projectID <= 0 lists all of them.
func (s *Store) Tasks(ctx context.Context, projectID int) ([]model.Task, error) {
	if projectID <= 0 {
		return readJSONRows[model.Task](ctx, s.db, `SELECT json FROM tasks ORDER BY seq`)
	}
	return readJSONRows[model.Task](ctx, s.db, `SELECT json FROM tasks WHERE project_id = ? ORDER BY seq`, projectID)
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package devapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"projcal/internal/logging"
	"projcal/internal/model"
)

func strp(s string) *string { return &s }

func sampleFixture() Fixture {
	return Fixture{
		Projects: []model.Project{
			{ID: 1, Title: "Launch", DueDate: strp("2024-03-15")},
			{ID: 2, Title: "Backlog"},
		},
		Epics: []model.Epic{
			{ID: 10, Title: "Beta", DueDate: strp("2024-03-20"), ProjectID: 1},
			{ID: 11, Title: "Ops", ProjectID: 2},
		},
		Tasks: []model.Task{
			{ID: 100, Title: "Write docs", DueDate: strp("2024-03-15T10:00:00Z"), ProjectID: 1},
			{ID: 101, Title: "Nested", Project: &model.Project{ID: 2, Title: "Backlog"}},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "fixtures.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Seed(ctx, sampleFixture()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return st
}

func TestStore_SeedAndQuery(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ps, err := st.Projects(ctx)
	if err != nil || len(ps) != 2 || ps[0].ID != 1 || ps[1].ID != 2 {
		t.Fatalf("Projects: %+v err=%v", ps, err)
	}
	if p, ok, err := st.Project(ctx, 1); err != nil || !ok || p.Title != "Launch" || p.DueRaw() != "2024-03-15" {
		t.Fatalf("Project(1): %+v ok=%v err=%v", p, ok, err)
	}
	if _, ok, err := st.Project(ctx, 99); err != nil || ok {
		t.Fatalf("Project(99): ok=%v err=%v", ok, err)
	}
	es, err := st.Epics(ctx, 2)
	if err != nil || len(es) != 1 || es[0].ID != 11 {
		t.Fatalf("Epics(2): %+v err=%v", es, err)
	}
	ts, err := st.Tasks(ctx, 2)
	if err != nil || len(ts) != 1 || ts[0].ID != 101 {
		t.Fatalf("Tasks(2) should match the nested project: %+v err=%v", ts, err)
	}

	// Reseeding replaces everything.
	if err := st.Seed(ctx, Fixture{Projects: []model.Project{{ID: 5, Title: "Only"}}}); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	ts, err = st.Tasks(ctx, 0)
	if err != nil || len(ts) != 0 {
		t.Fatalf("tasks after reseed: %+v err=%v", ts, err)
	}
}

func TestReadFixture_RejectsUnknownFields(t *testing.T) {
	if _, err := ReadFixture(strings.NewReader(`{"projects":[],"widgets":[]}`)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	f, err := ReadFixture(strings.NewReader(`{"projects":[{"id":3,"title":"P","due_date":"2024-01-02"}]}`))
	if err != nil || len(f.Projects) != 1 || f.Projects[0].ID != 3 {
		t.Fatalf("ReadFixture: %+v err=%v", f, err)
	}
}

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Store: newTestStore(t), Token: token, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url, token string, out any) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestServer_Endpoints(t *testing.T) {
	ts := newTestServer(t, "")

	var ps []model.Project
	if code := getJSON(t, ts.URL+"/projects/", "", &ps); code != 200 || len(ps) != 2 {
		t.Fatalf("/projects/: code=%d %+v", code, ps)
	}
	var p model.Project
	if code := getJSON(t, ts.URL+"/projects/1", "", &p); code != 200 || p.ID != 1 {
		t.Fatalf("/projects/1: code=%d %+v", code, p)
	}
	if code := getJSON(t, ts.URL+"/projects/42", "", nil); code != http.StatusNotFound {
		t.Fatalf("/projects/42: code=%d", code)
	}
	var es []model.Epic
	if code := getJSON(t, ts.URL+"/projects/big_tasks/big_tasks/?mine_only=true", "", &es); code != 200 || len(es) != 2 {
		t.Fatalf("epics mine_only: code=%d %+v", code, es)
	}
	es = nil
	if code := getJSON(t, ts.URL+"/projects/big_tasks/big_tasks/?project_id=1", "", &es); code != 200 || len(es) != 1 || es[0].ID != 10 {
		t.Fatalf("epics project_id=1: code=%d %+v", code, es)
	}
	var tasks []model.Task
	if code := getJSON(t, ts.URL+"/projects/tasks/?project_id=1", "", &tasks); code != 200 || len(tasks) != 1 || tasks[0].ID != 100 {
		t.Fatalf("tasks project_id=1: code=%d %+v", code, tasks)
	}
	if code := getJSON(t, ts.URL+"/projects/tasks/?project_id=abc", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad project_id: code=%d", code)
	}
}

func TestServer_Token(t *testing.T) {
	ts := newTestServer(t, "s3cret")
	if code := getJSON(t, ts.URL+"/projects/", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("missing token: code=%d", code)
	}
	if code := getJSON(t, ts.URL+"/projects/", "wrong", nil); code != http.StatusUnauthorized {
		t.Fatalf("wrong token: code=%d", code)
	}
	if code := getJSON(t, ts.URL+"/projects/", "s3cret", nil); code != http.StatusOK {
		t.Fatalf("good token: code=%d", code)
	}
	if code := getJSON(t, ts.URL+"/health", "", nil); code != http.StatusOK {
		t.Fatalf("health should not need a token: code=%d", code)
	}
}

package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"projcal/internal/logging"
	"projcal/internal/model"
)

func strp(s string) *string { return &s }

type fakeFetcher struct {
	mu     sync.Mutex
	data   map[model.Kind][]model.Entity
	fail   map[model.Kind]error
	scopes []model.Scope
}

func (f *fakeFetcher) Fetch(ctx context.Context, kind model.Kind, scope model.Scope) ([]model.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	return f.data[kind], nil
}

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{
		data: map[model.Kind][]model.Entity{
			model.KindProject: {model.Project{ID: 1, Title: "P", DueDate: strp("2024-03-15")}},
			model.KindEpic:    {model.Epic{ID: 2, Title: "E", DueDate: strp("2024-03-15"), ProjectID: 1}},
			model.KindTask: {
				model.Task{ID: 3, Title: "T", DueDate: strp("2024-03-20T09:00:00Z"), ProjectID: 1},
				model.Task{ID: 4, Title: "No date"},
			},
		},
		fail: map[model.Kind]error{},
	}
}

func newLoader(f Fetcher) *Loader {
	return New(f, model.AllScope(), Options{Location: time.UTC, Logger: logging.Discard()})
}

func TestReload_BuildsBucket(t *testing.T) {
	l := newLoader(sampleFetcher())
	if err := l.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	b := l.Bucket()
	if got := len(b["2024-03-15"]); got != 2 {
		t.Fatalf("2024-03-15 entries=%d, want 2", got)
	}
	if b["2024-03-15"][0].Kind() != model.KindProject || b["2024-03-15"][1].Kind() != model.KindEpic {
		t.Fatalf("bucket order should be projects then epics: %v", b["2024-03-15"])
	}
	if got := len(b["2024-03-20"]); got != 1 {
		t.Fatalf("2024-03-20 entries=%d, want 1", got)
	}
	if b.Count() != 3 {
		t.Fatalf("undated task must be dropped, count=%d", b.Count())
	}
	if l.Loading() || l.Err() != nil || l.LoadedAt().IsZero() {
		t.Fatalf("unexpected state loading=%v err=%v", l.Loading(), l.Err())
	}
}

func TestReload_FailureKeepsPreviousBucket(t *testing.T) {
	f := sampleFetcher()
	l := newLoader(f)
	if err := l.Reload(context.Background()); err != nil {
		t.Fatalf("first Reload: %v", err)
	}
	boom := errors.New("boom")
	f.mu.Lock()
	f.fail[model.KindEpic] = boom
	f.mu.Unlock()

	err := l.Reload(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if l.Bucket().Count() != 3 {
		t.Fatalf("stale bucket should survive a failed load, count=%d", l.Bucket().Count())
	}
	if l.Loading() {
		t.Fatalf("loading should clear after a failed load")
	}
	if !errors.Is(l.Err(), boom) {
		t.Fatalf("Err()=%v", l.Err())
	}
}

func TestReload_FirstFailureLeavesEmptyBucket(t *testing.T) {
	f := sampleFetcher()
	f.fail[model.KindTask] = errors.New("down")
	l := newLoader(f)
	if err := l.Reload(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if b := l.Bucket(); b == nil || len(b) != 0 {
		t.Fatalf("bucket should be empty, got %v", b)
	}
}

func TestApply_DiscardsStaleTicket(t *testing.T) {
	f := sampleFetcher()
	l := newLoader(f)
	ctx := context.Background()

	a := l.Start()
	resA := l.Run(ctx, a)

	f.mu.Lock()
	f.data[model.KindTask] = nil
	f.mu.Unlock()
	b := l.Start()
	resB := l.Run(ctx, b)

	if !l.Apply(resB) {
		t.Fatalf("latest result should apply")
	}
	if l.Apply(resA) {
		t.Fatalf("older result must be discarded")
	}
	if got := l.Bucket().Count(); got != 2 {
		t.Fatalf("bucket should reflect B (2 entities), got %d", got)
	}
}

func TestApply_OlderResultDoesNotClearLoading(t *testing.T) {
	l := newLoader(sampleFetcher())
	ctx := context.Background()
	a := l.Start()
	_ = l.Start()
	if l.Apply(l.Run(ctx, a)) {
		t.Fatalf("stale result applied")
	}
	if !l.Loading() {
		t.Fatalf("still waiting on the newer ticket")
	}
}

func TestClose_DiscardsResults(t *testing.T) {
	l := newLoader(sampleFetcher())
	tk := l.Start()
	res := l.Run(context.Background(), tk)
	l.Close()
	if l.Apply(res) {
		t.Fatalf("result applied after Close")
	}
	if l.Bucket().Count() != 0 {
		t.Fatalf("bucket changed after Close")
	}
	if err := l.Reload(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Reload after Close: %v", err)
	}
}

func TestScope_PassedToFetcher(t *testing.T) {
	f := sampleFetcher()
	l := newLoader(f)
	l.SetScope(model.ProjectScope(9))
	tk := l.Start()
	if tk.Scope.ProjectID != 9 {
		t.Fatalf("ticket scope=%v", tk.Scope)
	}
	_ = l.Apply(l.Run(context.Background(), tk))
	if len(f.scopes) != 3 {
		t.Fatalf("expected three fetches, got %d", len(f.scopes))
	}
	for _, s := range f.scopes {
		if s.ProjectID != 9 {
			t.Fatalf("fetch used scope %v", s)
		}
	}
	if l.Scope().ProjectID != 9 {
		t.Fatalf("Scope()=%v", l.Scope())
	}
}

// barrierFetcher holds every Fetch until all three kinds have been
// requested, then releases them tasks first, projects last.
type barrierFetcher struct {
	data    map[model.Kind][]model.Entity
	arrived chan model.Kind
	release map[model.Kind]chan struct{}
}

func (f *barrierFetcher) Fetch(ctx context.Context, kind model.Kind, scope model.Scope) ([]model.Entity, error) {
	f.arrived <- kind
	select {
	case <-f.release[kind]:
		return f.data[kind], nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRun_DispatchesConcurrentlyAndKeepsKindOrder(t *testing.T) {
	due := strp("2024-03-15")
	f := &barrierFetcher{
		data: map[model.Kind][]model.Entity{
			model.KindProject: {model.Project{ID: 1, Title: "P", DueDate: due}},
			model.KindEpic:    {model.Epic{ID: 2, Title: "E", DueDate: due, ProjectID: 1}},
			model.KindTask:    {model.Task{ID: 3, Title: "T", DueDate: due, ProjectID: 1}},
		},
		arrived: make(chan model.Kind, len(model.Kinds)),
		release: map[model.Kind]chan struct{}{},
	}
	for _, k := range model.Kinds {
		f.release[k] = make(chan struct{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l := newLoader(f)
	done := make(chan Result, 1)
	go func() { done <- l.Run(ctx, l.Start()) }()

	// All three requests must be in flight at once.
	timeout := time.After(2 * time.Second)
	seen := map[model.Kind]bool{}
	for len(seen) < len(model.Kinds) {
		select {
		case k := <-f.arrived:
			seen[k] = true
		case <-timeout:
			cancel()
			t.Fatalf("fetches were not dispatched concurrently; in flight: %v", seen)
		}
	}

	for _, k := range []model.Kind{model.KindTask, model.KindEpic, model.KindProject} {
		close(f.release[k])
		time.Sleep(5 * time.Millisecond)
	}

	var r Result
	select {
	case r = <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after all fetches completed")
	}
	if r.Err != nil {
		t.Fatalf("Run: %v", r.Err)
	}
	day := r.Bucket["2024-03-15"]
	if len(day) != 3 || day[0].Kind() != model.KindProject || day[1].Kind() != model.KindEpic || day[2].Kind() != model.KindTask {
		t.Fatalf("bucket order should be projects, epics, tasks regardless of completion order: %v", day)
	}
	if !l.Apply(r) || l.Bucket().Count() != 3 {
		t.Fatalf("result should apply with 3 entities, got %d", l.Bucket().Count())
	}
}

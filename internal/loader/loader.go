// Package loader fetches the calendar's entities and keeps the current day
// bucket. Each load is identified by a ticket; only the most recently issued
// ticket may replace the bucket, so a slow response can never overwrite a
// newer one.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"projcal/internal/calendar"
	"projcal/internal/model"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher returns the entities of one kind visible in scope.
type Fetcher interface {
	Fetch(ctx context.Context, kind model.Kind, scope model.Scope) ([]model.Entity, error)
}

// ErrClosed is returned by Reload after Close.
var ErrClosed = errors.New("loader: closed")

type Options struct {
	// Location is the zone due dates are bucketed in (time.Local when nil).
	Location *time.Location
	Logger   *log.Logger
}

// Ticket identifies one load.
type Ticket struct {
	Seq   uint64
	Scope model.Scope
}

// Result is the outcome of running a ticket.
type Result struct {
	Ticket Ticket
	Bucket calendar.Bucket
	Counts map[model.Kind]int
	Err    error
	Took   time.Duration
}

type Loader struct {
	fetcher Fetcher
	loc     *time.Location
	log     *log.Logger

	mu       sync.Mutex
	scope    model.Scope
	seq      uint64
	bucket   calendar.Bucket
	loading  bool
	closed   bool
	lastErr  error
	loadedAt time.Time
}

func New(f Fetcher, scope model.Scope, opts Options) *Loader {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		fetcher: f,
		loc:     loc,
		log:     logger.WithPrefix("loader"),
		scope:   scope,
		bucket:  calendar.Bucket{},
	}
}

// Start issues a new ticket for the current scope and marks the loader as
// loading. Any ticket issued earlier becomes stale.
func (l *Loader) Start() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.loading = true
	return Ticket{Seq: l.seq, Scope: l.scope}
}

// Run fetches projects, epics and tasks concurrently. The three fetches form
// one unit: if any fails the result carries that error and no bucket.
func (l *Loader) Run(ctx context.Context, t Ticket) Result {
	start := time.Now()
	lists := make([][]model.Entity, len(model.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range model.Kinds {
		g.Go(func() error {
			xs, err := l.fetcher.Fetch(gctx, kind, t.Scope)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", kind, err)
			}
			lists[i] = xs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Ticket: t, Err: err, Took: time.Since(start)}
	}

	counts := make(map[model.Kind]int, len(model.Kinds))
	for i, kind := range model.Kinds {
		counts[kind] = len(lists[i])
	}
	return Result{
		Ticket: t,
		Bucket: calendar.Aggregate(l.loc, lists...),
		Counts: counts,
		Took:   time.Since(start),
	}
}

// Apply settles a result. It reports false when the result was discarded:
// the ticket is no longer the latest, or the loader is closed. A failed
// latest result clears the loading flag but keeps the previous bucket.
func (l *Loader) Apply(r Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	if r.Ticket.Seq != l.seq {
		l.log.Debug("discarding stale result", "seq", r.Ticket.Seq, "latest", l.seq)
		return false
	}
	l.loading = false
	if r.Err != nil {
		l.lastErr = r.Err
		l.log.Error("load failed", "seq", r.Ticket.Seq, "scope", r.Ticket.Scope, "err", r.Err)
		return true
	}
	l.bucket = r.Bucket
	if l.bucket == nil {
		l.bucket = calendar.Bucket{}
	}
	l.lastErr = nil
	l.loadedAt = time.Now()
	l.log.Debug("loaded",
		"seq", r.Ticket.Seq,
		"scope", r.Ticket.Scope,
		"projects", r.Counts[model.KindProject],
		"epics", r.Counts[model.KindEpic],
		"tasks", r.Counts[model.KindTask],
		"days", len(l.bucket),
		"took", r.Took,
	)
	return true
}

// Reload runs a full load synchronously.
func (l *Loader) Reload(ctx context.Context) error {
	r := l.Run(ctx, l.Start())
	if !l.Apply(r) {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return ErrClosed
		}
		return errors.New("loader: superseded by a newer load")
	}
	return r.Err
}

// SetScope changes the scope used by subsequent tickets.
func (l *Loader) SetScope(s model.Scope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scope = s
}

func (l *Loader) Scope() model.Scope {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scope
}

// Bucket returns the current bucket. Callers must not modify it.
func (l *Loader) Bucket() calendar.Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bucket
}

func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the error of the last settled load, nil after a success.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// LoadedAt is when the bucket was last replaced (zero before the first
// successful load).
func (l *Loader) LoadedAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadedAt
}

// Close discards every result applied afterwards.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.loading = false
}

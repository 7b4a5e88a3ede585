// Package snapshot keeps the latest download of every survey in memory and
// refreshes it in the background.
//
// Refresh protocol: a caller wins the right to refresh by flipping the
// in-flight flag from false to true. The winner downloads, swaps the
// snapshot pointer in one store and clears the flag. Readers never block
// on a refresh; they see either the old or the new snapshot.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

var (
	ErrNotReady        = errors.New("snapshot: no data loaded yet")
	ErrRefreshInFlight = errors.New("snapshot: refresh already in progress")
)

// Fetcher downloads every category table.
type Fetcher interface {
	FetchAll(ctx context.Context) (map[models.Category]*table.Table, error)
}

// Store persists snapshots across restarts. Load returns nil when nothing
// was saved.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// Observer receives refresh outcomes, typically for metrics.
type Observer interface {
	RefreshDone(err error, took time.Duration, s *Snapshot)
}

// Snapshot is an immutable set of category tables.
type Snapshot struct {
	Tables   map[models.Category]*table.Table
	LoadedAt time.Time

	generation uint64
}

// Responses counts rows across categories.
func (s *Snapshot) Responses() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Len()
	}
	return n
}

// Counts returns the rows per category.
func (s *Snapshot) Counts() map[string]int {
	out := make(map[string]int, len(s.Tables))
	for c, t := range s.Tables {
		out[string(c)] = t.Len()
	}
	return out
}

type Options struct {
	TTL      time.Duration
	Interval time.Duration
	Store    Store
	Observer Observer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service is the cache handle passed to readers.
type Service struct {
	fetcher  Fetcher
	store    Store
	observer Observer
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	snap       atomic.Pointer[Snapshot]
	loading    atomic.Bool
	generation atomic.Uint64

	mu          sync.Mutex
	lastErr     error
	lastAttempt time.Time

	memo *cache.Cache

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// closeMu orders wg.Add in start against wg.Wait in Close.
	closeMu sync.Mutex
	closed  bool
}

func New(fetcher Fetcher, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		fetcher:  fetcher,
		store:    opts.Store,
		observer: opts.Observer,
		ttl:      opts.TTL,
		interval: opts.Interval,
		now:      opts.Now,
		memo:     cache.New(opts.TTL, 2*opts.TTL),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Current returns the latest snapshot.
func (s *Service) Current() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Valid reports whether a snapshot is loaded and younger than the TTL.
func (s *Service) Valid() bool {
	snap := s.snap.Load()
	return snap != nil && s.now().Sub(snap.LoadedAt) < s.ttl
}

func (s *Service) Loading() bool {
	return s.loading.Load()
}

// TriggerRefresh starts a background refresh unless the snapshot is still
// valid or a refresh is already running. It reports whether one started.
func (s *Service) TriggerRefresh() bool {
	if s.Valid() {
		return false
	}
	return s.start()
}

// ForceReload starts a background refresh regardless of the TTL. The
// current snapshot keeps serving until the new one is swapped in.
func (s *Service) ForceReload() bool {
	return s.start()
}

func (s *Service) start() bool {
	if !s.loading.CompareAndSwap(false, true) {
		return false
	}
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		s.loading.Store(false)
		return false
	}
	s.wg.Add(1)
	s.closeMu.Unlock()
	go func() {
		defer s.wg.Done()
		defer s.loading.Store(false)
		_ = s.refresh(s.ctx)
	}()
	return true
}

// Refresh loads a snapshot synchronously. It fails with ErrRefreshInFlight
// when another refresh holds the flag.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.loading.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer s.loading.Store(false)
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	started := s.now()
	zap.S().Infow("Snapshot refresh started")

	tables, err := s.fetcher.FetchAll(ctx)
	var snap *Snapshot
	if err == nil {
		snap = &Snapshot{Tables: tables, LoadedAt: s.now()}
		s.install(snap)
	}

	s.mu.Lock()
	s.lastErr = err
	s.lastAttempt = started
	s.mu.Unlock()

	took := s.now().Sub(started)
	if s.observer != nil {
		s.observer.RefreshDone(err, took, snap)
	}
	if err != nil {
		zap.S().Errorw("Snapshot refresh failed", "error", err, "took", took)
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	zap.S().Infow("Snapshot refresh finished", "responses", snap.Responses(), "took", took)

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			zap.S().Warnw("Snapshot persistence failed", "error", err)
		}
	}
	return nil
}

func (s *Service) install(snap *Snapshot) {
	snap.generation = s.generation.Add(1)
	s.snap.Store(snap)
	s.memo.Flush()
}

// Restore installs the stored snapshot when it is younger than the TTL.
// It reports whether one was installed.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	snap, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}
	if snap == nil || s.now().Sub(snap.LoadedAt) >= s.ttl {
		return false, nil
	}
	s.install(snap)
	zap.S().Infow("Snapshot restored", "responses", snap.Responses(), "loadedAt", snap.LoadedAt)
	return true, nil
}

// Run restores a stored snapshot, then refreshes whenever the snapshot
// expires, checking every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.Restore(ctx); err != nil {
		zap.S().Warnw("Snapshot restore failed", "error", err)
	}
	s.TriggerRefresh()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			s.TriggerRefresh()
		}
	}
}

// Close cancels any running refresh and waits for it. Background refreshes
// requested afterwards do not start.
func (s *Service) Close() {
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until no background refresh is running.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Status describes the cache for operators.
type Status struct {
	Loading        bool           `json:"loading"`
	LastUpdate     *time.Time     `json:"lastUpdate,omitempty"`
	LastAttempt    *time.Time     `json:"lastAttempt,omitempty"`
	Error          string         `json:"error,omitempty"`
	Valid          bool           `json:"valid"`
	TotalResponses int            `json:"totalResponses"`
	Categories     map[string]int `json:"categories"`
}

func (s *Service) Status() Status {
	st := Status{
		Loading:    s.Loading(),
		Valid:      s.Valid(),
		Categories: map[string]int{},
	}
	if snap := s.snap.Load(); snap != nil {
		at := snap.LoadedAt
		st.LastUpdate = &at
		st.TotalResponses = snap.Responses()
		st.Categories = snap.Counts()
	}
	s.mu.Lock()
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	if !s.lastAttempt.IsZero() {
		at := s.lastAttempt
		st.LastAttempt = &at
	}
	s.mu.Unlock()
	return st
}

// FilterByProcess returns, per category, the cleaned rows of one process.
// Categories without a match are left out. Results are shared between
// callers and must not be modified.
func (s *Service) FilterByProcess(number string) (map[models.Category]*table.Table, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	number = strings.TrimSpace(number)
	key := fmt.Sprintf("%d|%s", snap.generation, number)
	if v, ok := s.memo.Get(key); ok {
		return v.(map[models.Category]*table.Table), nil
	}
	out := Filter(snap, number)
	s.memo.Set(key, out, cache.DefaultExpiration)
	return out, nil
}

// Filter selects one process from a snapshot. The category's own process
// column is matched exactly; a table without it falls back to the first
// process or number column, matched as a case-insensitive substring.
func Filter(snap *Snapshot, number string) map[models.Category]*table.Table {
	out := make(map[models.Category]*table.Table)
	lower := strings.ToLower(number)
	for c, t := range snap.Tables {
		if t.Empty() {
			continue
		}
		var keep func(table.Row) bool
		if col := c.ProcessColumn(); t.Has(col) {
			keep = func(r table.Row) bool {
				v, ok := r.Value(col)
				return ok && v == number
			}
		} else if col, ok := t.FindColumn("processo", "número", "numero"); ok {
			keep = func(r table.Row) bool {
				return strings.Contains(strings.ToLower(r.Raw(col)), lower)
			}
		} else {
			continue
		}
		if filtered := t.Filter(keep).Clean(); !filtered.Empty() {
			out[c] = filtered
		}
	}
	return out
}

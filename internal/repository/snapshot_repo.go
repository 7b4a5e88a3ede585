package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/db"
	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
	"github.com/marcella-castro/check-pesquisa-mj/internal/table"
)

const SnapshotsCollection = "_mj_snapshots"

// snapshotDoc is one category table of a saved snapshot. Documents written
// by the same Save share a generation.
type snapshotDoc struct {
	Generation string          `json:"generation"`
	Category   models.Category `json:"category"`
	Columns    []string        `json:"columns"`
	Rows       []table.Row     `json:"rows"`
	LoadedAt   string          `json:"loadedAt"`
	SavedAt    string          `json:"savedAt"`
}

type generationRef struct {
	Generation string `json:"generation"`
}

// SnapshotRepo stores the latest snapshot, one document per category.
type SnapshotRepo struct {
	pool *db.Pool
}

func NewSnapshotRepo(pool *db.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

func (r *SnapshotRepo) EnsureIndexes(ctx context.Context) error {
	c := r.pool.Get()
	if err := c.CreateIndex(ctx, SnapshotsCollection, "category"); err != nil {
		return err
	}
	return c.CreateIndex(ctx, SnapshotsCollection, "generation")
}

// Save replaces the stored snapshot. The new generation is written in full
// before older ones are removed, so a failed save leaves the previous
// snapshot loadable.
func (r *SnapshotRepo) Save(ctx context.Context, s *snapshot.Snapshot) error {
	c := r.pool.Get()
	var existing []generationRef
	if err := c.Find(ctx, SnapshotsCollection, nil, &existing); err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	gen := uuid.NewString()
	saved := time.Now().UTC().Format(time.RFC3339Nano)
	loaded := s.LoadedAt.UTC().Format(time.RFC3339Nano)
	for _, cat := range models.Categories() {
		doc := snapshotDoc{
			Generation: gen,
			Category:   cat,
			LoadedAt:   loaded,
			SavedAt:    saved,
			Rows:       []table.Row{},
		}
		if t, ok := s.Tables[cat]; ok {
			doc.Columns = t.Columns
			if t.Rows != nil {
				doc.Rows = t.Rows
			}
		}
		if err := c.Insert(ctx, SnapshotsCollection, doc); err != nil {
			if derr := c.Delete(context.WithoutCancel(ctx), SnapshotsCollection, map[string]any{"generation": gen}); derr != nil {
				zap.S().Warnw("Failed to remove partial snapshot", "generation", gen, "error", derr)
			}
			return fmt.Errorf("save %s snapshot: %w", cat, err)
		}
	}

	stale := make(map[string]struct{})
	for _, e := range existing {
		stale[e.Generation] = struct{}{}
	}
	for g := range stale {
		if err := c.Delete(ctx, SnapshotsCollection, map[string]any{"generation": g}); err != nil {
			return fmt.Errorf("clear snapshot generation %q: %w", g, err)
		}
	}
	return nil
}

// Load rebuilds the newest complete snapshot, or returns nil when none was
// saved. A generation missing any category is ignored.
func (r *SnapshotRepo) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var docs []snapshotDoc
	if err := r.pool.Get().Find(ctx, SnapshotsCollection, nil, &docs); err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	byGen := make(map[string][]snapshotDoc)
	for _, d := range docs {
		if d.Category.Valid() {
			byGen[d.Generation] = append(byGen[d.Generation], d)
		}
	}

	var best *snapshot.Snapshot
	var bestSaved time.Time
	for gen, set := range byGen {
		s, saved, err := assemble(set)
		if err != nil {
			return nil, err
		}
		if s == nil {
			zap.S().Warnw("Ignoring incomplete stored snapshot", "generation", gen, "documents", len(set))
			continue
		}
		if best == nil || saved.After(bestSaved) {
			best, bestSaved = s, saved
		}
	}
	return best, nil
}

// assemble builds a snapshot from one generation's documents. It returns nil
// when a category is missing.
func assemble(docs []snapshotDoc) (*snapshot.Snapshot, time.Time, error) {
	s := &snapshot.Snapshot{Tables: make(map[models.Category]*table.Table, len(docs))}
	var saved time.Time
	for _, d := range docs {
		loaded, err := time.Parse(time.RFC3339Nano, d.LoadedAt)
		if err != nil {
			return nil, saved, fmt.Errorf("load %s snapshot: bad timestamp %q: %w", d.Category, d.LoadedAt, err)
		}
		if s.LoadedAt.IsZero() || loaded.Before(s.LoadedAt) {
			s.LoadedAt = loaded
		}
		if at, err := time.Parse(time.RFC3339Nano, d.SavedAt); err == nil && at.After(saved) {
			saved = at
		}
		s.Tables[d.Category] = table.New(d.Category, d.Columns, d.Rows)
	}
	for _, cat := range models.Categories() {
		if _, ok := s.Tables[cat]; !ok {
			return nil, saved, nil
		}
	}
	return s, saved, nil
}

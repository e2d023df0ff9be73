package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/oklog/ulid/v2"
)

// Repository implements ports.Repository in memory.
// Records of a table are kept in one ordered slice, which is the sort order.
// Safe for concurrent use.
type Repository struct {
	tables map[string][]domain.Record
	mu     sync.RWMutex
}

// New creates an empty in-memory repository.
func New() *Repository {
	return &Repository{
		tables: make(map[string][]domain.Record),
	}
}

// Seed appends records to a table as-is. Records without an id get one.
func (r *Repository) Seed(t domain.Table, recs ...domain.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		rec = rec.Clone()
		if rec[t.IDField] == "" {
			rec[t.IDField] = ulid.Make().String()
		}
		r.tables[t.Name] = append(r.tables[t.Name], rec)
	}
}

// Insert stores a copy of rec with a fresh ULID.
func (r *Repository) Insert(ctx context.Context, t domain.Table, rec domain.Record) (string, error) {
	stored := rec.Clone()
	for k, v := range t.Scope {
		stored[k] = v
	}
	id := ulid.Make().String()
	stored[t.IDField] = id

	r.mu.Lock()
	defer r.mu.Unlock()

	if t.SortField != "" {
		next := 1
		for _, existing := range r.tables[t.Name] {
			if !t.Matches(existing) {
				continue
			}
			if n, err := strconv.Atoi(existing[t.SortField]); err == nil && n >= next {
				next = n + 1
			}
		}
		stored[t.SortField] = strconv.Itoa(next)
	}

	r.tables[t.Name] = append(r.tables[t.Name], stored)
	return id, nil
}

// Update merges rec into the stored record. Scope and id columns are kept.
func (r *Repository) Update(ctx context.Context, t domain.Table, id string, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(t, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	stored := r.tables[t.Name][i].Clone()
	for k, v := range rec {
		if k == t.IDField {
			continue
		}
		if _, scoped := t.Scope[k]; scoped {
			continue
		}
		stored[k] = v
	}
	r.tables[t.Name][i] = stored
	return nil
}

// Delete removes the record.
func (r *Repository) Delete(ctx context.Context, t domain.Table, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(t, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	rows := r.tables[t.Name]
	r.tables[t.Name] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

// Move relocates the record next to targetID and renumbers the scope.
func (r *Repository) Move(ctx context.Context, t domain.Table, id, targetID string, pos domain.Position) error {
	if t.SortField == "" {
		return domain.BadRequest("table %s has no sort field", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.indexOf(t, id)
	if from < 0 {
		return fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	if r.indexOf(t, targetID) < 0 {
		return fmt.Errorf("%s/%s: %w", t.Name, targetID, domain.ErrRecordNotFound)
	}
	if id == targetID {
		return nil
	}

	rows := r.tables[t.Name]
	moved := rows[from]
	rest := make([]domain.Record, 0, len(rows))
	rest = append(rest, rows[:from]...)
	rest = append(rest, rows[from+1:]...)

	to := 0
	for i, rec := range rest {
		if rec[t.IDField] == targetID {
			to = i
			break
		}
	}
	if pos == domain.After {
		to++
	}

	out := make([]domain.Record, 0, len(rows))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)

	n := 0
	for i, rec := range out {
		if !t.Matches(rec) {
			continue
		}
		n++
		renumbered := rec.Clone()
		renumbered[t.SortField] = strconv.Itoa(n)
		out[i] = renumbered
	}
	r.tables[t.Name] = out
	return nil
}

// Get returns a copy of the record.
func (r *Repository) Get(ctx context.Context, t domain.Table, id string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(t, id)
	if i < 0 {
		return nil, fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	return r.tables[t.Name][i].Clone(), nil
}

// List returns copies of the matching records in table order.
func (r *Repository) List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Record
	for _, rec := range r.tables[t.Name] {
		if t.Matches(rec) && q.Matches(rec) {
			matched = append(matched, rec)
		}
	}

	start, end := q.Window(len(matched))
	page := make([]domain.Record, 0, end-start)
	for _, rec := range matched[start:end] {
		page = append(page, rec.Clone())
	}
	return page, len(matched), nil
}

// Tables returns the names of the tables holding records.
func (r *Repository) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

func (r *Repository) indexOf(t domain.Table, id string) int {
	for i, rec := range r.tables[t.Name] {
		if rec[t.IDField] == id && t.Matches(rec) {
			return i
		}
	}
	return -1
}

// Package memstore is an in-memory record store. It evaluates the logical
// predicate set directly, which makes it both the reference backend for
// the filter-equivalence tests and a zero-setup target for local
// development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avollmer/stammdaten/internal/store"
)

// timeLayout matches the textual timestamp form the engine's date bounds
// are rendered in, so lexicographic comparison orders correctly.
const timeLayout = "2006-01-02 15:04:05"

// Option configures a Store.
type Option func(*Store)

// WithAutoIncrement makes Create assign max+1 of the given field when the
// payload does not carry it. Used for the members identification counter.
func WithAutoIncrement(collection, field string) Option {
	return func(s *Store) {
		s.autoIncrement[collection] = field
	}
}

// Store holds all records in memory, guarded by a single mutex.
type Store struct {
	mu            sync.RWMutex
	data          map[string][]store.Record
	autoIncrement map[string]string
	now           func() time.Time
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		data:          make(map[string][]store.Record),
		autoIncrement: make(map[string]string),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) List(ctx context.Context, q store.Query) ([]store.Record, error) {
	records, err := s.ListAll(ctx, q)
	if err != nil {
		return nil, err
	}
	if limit := q.EffectivePageSize(); len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) ListAll(ctx context.Context, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Record
	for _, rec := range s.data[q.Collection] {
		if q.Filter.Match(rec) {
			out = append(out, clone(rec))
		}
	}

	if q.Sort.Field != "" {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := store.CompareValues(out[i][q.Sort.Field], out[j][q.Sort.Field])
			if q.Sort.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	return out, nil
}

func (s *Store) GetOne(ctx context.Context, collection, field string, value any) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cond := store.Cond{Field: field, Op: store.OpEquals, Value: value}
	for _, rec := range s.data[collection] {
		if cond.Match(rec) {
			return clone(rec), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Create(ctx context.Context, collection string, payload map[string]any) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := store.Record{}
	for k, v := range payload {
		rec[k] = v
	}

	if field, ok := s.autoIncrement[collection]; ok {
		if _, set := rec[field]; !set {
			rec[field] = s.nextValueLocked(collection, field)
		}
	}

	now := s.now().UTC().Format(timeLayout)
	rec["id"] = uuid.NewString()
	rec["created"] = now
	rec["updated"] = now

	s.data[collection] = append(s.data[collection], rec)
	return clone(rec), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, payload map[string]any) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.data[collection] {
		if rec.ID() == id {
			for k, v := range payload {
				rec[k] = v
			}
			rec["updated"] = s.now().UTC().Format(timeLayout)
			return clone(rec), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.data[collection]
	for i, rec := range records {
		if rec.ID() == id {
			s.data[collection] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// BulkUpdate patches every id in order and stops at the first failure.
func (s *Store) BulkUpdate(ctx context.Context, collection string, ids []string, payload map[string]any) error {
	for _, id := range ids {
		if _, err := s.Update(ctx, collection, id, payload); err != nil {
			return err
		}
	}
	return nil
}

// BulkDelete removes every id that exists; missing ids are not an error,
// matching a batched backend delete.
func (s *Store) BulkDelete(ctx context.Context, collection string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	records := s.data[collection]
	kept := records[:0]
	for _, rec := range records {
		if !drop[rec.ID()] {
			kept = append(kept, rec)
		}
	}
	s.data[collection] = kept
	return nil
}

// nextValueLocked returns max+1 over the field, starting at 1.
func (s *Store) nextValueLocked(collection, field string) float64 {
	var max float64
	for _, rec := range s.data[collection] {
		switch v := rec[field].(type) {
		case float64:
			if v > max {
				max = v
			}
		case int:
			if float64(v) > max {
				max = float64(v)
			}
		}
	}
	return max + 1
}

func clone(rec store.Record) store.Record {
	out := make(store.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

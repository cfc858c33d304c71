// Package store defines the record store boundary used by the import and
// query engine. Concrete backends live in the subpackages postgres (SQL
// query builder dialect), pbrest (REST filter-string dialect), and
// memstore (in-memory, for tests and local development).
//
// Backends consume the same logical predicate set (Filter); only the
// rendering differs. Every backend must map its own "record does not
// exist" signal onto ErrNotFound so the reconciliation engine never sees
// backend-specific codes.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is the canonical not-found signal for GetOne, Update, and
// Delete. It drives the create-vs-update branch of upsert imports, so
// backends must return it for missing records and nothing else.
var ErrNotFound = errors.New("record not found")

// MaxPageSize is the hard ceiling on records returned by a single list
// query. It is not configurable per call; callers needing more must use
// export, which pages internally.
const MaxPageSize = 50

// Record is one stored row as canonical-field -> value pairs. The store
// owns the "id", "created", and "updated" keys; clients never set them.
type Record map[string]any

// ID returns the record's stable identifier.
func (r Record) ID() string {
	s, _ := r["id"].(string)
	return s
}

// Operator is a comparison operator in a compiled predicate.
type Operator string

const (
	OpContains  Operator = "contains" // case-insensitive substring
	OpEquals    Operator = "eq"
	OpGreaterEq Operator = "gte"
	OpLessEq    Operator = "lte"
)

// Cond is a single field predicate. Value is a string, bool, or float64.
type Cond struct {
	Field string
	Op    Operator
	Value any
}

// Filter is the compiled logical predicate set of one list query.
// Search conditions are OR-ed together; the resulting group and all
// Conds are AND-ed.
type Filter struct {
	Search []Cond
	Conds  []Cond
}

// Empty reports whether the filter constrains anything.
func (f Filter) Empty() bool {
	return len(f.Search) == 0 && len(f.Conds) == 0
}

// Sort is a single ordering clause. Exactly one is active per query.
type Sort struct {
	Field string
	Desc  bool
}

// Query is one compiled list query against a collection.
// PageSize values outside (0, MaxPageSize] are clamped to MaxPageSize.
type Query struct {
	Collection string
	Filter     Filter
	Sort       Sort
	PageSize   int
}

// EffectivePageSize returns the page size after clamping.
func (q Query) EffectivePageSize() int {
	if q.PageSize <= 0 || q.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return q.PageSize
}

// Store is the abstract record store. List results are capped at the
// query's effective page size. Payloads are sparse patches: only the
// fields present are written, absent fields keep their stored value.
type Store interface {
	// List returns at most q.EffectivePageSize() records matching the
	// filter, in sort order.
	List(ctx context.Context, q Query) ([]Record, error)

	// ListAll returns all records matching the filter in sort order,
	// paging internally. Used by export, which is exempt from the list
	// ceiling.
	ListAll(ctx context.Context, q Query) ([]Record, error)

	// GetOne returns the single record whose field equals value, or
	// ErrNotFound.
	GetOne(ctx context.Context, collection, field string, value any) (Record, error)

	// Create inserts a new record and returns it with store-assigned
	// id/created/updated fields populated.
	Create(ctx context.Context, collection string, payload map[string]any) (Record, error)

	// Update applies a sparse patch to the record with the given id.
	Update(ctx context.Context, collection, id string, payload map[string]any) (Record, error)

	// Delete removes one record. Missing records yield ErrNotFound.
	Delete(ctx context.Context, collection, id string) error

	// BulkUpdate applies the same sparse patch to every id. Atomicity is
	// backend-dependent and not guaranteed.
	BulkUpdate(ctx context.Context, collection string, ids []string, payload map[string]any) error

	// BulkDelete removes every id, best effort where the backend has no
	// batched delete.
	BulkDelete(ctx context.Context, collection string, ids []string) error
}

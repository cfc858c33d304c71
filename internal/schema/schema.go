// Package schema defines the entity descriptors that parameterize the
// import/export engine. Each entity (members, schools) declares its field
// list, header synonyms, export projection, and sortable/searchable fields.
// The engine itself is entity-agnostic and reads everything from here.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldType represents the coerced data type of an entity field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldBool
	FieldNumber
	FieldDate
	FieldStringList
)

// FieldSpec describes one canonical field of an entity.
type FieldSpec struct {
	Name       string    // Canonical field name, also the backend column name
	Type       FieldType // Coercion rule applied on import
	Searchable bool      // Included in the free-text search OR group

	// ZeroOnCreate makes direct creation default a missing number field
	// to 0 instead of leaving it unset.
	ZeroOnCreate bool
}

// Entity describes one managed collection.
type Entity struct {
	// Name is the entity key used in routes and export file names.
	Name string

	// Collection is the backend collection/table name.
	Collection string

	// Fields lists the canonical payload fields in declaration order.
	// The order is significant: filters are compiled in this order so
	// both backends produce the same predicate sequence.
	Fields []FieldSpec

	// Synonyms maps normalized header forms to canonical field names.
	// Keys must already be in normalized form (see NormalizeHeader).
	Synonyms map[string]string

	// ExportFields is the fixed projection order for exports.
	ExportFields []string

	// SortFields is the closed set of fields a list query may sort on.
	SortFields []string

	// ImportModes lists the reconciliation modes the entity supports.
	ImportModes []string

	// UniqueKey names the field used for upsert lookups besides email,
	// empty if the entity only upserts by email.
	UniqueKey string
}

// Field returns the spec for a canonical field name.
func (e *Entity) Field(name string) (FieldSpec, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// SearchFields returns the canonical names included in free-text search.
func (e *Entity) SearchFields() []string {
	var out []string
	for _, f := range e.Fields {
		if f.Searchable {
			out = append(out, f.Name)
		}
	}
	return out
}

// SupportsMode reports whether the entity accepts the given import mode.
func (e *Entity) SupportsMode(mode string) bool {
	for _, m := range e.ImportModes {
		if m == mode {
			return true
		}
	}
	return false
}

// CanSortBy reports whether the field is in the entity's sort enumeration.
func (e *Entity) CanSortBy(field string) bool {
	for _, f := range e.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

// NormalizeHeader lowercases a raw column header and strips whitespace,
// underscore, and hyphen characters. "Last-Contacted", "lastcontacted",
// and "last_contacted" all normalize to "lastcontacted".
func NormalizeHeader(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '\t', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CanonicalHeader maps a raw column header to the entity's canonical field
// name. Unknown headers pass through in their normalized form; the coercer
// simply never reads them, so unrecognized columns are ignored rather than
// rejected.
func (e *Entity) CanonicalHeader(raw string) string {
	norm := NormalizeHeader(raw)
	if canonical, ok := e.Synonyms[norm]; ok {
		return canonical
	}
	return norm
}

var (
	registry   = make(map[string]*Entity)
	registryMu sync.RWMutex
)

// Register adds an entity to the registry.
// Panics if an entity with the same name is already registered.
func Register(e *Entity) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[e.Name]; exists {
		panic(fmt.Sprintf("entity already registered: %s", e.Name))
	}
	registry[e.Name] = e
}

// Get returns an entity by name.
// Returns false if not found.
func Get(name string) (*Entity, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[name]
	return e, ok
}

// All returns all registered entities sorted by name.
func All() []*Entity {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Entity, 0, len(registry))
	for _, e := range registry {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

package core

// filter.go compiles the UI-facing filter state into the logical
// predicate set both store backends render. The compiler emits predicates
// in a fixed order (search group, active flag, text filters, numeric
// ranges, date ranges, following entity field order) so the two dialects
// always produce the same logical query and can be property-tested
// against each other.

import (
	"strconv"
	"strings"

	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
)

// Range is an inclusive numeric bound pair. Blank means unconstrained.
type Range struct {
	Min string
	Max string
}

// DateRange is an inclusive date-only bound pair (YYYY-MM-DD).
type DateRange struct {
	From string
	To   string
}

// FilterState is the per-field predicate state owned by the UI session.
// A blank value always means "no constraint", never "match empty".
type FilterState struct {
	// Active is "active", "inactive", or "all" (no constraint).
	Active string

	// Contains maps text field names to substring filters.
	Contains map[string]string

	// Numeric maps number field names to inclusive bounds.
	Numeric map[string]Range

	// Dates maps date field names (including the system fields created
	// and updated) to inclusive day bounds.
	Dates map[string]DateRange
}

// SortSpec is one ordering clause from the entity's closed sort set.
type SortSpec struct {
	Field string
	Dir   string // "asc" or "desc"
}

// dateStart and dateEnd widen a date-only input to inclusive day
// boundaries, so a createdFrom of 2024-01-01 includes records created at
// any time on that day.
func dateStart(day string) string { return day + " 00:00:00" }
func dateEnd(day string) string   { return day + " 23:59:59" }

// systemDateFields are store-owned timestamp fields filterable on every
// entity.
var systemDateFields = []string{"created", "updated"}

// CompileQuery translates filter state, free-text search, and a sort spec
// into the backend-neutral query for the entity's collection.
func CompileQuery(ent *schema.Entity, fs FilterState, search string, sort SortSpec) store.Query {
	q := store.Query{
		Collection: ent.Collection,
		PageSize:   store.MaxPageSize,
		Sort:       compileSort(ent, sort),
	}

	if s := strings.TrimSpace(search); s != "" {
		for _, field := range ent.SearchFields() {
			q.Filter.Search = append(q.Filter.Search, store.Cond{
				Field: field, Op: store.OpContains, Value: s,
			})
		}
	}

	if fs.Active == "active" || fs.Active == "inactive" {
		q.Filter.Conds = append(q.Filter.Conds, store.Cond{
			Field: "active", Op: store.OpEquals, Value: fs.Active == "active",
		})
	}

	for _, f := range ent.Fields {
		switch f.Type {
		case schema.FieldText:
			if v := strings.TrimSpace(fs.Contains[f.Name]); v != "" {
				q.Filter.Conds = append(q.Filter.Conds, store.Cond{
					Field: f.Name, Op: store.OpContains, Value: v,
				})
			}

		case schema.FieldNumber:
			r := fs.Numeric[f.Name]
			if n, ok := parseBound(r.Min); ok {
				q.Filter.Conds = append(q.Filter.Conds, store.Cond{
					Field: f.Name, Op: store.OpGreaterEq, Value: n,
				})
			}
			if n, ok := parseBound(r.Max); ok {
				q.Filter.Conds = append(q.Filter.Conds, store.Cond{
					Field: f.Name, Op: store.OpLessEq, Value: n,
				})
			}

		case schema.FieldDate:
			q.Filter.Conds = append(q.Filter.Conds, dateConds(f.Name, fs.Dates[f.Name])...)
		}
	}

	for _, field := range systemDateFields {
		q.Filter.Conds = append(q.Filter.Conds, dateConds(field, fs.Dates[field])...)
	}

	return q
}

func dateConds(field string, r DateRange) []store.Cond {
	var conds []store.Cond
	if d := strings.TrimSpace(r.From); d != "" {
		conds = append(conds, store.Cond{Field: field, Op: store.OpGreaterEq, Value: dateStart(d)})
	}
	if d := strings.TrimSpace(r.To); d != "" {
		conds = append(conds, store.Cond{Field: field, Op: store.OpLessEq, Value: dateEnd(d)})
	}
	return conds
}

// parseBound parses one numeric bound. Blank or non-numeric input means
// the bound is not applied.
func parseBound(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// compileSort validates the sort field against the entity's closed set,
// defaulting to newest-first.
func compileSort(ent *schema.Entity, s SortSpec) store.Sort {
	if !ent.CanSortBy(s.Field) {
		return store.Sort{Field: "created", Desc: true}
	}
	return store.Sort{Field: s.Field, Desc: strings.ToLower(s.Dir) == "desc"}
}

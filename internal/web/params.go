package web

import (
	"net/http"
	"strings"

	"github.com/avollmer/stammdaten/internal/core"
	"github.com/avollmer/stammdaten/internal/schema"
)

// parseFilterState lifts query parameters into a logical filter state.
// Field-valued params use the canonical field name; ranges use the
// `<field>_min` / `<field>_max` and `<field>_from` / `<field>_to`
// suffixes. Unknown params are ignored.
func parseFilterState(r *http.Request, ent *schema.Entity) core.FilterState {
	q := r.URL.Query()
	fs := core.FilterState{
		Active:   q.Get("active"),
		Contains: map[string]string{},
		Numeric:  map[string]core.Range{},
		Dates:    map[string]core.DateRange{},
	}

	for _, f := range ent.Fields {
		switch f.Type {
		case schema.FieldText:
			if v := strings.TrimSpace(q.Get(f.Name)); v != "" {
				fs.Contains[f.Name] = v
			}
		case schema.FieldNumber:
			min := strings.TrimSpace(q.Get(f.Name + "_min"))
			max := strings.TrimSpace(q.Get(f.Name + "_max"))
			if min != "" || max != "" {
				fs.Numeric[f.Name] = core.Range{Min: min, Max: max}
			}
		case schema.FieldDate:
			from := strings.TrimSpace(q.Get(f.Name + "_from"))
			to := strings.TrimSpace(q.Get(f.Name + "_to"))
			if from != "" || to != "" {
				fs.Dates[f.Name] = core.DateRange{From: from, To: to}
			}
		}
	}

	// created/updated are store-managed, not schema fields.
	for _, name := range []string{"created", "updated"} {
		from := strings.TrimSpace(q.Get(name + "_from"))
		to := strings.TrimSpace(q.Get(name + "_to"))
		if from != "" || to != "" {
			fs.Dates[name] = core.DateRange{From: from, To: to}
		}
	}

	return fs
}

func parseSort(r *http.Request) core.SortSpec {
	return core.SortSpec{
		Field: r.URL.Query().Get("sort"),
		Dir:   r.URL.Query().Get("dir"),
	}
}

// splitIDs parses the comma-separated ids param of a selected-scope
// export.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

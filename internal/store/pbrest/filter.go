package pbrest

// filter.go renders the logical predicate set in the REST backend's
// filter expression language: `~` for contains, `=`, `>=`, `<=`, with
// `&&`/`||` connectives and double-quoted string literals.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avollmer/stammdaten/internal/store"
)

// escapeValue escapes backslashes and quotes for embedding in a quoted
// filter literal.
func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// renderValue renders a condition value as a filter literal.
func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return `"` + escapeValue(t) + `"`
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return `"` + escapeValue(fmt.Sprint(t)) + `"`
	}
}

// renderCond renders a single condition.
func renderCond(c store.Cond) string {
	switch c.Op {
	case store.OpContains:
		return fmt.Sprintf("%s ~ %s", c.Field, renderValue(c.Value))
	case store.OpEquals:
		return fmt.Sprintf("%s = %s", c.Field, renderValue(c.Value))
	case store.OpGreaterEq:
		return fmt.Sprintf("%s >= %s", c.Field, renderValue(c.Value))
	case store.OpLessEq:
		return fmt.Sprintf("%s <= %s", c.Field, renderValue(c.Value))
	}
	return ""
}

// renderFilter renders the whole filter with the search group first and
// every part AND-ed. Returns "" for an empty filter.
func renderFilter(f store.Filter) string {
	var parts []string

	if len(f.Search) > 0 {
		group := make([]string, len(f.Search))
		for i, c := range f.Search {
			group[i] = renderCond(c)
		}
		parts = append(parts, "("+strings.Join(group, " || ")+")")
	}

	for _, c := range f.Conds {
		parts = append(parts, renderCond(c))
	}

	return strings.Join(parts, " && ")
}

// renderSort renders the sort selector, "-field" for descending.
func renderSort(s store.Sort) string {
	if s.Field == "" {
		return "-created"
	}
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

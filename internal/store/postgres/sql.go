package postgres

// sql.go renders the logical predicate set as parameterized SQL. Contains
// predicates become ILIKE, equality and range predicates become their
// operators, and the search group renders as an OR block. Values always
// travel as positional arguments, never interpolated.

import (
	"fmt"
	"strings"

	"github.com/avollmer/stammdaten/internal/store"
)

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// whereBuilder accumulates WHERE fragments with positional arguments.
type whereBuilder struct {
	fragments []string
	args      []any
}

// add renders one condition and appends its argument.
func (wb *whereBuilder) add(c store.Cond) {
	col := quoteIdentifier(c.Field)
	idx := len(wb.args) + 1

	switch c.Op {
	case store.OpContains:
		wb.fragments = append(wb.fragments, fmt.Sprintf("%s ILIKE $%d", col, idx))
		wb.args = append(wb.args, "%"+fmt.Sprint(c.Value)+"%")

	case store.OpEquals:
		wb.fragments = append(wb.fragments, fmt.Sprintf("%s = $%d", col, idx))
		wb.args = append(wb.args, c.Value)

	case store.OpGreaterEq:
		wb.fragments = append(wb.fragments, fmt.Sprintf("%s >= %s", col, wb.rangeArg(c.Value, idx)))

	case store.OpLessEq:
		wb.fragments = append(wb.fragments, fmt.Sprintf("%s <= %s", col, wb.rangeArg(c.Value, idx)))
	}
}

// rangeArg renders the placeholder for a range bound. String bounds are
// the engine's textual date boundaries and get an explicit timestamp cast
// so the comparison types line up.
func (wb *whereBuilder) rangeArg(value any, idx int) string {
	wb.args = append(wb.args, value)
	if _, ok := value.(string); ok {
		return fmt.Sprintf("$%d::timestamp", idx)
	}
	return fmt.Sprintf("$%d", idx)
}

// buildWhere renders the filter. Returns "" and no args for an empty
// filter.
func buildWhere(f store.Filter) (string, []any) {
	wb := &whereBuilder{}

	var searchParts []string
	for _, c := range f.Search {
		idx := len(wb.args) + 1
		searchParts = append(searchParts, fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(c.Field), idx))
		wb.args = append(wb.args, "%"+fmt.Sprint(c.Value)+"%")
	}
	if len(searchParts) > 0 {
		wb.fragments = append(wb.fragments, "("+strings.Join(searchParts, " OR ")+")")
	}

	for _, c := range f.Conds {
		wb.add(c)
	}

	if len(wb.fragments) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.fragments, " AND "), wb.args
}

// buildOrder renders the ordering clause, defaulting to newest first.
func buildOrder(s store.Sort) string {
	field := s.Field
	if field == "" {
		field = "created"
		s.Desc = true
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", quoteIdentifier(field), dir)
}

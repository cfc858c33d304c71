package store

// eval.go implements the logical predicate semantics shared by backends
// without a native query language. memstore filters with it directly, and
// the test suite uses it as the reference when checking that the SQL and
// REST renderings of the same Filter select the same records.

import (
	"strconv"
	"strings"
)

// Match reports whether the record satisfies the filter: every Cond must
// hold, and at least one Search cond when the search group is non-empty.
func (f Filter) Match(r Record) bool {
	for _, c := range f.Conds {
		if !c.Match(r) {
			return false
		}
	}
	if len(f.Search) > 0 {
		hit := false
		for _, c := range f.Search {
			if c.Match(r) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Match evaluates a single condition against a record.
func (c Cond) Match(r Record) bool {
	v, ok := r[c.Field]
	if !ok || v == nil {
		return false
	}

	switch c.Op {
	case OpContains:
		needle, _ := c.Value.(string)
		return strings.Contains(strings.ToLower(asString(v)), strings.ToLower(needle))

	case OpEquals:
		switch want := c.Value.(type) {
		case bool:
			got, ok := v.(bool)
			return ok && got == want
		case float64:
			got, ok := asNumber(v)
			return ok && got == want
		default:
			return asString(v) == asString(c.Value)
		}

	case OpGreaterEq:
		return compare(v, c.Value, func(cmp int) bool { return cmp >= 0 })

	case OpLessEq:
		return compare(v, c.Value, func(cmp int) bool { return cmp <= 0 })
	}

	return false
}

// compare orders a record value against a condition value. Numbers compare
// numerically; everything else falls back to string ordering, which is
// correct for the engine's date bounds because both sides use the sortable
// "YYYY-MM-DD HH:MM:SS" form.
func compare(v, want any, ok func(int) bool) bool {
	if w, isNum := want.(float64); isNum {
		g, valid := asNumber(v)
		if !valid {
			return false
		}
		switch {
		case g < w:
			return ok(-1)
		case g > w:
			return ok(1)
		default:
			return ok(0)
		}
	}
	return ok(strings.Compare(asString(v), asString(want)))
}

// CompareValues orders two record values: numerically when both parse as
// numbers, otherwise by string form. Backends without native ordering use
// it to sort.
func CompareValues(a, b any) int {
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(asString(a), asString(b))
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []string:
		return strings.Join(t, ",")
	case nil:
		return ""
	default:
		return ""
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

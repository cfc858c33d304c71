package core

// coerce.go converts one loosely-typed import record into a sparse typed
// payload. A field that is absent, empty, or unparseable is simply left
// out of the payload rather than set to a sentinel value, so updates never
// clobber stored fields with accidental empties. The reconciliation loop
// is responsible for turning "required key missing" into a row failure.

import (
	"strconv"
	"strings"

	"github.com/avollmer/stammdaten/internal/schema"
)

// Coerce builds a sparse payload from a raw record, applying the entity's
// per-field type rules. Keys of the record are canonical field names
// (CSV input goes through the header normalizer first; JSON input is
// normalized by the importer).
func Coerce(ent *schema.Entity, record map[string]any) map[string]any {
	payload := make(map[string]any)

	for _, f := range ent.Fields {
		raw, ok := record[f.Name]
		if !ok || raw == nil {
			continue
		}

		switch f.Type {
		case schema.FieldText, schema.FieldDate:
			// Dates pass through in textual form; the store validates
			// the format.
			if s := normalizeText(raw); s != "" {
				payload[f.Name] = s
			}

		case schema.FieldBool:
			if raw == "" {
				continue
			}
			payload[f.Name] = ParseBool(raw)

		case schema.FieldNumber:
			if raw == "" {
				continue
			}
			if n, ok := toNumber(raw); ok {
				payload[f.Name] = n
			}

		case schema.FieldStringList:
			if list := toStringList(raw); len(list) > 0 {
				payload[f.Name] = list
			}
		}
	}

	return payload
}

// CreateDefaults fills the fields a direct creation defaults when the
// caller left them out: active becomes true, and number fields marked
// ZeroOnCreate become 0.
func CreateDefaults(ent *schema.Entity, payload map[string]any) map[string]any {
	if _, ok := payload["active"]; !ok {
		payload["active"] = true
	}
	for _, f := range ent.Fields {
		if f.Type == schema.FieldNumber && f.ZeroOnCreate {
			if _, ok := payload[f.Name]; !ok {
				payload[f.Name] = float64(0)
			}
		}
	}
	return payload
}

// ParseBool coerces a raw value to a boolean. Booleans pass through,
// numbers are nonzero-is-true, and the usual string tokens are accepted
// case-insensitively. Anything unrecognized is false; callers wanting
// strict validation must pre-filter.
func ParseBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y", "active":
			return true
		}
	}
	return false
}

// normalizeText returns the trimmed string form of a raw value, or ""
// for non-string input.
func normalizeText(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// toNumber parses a raw value as a number. Strings with surrounding
// whitespace are accepted; anything non-numeric is rejected.
func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// toStringList accepts a JSON array of values or a ";"/","-delimited
// string. Tokens are trimmed and empty tokens dropped.
func toStringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s := strings.TrimSpace(stringify(item))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, tok := range strings.FieldsFunc(v, func(r rune) bool {
			return r == ';' || r == ','
		}) {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
		return out
	}
	return nil
}

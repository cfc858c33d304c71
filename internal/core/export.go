package core

// export.go projects a record set onto a document for download. The CSV
// path is the structural inverse of the tokenizer and coercer: exporting
// and reimporting under create mode reproduces equivalent payload fields.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
)

// ExportFormat selects the output document type.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportScope selects which records an export covers.
type ExportScope string

const (
	ScopeFiltered ExportScope = "filtered" // current filter + search + sort
	ScopeSelected ExportScope = "selected" // explicit id set
	ScopeAll      ExportScope = "all"      // no constraints, current sort
)

// Project renders records in the entity's fixed export field order.
func Project(ent *schema.Entity, records []store.Record, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		rows := make([]map[string]any, len(records))
		for i, rec := range records {
			row := make(map[string]any, len(ent.ExportFields))
			for _, field := range ent.ExportFields {
				row[field] = rec[field]
			}
			rows[i] = row
		}
		return json.MarshalIndent(rows, "", "  ")

	case FormatCSV:
		rows := make([][]string, 0, len(records)+1)
		rows = append(rows, ent.ExportFields)
		for _, rec := range records {
			row := make([]string, len(ent.ExportFields))
			for i, field := range ent.ExportFields {
				row[i] = stringify(rec[field])
			}
			rows = append(rows, row)
		}
		return []byte(WriteRows(rows)), nil
	}

	return nil, fmt.Errorf("unknown export format %q", format)
}

// FileName builds the download name: <entity>-<scope>-<ISO date>.<format>.
func FileName(ent *schema.Entity, scope ExportScope, format ExportFormat, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", ent.Name, scope, now.Format("2006-01-02"), format)
}

// stringify renders a record value as its natural textual form. Nil
// renders empty, and multi-valued fields join with commas so a reimport
// splits them back apart.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
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
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

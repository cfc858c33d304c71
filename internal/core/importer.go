package core

// importer.go is the reconciliation engine: it walks decoded import
// records in file order, decides create vs. update per the active import
// mode, and accumulates the run summary. Row failures are counted and
// logged but never abort the run; only an unreadable file or a non-array
// JSON document is terminal.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
)

// ImportSummary holds the counters accumulated across one import run.
// The run is not transactional: partial success is expected and reported.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ErrJSONNotArray is returned when a JSON import does not decode to a
// top-level array of objects.
var ErrJSONNotArray = errors.New("json import must be an array of records")

// Importer runs import files against a record store.
type Importer struct {
	store store.Store
}

// NewImporter creates an importer backed by the given store.
func NewImporter(st store.Store) *Importer {
	return &Importer{store: st}
}

// Run decodes fileName/data and reconciles every record under the given
// mode. Rows are processed strictly in file order, one at a time; a
// failure on one row does not affect the rest. The summary is returned
// once the last row completes.
func (im *Importer) Run(ctx context.Context, ent *schema.Entity, fileName string, data []byte, mode string) (ImportSummary, error) {
	var summary ImportSummary

	if !ent.SupportsMode(mode) {
		return summary, fmt.Errorf("entity %s does not support import mode %q", ent.Name, mode)
	}

	records, err := DecodeRecords(ent, fileName, data)
	if err != nil {
		return summary, err
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := im.reconcile(ctx, ent, mode, record)
		if err != nil {
			summary.Failed++
			slog.Warn("import row failed",
				"entity", ent.Name,
				"mode", mode,
				"row", i+1,
				"error", err,
			)
			continue
		}
		switch outcome {
		case outcomeCreated:
			summary.Created++
		case outcomeUpdated:
			summary.Updated++
		}
	}

	return summary, nil
}

// DecodeRecords turns raw file bytes into loosely-typed records keyed by
// canonical field names. Files ending in .json must contain a top-level
// array of objects; everything else is parsed as CSV with row 0 as the
// header row.
func DecodeRecords(ent *schema.Entity, fileName string, data []byte) ([]map[string]any, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".json") {
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		items, ok := parsed.([]any)
		if !ok {
			return nil, ErrJSONNotArray
		}
		records := make([]map[string]any, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, ErrJSONNotArray
			}
			records = append(records, NormalizeKeys(ent, obj))
		}
		return records, nil
	}

	rows := ParseRows(string(data))
	if len(rows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = ent.CanonicalHeader(h)
	}

	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// NormalizeKeys folds object keys through the entity's synonym table so
// camelCase and variant spellings land on canonical names.
func NormalizeKeys(ent *schema.Entity, obj map[string]any) map[string]any {
	record := make(map[string]any, len(obj))
	for k, v := range obj {
		record[ent.CanonicalHeader(k)] = v
	}
	return record
}

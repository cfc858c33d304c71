package core

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/avollmer/stammdaten/internal/schema"
	"github.com/avollmer/stammdaten/internal/store"
	"github.com/avollmer/stammdaten/internal/store/memstore"
)

func TestProject_CSV(t *testing.T) {
	ent := members(t)

	records := []store.Record{
		{
			"id": "r1", "identification": float64(7), "name": `Doe, "JD" Jane`,
			"email": "jane@example.org", "phone": "030 1234", "city": "Berlin",
			"active": true, "created": "2024-01-01 10:00:00", "updated": "2024-01-02 11:00:00",
		},
	}

	doc, err := Project(ent, records, FormatCSV)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	rows := ParseRows(string(doc))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], ent.ExportFields) {
		t.Errorf("header = %v, want %v", rows[0], ent.ExportFields)
	}
	want := []string{"r1", "7", `Doe, "JD" Jane`, "jane@example.org", "030 1234", "Berlin", "true", "2024-01-01 10:00:00", "2024-01-02 11:00:00"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row = %v, want %v", rows[1], want)
	}
}

func TestProject_JSON(t *testing.T) {
	ent := members(t)

	doc, err := Project(ent, []store.Record{
		{"id": "r1", "name": "Jane", "active": true, "internal_only": "dropped"},
	}, FormatJSON)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(doc, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0]["name"] != "Jane" {
		t.Errorf("name = %v", rows[0]["name"])
	}
	if _, leaked := rows[0]["internal_only"]; leaked {
		t.Error("fields outside the export projection must not leak")
	}
}

func TestProject_UnknownFormat(t *testing.T) {
	if _, err := Project(members(t), nil, ExportFormat("xml")); err == nil {
		t.Error("unknown format must error")
	}
}

func TestProject_ListJoinsWithCommas(t *testing.T) {
	ent := schools(t)

	doc, err := Project(ent, []store.Record{
		{"id": "s1", "name": "Gym Nord", "ambassadors": []string{"Anna", "Ben"}},
	}, FormatCSV)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	rows := ParseRows(string(doc))
	idx := -1
	for i, f := range ent.ExportFields {
		if f == "ambassadors" {
			idx = i
		}
	}
	if got := rows[1][idx]; got != "Anna,Ben" {
		t.Errorf("ambassadors cell = %q, want %q", got, "Anna,Ben")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		scope  ExportScope
		format ExportFormat
		want   string
	}{
		{ScopeFiltered, FormatCSV, "members-filtered-2024-06-15.csv"},
		{ScopeAll, FormatJSON, "members-all-2024-06-15.json"},
		{ScopeSelected, FormatCSV, "members-selected-2024-06-15.csv"},
	}

	for _, tt := range tests {
		if got := FileName(members(t), tt.scope, tt.format, now); got != tt.want {
			t.Errorf("FileName(%s, %s) = %q, want %q", tt.scope, tt.format, got, tt.want)
		}
	}
}

// TestExportReimportRoundTrip exports a store's records and reimports the
// CSV under create mode into a fresh store, checking the payload fields
// survive the cycle.
func TestExportReimportRoundTrip(t *testing.T) {
	ctx := context.Background()
	ent := schools(t)

	src := memstore.New()
	seeded, err := src.Create(ctx, "schools", map[string]any{
		"name":           `Gesamtschule "Mitte", Köln`,
		"adress":         "Hauptstr. 1\n50667 Köln",
		"email":          "info@mitte.example",
		"ambassadors":    []string{"Anna", "Ben"},
		"last_contacted": "2024-03-01",
		"priority_score": 7.5,
		"active":         false,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	records, err := src.ListAll(ctx, store.Query{Collection: "schools"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	doc, err := Project(ent, records, FormatCSV)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	dst := memstore.New()
	summary, err := NewImporter(dst).Run(ctx, ent, "schools.csv", doc, schema.ModeCreate)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Created != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 created", summary)
	}

	got, err := dst.GetOne(ctx, "schools", "email", "info@mitte.example")
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	for field, want := range map[string]any{
		"name":           seeded["name"],
		"adress":         seeded["adress"],
		"last_contacted": "2024-03-01",
		"priority_score": 7.5,
		"active":         false,
	} {
		if !reflect.DeepEqual(got[field], want) {
			t.Errorf("%s = %v, want %v", field, got[field], want)
		}
	}
	if !reflect.DeepEqual(got["ambassadors"], []string{"Anna", "Ben"}) {
		t.Errorf("ambassadors = %v, want re-split list", got["ambassadors"])
	}
}

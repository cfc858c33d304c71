package core

import (
	"reflect"
	"testing"

	"github.com/avollmer/stammdaten/internal/schema"
)

func members(t *testing.T) *schema.Entity {
	t.Helper()
	ent, ok := schema.Get("members")
	if !ok {
		t.Fatal("members entity not registered")
	}
	return ent
}

func schools(t *testing.T) *schema.Entity {
	t.Helper()
	ent, ok := schema.Get("schools")
	if !ok {
		t.Fatal("schools entity not registered")
	}
	return ent
}

// ----------------------------------------------------------------------------
// Coerce Tests
// ----------------------------------------------------------------------------

func TestCoerce_SparsePayload(t *testing.T) {
	ent := members(t)

	tests := []struct {
		name   string
		record map[string]any
		want   map[string]any
	}{
		{
			name:   "text fields trimmed",
			record: map[string]any{"name": "  Jane Doe  ", "email": "jane@example.org"},
			want:   map[string]any{"name": "Jane Doe", "email": "jane@example.org"},
		},
		{
			name:   "empty text omitted",
			record: map[string]any{"name": "", "city": "   "},
			want:   map[string]any{},
		},
		{
			name:   "number parsed",
			record: map[string]any{"identification": "42"},
			want:   map[string]any{"identification": float64(42)},
		},
		{
			name:   "unparseable number omitted",
			record: map[string]any{"identification": "n/a"},
			want:   map[string]any{},
		},
		{
			name:   "empty number omitted",
			record: map[string]any{"identification": ""},
			want:   map[string]any{},
		},
		{
			name:   "bool token",
			record: map[string]any{"active": "Yes"},
			want:   map[string]any{"active": true},
		},
		{
			name:   "empty bool omitted",
			record: map[string]any{"active": ""},
			want:   map[string]any{},
		},
		{
			name:   "unknown keys ignored",
			record: map[string]any{"somethingelse": "value"},
			want:   map[string]any{},
		},
		{
			name:   "nil values omitted",
			record: map[string]any{"name": nil},
			want:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coerce(ent, tt.record); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Coerce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerce_SchoolsListAndDate(t *testing.T) {
	ent := schools(t)

	got := Coerce(ent, map[string]any{
		"ambassadors":    "Anna; Ben, Carl",
		"last_contacted": " 2024-03-01 ",
		"priority_score": "7.5",
	})

	want := map[string]any{
		"ambassadors":    []string{"Anna", "Ben", "Carl"},
		"last_contacted": "2024-03-01",
		"priority_score": 7.5,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Coerce() = %v, want %v", got, want)
	}
}

func TestCoerce_ListFromJSONArray(t *testing.T) {
	ent := schools(t)

	got := Coerce(ent, map[string]any{
		"ambassadors": []any{"Anna", " Ben ", ""},
	})

	want := map[string]any{"ambassadors": []string{"Anna", "Ben"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Coerce() = %v, want %v", got, want)
	}
}

// ----------------------------------------------------------------------------
// ParseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"token true", "true", true},
		{"token TRUE", "TRUE", true},
		{"token 1", "1", true},
		{"token yes", "yes", true},
		{"token y", "y", true},
		{"token active", "Active", true},
		{"token with spaces", "  true  ", true},
		{"token false", "false", false},
		{"token no", "no", false},
		{"token 0", "0", false},
		{"garbage", "maybe", false},
		{"number nonzero", float64(2), true},
		{"number zero", float64(0), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseBool(tt.input); got != tt.want {
				t.Errorf("ParseBool(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CreateDefaults Tests
// ----------------------------------------------------------------------------

func TestCreateDefaults(t *testing.T) {
	ent := schools(t)

	t.Run("fills active and zero-on-create numbers", func(t *testing.T) {
		got := CreateDefaults(ent, map[string]any{"name": "Gymnasium Nord"})
		if got["active"] != true {
			t.Errorf("active = %v, want true", got["active"])
		}
		if got["priority_score"] != float64(0) {
			t.Errorf("priority_score = %v, want 0", got["priority_score"])
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		got := CreateDefaults(ent, map[string]any{"active": false, "priority_score": 5.0})
		if got["active"] != false {
			t.Errorf("active = %v, want false", got["active"])
		}
		if got["priority_score"] != 5.0 {
			t.Errorf("priority_score = %v, want 5", got["priority_score"])
		}
	})

	t.Run("members have no zero-on-create fields", func(t *testing.T) {
		got := CreateDefaults(members(t), map[string]any{})
		if _, ok := got["identification"]; ok {
			t.Error("identification must stay unset, the store assigns it")
		}
	})
}

package pbrest

import (
	"testing"

	"github.com/avollmer/stammdaten/internal/store"
)

func TestRenderCond(t *testing.T) {
	tests := []struct {
		name string
		cond store.Cond
		want string
	}{
		{"contains", store.Cond{Field: "name", Op: store.OpContains, Value: "jane"}, `name ~ "jane"`},
		{"equals string", store.Cond{Field: "city", Op: store.OpEquals, Value: "Berlin"}, `city = "Berlin"`},
		{"equals bool", store.Cond{Field: "active", Op: store.OpEquals, Value: true}, `active = true`},
		{"equals number", store.Cond{Field: "identification", Op: store.OpEquals, Value: float64(7)}, `identification = 7`},
		{"gte date", store.Cond{Field: "created", Op: store.OpGreaterEq, Value: "2024-01-01 00:00:00"}, `created >= "2024-01-01 00:00:00"`},
		{"lte date", store.Cond{Field: "created", Op: store.OpLessEq, Value: "2024-01-31 23:59:59"}, `created <= "2024-01-31 23:59:59"`},
		{"quotes escaped", store.Cond{Field: "name", Op: store.OpContains, Value: `say "hi"`}, `name ~ "say \"hi\""`},
		{"backslashes escaped", store.Cond{Field: "name", Op: store.OpContains, Value: `a\b`}, `name ~ "a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderCond(tt.cond); got != tt.want {
				t.Errorf("renderCond() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter store.Filter
		want   string
	}{
		{"empty", store.Filter{}, ""},
		{
			"search group ors",
			store.Filter{Search: []store.Cond{
				{Field: "name", Op: store.OpContains, Value: "x"},
				{Field: "email", Op: store.OpContains, Value: "x"},
			}},
			`(name ~ "x" || email ~ "x")`,
		},
		{
			"conds and",
			store.Filter{Conds: []store.Cond{
				{Field: "active", Op: store.OpEquals, Value: true},
				{Field: "city", Op: store.OpContains, Value: "berlin"},
			}},
			`active = true && city ~ "berlin"`,
		},
		{
			"search group first then conds",
			store.Filter{
				Search: []store.Cond{{Field: "name", Op: store.OpContains, Value: "x"}},
				Conds:  []store.Cond{{Field: "active", Op: store.OpEquals, Value: false}},
			},
			`(name ~ "x") && active = false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderFilter(tt.filter); got != tt.want {
				t.Errorf("renderFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSort(t *testing.T) {
	tests := []struct {
		name string
		sort store.Sort
		want string
	}{
		{"ascending", store.Sort{Field: "name"}, "name"},
		{"descending", store.Sort{Field: "name", Desc: true}, "-name"},
		{"default newest first", store.Sort{}, "-created"},
	}

	for _, tt := range tests {
		if got := renderSort(tt.sort); got != tt.want {
			t.Errorf("%s: renderSort() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

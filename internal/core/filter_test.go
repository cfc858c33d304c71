package core

import (
	"reflect"
	"testing"

	"github.com/avollmer/stammdaten/internal/store"
)

func TestCompileQuery_Search(t *testing.T) {
	ent := members(t)

	q := CompileQuery(ent, FilterState{}, "berlin", SortSpec{})

	want := []store.Cond{
		{Field: "name", Op: store.OpContains, Value: "berlin"},
		{Field: "email", Op: store.OpContains, Value: "berlin"},
		{Field: "phone", Op: store.OpContains, Value: "berlin"},
		{Field: "city", Op: store.OpContains, Value: "berlin"},
	}
	if !reflect.DeepEqual(q.Filter.Search, want) {
		t.Errorf("Search = %v, want %v", q.Filter.Search, want)
	}
	if len(q.Filter.Conds) != 0 {
		t.Errorf("unexpected conds: %v", q.Filter.Conds)
	}
}

func TestCompileQuery_BlankSearchIgnored(t *testing.T) {
	q := CompileQuery(members(t), FilterState{}, "   ", SortSpec{})
	if !q.Filter.Empty() {
		t.Errorf("blank search must compile to empty filter, got %+v", q.Filter)
	}
}

func TestCompileQuery_ActiveFlag(t *testing.T) {
	ent := members(t)

	tests := []struct {
		active string
		want   []store.Cond
	}{
		{"active", []store.Cond{{Field: "active", Op: store.OpEquals, Value: true}}},
		{"inactive", []store.Cond{{Field: "active", Op: store.OpEquals, Value: false}}},
		{"all", nil},
		{"", nil},
	}

	for _, tt := range tests {
		q := CompileQuery(ent, FilterState{Active: tt.active}, "", SortSpec{})
		if !reflect.DeepEqual(q.Filter.Conds, tt.want) {
			t.Errorf("active=%q: conds = %v, want %v", tt.active, q.Filter.Conds, tt.want)
		}
	}
}

// TestCompileQuery_PredicateOrder checks conds come out in a fixed order
// regardless of map iteration: active flag, then entity field order, then
// the system date fields.
func TestCompileQuery_PredicateOrder(t *testing.T) {
	ent := schools(t)

	fs := FilterState{
		Active:   "active",
		Contains: map[string]string{"city": "köln", "name": "gym"},
		Numeric:  map[string]Range{"priority_score": {Min: "2", Max: "8"}},
		Dates: map[string]DateRange{
			"last_contacted": {From: "2024-01-01"},
			"created":        {To: "2024-06-30"},
		},
	}

	q := CompileQuery(ent, fs, "", SortSpec{})

	want := []store.Cond{
		{Field: "active", Op: store.OpEquals, Value: true},
		{Field: "name", Op: store.OpContains, Value: "gym"},
		{Field: "city", Op: store.OpContains, Value: "köln"},
		{Field: "last_contacted", Op: store.OpGreaterEq, Value: "2024-01-01 00:00:00"},
		{Field: "priority_score", Op: store.OpGreaterEq, Value: float64(2)},
		{Field: "priority_score", Op: store.OpLessEq, Value: float64(8)},
		{Field: "created", Op: store.OpLessEq, Value: "2024-06-30 23:59:59"},
	}
	if !reflect.DeepEqual(q.Filter.Conds, want) {
		t.Errorf("conds mismatch:\n got %v\nwant %v", q.Filter.Conds, want)
	}
}

func TestCompileQuery_DateBoundsWidened(t *testing.T) {
	ent := schools(t)

	q := CompileQuery(ent, FilterState{
		Dates: map[string]DateRange{"created": {From: "2024-01-01", To: "2024-01-31"}},
	}, "", SortSpec{})

	want := []store.Cond{
		{Field: "created", Op: store.OpGreaterEq, Value: "2024-01-01 00:00:00"},
		{Field: "created", Op: store.OpLessEq, Value: "2024-01-31 23:59:59"},
	}
	if !reflect.DeepEqual(q.Filter.Conds, want) {
		t.Errorf("conds = %v, want %v", q.Filter.Conds, want)
	}
}

func TestCompileQuery_NonNumericBoundsIgnored(t *testing.T) {
	ent := schools(t)

	q := CompileQuery(ent, FilterState{
		Numeric: map[string]Range{"priority_score": {Min: "abc", Max: ""}},
	}, "", SortSpec{})

	if len(q.Filter.Conds) != 0 {
		t.Errorf("non-numeric bounds must not constrain, got %v", q.Filter.Conds)
	}
}

func TestCompileQuery_PageCap(t *testing.T) {
	q := CompileQuery(members(t), FilterState{}, "", SortSpec{})
	if got := q.EffectivePageSize(); got != store.MaxPageSize {
		t.Errorf("EffectivePageSize() = %d, want %d", got, store.MaxPageSize)
	}
}

func TestCompileSort(t *testing.T) {
	ent := members(t)

	tests := []struct {
		name string
		in   SortSpec
		want store.Sort
	}{
		{"valid ascending", SortSpec{Field: "name", Dir: "asc"}, store.Sort{Field: "name"}},
		{"valid descending", SortSpec{Field: "email", Dir: "desc"}, store.Sort{Field: "email", Desc: true}},
		{"empty defaults to newest first", SortSpec{}, store.Sort{Field: "created", Desc: true}},
		{"unknown field defaults", SortSpec{Field: "evil()"}, store.Sort{Field: "created", Desc: true}},
		{"dir case-insensitive", SortSpec{Field: "name", Dir: "DESC"}, store.Sort{Field: "name", Desc: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := CompileQuery(ent, FilterState{}, "", tt.in)
			if q.Sort != tt.want {
				t.Errorf("Sort = %+v, want %+v", q.Sort, tt.want)
			}
		})
	}
}

// TestCompileQuery_ReferenceSemantics runs compiled filters against the
// reference evaluator to pin the end-to-end behavior of search, the
// active flag, and widened date bounds.
func TestCompileQuery_ReferenceSemantics(t *testing.T) {
	ent := members(t)

	records := []store.Record{
		{"id": "a", "name": "Jane Doe", "email": "jane@example.org", "city": "Berlin", "active": true, "created": "2024-01-15 09:30:00"},
		{"id": "b", "name": "John Roe", "email": "john@example.org", "city": "Köln", "active": false, "created": "2024-02-20 18:00:00"},
		{"id": "c", "name": "Berlinda May", "email": "b.may@example.org", "city": "Hamburg", "active": true, "created": "2024-03-05 00:00:00"},
	}

	tests := []struct {
		name    string
		fs      FilterState
		search  string
		wantIDs []string
	}{
		{
			name:    "search hits name and city",
			search:  "berlin",
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "active only",
			fs:      FilterState{Active: "active"},
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "search AND active",
			fs:      FilterState{Active: "inactive"},
			search:  "example.org",
			wantIDs: []string{"b"},
		},
		{
			name: "created from includes whole day",
			fs: FilterState{Dates: map[string]DateRange{
				"created": {From: "2024-02-20"},
			}},
			wantIDs: []string{"b", "c"},
		},
		{
			name: "created to includes whole day",
			fs: FilterState{Dates: map[string]DateRange{
				"created": {To: "2024-02-20"},
			}},
			wantIDs: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := CompileQuery(ent, tt.fs, tt.search, SortSpec{})
			var got []string
			for _, r := range records {
				if q.Filter.Match(r) {
					got = append(got, r.ID())
				}
			}
			if !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("matched %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

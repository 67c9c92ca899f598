package schema

import (
	"testing"

	"github.com/annstore/vecdb/meta"
)

func TestEvolveBatchInfersAndSkipsNonFilterable(t *testing.T) {
	r := NewRegistry()
	cfg := &meta.IndexConfig{NonFilterableMetadataKeys: []string{"secret"}}
	r.EvolveBatch(cfg, []map[string]interface{}{
		{"cat": "x", "score": 7.0, "secret": "shh"},
	})
	if r.Columns["cat"] != meta.ColString {
		t.Fatalf("expected cat inferred as string, got %v", r.Columns["cat"])
	}
	if r.Columns["score"] != meta.ColFloat64 {
		t.Fatalf("expected score inferred as float64, got %v", r.Columns["score"])
	}
	if _, ok := r.Columns["secret"]; ok {
		t.Fatalf("secret must never be promoted to a column")
	}
}

func TestAddNullableColumnIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.AddNullableColumn("cat", meta.ColString)
	r.AddNullableColumn("cat", meta.ColInt64) // racing writer re-adding; must be a no-op
	if r.Columns["cat"] != meta.ColString {
		t.Fatalf("expected first type to win, got %v", r.Columns["cat"])
	}
}

func TestEmptyInListIsAlwaysFalse(t *testing.T) {
	r := NewRegistry()
	r.AddNullableColumn("cat", meta.ColString)
	f := meta.Leaf(meta.OpIn, "cat", []interface{}{})

	where := r.Translate(f)
	if where != "FALSE" {
		t.Fatalf("expected FALSE, got %q", where)
	}
	if Evaluate(f, map[string]interface{}{"cat": "x"}) {
		t.Fatalf("expected postfilter to also reject for empty in-list")
	}
}

func TestUnknownOperatorIsAlwaysTrue(t *testing.T) {
	r := NewRegistry()
	f := &meta.Filter{Op: "bogus", Key: "cat", Value: "x"}
	if r.Translate(f) != "TRUE" {
		t.Fatalf("expected TRUE for unknown operator")
	}
	if !Evaluate(f, map[string]interface{}{"cat": "y"}) {
		t.Fatalf("expected postfilter to also pass for unknown operator")
	}
}

func TestLiteralEscaping(t *testing.T) {
	r := NewRegistry()
	f := meta.Leaf(meta.OpEquals, "nonfilterable_or_json_key", "O'Brien")
	where := r.Translate(f)
	if where != `json_extract(metadata_json, '$.nonfilterable_or_json_key') = 'O''Brien'` {
		t.Fatalf("unexpected escaped literal: %q", where)
	}
}

// TestPushdownPostfilterEquivalence is the §8 "pushdown(F,D) ≡
// postfilter(F,D) as sets" property. Each filter's expected result per row
// is pinned explicitly so a change to Evaluate's semantics that silently
// diverges from Translate's SQL rendering (e.g. a different empty-in-list
// or unknown-operator default) fails here rather than only at runtime
// against a real SQL engine.
func TestPushdownPostfilterEquivalence(t *testing.T) {
	r := NewRegistry()
	r.AddNullableColumn("cat", meta.ColString)
	r.AddNullableColumn("score", meta.ColFloat64)

	rows := []map[string]interface{}{
		{"cat": "x", "score": 7.0},
		{"cat": "y", "score": 3.0},
		{"cat": "x", "score": 1.0},
	}

	cases := []struct {
		name   string
		filter *meta.Filter
		want   []bool
	}{
		{
			"and",
			meta.And(meta.Leaf(meta.OpEquals, "cat", "x"), meta.Leaf(meta.OpGreaterThan, "score", 2.0)),
			[]bool{true, false, false},
		},
		{
			"or",
			meta.Or(meta.Leaf(meta.OpEquals, "cat", "y"), meta.Leaf(meta.OpLessEqual, "score", 1.0)),
			[]bool{false, true, true},
		},
		{
			"not",
			meta.Not(meta.Leaf(meta.OpEquals, "cat", "x")),
			[]bool{false, true, false},
		},
		{
			"in",
			meta.Leaf(meta.OpIn, "cat", []interface{}{"x", "z"}),
			[]bool{true, false, true},
		},
	}

	for _, c := range cases {
		if !r.Pushdownable(c.filter) {
			t.Fatalf("%s: expected filter over typed columns to be pushdownable", c.name)
		}
		where := r.Translate(c.filter)
		if where == "" {
			t.Fatalf("%s: empty translation", c.name)
		}
		for ri, row := range rows {
			got := Evaluate(c.filter, row)
			if got != c.want[ri] {
				t.Fatalf("%s row %d: Evaluate=%v want %v (where=%q)", c.name, ri, got, c.want[ri], where)
			}
		}
	}
}

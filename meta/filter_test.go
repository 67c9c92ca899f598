package meta

import "testing"

func TestFilterWalkVisitsLeavesDepthFirst(t *testing.T) {
	f := And(
		Leaf(OpEquals, "cat", "x"),
		Or(
			Leaf(OpGreaterThan, "score", 1.0),
			Leaf(OpLessEqual, "score", 9.0),
		),
		Not(Leaf(OpExists, "secret", nil)),
	)

	var keys []string
	f.Walk(func(leaf *Filter) { keys = append(keys, leaf.Key) })

	want := []string{"cat", "score", "score", "secret"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestFilterWalkNilIsNoOp(t *testing.T) {
	var f *Filter
	called := false
	f.Walk(func(leaf *Filter) { called = true })
	if called {
		t.Fatalf("Walk on a nil filter must not invoke the visitor")
	}
}

func TestFilterIsLeaf(t *testing.T) {
	leaf := Leaf(OpEquals, "cat", "x")
	if !leaf.IsLeaf() {
		t.Fatalf("expected a leaf built via Leaf() to report IsLeaf")
	}
	node := And(leaf)
	if node.IsLeaf() {
		t.Fatalf("expected a logical node to report !IsLeaf")
	}
}

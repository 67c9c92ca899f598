package meta

// Op is a leaf predicate operator (§3 "Filter expression").
type Op string

const (
	OpEquals       Op = "equals"
	OpNotEquals    Op = "not_equals"
	OpGreaterThan  Op = "greater_than"
	OpGreaterEqual Op = "greater_equal"
	OpLessThan     Op = "less_than"
	OpLessEqual    Op = "less_equal"
	OpIn           Op = "in"
	OpNotIn        Op = "not_in"
	OpExists       Op = "exists"
)

// Logic is a logical combinator (§3).
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
	LogicNot Logic = "not"
)

// Filter is a node in the recursive filter expression tree. A node is either
// a leaf (Op set, MetadataKey/Value populated) or a logical node (Logic set,
// Children populated). Exactly one of the two shapes is valid at a time;
// schema.Translate and schema.Evaluate both assume this.
type Filter struct {
	Op    Op     `json:"op,omitempty"`
	Logic Logic  `json:"logic,omitempty"`
	Key   string `json:"metadataKey,omitempty"`
	// Value holds a scalar (bool/float64/string) for comparison ops, or a
	// []interface{} for `in`/`not_in`. Unused for `exists` and logical nodes.
	Value    interface{} `json:"value,omitempty"`
	Children []*Filter   `json:"children,omitempty"`
}

// IsLeaf reports whether f is a predicate leaf rather than a logical node.
func (f *Filter) IsLeaf() bool { return f.Op != "" }

// Leaf builds a predicate leaf.
func Leaf(op Op, key string, value interface{}) *Filter {
	return &Filter{Op: op, Key: key, Value: value}
}

// And builds a logical conjunction.
func And(children ...*Filter) *Filter { return &Filter{Logic: LogicAnd, Children: children} }

// Or builds a logical disjunction.
func Or(children ...*Filter) *Filter { return &Filter{Logic: LogicOr, Children: children} }

// Not negates a single child.
func Not(child *Filter) *Filter { return &Filter{Logic: LogicNot, Children: []*Filter{child}} }

// Walk visits every leaf in the tree in left-to-right order, depth first.
// Used by the schema engine to decide pushdown-eligibility (§4.7 step 3):
// all leaves must reference typed columns for pushdown to apply.
func (f *Filter) Walk(visit func(leaf *Filter)) {
	if f == nil {
		return
	}
	if f.IsLeaf() {
		visit(f)
		return
	}
	for _, c := range f.Children {
		c.Walk(visit)
	}
}

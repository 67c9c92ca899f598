package schema

import (
	"fmt"

	"github.com/annstore/vecdb/meta"
)

// Evaluate is the in-process reference semantics for a filter tree (§4.4:
// "the engine re-runs the same expression tree as ... a predicate over the
// returned candidates"). row supplies both typed columns and the JSON
// overlay merged into one lookup, so Evaluate and Translate must agree on
// every leaf for the fuzz-testable pushdown/postfilter equivalence
// property in §8.
func Evaluate(f *meta.Filter, row map[string]interface{}) bool {
	if f == nil {
		return true
	}
	if f.IsLeaf() {
		return evalLeaf(f, row)
	}
	switch f.Logic {
	case meta.LogicAnd:
		for _, c := range f.Children {
			if !Evaluate(c, row) {
				return false
			}
		}
		return true
	case meta.LogicOr:
		if len(f.Children) == 0 {
			return true // mirrors Translate's empty-children TRUE default
		}
		for _, c := range f.Children {
			if Evaluate(c, row) {
				return true
			}
		}
		return false
	case meta.LogicNot:
		if len(f.Children) != 1 {
			return true
		}
		return !Evaluate(f.Children[0], row)
	default:
		return true
	}
}

func evalLeaf(f *meta.Filter, row map[string]interface{}) bool {
	if f.Key == "" {
		return true
	}
	v, present := row[f.Key]

	switch f.Op {
	case meta.OpExists:
		want, _ := f.Value.(bool)
		return present == want
	case meta.OpIn:
		items, ok := f.Value.([]interface{})
		if !ok || len(items) == 0 {
			return false
		}
		return present && containsEqual(items, v)
	case meta.OpNotIn:
		items, ok := f.Value.([]interface{})
		if !ok || len(items) == 0 {
			return true
		}
		return present && !containsEqual(items, v)
	}

	if !present {
		return false
	}
	switch f.Op {
	case meta.OpEquals:
		return scalarEqual(v, f.Value)
	case meta.OpNotEquals:
		return !scalarEqual(v, f.Value)
	case meta.OpGreaterThan, meta.OpGreaterEqual, meta.OpLessThan, meta.OpLessEqual:
		a, aok := toFloat(v)
		b, bok := toFloat(f.Value)
		if !aok || !bok {
			return false
		}
		switch f.Op {
		case meta.OpGreaterThan:
			return a > b
		case meta.OpGreaterEqual:
			return a >= b
		case meta.OpLessThan:
			return a < b
		default:
			return a <= b
		}
	default:
		return true // unknown operator -> TRUE, matching Translate
	}
}

func containsEqual(items []interface{}, v interface{}) bool {
	for _, it := range items {
		if scalarEqual(it, v) {
			return true
		}
	}
	return false
}

func scalarEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

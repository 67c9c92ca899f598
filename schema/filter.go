package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/annstore/vecdb/meta"
)

// Pushdownable reports whether every leaf in f references a registered
// typed column, the condition under which the query engine may push the
// filter down into the backend rather than postfiltering (§4.7 step 3).
func (r *Registry) Pushdownable(f *meta.Filter) bool {
	ok := true
	f.Walk(func(leaf *meta.Filter) {
		if !r.IsTypedColumn(leaf.Key) {
			ok = false
		}
	})
	return ok
}

// Translate renders f as a SQL-like WHERE clause (§4.4 "Filter
// translation"). Every leaf goes through escapeLiteral/quoteIdent so that
// injection via metadata_key or value is structurally impossible, not
// merely discouraged — this is the single formatter every leaf passes
// through, per spec.md §9's "String-interpolated SQL" redesign note.
func (r *Registry) Translate(f *meta.Filter) string {
	if f == nil {
		return "TRUE"
	}
	if f.IsLeaf() {
		return r.translateLeaf(f)
	}
	switch f.Logic {
	case meta.LogicAnd:
		return joinLogic(r, f.Children, " AND ")
	case meta.LogicOr:
		return joinLogic(r, f.Children, " OR ")
	case meta.LogicNot:
		if len(f.Children) != 1 {
			return "TRUE"
		}
		return "NOT (" + r.Translate(f.Children[0]) + ")"
	default:
		return "TRUE"
	}
}

func joinLogic(r *Registry, children []*meta.Filter, sep string) string {
	if len(children) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = r.Translate(c)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (r *Registry) translateLeaf(f *meta.Filter) string {
	if f.Key == "" {
		return "TRUE"
	}
	col := r.columnExpr(f.Key)

	switch f.Op {
	case meta.OpEquals:
		return fmt.Sprintf("%s = %s", col, escapeLiteral(f.Value))
	case meta.OpNotEquals:
		return fmt.Sprintf("%s != %s", col, escapeLiteral(f.Value))
	case meta.OpGreaterThan:
		return fmt.Sprintf("%s > %s", col, escapeLiteral(f.Value))
	case meta.OpGreaterEqual:
		return fmt.Sprintf("%s >= %s", col, escapeLiteral(f.Value))
	case meta.OpLessThan:
		return fmt.Sprintf("%s < %s", col, escapeLiteral(f.Value))
	case meta.OpLessEqual:
		return fmt.Sprintf("%s <= %s", col, escapeLiteral(f.Value))
	case meta.OpIn:
		items, ok := f.Value.([]interface{})
		if !ok || len(items) == 0 {
			return "FALSE" // §4.4: "`in` with empty list -> FALSE"
		}
		return fmt.Sprintf("%s IN (%s)", col, joinLiterals(items))
	case meta.OpNotIn:
		items, ok := f.Value.([]interface{})
		if !ok || len(items) == 0 {
			return "TRUE"
		}
		return fmt.Sprintf("%s NOT IN (%s)", col, joinLiterals(items))
	case meta.OpExists:
		want, _ := f.Value.(bool)
		if want {
			return col + " IS NOT NULL"
		}
		return col + " IS NULL"
	default:
		return "TRUE" // §4.4: "Empty / unknown operator -> TRUE"
	}
}

// columnExpr renders the leaf's key either as a quoted typed-column
// identifier or a json_extract expression over the JSON overlay (§4.4).
func (r *Registry) columnExpr(key string) string {
	if r.IsTypedColumn(key) {
		return quoteIdent(key)
	}
	return fmt.Sprintf("json_extract(metadata_json, '$.%s')", escapeJSONPathSegment(key))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func escapeJSONPathSegment(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `"`, `\"`), "'", "''")
}

func joinLiterals(items []interface{}) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = escapeLiteral(v)
	}
	return strings.Join(parts, ", ")
}

// escapeLiteral formats v as a SQL literal: booleans as TRUE/FALSE,
// numbers unquoted, strings single-quoted with embedded quotes doubled
// (§4.4). Every value must round-trip through here — no leaf may format
// a literal on its own.
func escapeLiteral(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", t), "'", "''") + "'"
	}
}

package driver

import (
	"strings"

	"github.com/obadb/refcore/column"
)

// Expr is a compiled, directly evaluable boolean predicate over a row,
// the driver's output for each AST node (spec.md §4.4).
type Expr interface {
	Eval(row column.RowID) bool
}

type andExpr struct{ terms []Expr }

func (e *andExpr) Eval(row column.RowID) bool {
	for _, t := range e.terms {
		if !t.Eval(row) {
			return false
		}
	}
	return true
}

type orExpr struct{ terms []Expr }

func (e *orExpr) Eval(row column.RowID) bool {
	for _, t := range e.terms {
		if t.Eval(row) {
			return true
		}
	}
	return false
}

type notExpr struct{ inner Expr }

func (e *notExpr) Eval(row column.RowID) bool { return !e.inner.Eval(row) }

type constBoolExpr struct{ value bool }

func (e *constBoolExpr) Eval(column.RowID) bool { return e.value }

// simpleQueryExpr is the column-optimized fast path of spec.md §4.4 rule
// 4: a direct scan of one non-link column against one already-materialized
// value, bypassing the generic Compare<OP> tree.
type simpleQueryExpr struct {
	col           column.Subexpr
	op            compareOp
	value         column.Value
	caseSensitive bool
}

func (e *simpleQueryExpr) Eval(row column.RowID) bool {
	return evalCompare(e.col.Eval(row), e.value, e.op, e.caseSensitive)
}

// compareExpr is the generic Compare<OP> expression over two arbitrary
// subexpressions (spec.md §4.4: "construct a generic Compare<OP>
// expression over the two subexpressions").
type compareExpr struct {
	lhs, rhs      column.Subexpr
	op            compareOp
	caseSensitive bool
}

func (e *compareExpr) Eval(row column.RowID) bool {
	lhsVals := e.lhs.Eval(row)
	rhsVals := e.rhs.Eval(row)
	for _, a := range lhsVals {
		for _, b := range rhsVals {
			if evalCompare([]column.Value{a}, b, e.op, e.caseSensitive) {
				return true
			}
		}
	}
	return false
}

type compareOp int

const (
	cmpEq compareOp = iota
	cmpNeq
	cmpLt
	cmpLe
	cmpGt
	cmpGe
	cmpBeginsWith
	cmpEndsWith
	cmpContains
	cmpLike
)

func evalCompare(lhsVals []column.Value, rhs column.Value, op compareOp, caseSensitive bool) bool {
	if len(lhsVals) == 0 {
		return false
	}
	lhs := lhsVals[0]

	switch op {
	case cmpEq:
		return valuesEqual(lhs, rhs, caseSensitive)
	case cmpNeq:
		return !valuesEqual(lhs, rhs, caseSensitive)
	case cmpLt:
		return lhs.Less(rhs)
	case cmpLe:
		return lhs.Less(rhs) || lhs.Equal(rhs)
	case cmpGt:
		return rhs.Less(lhs)
	case cmpGe:
		return rhs.Less(lhs) || lhs.Equal(rhs)
	case cmpBeginsWith:
		return stringOp(lhs, rhs, caseSensitive, strings.HasPrefix)
	case cmpEndsWith:
		return stringOp(lhs, rhs, caseSensitive, strings.HasSuffix)
	case cmpContains:
		return stringOp(lhs, rhs, caseSensitive, strings.Contains)
	case cmpLike:
		return likeMatch(asString(lhs), asString(rhs), caseSensitive)
	default:
		return false
	}
}

func valuesEqual(lhs, rhs column.Value, caseSensitive bool) bool {
	if !caseSensitive && lhs.Type == column.TypeString && rhs.Type == column.TypeString {
		return strings.EqualFold(lhs.Str, rhs.Str)
	}
	return lhs.Equal(rhs)
}

func stringOp(lhs, rhs column.Value, caseSensitive bool, f func(s, substr string) bool) bool {
	a, b := asString(lhs), asString(rhs)
	if !caseSensitive {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	return f(a, b)
}

func asString(v column.Value) string {
	if v.Type == column.TypeBinary {
		return string(v.Bin)
	}
	return v.Str
}

// likeMatch implements the "LIKE" glob-style operator: '*' matches any run
// of characters, '?' matches exactly one.
func likeMatch(s, pattern string, caseSensitive bool) bool {
	if !caseSensitive {
		s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	}
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, pattern []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	switch pattern[0] {
	case '*':
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], pattern[1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], pattern[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return likeMatchRunes(s[1:], pattern[1:])
	}
}

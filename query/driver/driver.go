package driver

import (
	"fmt"

	"github.com/obadb/refcore/column"
	"github.com/obadb/refcore/query"
)

// Driver compiles a parsed predicate into an executable Query against a
// base Table, resolving every identifier along the way (spec.md §4.4).
type Driver struct {
	base column.Table
	args ArgumentsProvider
}

// New returns a Driver resolving identifiers against base, looking up
// "$N" arguments through args (which may be nil if the predicate has
// none).
func New(base column.Table, args ArgumentsProvider) *Driver {
	return &Driver{base: base, args: args}
}

// Compile translates a parsed predicate into an executable Query.
func (d *Driver) Compile(r *query.ParseResult) (*Query, error) {
	expr, err := d.compileOr(r.Root)
	if err != nil {
		return nil, err
	}

	var descriptors []*compiledDescriptor
	if r.Ordering != nil {
		for _, desc := range r.Ordering.Orderings {
			cd, err := d.compileDescriptor(desc)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, cd)
		}
	}

	return &Query{base: d.base, expr: expr, descriptors: descriptors}, nil
}

func (d *Driver) compileOr(o *query.Or) (Expr, error) {
	terms := make([]Expr, len(o.AndPreds))
	for i, n := range o.AndPreds {
		and, ok := n.(*query.And)
		if !ok {
			return nil, &TypeError{Message: "malformed AST: Or child is not And"}
		}
		e, err := d.compileAnd(and)
		if err != nil {
			return nil, err
		}
		terms[i] = e
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return &orExpr{terms: terms}, nil
}

func (d *Driver) compileAnd(a *query.And) (Expr, error) {
	terms := make([]Expr, len(a.AtomPreds))
	for i, n := range a.AtomPreds {
		e, err := d.compileAtom(n)
		if err != nil {
			return nil, err
		}
		terms[i] = e
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return &andExpr{terms: terms}, nil
}

func (d *Driver) compileAtom(n query.Node) (Expr, error) {
	switch v := n.(type) {
	case *query.Not:
		inner, err := d.compileAtom(v.Atom)
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	case *query.Parens:
		return d.compileOr(v.Pred.(*query.Or))
	case *query.TrueOrFalse:
		return &constBoolExpr{value: v.Value}, nil
	case *query.Equality:
		return d.compileCompare(v.Values, eqOp(v.Op), false, v.CaseSensitive)
	case *query.Relational:
		return d.compileCompare(v.Values, relOp(v.Op), false, true)
	case *query.StringOps:
		return d.compileCompare(v.Values, strOp(v.Op), true, v.CaseSensitive)
	default:
		return nil, &TypeError{Message: fmt.Sprintf("malformed AST: unexpected atom node %T", n)}
	}
}

func eqOp(op query.CmpOp) compareOp {
	if op == query.OpEq {
		return cmpEq
	}
	return cmpNeq
}

func relOp(op query.CmpOp) compareOp {
	switch op {
	case query.OpLt:
		return cmpLt
	case query.OpLe:
		return cmpLe
	case query.OpGt:
		return cmpGt
	default:
		return cmpGe
	}
}

func strOp(op query.CmpOp) compareOp {
	switch op {
	case query.OpBeginsWith:
		return cmpBeginsWith
	case query.OpEndsWith:
		return cmpEndsWith
	case query.OpContains:
		return cmpContains
	default:
		return cmpLike
	}
}

// compileCompare is the cmp(values[2]) helper of spec.md §4.4.
func (d *Driver) compileCompare(values [2]*query.Value, op compareOp, isStringOp, caseSensitive bool) (Expr, error) {
	lhsIsConst := values[0].Constant != nil
	rhsIsConst := values[1].Constant != nil

	if lhsIsConst && rhsIsConst {
		return nil, &TypeError{Message: "cannot compare two constants"}
	}

	var lhsExpr, rhsExpr column.Subexpr
	var err error

	switch {
	case rhsIsConst:
		lhsExpr, err = d.resolveValue(values[0])
		if err != nil {
			return nil, err
		}
		rv, err := materializeConstant(values[1].Constant, lhsExpr.Type(), d.args)
		if err != nil {
			return nil, err
		}
		rhsExpr = column.NewConstant(rv)
	case lhsIsConst:
		rhsExpr, err = d.resolveValue(values[1])
		if err != nil {
			return nil, err
		}
		lv, err := materializeConstant(values[0].Constant, rhsExpr.Type(), d.args)
		if err != nil {
			return nil, err
		}
		lhsExpr = column.NewConstant(lv)
	default:
		lhsExpr, err = d.resolveValue(values[0])
		if err != nil {
			return nil, err
		}
		rhsExpr, err = d.resolveValue(values[1])
		if err != nil {
			return nil, err
		}
	}

	if err := typeCheck(lhsExpr, rhsExpr, op, isStringOp); err != nil {
		return nil, err
	}

	if lhsExpr.IsList() && rhsExpr.IsList() && isOrdered(op) {
		return nil, &TypeError{Message: "ordered comparison between two list-valued expressions is unsupported"}
	}

	if simple := buildSimpleQuery(lhsExpr, rhsExpr, op, caseSensitive, rhsIsConst, lhsIsConst); simple != nil {
		return simple, nil
	}

	return &compareExpr{lhs: lhsExpr, rhs: rhsExpr, op: op, caseSensitive: caseSensitive}, nil
}

// buildSimpleQuery selects the column-optimized fast path of spec.md §4.4
// rule 4: one side a non-link column property, the other constant-
// evaluated, both matching types. It returns nil when the fast path does
// not apply.
func buildSimpleQuery(lhsExpr, rhsExpr column.Subexpr, op compareOp, caseSensitive bool, rhsIsConst, lhsIsConst bool) Expr {
	if lhsExpr.Type() != rhsExpr.Type() {
		return nil
	}
	if rhsIsConst {
		if _, ok := lhsExpr.ColumnKey(); ok && lhsExpr.Type() != column.TypeLink && rhsExpr.HasConstantEvaluation() {
			return &simpleQueryExpr{col: lhsExpr, op: op, value: rhsExpr.Eval(0)[0], caseSensitive: caseSensitive}
		}
		return nil
	}
	if lhsIsConst {
		if _, ok := rhsExpr.ColumnKey(); ok && rhsExpr.Type() != column.TypeLink && lhsExpr.HasConstantEvaluation() {
			return &simpleQueryExpr{col: rhsExpr, op: flipOp(op), value: lhsExpr.Eval(0)[0], caseSensitive: caseSensitive}
		}
	}
	return nil
}

func flipOp(op compareOp) compareOp {
	switch op {
	case cmpLt:
		return cmpGt
	case cmpLe:
		return cmpGe
	case cmpGt:
		return cmpLt
	case cmpGe:
		return cmpLe
	default:
		return op
	}
}

func isOrdered(op compareOp) bool {
	switch op {
	case cmpLt, cmpLe, cmpGt, cmpGe:
		return true
	default:
		return false
	}
}

// typeCheck implements spec.md §4.4's type-compatibility rules: null
// compares to any nullable column via equal/not_equal, otherwise both
// sides must satisfy data_types_are_comparable; relational comparisons
// reject UUID; string ops require the right side be String or Binary.
func typeCheck(lhsExpr, rhsExpr column.Subexpr, op compareOp, isStringOp bool) error {
	if isStringOp {
		if rhsExpr.Type() != column.TypeString && rhsExpr.Type() != column.TypeBinary {
			return &TypeError{Message: "right-hand side of a string operator must be String or Binary"}
		}
		return nil
	}

	if isOrdered(op) {
		if lhsExpr.Type() == column.TypeUUID || rhsExpr.Type() == column.TypeUUID {
			return &TypeError{Message: "UUID does not support relational comparisons"}
		}
	}

	if !column.Comparable(lhsExpr.Type(), rhsExpr.Type()) {
		return &TypeError{Message: fmt.Sprintf("cannot compare %s with %s", lhsExpr.Type(), rhsExpr.Type())}
	}
	return nil
}

// resolveValue resolves a non-constant Value (Prop, ListAggr, or
// LinkAggr) into a Subexpr against the driver's base table.
func (d *Driver) resolveValue(v *query.Value) (column.Subexpr, error) {
	switch {
	case v.Prop != nil:
		return d.resolveProp(v.Prop)
	case v.ListAggr != nil:
		return d.resolveListAggr(v.ListAggr)
	case v.LinkAggr != nil:
		return d.resolveLinkAggr(v.LinkAggr)
	default:
		return nil, &TypeError{Message: "empty value node"}
	}
}

func (d *Driver) resolveProp(p *query.Prop) (column.Subexpr, error) {
	chain := column.NewLinkChain(d.base)
	if err := walkPath(chain, d.base, p.Path); err != nil {
		return nil, err
	}

	expr, err := chain.Column(p.Ident)
	if err != nil {
		return nil, unknownPropertyError(p.Ident, d.base)
	}

	if p.PostOp == nil {
		return expr, nil
	}

	switch p.PostOp.Kind {
	case query.PostOpCount:
		c, ok := expr.(counter)
		if !ok {
			return nil, &TypeError{Message: "@count applies only to link columns"}
		}
		return &countExpr{inner: c}, nil
	case query.PostOpSize:
		return &sizeExpr{inner: expr}, nil
	default:
		return nil, &TypeError{Message: "unknown post-op"}
	}
}

func (d *Driver) resolveListAggr(a *query.ListAggr) (column.Subexpr, error) {
	chain := column.NewLinkChain(d.base)
	if err := walkPath(chain, d.base, a.Path); err != nil {
		return nil, err
	}
	expr, err := chain.Column(a.Ident)
	if err != nil {
		return nil, unknownPropertyError(a.Ident, d.base)
	}
	return aggregateExprFor(expr, a.Aggr)
}

func (d *Driver) resolveLinkAggr(a *query.LinkAggr) (column.Subexpr, error) {
	chain := column.NewLinkChain(d.base)
	if err := walkPath(chain, d.base, a.Path); err != nil {
		return nil, err
	}
	if err := chain.Link(a.Link); err != nil {
		return nil, unknownPropertyError(a.Link, d.base)
	}
	expr, err := chain.Column(a.Prop)
	if err != nil {
		return nil, unknownPropertyError(a.Prop, d.base)
	}
	return aggregateExprFor(expr, a.Aggr)
}

func aggregateExprFor(expr column.Subexpr, aggr query.AggrOpKind) (column.Subexpr, error) {
	if !expr.Type().IsNumeric() {
		return nil, &TypeError{Message: fmt.Sprintf("%v aggregation requires a numeric list column, got %s", aggr, expr.Type())}
	}
	agg, ok := expr.(column.Aggregatable)
	if !ok {
		return nil, &TypeError{Message: "@max/@min/@sum/@avg apply only to numeric list columns"}
	}
	return &aggrExpr{inner: agg, kind: aggr}, nil
}

func walkPath(chain *column.LinkChain, base column.Table, path *query.Path) error {
	for _, elem := range path.Elems {
		if elem.IsBacklink {
			if err := chain.Backlink(elem.BacklinkTable, elem.BacklinkCol); err != nil {
				return unknownPropertyError("@links."+elem.BacklinkTable+"."+elem.BacklinkCol, base)
			}
			continue
		}
		if err := chain.Link(elem.Ident); err != nil {
			return unknownPropertyError(elem.Ident, base)
		}
	}
	return nil
}

// unknownPropertyError builds the UnknownProperty error kind spec.md §7
// requires for a bad identifier (as opposed to TypeError for a bad type).
// base's name is reported without the storage layer's internal "class_"
// prefix (spec.md §4.4: "the class_ prefix of object-store names is
// stripped before display").
func unknownPropertyError(property string, base column.Table) error {
	return &UnknownProperty{Property: property, Table: base.Name()}
}

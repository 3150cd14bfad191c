package query

import "github.com/obadb/refcore/column"

// CmpOp identifies a comparison operator recognized by the grammar.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpBeginsWith
	OpEndsWith
	OpContains
	OpLike
)

func (o CmpOp) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpBeginsWith:
		return "BEGINSWITH"
	case OpEndsWith:
		return "ENDSWITH"
	case OpContains:
		return "CONTAINS"
	case OpLike:
		return "LIKE"
	default:
		return "?"
	}
}

// IsStringOp reports whether o belongs to the StringOps node family
// (BEGINSWITH/ENDSWITH/CONTAINS/LIKE) rather than Equality/Relational.
func (o CmpOp) IsStringOp() bool {
	switch o {
	case OpBeginsWith, OpEndsWith, OpContains, OpLike:
		return true
	default:
		return false
	}
}

// IsRelational reports whether o is one of </<=/>/>=.
func (o CmpOp) IsRelational() bool {
	switch o {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// PostOpKind distinguishes the two post-operators of spec.md §4.3.
type PostOpKind int

const (
	PostOpCount PostOpKind = iota
	PostOpSize
)

// AggrOpKind distinguishes the four list aggregate operators.
type AggrOpKind int

const (
	AggrMax AggrOpKind = iota
	AggrMin
	AggrSum
	AggrAvg
)

// Node is implemented by every AST node produced by the parser.
type Node interface {
	node()
}

// Or is the root boolean node: a disjunction of conjunctions.
type Or struct {
	AndPreds []Node
}

// And is a conjunction of atom predicates.
type And struct {
	AtomPreds []Node
}

// Not negates a single atom predicate.
type Not struct {
	Atom Node
}

// Parens wraps a fully parenthesized sub-predicate, preserved so the
// printer can round-trip explicit grouping.
type Parens struct {
	Pred Node
}

// Equality is a ==/!= comparison between two values.
type Equality struct {
	Values        [2]*Value
	Op            CmpOp
	CaseSensitive bool
}

// Relational is a </<=/>/>= comparison between two values.
type Relational struct {
	Values [2]*Value
	Op     CmpOp
}

// StringOps is a BEGINSWITH/ENDSWITH/CONTAINS/LIKE comparison.
type StringOps struct {
	Values        [2]*Value
	Op            CmpOp
	CaseSensitive bool
}

// TrueOrFalse is the TRUEPREDICATE/FALSEPREDICATE literal.
type TrueOrFalse struct {
	Value bool
}

// Value is exactly one of Constant, Prop, LinkAggr, or ListAggr.
type Value struct {
	Constant *Constant
	Prop     *Prop
	LinkAggr *LinkAggr
	ListAggr *ListAggr
}

// Prop is a property reference: a path of link hops, a terminal
// identifier, an optional post-op, and the link comparison type that
// applies across any to-many hop in Path.
type Prop struct {
	Path     *Path
	Ident    string
	PostOp   *PostOpNode
	CompType column.CompType
}

// Path is a sequence of path elements (plain identifiers or
// "@links.Table.Column" backlink hops) preceding the terminal property.
type Path struct {
	Elems []PathElem
}

// PathElem is one hop of a Path: either a plain forward-link identifier
// or a backlink naming its table and column.
type PathElem struct {
	Ident         string
	IsBacklink    bool
	BacklinkTable string
	BacklinkCol   string
}

// Constant is an unresolved literal: its lexical kind and source text,
// materialized into a typed value by the driver against a type hint.
type Constant struct {
	Kind Kind
	Text string
}

// PostOpNode wraps a PostOpKind (".@count" or ".@size").
type PostOpNode struct {
	Kind PostOpKind
}

// LinkAggr is a numeric aggregate applied across a to-many link, e.g.
// `path.link.@sum.prop`.
type LinkAggr struct {
	Path *Path
	Link string
	Prop string
	Aggr AggrOpKind
}

// ListAggr is a numeric aggregate applied to a list-valued column
// directly, e.g. `scores.@avg`.
type ListAggr struct {
	Path  *Path
	Ident string
	Aggr  AggrOpKind
}

// DescriptorKind distinguishes SORT/DISTINCT/LIMIT ordering clauses.
type DescriptorKind int

const (
	DescriptorSort DescriptorKind = iota
	DescriptorDistinct
	DescriptorLimit
)

// Descriptor is one ordering clause: SORT(col ASC, ...), DISTINCT(col,
// ...), or LIMIT(n).
type Descriptor struct {
	Kind      DescriptorKind
	Columns   []string
	Ascending []bool // parallel to Columns; meaningful only for DescriptorSort
	Limit     int64  // meaningful only for DescriptorLimit
}

// DescriptorOrdering collects every ordering clause trailing a predicate.
type DescriptorOrdering struct {
	Orderings []*Descriptor
}

func (*Or) node()                 {}
func (*And) node()                {}
func (*Not) node()                {}
func (*Parens) node()             {}
func (*Equality) node()           {}
func (*Relational) node()         {}
func (*StringOps) node()          {}
func (*TrueOrFalse) node()        {}
func (*Value) node()              {}
func (*Prop) node()               {}
func (*Path) node()               {}
func (*Constant) node()           {}
func (*PostOpNode) node()         {}
func (*LinkAggr) node()           {}
func (*ListAggr) node()           {}
func (*Descriptor) node()         {}
func (*DescriptorOrdering) node() {}

// ParseResult is the parser's full output: the boolean root and any
// trailing ordering clauses (spec.md §4.3: "an Or root node wrapping the
// top-level expression and an optional DescriptorOrdering node").
type ParseResult struct {
	Root     *Or
	Ordering *DescriptorOrdering
}

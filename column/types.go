// Package column defines the typed column/value model the query engine is
// built against: the element types a column can hold, whether a column is
// list-valued, and the Table/Subexpr interfaces the driver composes.
package column

// Type enumerates the element types a column can hold (spec.md §4.4's
// constant-materialization table and §4.5's "12 scalar types").
type Type int

const (
	TypeInt Type = iota
	TypeBool
	TypeString
	TypeBinary
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeTimestamp
	TypeObjectID
	TypeUUID
	TypeLink
	TypeMixed
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeBinary:
		return "Binary"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeDecimal:
		return "Decimal"
	case TypeTimestamp:
		return "Timestamp"
	case TypeObjectID:
		return "ObjectId"
	case TypeUUID:
		return "UUID"
	case TypeLink:
		return "Link"
	case TypeMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// IsNumeric reports whether values of this type participate in relational
// comparisons and @sum/@avg aggregation (spec.md §4.4: "numeric list
// columns (Int, Float, Double, Decimal)").
func (t Type) IsNumeric() bool {
	switch t {
	case TypeInt, TypeFloat, TypeDouble, TypeDecimal:
		return true
	default:
		return false
	}
}

// Comparable reports whether a and b may appear on either side of an
// equality/relational comparison together, independent of list-ness
// (spec.md §4.4 "data_types_are_comparable").
func Comparable(a, b Type) bool {
	if a == b {
		return true
	}
	if a == TypeMixed || b == TypeMixed {
		return true
	}
	numeric := func(t Type) bool { return t.IsNumeric() }
	return numeric(a) && numeric(b)
}

// CompType names the quantifier a LinkChain applies across a to-many
// relationship (spec.md §4.5: "comparison type (Any/All/None)").
type CompType int

const (
	CompAny CompType = iota
	CompAll
	CompNone
)

// AggrOp names a .@max/@min/@sum/@avg suffix (spec.md glossary "Aggregate
// op").
type AggrOp int

const (
	AggrMax AggrOp = iota
	AggrMin
	AggrSum
	AggrAvg
)

func (op AggrOp) String() string {
	switch op {
	case AggrMax:
		return "@max"
	case AggrMin:
		return "@min"
	case AggrSum:
		return "@sum"
	case AggrAvg:
		return "@avg"
	default:
		return "@unknown"
	}
}

// PostOp names a .@count/@size suffix (spec.md glossary "Post-op").
type PostOp int

const (
	PostCount PostOp = iota
	PostSize
)

func (op PostOp) String() string {
	switch op {
	case PostCount:
		return "@count"
	case PostSize:
		return "@size"
	default:
		return "@unknown"
	}
}

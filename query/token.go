// Package query implements the predicate-language lexer, parser, AST, and
// canonical printer described in spec.md §4.3.
package query

// Kind identifies a lexical token category.
type Kind int

const (
	KindEOF Kind = iota
	KindIdent
	KindNumber
	KindFloat
	KindInfinity
	KindNaN
	KindString
	KindBase64
	KindTimestamp
	KindUUID
	KindOID
	KindNull
	KindTrue
	KindFalse
	KindArg

	KindAnd
	KindOr
	KindNot
	KindLParen
	KindRParen
	KindDot
	KindComma

	KindTruePredicate
	KindFalsePredicate

	KindEq
	KindNeq
	KindLt
	KindLe
	KindGt
	KindGe
	KindBeginsWith
	KindEndsWith
	KindContains
	KindLike
	KindCaseInsensitive // "[c]"

	KindAtCount
	KindAtSize
	KindAtMax
	KindAtMin
	KindAtSum
	KindAtAvg
	KindAtLinks

	KindSort
	KindDistinct
	KindLimit
	KindAsc
	KindDesc
)

// Token is a single lexical token: its kind, its text (for string, B64,
// uuid, oid and $N literals only the contents, without quotes, prefix or
// parentheses), and the byte offset it starts at (for InvalidPredicate
// error locations).
type Token struct {
	Kind Kind
	Text string
	Pos  int
}

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindIdent:
		return "identifier"
	case KindNumber:
		return "number"
	case KindFloat:
		return "float"
	case KindInfinity:
		return "infinity"
	case KindNaN:
		return "NaN"
	case KindString:
		return "string"
	case KindBase64:
		return "base64"
	case KindTimestamp:
		return "timestamp"
	case KindUUID:
		return "uuid"
	case KindOID:
		return "oid"
	case KindNull:
		return "null"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindArg:
		return "argument"
	case KindAnd:
		return "&&"
	case KindOr:
		return "||"
	case KindNot:
		return "NOT"
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	case KindDot:
		return "."
	case KindComma:
		return ","
	case KindTruePredicate:
		return "TRUEPREDICATE"
	case KindFalsePredicate:
		return "FALSEPREDICATE"
	case KindEq:
		return "=="
	case KindNeq:
		return "!="
	case KindLt:
		return "<"
	case KindLe:
		return "<="
	case KindGt:
		return ">"
	case KindGe:
		return ">="
	case KindBeginsWith:
		return "BEGINSWITH"
	case KindEndsWith:
		return "ENDSWITH"
	case KindContains:
		return "CONTAINS"
	case KindLike:
		return "LIKE"
	case KindCaseInsensitive:
		return "[c]"
	case KindAtCount:
		return "@count"
	case KindAtSize:
		return "@size"
	case KindAtMax:
		return "@max"
	case KindAtMin:
		return "@min"
	case KindAtSum:
		return "@sum"
	case KindAtAvg:
		return "@avg"
	case KindAtLinks:
		return "@links"
	case KindSort:
		return "SORT"
	case KindDistinct:
		return "DISTINCT"
	case KindLimit:
		return "LIMIT"
	case KindAsc:
		return "ASC"
	case KindDesc:
		return "DESC"
	default:
		return "unknown"
	}
}

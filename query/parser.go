package query

import (
	"strings"

	"github.com/obadb/refcore/column"
)

// Parser builds a ParseResult from predicate text via recursive descent
// with an explicit operator-precedence climb for ||/&&/unary-NOT (spec.md
// §4.3 and its §9 design note: "a generator is unnecessary and removes a
// build dependency" — the grammar is small and fixed, so hand-written
// descent keeps the dependency list free of a parser generator).
type Parser struct {
	lex *Lexer
	tok Token
	src string
}

// Parse lexes and parses src in one pass, returning the root boolean node
// plus any trailing ordering clauses.
func Parse(src string) (*ParseResult, error) {
	p := &Parser{lex: NewLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}

	or, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	var ordering *DescriptorOrdering
	if p.tok.Kind == KindSort || p.tok.Kind == KindDistinct || p.tok.Kind == KindLimit {
		ordering, err = p.parseOrdering()
		if err != nil {
			return nil, err
		}
	}

	if p.tok.Kind != KindEOF {
		return nil, p.errf("unexpected trailing token %s", p.tok.Kind)
	}

	return &ParseResult{Root: or, Ordering: ordering}, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return newParseError(p.src, p.tok.Pos, format, args...)
}

func (p *Parser) expect(k Kind) (Token, error) {
	if p.tok.Kind != k {
		return Token{}, p.errf("expected %s, found %s", k, p.tok.Kind)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// parseOr := and_pred ("||" and_pred)*
func (p *Parser) parseOr() (*Or, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	ands := []Node{first}
	for p.tok.Kind == KindOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		ands = append(ands, next)
	}
	return &Or{AndPreds: ands}, nil
}

// parseAnd := atom_pred ("&&" atom_pred)*
func (p *Parser) parseAnd() (*And, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	atoms := []Node{first}
	for p.tok.Kind == KindAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, next)
	}
	return &And{AtomPreds: atoms}, nil
}

func (p *Parser) parseAtom() (Node, error) {
	switch p.tok.Kind {
	case KindNot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &Not{Atom: atom}, nil

	case KindLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KindRParen); err != nil {
			return nil, err
		}
		return &Parens{Pred: inner}, nil

	case KindTruePredicate:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &TrueOrFalse{Value: true}, nil

	case KindFalsePredicate:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &TrueOrFalse{Value: false}, nil

	default:
		return p.parseComparison()
	}
}

func (p *Parser) parseComparison() (Node, error) {
	lhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	op, isStringOp, err := p.parseCmpOp()
	if err != nil {
		return nil, err
	}

	caseSensitive := true
	if p.tok.Kind == KindCaseInsensitive {
		caseSensitive = false
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	rhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	if caseSensitive && p.tok.Kind == KindCaseInsensitive {
		caseSensitive = false
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	switch {
	case isStringOp:
		return &StringOps{Values: [2]*Value{lhs, rhs}, Op: op, CaseSensitive: caseSensitive}, nil
	case op == OpEq || op == OpNeq:
		return &Equality{Values: [2]*Value{lhs, rhs}, Op: op, CaseSensitive: caseSensitive}, nil
	default:
		return &Relational{Values: [2]*Value{lhs, rhs}, Op: op}, nil
	}
}

func (p *Parser) parseCmpOp() (op CmpOp, isStringOp bool, err error) {
	switch p.tok.Kind {
	case KindEq:
		op = OpEq
	case KindNeq:
		op = OpNeq
	case KindLt:
		op = OpLt
	case KindLe:
		op = OpLe
	case KindGt:
		op = OpGt
	case KindGe:
		op = OpGe
	case KindBeginsWith:
		op, isStringOp = OpBeginsWith, true
	case KindEndsWith:
		op, isStringOp = OpEndsWith, true
	case KindContains:
		op, isStringOp = OpContains, true
	case KindLike:
		op, isStringOp = OpLike, true
	default:
		return 0, false, p.errf("expected comparison operator, found %s", p.tok.Kind)
	}
	if err := p.advance(); err != nil {
		return 0, false, err
	}
	return op, isStringOp, nil
}

// parseValue parses either a constant literal or a property path
// (including @links backlink hops and link aggregates).
func (p *Parser) parseValue() (*Value, error) {
	switch p.tok.Kind {
	case KindNumber, KindFloat, KindInfinity, KindNaN, KindString, KindBase64,
		KindTimestamp, KindUUID, KindOID, KindNull, KindTrue, KindFalse, KindArg:
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Value{Constant: &Constant{Kind: tok.Kind, Text: tok.Text}}, nil

	case KindIdent, KindAtLinks:
		return p.parsePath()

	default:
		return nil, p.errf("expected value, found %s", p.tok.Kind)
	}
}

// parsePath parses a path of link hops terminating in either a property
// (with an optional ".@count"/".@size" post-op) or an aggregate suffix
// (".@max/.@min/.@sum/.@avg", optionally followed by ".prop" for a
// LinkAggr over a to-many forward link, per spec.md §4.3/§4.4).
func (p *Parser) parsePath() (*Value, error) {
	var elems []PathElem
	var terminal string

	for {
		elem, err := p.parsePathElem()
		if err != nil {
			return nil, err
		}

		if p.tok.Kind == KindDot {
			elems = append(elems, elem)
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}

		// Last segment is the terminal identifier, not a link hop.
		if elem.IsBacklink {
			return nil, p.errf("path cannot terminate in a backlink hop")
		}
		terminal = elem.Ident
		break
	}

	if aggr, ok := aggrKindFor(p.tok.Kind); ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind == KindDot {
			if err := p.advance(); err != nil {
				return nil, err
			}
			propTok, err := p.expect(KindIdent)
			if err != nil {
				return nil, err
			}
			return &Value{LinkAggr: &LinkAggr{
				Path: &Path{Elems: elems},
				Link: terminal,
				Prop: propTok.Text,
				Aggr: aggr,
			}}, nil
		}
		return &Value{ListAggr: &ListAggr{
			Path:  &Path{Elems: elems},
			Ident: terminal,
			Aggr:  aggr,
		}}, nil
	}

	prop := &Prop{Path: &Path{Elems: elems}, Ident: terminal, CompType: column.CompAny}

	switch p.tok.Kind {
	case KindAtCount:
		if err := p.advance(); err != nil {
			return nil, err
		}
		prop.PostOp = &PostOpNode{Kind: PostOpCount}
	case KindAtSize:
		if err := p.advance(); err != nil {
			return nil, err
		}
		prop.PostOp = &PostOpNode{Kind: PostOpSize}
	}

	return &Value{Prop: prop}, nil
}

func aggrKindFor(k Kind) (AggrOpKind, bool) {
	switch k {
	case KindAtMax:
		return AggrMax, true
	case KindAtMin:
		return AggrMin, true
	case KindAtSum:
		return AggrSum, true
	case KindAtAvg:
		return AggrAvg, true
	default:
		return 0, false
	}
}

func (p *Parser) parsePathElem() (PathElem, error) {
	if p.tok.Kind == KindAtLinks {
		if err := p.advance(); err != nil {
			return PathElem{}, err
		}
		if _, err := p.expect(KindDot); err != nil {
			return PathElem{}, err
		}
		table, err := p.expect(KindIdent)
		if err != nil {
			return PathElem{}, err
		}
		if _, err := p.expect(KindDot); err != nil {
			return PathElem{}, err
		}
		col, err := p.expect(KindIdent)
		if err != nil {
			return PathElem{}, err
		}
		return PathElem{IsBacklink: true, BacklinkTable: table.Text, BacklinkCol: col.Text}, nil
	}

	ident, err := p.expect(KindIdent)
	if err != nil {
		return PathElem{}, err
	}
	return PathElem{Ident: ident.Text}, nil
}

// parseOrdering parses a sequence of SORT/DISTINCT/LIMIT clauses.
func (p *Parser) parseOrdering() (*DescriptorOrdering, error) {
	var orderings []*Descriptor
	for {
		switch p.tok.Kind {
		case KindSort:
			d, err := p.parseSortOrDistinct(DescriptorSort)
			if err != nil {
				return nil, err
			}
			orderings = append(orderings, d)
		case KindDistinct:
			d, err := p.parseSortOrDistinct(DescriptorDistinct)
			if err != nil {
				return nil, err
			}
			orderings = append(orderings, d)
		case KindLimit:
			d, err := p.parseLimit()
			if err != nil {
				return nil, err
			}
			orderings = append(orderings, d)
		default:
			return &DescriptorOrdering{Orderings: orderings}, nil
		}
	}
}

func (p *Parser) parseSortOrDistinct(kind DescriptorKind) (*Descriptor, error) {
	if err := p.advance(); err != nil { // consume SORT/DISTINCT
		return nil, err
	}
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}

	d := &Descriptor{Kind: kind}
	for {
		colTok, err := p.expect(KindIdent)
		if err != nil {
			return nil, err
		}
		col := colTok.Text
		for p.tok.Kind == KindDot {
			if err := p.advance(); err != nil {
				return nil, err
			}
			next, err := p.expect(KindIdent)
			if err != nil {
				return nil, err
			}
			col += "." + next.Text
		}
		d.Columns = append(d.Columns, col)

		asc := true
		if kind == DescriptorSort {
			switch p.tok.Kind {
			case KindAsc:
				asc = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			case KindDesc:
				asc = false
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			d.Ascending = append(d.Ascending, asc)
		}

		if p.tok.Kind == KindComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseLimit() (*Descriptor, error) {
	if err := p.advance(); err != nil { // consume LIMIT
		return nil, err
	}
	if _, err := p.expect(KindLParen); err != nil {
		return nil, err
	}
	numTok, err := p.expect(KindNumber)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindRParen); err != nil {
		return nil, err
	}

	n, err := parseInt(numTok.Text)
	if err != nil {
		return nil, newParseError(p.src, numTok.Pos, "invalid LIMIT value %q", numTok.Text)
	}
	if n < 0 {
		return nil, newParseError(p.src, numTok.Pos, "LIMIT must be non-negative")
	}
	return &Descriptor{Kind: DescriptorLimit, Limit: n}, nil
}

func parseInt(s string) (int64, error) {
	var n int64
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, newParseError(s, 0, "empty integer literal")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, newParseError(s, 0, "invalid digit %q", c)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

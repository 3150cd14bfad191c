package query

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// keywords maps the xxhash of an upper-cased identifier to its keyword
// Kind. Hashing first lets the common case (an ordinary property name)
// fail the lookup with one arithmetic comparison instead of a chain of
// strings.EqualFold calls; the predicate grammar's keyword set is fixed
// at compile time, so collisions would be caught immediately in testing.
var keywords = map[uint64]Kind{
	hashUpper("AND"):            KindAnd,
	hashUpper("OR"):             KindOr,
	hashUpper("NOT"):            KindNot,
	hashUpper("TRUEPREDICATE"):  KindTruePredicate,
	hashUpper("FALSEPREDICATE"): KindFalsePredicate,
	hashUpper("BEGINSWITH"):     KindBeginsWith,
	hashUpper("ENDSWITH"):       KindEndsWith,
	hashUpper("CONTAINS"):       KindContains,
	hashUpper("LIKE"):           KindLike,
	hashUpper("TRUE"):           KindTrue,
	hashUpper("FALSE"):          KindFalse,
	hashUpper("NULL"):           KindNull,
	hashUpper("NIL"):            KindNull,
	hashUpper("SORT"):           KindSort,
	hashUpper("DISTINCT"):       KindDistinct,
	hashUpper("LIMIT"):          KindLimit,
	hashUpper("ASC"):            KindAsc,
	hashUpper("ASCENDING"):      KindAsc,
	hashUpper("DESC"):           KindDesc,
	hashUpper("DESCENDING"):     KindDesc,
}

func hashUpper(s string) uint64 {
	return xxhash.Sum64String(s)
}

func lookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[hashUpper(strings.ToUpper(word))]
	return k, ok
}

// Lexer tokenizes predicate text per spec.md §4.3's token set. Whitespace
// is skipped; the lexer has no comment syntax. It does not itself know the
// grammar.
type Lexer struct {
	src string
	pos int
}

// NewLexer returns a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) byteAt(off int) (byte, bool) {
	if l.pos+off >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos+off], true
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// Next returns the next token, or an *InvalidPredicate error on an
// unterminated literal or unrecognized character.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	start := l.pos

	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Pos: start}, nil
	}

	c := l.src[l.pos]

	switch {
	case c == '(':
		l.pos++
		return Token{Kind: KindLParen, Text: "(", Pos: start}, nil
	case c == ')':
		l.pos++
		return Token{Kind: KindRParen, Text: ")", Pos: start}, nil
	case c == ',':
		l.pos++
		return Token{Kind: KindComma, Text: ",", Pos: start}, nil
	case c == '.':
		return l.lexDotOrPostOp(start)
	case c == '&':
		if b, ok := l.byteAt(1); ok && b == '&' {
			l.pos += 2
			return Token{Kind: KindAnd, Text: "&&", Pos: start}, nil
		}
		return Token{}, l.errAt(start, "expected '&&'")
	case c == '|':
		if b, ok := l.byteAt(1); ok && b == '|' {
			l.pos += 2
			return Token{Kind: KindOr, Text: "||", Pos: start}, nil
		}
		return Token{}, l.errAt(start, "expected '||'")
	case c == '=':
		if b, ok := l.byteAt(1); ok && b == '=' {
			l.pos += 2
			return Token{Kind: KindEq, Text: "==", Pos: start}, nil
		}
		return Token{}, l.errAt(start, "expected '=='")
	case c == '!':
		if b, ok := l.byteAt(1); ok && b == '=' {
			l.pos += 2
			return Token{Kind: KindNeq, Text: "!=", Pos: start}, nil
		}
		return Token{}, l.errAt(start, "expected '!='")
	case c == '<':
		if b, ok := l.byteAt(1); ok && b == '=' {
			l.pos += 2
			return Token{Kind: KindLe, Text: "<=", Pos: start}, nil
		}
		l.pos++
		return Token{Kind: KindLt, Text: "<", Pos: start}, nil
	case c == '>':
		if b, ok := l.byteAt(1); ok && b == '=' {
			l.pos += 2
			return Token{Kind: KindGe, Text: ">=", Pos: start}, nil
		}
		l.pos++
		return Token{Kind: KindGt, Text: ">", Pos: start}, nil
	case c == '[':
		return l.lexCaseInsensitiveFlag(start)
	case c == '"' || c == '\'':
		return l.lexString(start, c)
	case c == '$':
		return l.lexArg(start)
	case c == '@':
		return l.lexAtOp(start)
	case c == '+' || c == '-':
		return l.lexSignedNumberOrInf(start)
	case isDigit(c):
		return l.lexNumberOrTimestamp(start)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(start)
	default:
		return Token{}, l.errAt(start, "unexpected character %q", string(c))
	}
}

func (l *Lexer) lexDotOrPostOp(start int) (Token, error) {
	if b, ok := l.byteAt(1); ok && b == '@' {
		l.pos++ // consume '.'
		return l.lexAtOp(l.pos)
	}
	l.pos++
	return Token{Kind: KindDot, Text: ".", Pos: start}, nil
}

func (l *Lexer) lexAtOp(start int) (Token, error) {
	l.pos++ // consume '@'
	idStart := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	word := l.src[idStart:l.pos]
	switch strings.ToLower(word) {
	case "count":
		return Token{Kind: KindAtCount, Text: "@" + word, Pos: start}, nil
	case "size":
		return Token{Kind: KindAtSize, Text: "@" + word, Pos: start}, nil
	case "max":
		return Token{Kind: KindAtMax, Text: "@" + word, Pos: start}, nil
	case "min":
		return Token{Kind: KindAtMin, Text: "@" + word, Pos: start}, nil
	case "sum":
		return Token{Kind: KindAtSum, Text: "@" + word, Pos: start}, nil
	case "avg":
		return Token{Kind: KindAtAvg, Text: "@" + word, Pos: start}, nil
	case "links":
		return Token{Kind: KindAtLinks, Text: "@" + word, Pos: start}, nil
	default:
		return Token{}, l.errAt(start, "unknown post-op '@%s'", word)
	}
}

func (l *Lexer) lexCaseInsensitiveFlag(start int) (Token, error) {
	if strings.HasPrefix(strings.ToLower(l.src[l.pos:]), "[c]") {
		l.pos += 3
		return Token{Kind: KindCaseInsensitive, Text: "[c]", Pos: start}, nil
	}
	return Token{}, l.errAt(start, "expected '[c]'")
}

func (l *Lexer) lexString(start int, quote byte) (Token, error) {
	l.pos++ // consume opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, l.errAt(start, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return Token{Kind: KindString, Text: sb.String(), Pos: start}, nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			sb.WriteByte(l.src[l.pos])
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
}

func (l *Lexer) lexArg(start int) (Token, error) {
	l.pos++ // consume '$'
	digitsStart := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitsStart {
		return Token{}, l.errAt(start, "expected digits after '$'")
	}
	return Token{Kind: KindArg, Text: l.src[digitsStart:l.pos], Pos: start}, nil
}

func (l *Lexer) lexSignedNumberOrInf(start int) (Token, error) {
	sign := l.src[l.pos]
	rest := l.src[l.pos+1:]
	if strings.HasPrefix(strings.ToLower(rest), "inf") {
		l.pos += 1 + len("inf")
		text := string(sign) + "inf"
		return Token{Kind: KindInfinity, Text: text, Pos: start}, nil
	}
	l.pos++
	tok, err := l.lexNumberOrTimestamp(l.pos)
	if err != nil {
		return Token{}, err
	}
	tok.Pos = start
	tok.Text = string(sign) + tok.Text
	return tok, nil
}

func (l *Lexer) lexNumberOrTimestamp(start int) (Token, error) {
	if strings.HasPrefix(l.src[l.pos:], "B64\"") {
		return l.lexBase64(start)
	}
	if strings.HasPrefix(l.src[l.pos:], "uuid(") {
		return l.lexParenLiteral(start, "uuid(", KindUUID)
	}
	if strings.HasPrefix(l.src[l.pos:], "oid(") {
		return l.lexParenLiteral(start, "oid(", KindOID)
	}
	if strings.HasPrefix(strings.ToUpper(l.src[l.pos:]), "NAN") {
		l.pos += 3
		return Token{Kind: KindNaN, Text: "NaN", Pos: start}, nil
	}

	numStart := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}

	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		// Distinguish a float's fractional part from a following '.' path
		// separator by requiring at least one digit after the dot.
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			isFloat = true
			l.pos++
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}

	// ISO date form: YYYY-MM-DD...
	if !isFloat && l.pos < len(l.src) && l.src[l.pos] == '-' && l.pos-numStart == 4 {
		return l.lexISOTimestamp(start)
	}

	if isFloat {
		return Token{Kind: KindFloat, Text: l.src[start:l.pos], Pos: start}, nil
	}
	return Token{Kind: KindNumber, Text: l.src[start:l.pos], Pos: start}, nil
}

func (l *Lexer) lexISOTimestamp(start int) (Token, error) {
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || strings.ContainsRune("-T@:.", rune(l.src[l.pos]))) {
		l.pos++
	}
	return Token{Kind: KindTimestamp, Text: l.src[start:l.pos], Pos: start}, nil
}

func (l *Lexer) lexBase64(start int) (Token, error) {
	l.pos += len("B64\"")
	contentStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, l.errAt(start, "unterminated B64 literal")
	}
	text := l.src[contentStart:l.pos]
	l.pos++ // closing quote
	return Token{Kind: KindBase64, Text: text, Pos: start}, nil
}

func (l *Lexer) lexParenLiteral(start int, prefix string, kind Kind) (Token, error) {
	l.pos += len(prefix)
	contentStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != ')' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, l.errAt(start, "unterminated %s literal", kind)
	}
	text := l.src[contentStart:l.pos]
	l.pos++ // closing paren
	return Token{Kind: kind, Text: text, Pos: start}, nil
}

func (l *Lexer) lexIdentOrKeyword(start int) (Token, error) {
	// "Txxxxx:nnn" timestamp shorthand.
	if l.src[l.pos] == 'T' {
		if tok, ok := l.tryLexTTimestamp(start); ok {
			return tok, nil
		}
	}

	rest := l.src[l.pos:]
	switch {
	case strings.HasPrefix(rest, "B64\""):
		return l.lexBase64(start)
	case strings.HasPrefix(rest, "uuid("):
		return l.lexParenLiteral(start, "uuid(", KindUUID)
	case strings.HasPrefix(rest, "oid("):
		return l.lexParenLiteral(start, "oid(", KindOID)
	}

	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	word := l.src[start:l.pos]

	if strings.EqualFold(word, "nan") {
		return Token{Kind: KindNaN, Text: "NaN", Pos: start}, nil
	}
	if kind, ok := lookupKeyword(word); ok {
		return Token{Kind: kind, Text: word, Pos: start}, nil
	}
	return Token{Kind: KindIdent, Text: word, Pos: start}, nil
}

func (l *Lexer) tryLexTTimestamp(start int) (Token, bool) {
	save := l.pos
	l.pos++ // consume 'T'
	if l.pos < len(l.src) && l.src[l.pos] == '-' {
		l.pos++
	}
	digitsStart := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitsStart || l.pos >= len(l.src) || l.src[l.pos] != ':' {
		l.pos = save
		return Token{}, false
	}
	l.pos++ // consume ':'
	nanoStart := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == nanoStart {
		l.pos = save
		return Token{}, false
	}
	return Token{Kind: KindTimestamp, Text: l.src[start:l.pos], Pos: start}, true
}

func (l *Lexer) errAt(pos int, format string, args ...interface{}) error {
	return newLexError(l.src, pos, format, args...)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

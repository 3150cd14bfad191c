package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			return toks
		}
	}
}

func TestLexerKeywordsAndOperators(t *testing.T) {
	toks := lexAll(t, `name == "foo" && age >= 10`)
	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []Kind{
		KindIdent, KindEq, KindString, KindAnd, KindIdent, KindGe, KindNumber, KindEOF,
	}, kinds)
}

func TestLexerCaseInsensitiveFlag(t *testing.T) {
	toks := lexAll(t, `name CONTAINS[c] "x"`)
	assert.Equal(t, KindIdent, toks[0].Kind)
	assert.Equal(t, KindContains, toks[1].Kind)
	assert.Equal(t, KindCaseInsensitive, toks[2].Kind)
	assert.Equal(t, KindString, toks[3].Kind)
}

func TestLexerPostOp(t *testing.T) {
	toks := lexAll(t, `pets.@count > 1`)
	assert.Equal(t, KindIdent, toks[0].Kind)
	assert.Equal(t, KindAtCount, toks[1].Kind)
	assert.Equal(t, KindGt, toks[2].Kind)
	assert.Equal(t, KindNumber, toks[3].Kind)
}

func TestLexerArgAndLiterals(t *testing.T) {
	toks := lexAll(t, `$0 == NULL`)
	assert.Equal(t, KindArg, toks[0].Kind)
	assert.Equal(t, "0", toks[0].Text)
	assert.Equal(t, KindEq, toks[1].Kind)
	assert.Equal(t, KindNull, toks[2].Kind)
}

func TestLexerFloatAndSigned(t *testing.T) {
	toks := lexAll(t, `score > -1.5`)
	assert.Equal(t, KindGt, toks[1].Kind)
	assert.Equal(t, KindFloat, toks[2].Kind)
	assert.Equal(t, "-1.5", toks[2].Text)
}

func TestLexerInfinityAndNaN(t *testing.T) {
	toks := lexAll(t, `x == +inf || y == NaN`)
	assert.Equal(t, KindInfinity, toks[2].Kind)
	assert.Equal(t, KindNaN, toks[6].Kind)
}

func TestLexerUUIDAndOID(t *testing.T) {
	toks := lexAll(t, `id == uuid(11111111-1111-1111-1111-111111111111)`)
	require.Equal(t, KindUUID, toks[2].Kind)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", toks[2].Text)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	l := NewLexer(`"abc`)
	_, err := l.Next()
	require.Error(t, err)
	var ip *InvalidPredicate
	require.ErrorAs(t, err, &ip)
}

func TestLexerKeywordLookupIsCaseInsensitive(t *testing.T) {
	k, ok := lookupKeyword("beginswith")
	require.True(t, ok)
	assert.Equal(t, KindBeginsWith, k)
}

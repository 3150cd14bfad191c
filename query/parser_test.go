package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleEquality(t *testing.T) {
	res, err := Parse(`name == "foo"`)
	require.NoError(t, err)
	require.Len(t, res.Root.AndPreds, 1)

	and := res.Root.AndPreds[0].(*And)
	require.Len(t, and.AtomPreds, 1)

	eq, ok := and.AtomPreds[0].(*Equality)
	require.True(t, ok)
	assert.Equal(t, OpEq, eq.Op)
	assert.Equal(t, "name", eq.Values[0].Prop.Ident)
	assert.Equal(t, "foo", eq.Values[1].Constant.Text)
	assert.True(t, eq.CaseSensitive)
}

func TestParseAndOrPrecedence(t *testing.T) {
	res, err := Parse(`a == 1 && b == 2 || c == 3`)
	require.NoError(t, err)
	require.Len(t, res.Root.AndPreds, 2)

	first := res.Root.AndPreds[0].(*And)
	assert.Len(t, first.AtomPreds, 2)

	second := res.Root.AndPreds[1].(*And)
	assert.Len(t, second.AtomPreds, 1)
}

func TestParseNotAndParens(t *testing.T) {
	res, err := Parse(`NOT (a == 1 && b == 2)`)
	require.NoError(t, err)
	and := res.Root.AndPreds[0].(*And)
	not, ok := and.AtomPreds[0].(*Not)
	require.True(t, ok)
	_, ok = not.Atom.(*Parens)
	require.True(t, ok)
}

func TestParseTruePredicate(t *testing.T) {
	res, err := Parse(`TRUEPREDICATE`)
	require.NoError(t, err)
	tf, ok := res.Root.AndPreds[0].(*And).AtomPreds[0].(*TrueOrFalse)
	require.True(t, ok)
	assert.True(t, tf.Value)
}

func TestParseCaseInsensitiveContains(t *testing.T) {
	res, err := Parse(`name CONTAINS[c] "foo"`)
	require.NoError(t, err)
	so, ok := res.Root.AndPreds[0].(*And).AtomPreds[0].(*StringOps)
	require.True(t, ok)
	assert.Equal(t, OpContains, so.Op)
	assert.False(t, so.CaseSensitive)
}

func TestParseRelational(t *testing.T) {
	res, err := Parse(`age >= 18`)
	require.NoError(t, err)
	rel, ok := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Relational)
	require.True(t, ok)
	assert.Equal(t, OpGe, rel.Op)
}

func TestParseBacklinkPath(t *testing.T) {
	res, err := Parse(`@links.Dog.owner.name == "Rex"`)
	require.NoError(t, err)
	eq := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Equality)
	prop := eq.Values[0].Prop
	require.Len(t, prop.Path.Elems, 1)
	assert.True(t, prop.Path.Elems[0].IsBacklink)
	assert.Equal(t, "Dog", prop.Path.Elems[0].BacklinkTable)
	assert.Equal(t, "owner", prop.Path.Elems[0].BacklinkCol)
	assert.Equal(t, "name", prop.Ident)
}

func TestParsePostOpCount(t *testing.T) {
	res, err := Parse(`pets.@count > 1`)
	require.NoError(t, err)
	rel := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Relational)
	prop := rel.Values[0].Prop
	require.NotNil(t, prop.PostOp)
	assert.Equal(t, PostOpCount, prop.PostOp.Kind)
}

func TestParseOrderingClauses(t *testing.T) {
	res, err := Parse(`TRUEPREDICATE SORT(age ASC, name DESC) DISTINCT(name) LIMIT(5)`)
	require.NoError(t, err)
	require.NotNil(t, res.Ordering)
	require.Len(t, res.Ordering.Orderings, 3)

	sort := res.Ordering.Orderings[0]
	assert.Equal(t, DescriptorSort, sort.Kind)
	assert.Equal(t, []string{"age", "name"}, sort.Columns)
	assert.Equal(t, []bool{true, false}, sort.Ascending)

	distinct := res.Ordering.Orderings[1]
	assert.Equal(t, DescriptorDistinct, distinct.Kind)
	assert.Equal(t, []string{"name"}, distinct.Columns)

	limit := res.Ordering.Orderings[2]
	assert.Equal(t, DescriptorLimit, limit.Kind)
	assert.EqualValues(t, 5, limit.Limit)
}

func TestParseTwoConstantsStillParses(t *testing.T) {
	// Rejecting two constants on either side of a comparison is a driver
	// (semantic-pass) responsibility, not a parse error.
	res, err := Parse(`1 == 2`)
	require.NoError(t, err)
	eq := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Equality)
	assert.NotNil(t, eq.Values[0].Constant)
	assert.NotNil(t, eq.Values[1].Constant)
}

func TestParseErrorReportsLocation(t *testing.T) {
	_, err := Parse(`name ==`)
	require.Error(t, err)
	var ip *InvalidPredicate
	require.ErrorAs(t, err, &ip)
	assert.Equal(t, `name ==`, ip.Text)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse(`name == "x") `)
	require.Error(t, err)
}

func TestParseRejectsUnterminatedParen(t *testing.T) {
	_, err := Parse(`(name == "x"`)
	require.Error(t, err)
}

func TestParseListAggr(t *testing.T) {
	res, err := Parse(`scores.@sum > 10`)
	require.NoError(t, err)
	rel := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Relational)
	la := rel.Values[0].ListAggr
	require.NotNil(t, la)
	assert.Equal(t, "scores", la.Ident)
	assert.Equal(t, AggrSum, la.Aggr)
}

func TestParseLinkAggr(t *testing.T) {
	res, err := Parse(`pets.@avg.age > 3`)
	require.NoError(t, err)
	rel := res.Root.AndPreds[0].(*And).AtomPreds[0].(*Relational)
	la := rel.Values[0].LinkAggr
	require.NotNil(t, la)
	assert.Equal(t, "pets", la.Link)
	assert.Equal(t, "age", la.Prop)
	assert.Equal(t, AggrAvg, la.Aggr)
}

func TestParseLikeAndEndsWith(t *testing.T) {
	res, err := Parse(`name LIKE "f*o" && name ENDSWITH "o"`)
	require.NoError(t, err)
	and := res.Root.AndPreds[0].(*And)
	require.Len(t, and.AtomPreds, 2)
	assert.Equal(t, OpLike, and.AtomPreds[0].(*StringOps).Op)
	assert.Equal(t, OpEndsWith, and.AtomPreds[1].(*StringOps).Op)
}

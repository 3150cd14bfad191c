package column

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPeopleTable() *InMemoryTable {
	t := NewInMemoryTable("Person", 2)
	t.AddColumn("name", TypeString, []Value{StringValue("foo"), StringValue("Foobar")})
	t.AddColumn("age", TypeInt, []Value{IntValue(10), IntValue(20)})
	t.AddListColumn("scores", TypeInt, [][]Value{
		{IntValue(3), IntValue(4)},
		{IntValue(6), IntValue(5)},
	})
	return t
}

func TestScalarColumnEval(t *testing.T) {
	tbl := buildPeopleTable()
	c, ok := tbl.Column("name")
	require.True(t, ok)

	vals := c.Eval(0)
	require.Len(t, vals, 1)
	assert.Equal(t, "foo", vals[0].Str)
}

func TestListColumnAggregates(t *testing.T) {
	tbl := buildPeopleTable()
	c, ok := tbl.Column("scores")
	require.True(t, ok)

	agg, ok := c.(Aggregatable)
	require.True(t, ok)

	assert.Equal(t, int64(7), agg.SumOf(0).Int)
	assert.Equal(t, int64(11), agg.SumOf(1).Int)
	assert.Equal(t, int64(4), agg.MaxOf(0).Int)
	assert.Equal(t, int64(3), agg.MinOf(0).Int)
}

func TestListColumnSumOfLargeIntIsExact(t *testing.T) {
	tbl := NewInMemoryTable("Ledger", 1)
	const big53 = int64(1) << 55
	tbl.AddListColumn("amounts", TypeInt, [][]Value{
		{IntValue(big53), IntValue(big53), IntValue(1)},
	})
	c, ok := tbl.Column("amounts")
	require.True(t, ok)
	agg, ok := c.(Aggregatable)
	require.True(t, ok)

	sum := agg.SumOf(0)
	assert.Equal(t, TypeInt, sum.Type)
	assert.Equal(t, 2*big53+1, sum.Int)
}

func TestListColumnSumOfDecimalIsExact(t *testing.T) {
	tbl := NewInMemoryTable("Ledger", 1)
	tbl.AddListColumn("amounts", TypeDecimal, [][]Value{
		{DecimalValue(big.NewRat(1, 3)), DecimalValue(big.NewRat(1, 3)), DecimalValue(big.NewRat(1, 3))},
	})
	c, ok := tbl.Column("amounts")
	require.True(t, ok)
	agg, ok := c.(Aggregatable)
	require.True(t, ok)

	sum := agg.SumOf(0)
	assert.Equal(t, TypeDecimal, sum.Type)
	assert.Equal(t, big.NewRat(1, 1), sum.Decimal)

	avg := agg.AvgOf(0)
	assert.Equal(t, TypeDecimal, avg.Type)
	assert.Equal(t, big.NewRat(1, 3), avg.Decimal)
}

func TestLinkChainForwardHop(t *testing.T) {
	dogs := NewInMemoryTable("Dog", 2)
	dogs.AddColumn("name", TypeString, []Value{StringValue("Rex"), StringValue("Fido")})

	people := NewInMemoryTable("Person", 2)
	people.AddLinkColumn("pet", dogs, []int{1, -1})

	lc := NewLinkChain(people)
	require.NoError(t, lc.Link("pet"))

	expr, err := lc.Column("name")
	require.NoError(t, err)

	vals := expr.Eval(0)
	require.Len(t, vals, 1)
	assert.Equal(t, "Fido", vals[0].Str)

	vals = expr.Eval(1)
	require.Len(t, vals, 1)
	assert.True(t, vals[0].Null)
}

func TestConstantExprHasConstantEvaluation(t *testing.T) {
	c := NewConstant(IntValue(5))
	assert.True(t, c.HasConstantEvaluation())
	_, ok := c.ColumnKey()
	assert.False(t, ok)
}

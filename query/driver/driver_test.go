package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obadb/refcore/column"
	"github.com/obadb/refcore/query"
)

func mustParse(t *testing.T, src string) *query.ParseResult {
	t.Helper()
	res, err := query.Parse(src)
	require.NoError(t, err)
	return res
}

func runQuery(t *testing.T, base *column.InMemoryTable, src string) ([]column.RowID, error) {
	t.Helper()
	res := mustParse(t, src)
	q, err := New(base, nil).Compile(res)
	if err != nil {
		return nil, err
	}
	return q.FindAll()
}

func TestQueryTypeCheckRejectsIntAgainstString(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddColumn("age", column.TypeInt, []column.Value{column.IntValue(1), column.IntValue(2)})

	_, err := runQuery(t, tbl, `age > 'x'`)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
}

func TestQuerySimpleEqualitySelectsExactRow(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddColumn("name", column.TypeString, []column.Value{column.StringValue("foo"), column.StringValue("bar")})

	rows, err := runQuery(t, tbl, `name == 'foo'`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{0}, rows)
}

func TestQueryCaseInsensitiveContains(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddColumn("name", column.TypeString, []column.Value{column.StringValue("foo"), column.StringValue("Foobar")})

	rows, err := runQuery(t, tbl, `name CONTAINS[c] 'FO'`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{0, 1}, rows)
}

func TestQueryAggregateOnList(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddListColumn("scores", column.TypeInt, [][]column.Value{
		{column.IntValue(3), column.IntValue(4)},
		{column.IntValue(6), column.IntValue(5)},
	})

	rows, err := runQuery(t, tbl, `scores.@sum > 10`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{1}, rows)
}

func TestQueryOrderingSortAndLimit(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 3)
	tbl.AddColumn("name", column.TypeString, []column.Value{
		column.StringValue("b"), column.StringValue("a"), column.StringValue("c"),
	})

	rows, err := runQuery(t, tbl, `TRUEPREDICATE SORT(name ASC) LIMIT(2)`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", firstStr(tbl, rows[0]))
	assert.Equal(t, "b", firstStr(tbl, rows[1]))
}

func firstStr(tbl *column.InMemoryTable, row column.RowID) string {
	c, _ := tbl.Column("name")
	return c.Eval(row)[0].Str
}

func TestQueryCannotCompareTwoConstants(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 1)
	_, err := runQuery(t, tbl, `1 == 2`)
	require.Error(t, err)
}

func TestQueryRejectsUUIDRelationalComparison(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 1)
	tbl.AddColumn("id", column.TypeUUID, []column.Value{column.UUIDValue([16]byte{})})

	_, err := runQuery(t, tbl, `id > id`)
	require.Error(t, err)
}

func TestQueryBeginsWithAndEndsWith(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddColumn("name", column.TypeString, []column.Value{column.StringValue("foobar"), column.StringValue("barfoo")})

	rows, err := runQuery(t, tbl, `name BEGINSWITH 'foo'`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{0}, rows)

	rows, err = runQuery(t, tbl, `name ENDSWITH 'foo'`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{1}, rows)
}

func TestQueryLinkChainForwardLinkCompare(t *testing.T) {
	dogs := column.NewInMemoryTable("Dog", 2)
	dogs.AddColumn("name", column.TypeString, []column.Value{column.StringValue("Rex"), column.StringValue("Fido")})

	people := column.NewInMemoryTable("Person", 2)
	people.AddLinkColumn("pet", dogs, []int{1, -1})

	rows, err := runQuery(t, people, `pet.name == 'Fido'`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{0}, rows)
}

func TestQueryUnknownPropertyError(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 1)
	tbl.AddColumn("name", column.TypeString, []column.Value{column.StringValue("foo")})

	_, err := runQuery(t, tbl, `nickname == 'foo'`)
	require.Error(t, err)
	var up *UnknownProperty
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "nickname", up.Property)
	assert.Equal(t, "Person", up.Table)
}

func TestQueryArgumentIndexOutOfRangeErrors(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 1)
	tbl.AddColumn("age", column.TypeInt, []column.Value{column.IntValue(1)})

	res := mustParse(t, `age == $0`)
	q, err := New(tbl, SliceArguments{}).Compile(res)
	require.Nil(t, q)
	require.Error(t, err)
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
}

func TestQueryNullComparison(t *testing.T) {
	tbl := column.NewInMemoryTable("Person", 2)
	tbl.AddColumn("name", column.TypeString, []column.Value{column.StringValue("foo"), column.NullValue(column.TypeString)})

	rows, err := runQuery(t, tbl, `name == NULL`)
	require.NoError(t, err)
	assert.Equal(t, []column.RowID{1}, rows)
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRoundTrips(t *testing.T, src string) *ParseResult {
	t.Helper()
	res, err := Parse(src)
	require.NoError(t, err)

	printed := Print(res)
	res2, err := Parse(printed)
	require.NoError(t, err, "re-parsing printed form %q", printed)
	assert.Equal(t, res, res2, "printed form %q did not round-trip to an equivalent AST", printed)
	return res
}

func TestPrintRoundTripsSimpleEquality(t *testing.T) {
	assertRoundTrips(t, `name == "foo"`)
}

func TestPrintRoundTripsAndOr(t *testing.T) {
	assertRoundTrips(t, `a == 1 && b == 2 || c == 3`)
}

func TestPrintRoundTripsNotParens(t *testing.T) {
	assertRoundTrips(t, `NOT (a == 1 && b == 2)`)
}

func TestPrintRoundTripsCaseInsensitive(t *testing.T) {
	assertRoundTrips(t, `name CONTAINS "foo" [c]`)
}

func TestPrintRoundTripsOrdering(t *testing.T) {
	assertRoundTrips(t, `TRUEPREDICATE SORT(age ASC, name DESC) LIMIT(5)`)
}

func TestPrintRoundTripsBacklink(t *testing.T) {
	assertRoundTrips(t, `@links.Dog.owner.name == "Rex"`)
}

func TestPrintRoundTripsListAggr(t *testing.T) {
	assertRoundTrips(t, `scores.@sum > 10`)
}

func TestPrintRoundTripsLinkAggr(t *testing.T) {
	assertRoundTrips(t, `pets.@avg.age > 3`)
}

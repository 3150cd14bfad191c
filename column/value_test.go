package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqualitySymmetry(t *testing.T) {
	a := IntValue(5)
	b := Float64Value(5.0)
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	c := StringValue("x")
	d := StringValue("y")
	assert.False(t, c.Equal(d))
	assert.False(t, d.Equal(c))
}

func TestValueLessSymmetry(t *testing.T) {
	a := IntValue(3)
	b := IntValue(7)
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestValueNullEquality(t *testing.T) {
	n1 := NullValue(TypeString)
	n2 := NullValue(TypeString)
	assert.True(t, n1.Equal(n2))

	v := StringValue("x")
	assert.False(t, n1.Equal(v))
}

func TestComparable(t *testing.T) {
	assert.True(t, Comparable(TypeInt, TypeDouble))
	assert.True(t, Comparable(TypeString, TypeString))
	assert.False(t, Comparable(TypeString, TypeInt))
	assert.True(t, Comparable(TypeMixed, TypeUUID))
}

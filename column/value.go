package column

import (
	"math/big"

	"github.com/google/uuid"
)

// Value is a single typed cell, carrying at most one of its typed fields
// depending on Type. It replaces the source's dynamic-dispatch-per-type
// Mixed value with an enum-tagged struct per spec.md §9's design note.
type Value struct {
	Type Type
	Null bool

	Int       int64
	Bool      bool
	Str       string
	Bin       []byte
	Float32   float32
	Float64   float64
	Decimal   *big.Rat
	Timestamp Timestamp
	ObjectID  ObjectID
	UUID      uuid.UUID
	LinkRef   uint64
}

// Timestamp mirrors spec.md §4.3/§4.4's TIMESTAMP constant: seconds since
// epoch plus nanoseconds, with sign(seconds) == sign(nanoseconds).
type Timestamp struct {
	Seconds     int64
	Nanoseconds int32
}

// ObjectID is a 12-byte identifier (spec.md's OID constant).
type ObjectID [12]byte

// NullValue returns the null cell for the given type.
func NullValue(t Type) Value {
	return Value{Type: t, Null: true}
}

// IntValue, FloatValue, ... construct non-null scalar cells.
func IntValue(v int64) Value           { return Value{Type: TypeInt, Int: v} }
func BoolValue(v bool) Value           { return Value{Type: TypeBool, Bool: v} }
func StringValue(v string) Value       { return Value{Type: TypeString, Str: v} }
func BinaryValue(v []byte) Value       { return Value{Type: TypeBinary, Bin: v} }
func Float32Value(v float32) Value     { return Value{Type: TypeFloat, Float32: v} }
func Float64Value(v float64) Value     { return Value{Type: TypeDouble, Float64: v} }
func DecimalValue(v *big.Rat) Value    { return Value{Type: TypeDecimal, Decimal: v} }
func TimestampValue(v Timestamp) Value { return Value{Type: TypeTimestamp, Timestamp: v} }
func ObjectIDValue(v ObjectID) Value   { return Value{Type: TypeObjectID, ObjectID: v} }
func UUIDValue(v uuid.UUID) Value      { return Value{Type: TypeUUID, UUID: v} }

// AsFloat64 widens any numeric Value to a float64 for relational
// comparison, per spec.md §4.4's Int/Float/Double/Decimal interplay.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return float64(v.Float32), true
	case TypeDouble:
		return v.Float64, true
	case TypeDecimal:
		if v.Decimal == nil {
			return 0, false
		}
		f, _ := v.Decimal.Float64()
		return f, true
	default:
		return 0, false
	}
}

// Equal implements spec.md §8's comparison-symmetry property for a single
// pair of same-shape values.
func (v Value) Equal(other Value) bool {
	if v.Null || other.Null {
		return v.Null == other.Null
	}
	switch v.Type {
	case TypeString:
		return other.Type == TypeString && v.Str == other.Str
	case TypeBinary:
		return other.Type == TypeBinary && bytesEqual(v.Bin, other.Bin)
	case TypeBool:
		return other.Type == TypeBool && v.Bool == other.Bool
	case TypeUUID:
		return other.Type == TypeUUID && v.UUID == other.UUID
	case TypeObjectID:
		return other.Type == TypeObjectID && v.ObjectID == other.ObjectID
	case TypeTimestamp:
		return other.Type == TypeTimestamp && v.Timestamp == other.Timestamp
	default:
		a, aok := v.AsFloat64()
		b, bok := other.AsFloat64()
		return aok && bok && a == b
	}
}

// Less implements relational ordering for numeric, string, binary, and
// timestamp values (spec.md §4.4: "For relational comparisons UUID is
// rejected").
func (v Value) Less(other Value) bool {
	switch v.Type {
	case TypeString:
		return v.Str < other.Str
	case TypeBinary:
		return bytesLess(v.Bin, other.Bin)
	case TypeTimestamp:
		if v.Timestamp.Seconds != other.Timestamp.Seconds {
			return v.Timestamp.Seconds < other.Timestamp.Seconds
		}
		return v.Timestamp.Nanoseconds < other.Timestamp.Nanoseconds
	default:
		a, _ := v.AsFloat64()
		b, _ := other.AsFloat64()
		return a < b
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

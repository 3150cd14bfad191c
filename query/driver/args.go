package driver

import (
	"github.com/google/uuid"

	"github.com/obadb/refcore/column"
)

// ArgumentsProvider supplies the runtime values bound to "$N" argument
// placeholders (spec.md §4.4). Implementations report each argument's
// declared type and nullness alongside typed accessors; the driver only
// calls the accessor matching type_for(n), except for the documented
// Timestamp/ObjectId fallback below.
type ArgumentsProvider interface {
	IsNull(n int) bool
	TypeFor(n int) column.Type

	Int(n int) int64
	Bool(n int) bool
	String(n int) string
	Binary(n int) []byte
	Float(n int) float32
	Double(n int) float64
	Timestamp(n int) column.Timestamp
	ObjectID(n int) column.ObjectID
	UUID(n int) uuid.UUID
}

// SliceArguments is the default ArgumentsProvider, backed by a fixed slice
// of already-typed Values (one per "$N" position).
type SliceArguments []column.Value

func (a SliceArguments) IsNull(n int) bool          { return a.at(n).Null }
func (a SliceArguments) TypeFor(n int) column.Type  { return a.at(n).Type }
func (a SliceArguments) Int(n int) int64            { return a.at(n).Int }
func (a SliceArguments) Bool(n int) bool            { return a.at(n).Bool }
func (a SliceArguments) String(n int) string        { return a.at(n).Str }
func (a SliceArguments) Binary(n int) []byte        { return a.at(n).Bin }
func (a SliceArguments) Float(n int) float32        { return a.at(n).Float32 }
func (a SliceArguments) Double(n int) float64        { return a.at(n).Float64 }
func (a SliceArguments) Timestamp(n int) column.Timestamp { return a.at(n).Timestamp }
func (a SliceArguments) ObjectID(n int) column.ObjectID    { return a.at(n).ObjectID }
func (a SliceArguments) UUID(n int) uuid.UUID              { return a.at(n).UUID }

// Count reports how many "$N" positions are bound, letting resolveArg
// tell an out-of-range index apart from a genuinely declared null.
func (a SliceArguments) Count() int { return len(a) }

func (a SliceArguments) at(n int) column.Value {
	if n < 0 || n >= len(a) {
		return column.NullValue(column.TypeMixed)
	}
	return a[n]
}

// boundsChecked is implemented by ArgumentsProvider implementations, like
// SliceArguments, that know how many "$N" positions they actually bind.
// resolveArg probes for it the way postops.go probes for counter: an
// optional capability, not part of the base interface, since a provider
// backed by something other than a fixed slice may have no fixed count.
type boundsChecked interface {
	Count() int
}

// resolveArg materializes "$N" against hint, honoring the Timestamp/
// ObjectId fallback: if the argument's declared type is Timestamp or
// ObjectId, the driver tries the declared accessor first and, only if that
// accessor panics, falls back to the other one,
// since the two constants share a lexical form in some APIs (spec.md
// §4.4).
func resolveArg(args ArgumentsProvider, n int, hint column.Type) (column.Value, error) {
	if args == nil {
		return column.Value{}, &ArgumentError{Index: n, Message: "predicate references $N but no arguments were supplied"}
	}
	if bc, ok := args.(boundsChecked); ok {
		if n < 0 || n >= bc.Count() {
			return column.Value{}, &ArgumentError{Index: n, Message: "index out of range"}
		}
	}
	if args.IsNull(n) {
		return column.NullValue(hint), nil
	}

	declared := args.TypeFor(n)
	switch declared {
	case column.TypeTimestamp, column.TypeObjectID:
		return readTimestampOrObjectID(args, n, declared), nil
	}

	switch declared {
	case column.TypeInt:
		return column.IntValue(args.Int(n)), nil
	case column.TypeBool:
		return column.BoolValue(args.Bool(n)), nil
	case column.TypeString:
		return column.StringValue(args.String(n)), nil
	case column.TypeBinary:
		return column.BinaryValue(args.Binary(n)), nil
	case column.TypeFloat:
		return column.Float32Value(args.Float(n)), nil
	case column.TypeDouble:
		return column.Float64Value(args.Double(n)), nil
	case column.TypeUUID:
		return column.UUIDValue(args.UUID(n)), nil
	default:
		return column.Value{}, &ArgumentError{Index: n, Message: "unsupported argument type " + declared.String()}
	}
}

// readTimestampOrObjectID implements the documented fallback: it calls the
// accessor matching the provider's declared type first, and if that call
// panics (a provider whose Timestamp/ObjectId accessors are only valid for
// their own type, which is how the ambiguity between the two manifests in
// practice since they share a lexical form in some APIs), calls the other
// accessor directly and keeps whatever type it returns — the fallback does
// not attempt to convert the result back into the originally-declared type.
func readTimestampOrObjectID(args ArgumentsProvider, n int, declared column.Type) (v column.Value) {
	defer func() {
		if recover() == nil {
			return
		}
		if declared == column.TypeTimestamp {
			v = column.ObjectIDValue(args.ObjectID(n))
		} else {
			v = column.TimestampValue(args.Timestamp(n))
		}
	}()

	if declared == column.TypeTimestamp {
		return column.TimestampValue(args.Timestamp(n))
	}
	return column.ObjectIDValue(args.ObjectID(n))
}

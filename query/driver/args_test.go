package driver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obadb/refcore/column"
)

// mismatchedArgs is a test-only ArgumentsProvider whose declared type for an
// argument disagrees with which accessor actually holds data: Timestamp
// panics, ObjectID returns a real value, and TypeFor still reports
// Timestamp. SliceArguments can never produce this shape (its TypeFor
// always agrees with its populated field by construction), so this is the
// only way to exercise readTimestampOrObjectID's fallback.
type mismatchedArgs struct {
	oid column.ObjectID
}

func (mismatchedArgs) IsNull(int) bool         { return false }
func (mismatchedArgs) TypeFor(int) column.Type { return column.TypeTimestamp }
func (mismatchedArgs) Int(int) int64           { return 0 }
func (mismatchedArgs) Bool(int) bool           { return false }
func (mismatchedArgs) String(int) string       { return "" }
func (mismatchedArgs) Binary(int) []byte       { return nil }
func (mismatchedArgs) Float(int) float32       { return 0 }
func (mismatchedArgs) Double(int) float64      { return 0 }
func (mismatchedArgs) Timestamp(int) column.Timestamp {
	panic("no timestamp stored for this argument")
}
func (a mismatchedArgs) ObjectID(int) column.ObjectID { return a.oid }
func (mismatchedArgs) UUID(int) uuid.UUID             { return uuid.UUID{} }

func TestReadTimestampOrObjectIDFallsBackToOtherAccessorNativeType(t *testing.T) {
	args := mismatchedArgs{oid: column.ObjectID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}

	v, err := resolveArg(args, 0, column.TypeTimestamp)
	require.NoError(t, err)
	assert.Equal(t, column.TypeObjectID, v.Type)
	assert.Equal(t, args.oid, v.ObjectID)
}

package driver

import (
	"github.com/obadb/refcore/column"
	"github.com/obadb/refcore/query"
)

// counter is a link Subexpr that additionally reports how many targets
// are set for a row (only column.InMemoryTable's bare link accessor
// implements this today).
type counter interface {
	column.Subexpr
	Count(column.RowID) int64
}

// countExpr implements ".@count" over a link column (spec.md §4.4:
// "@count applies to link columns").
type countExpr struct {
	inner counter
}

func (e *countExpr) Type() column.Type             { return column.TypeInt }
func (e *countExpr) IsList() bool                  { return false }
func (e *countExpr) HasConstantEvaluation() bool   { return false }
func (e *countExpr) LinksExist() bool              { return true }
func (e *countExpr) ColumnKey() (column.Key, bool) { return e.inner.ColumnKey() }
func (e *countExpr) Clone() column.Subexpr         { cp := *e; return &cp }
func (e *countExpr) Eval(row column.RowID) []column.Value {
	return []column.Value{column.IntValue(e.inner.Count(row))}
}

// sizeExpr implements ".@size" over a list, string, or binary column
// (spec.md §4.4: "@size applies to list columns, string columns, and
// binary columns").
type sizeExpr struct {
	inner column.Subexpr
}

func (e *sizeExpr) Type() column.Type             { return column.TypeInt }
func (e *sizeExpr) IsList() bool                  { return false }
func (e *sizeExpr) HasConstantEvaluation() bool   { return e.inner.HasConstantEvaluation() }
func (e *sizeExpr) LinksExist() bool              { return e.inner.LinksExist() }
func (e *sizeExpr) ColumnKey() (column.Key, bool) { return column.Key{}, false }
func (e *sizeExpr) Clone() column.Subexpr         { cp := *e; return &cp }

func (e *sizeExpr) Eval(row column.RowID) []column.Value {
	vals := e.inner.Eval(row)
	if e.inner.IsList() {
		return []column.Value{column.IntValue(int64(len(vals)))}
	}
	if len(vals) == 0 {
		return []column.Value{column.IntValue(0)}
	}
	v := vals[0]
	switch v.Type {
	case column.TypeString:
		return []column.Value{column.IntValue(int64(len(v.Str)))}
	case column.TypeBinary:
		return []column.Value{column.IntValue(int64(len(v.Bin)))}
	default:
		return []column.Value{column.IntValue(0)}
	}
}

// aggrExpr implements ".@max/.@min/.@sum/.@avg" over a numeric list
// column (spec.md §4.4).
type aggrExpr struct {
	inner column.Aggregatable
	kind  query.AggrOpKind
}

func (e *aggrExpr) Type() column.Type             { return e.inner.Type() }
func (e *aggrExpr) IsList() bool                  { return false }
func (e *aggrExpr) HasConstantEvaluation() bool   { return false }
func (e *aggrExpr) LinksExist() bool              { return e.inner.LinksExist() }
func (e *aggrExpr) ColumnKey() (column.Key, bool) { return e.inner.ColumnKey() }
func (e *aggrExpr) Clone() column.Subexpr         { cp := *e; return &cp }

func (e *aggrExpr) Eval(row column.RowID) []column.Value {
	switch e.kind {
	case query.AggrMax:
		return []column.Value{e.inner.MaxOf(row)}
	case query.AggrMin:
		return []column.Value{e.inner.MinOf(row)}
	case query.AggrSum:
		return []column.Value{e.inner.SumOf(row)}
	case query.AggrAvg:
		return []column.Value{e.inner.AvgOf(row)}
	default:
		return []column.Value{column.NullValue(e.inner.Type())}
	}
}

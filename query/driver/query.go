package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/obadb/refcore/column"
	"github.com/obadb/refcore/query"
)

// RowCounter is implemented by Table backends that can report their total
// row count, letting Query.FindAll scan every row (column.InMemoryTable
// does; a production storage-backed Table would too).
type RowCounter interface {
	RowCount() int
}

// Query is the driver's compiled output: an executable predicate plus any
// SORT/DISTINCT/LIMIT ordering (spec.md §4.4).
type Query struct {
	base        column.Table
	expr        Expr
	descriptors []*compiledDescriptor
}

type compiledDescriptor struct {
	kind      query.DescriptorKind
	keys      []column.Subexpr
	ascending []bool
	limit     int64
}

func (d *Driver) compileDescriptor(desc *query.Descriptor) (*compiledDescriptor, error) {
	if desc.Kind == query.DescriptorLimit {
		if desc.Limit < 0 {
			return nil, &TypeError{Message: "LIMIT must be non-negative"}
		}
		return &compiledDescriptor{kind: query.DescriptorLimit, limit: desc.Limit}, nil
	}

	keys := make([]column.Subexpr, len(desc.Columns))
	for i, col := range desc.Columns {
		expr, err := d.resolveDottedColumn(col)
		if err != nil {
			kind := "sort"
			if desc.Kind == query.DescriptorDistinct {
				kind = "distinct"
			}
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		keys[i] = expr
	}

	return &compiledDescriptor{kind: desc.Kind, keys: keys, ascending: desc.Ascending}, nil
}

// resolveDottedColumn expands a dotted column name ("owner.name") into a
// chain of forward-link hops terminating at the named column (spec.md
// §4.4's ordering pass).
func (d *Driver) resolveDottedColumn(dotted string) (column.Subexpr, error) {
	parts := strings.Split(dotted, ".")
	chain := column.NewLinkChain(d.base)
	for _, hop := range parts[:len(parts)-1] {
		if err := chain.Link(hop); err != nil {
			return nil, unknownPropertyError(hop, d.base)
		}
	}
	last := parts[len(parts)-1]
	expr, err := chain.Column(last)
	if err != nil {
		return nil, unknownPropertyError(last, d.base)
	}
	return expr, nil
}

// FindAll evaluates the query against every row the base table reports
// and applies SORT/DISTINCT/LIMIT in the order they appeared.
func (q *Query) FindAll() ([]column.RowID, error) {
	rc, ok := q.base.(RowCounter)
	if !ok {
		return nil, &TypeError{Message: "base table does not support row enumeration"}
	}

	var rows []column.RowID
	for i := 0; i < rc.RowCount(); i++ {
		row := column.RowID(i)
		if q.expr.Eval(row) {
			rows = append(rows, row)
		}
	}

	for _, d := range q.descriptors {
		rows = d.apply(rows)
	}
	return rows, nil
}

func (d *compiledDescriptor) apply(rows []column.RowID) []column.RowID {
	switch d.kind {
	case query.DescriptorSort:
		return d.applySort(rows)
	case query.DescriptorDistinct:
		return d.applyDistinct(rows)
	case query.DescriptorLimit:
		if int64(len(rows)) > d.limit {
			return rows[:d.limit]
		}
		return rows
	default:
		return rows
	}
}

func (d *compiledDescriptor) applySort(rows []column.RowID) []column.RowID {
	sorted := append([]column.RowID(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		for k, key := range d.keys {
			av := keyValue(key, a)
			bv := keyValue(key, b)
			if av.Equal(bv) {
				continue
			}
			asc := k >= len(d.ascending) || d.ascending[k]
			if asc {
				return av.Less(bv)
			}
			return bv.Less(av)
		}
		return false
	})
	return sorted
}

func (d *compiledDescriptor) applyDistinct(rows []column.RowID) []column.RowID {
	seen := make(map[string]struct{}, len(rows))
	var out []column.RowID
	for _, row := range rows {
		var sb strings.Builder
		for _, key := range d.keys {
			fmt.Fprintf(&sb, "%v|", keyValue(key, row))
		}
		sig := sb.String()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, row)
	}
	return out
}

func keyValue(expr column.Subexpr, row column.RowID) column.Value {
	vals := expr.Eval(row)
	if len(vals) == 0 {
		return column.NullValue(expr.Type())
	}
	return vals[0]
}

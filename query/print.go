package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders r back to predicate text in canonical form. Re-parsing
// the result must reproduce an equivalent AST (spec.md §8's parse/print
// idempotence property); it is not guaranteed to reproduce the original
// source text byte-for-byte (e.g. redundant parentheses are preserved
// only where the AST records a Parens node, and whitespace is
// normalized).
func Print(r *ParseResult) string {
	var sb strings.Builder
	printOr(&sb, r.Root)
	if r.Ordering != nil && len(r.Ordering.Orderings) > 0 {
		for _, d := range r.Ordering.Orderings {
			sb.WriteByte(' ')
			printDescriptor(&sb, d)
		}
	}
	return sb.String()
}

func printOr(sb *strings.Builder, o *Or) {
	for i, a := range o.AndPreds {
		if i > 0 {
			sb.WriteString(" || ")
		}
		printNode(sb, a)
	}
}

func printNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *And:
		for i, a := range v.AtomPreds {
			if i > 0 {
				sb.WriteString(" && ")
			}
			printNode(sb, a)
		}
	case *Not:
		sb.WriteString("NOT ")
		printNode(sb, v.Atom)
	case *Parens:
		sb.WriteByte('(')
		printOr(sb, v.Pred.(*Or))
		sb.WriteByte(')')
	case *TrueOrFalse:
		if v.Value {
			sb.WriteString("TRUEPREDICATE")
		} else {
			sb.WriteString("FALSEPREDICATE")
		}
	case *Equality:
		printCmp(sb, v.Values, v.Op, v.CaseSensitive)
	case *Relational:
		printCmp(sb, v.Values, v.Op, true)
	case *StringOps:
		printCmp(sb, v.Values, v.Op, v.CaseSensitive)
	default:
		panic(fmt.Sprintf("query: unhandled node type %T", n))
	}
}

func printCmp(sb *strings.Builder, values [2]*Value, op CmpOp, caseSensitive bool) {
	printValue(sb, values[0])
	sb.WriteByte(' ')
	sb.WriteString(op.String())
	sb.WriteByte(' ')
	printValue(sb, values[1])
	if !caseSensitive {
		sb.WriteString(" [c]")
	}
}

func printValue(sb *strings.Builder, v *Value) {
	switch {
	case v.Constant != nil:
		printConstant(sb, v.Constant)
	case v.Prop != nil:
		printProp(sb, v.Prop)
	case v.LinkAggr != nil:
		printLinkAggr(sb, v.LinkAggr)
	case v.ListAggr != nil:
		printListAggr(sb, v.ListAggr)
	default:
		panic("query: empty Value node")
	}
}

func printPathElems(sb *strings.Builder, elems []PathElem) {
	for _, e := range elems {
		if e.IsBacklink {
			sb.WriteString("@links.")
			sb.WriteString(e.BacklinkTable)
			sb.WriteByte('.')
			sb.WriteString(e.BacklinkCol)
		} else {
			sb.WriteString(e.Ident)
		}
		sb.WriteByte('.')
	}
}

func printAggrOp(sb *strings.Builder, op AggrOpKind) {
	switch op {
	case AggrMax:
		sb.WriteString("@max")
	case AggrMin:
		sb.WriteString("@min")
	case AggrSum:
		sb.WriteString("@sum")
	case AggrAvg:
		sb.WriteString("@avg")
	}
}

func printLinkAggr(sb *strings.Builder, a *LinkAggr) {
	printPathElems(sb, a.Path.Elems)
	sb.WriteString(a.Link)
	sb.WriteByte('.')
	printAggrOp(sb, a.Aggr)
	sb.WriteByte('.')
	sb.WriteString(a.Prop)
}

func printListAggr(sb *strings.Builder, a *ListAggr) {
	printPathElems(sb, a.Path.Elems)
	sb.WriteString(a.Ident)
	sb.WriteByte('.')
	printAggrOp(sb, a.Aggr)
}

func printConstant(sb *strings.Builder, c *Constant) {
	switch c.Kind {
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(c.Text)
		sb.WriteByte('"')
	case KindBase64:
		sb.WriteString(`B64"`)
		sb.WriteString(c.Text)
		sb.WriteByte('"')
	case KindUUID:
		sb.WriteString("uuid(")
		sb.WriteString(c.Text)
		sb.WriteByte(')')
	case KindOID:
		sb.WriteString("oid(")
		sb.WriteString(c.Text)
		sb.WriteByte(')')
	case KindNull:
		sb.WriteString("NULL")
	case KindTrue:
		sb.WriteString("TRUE")
	case KindFalse:
		sb.WriteString("FALSE")
	case KindArg:
		sb.WriteByte('$')
		sb.WriteString(c.Text)
	default:
		sb.WriteString(c.Text)
	}
}

func printProp(sb *strings.Builder, p *Prop) {
	printPathElems(sb, p.Path.Elems)
	sb.WriteString(p.Ident)
	if p.PostOp != nil {
		switch p.PostOp.Kind {
		case PostOpCount:
			sb.WriteString(".@count")
		case PostOpSize:
			sb.WriteString(".@size")
		}
	}
}

func printDescriptor(sb *strings.Builder, d *Descriptor) {
	switch d.Kind {
	case DescriptorSort:
		sb.WriteString("SORT(")
		for i, col := range d.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col)
			sb.WriteByte(' ')
			if i < len(d.Ascending) && d.Ascending[i] {
				sb.WriteString("ASC")
			} else {
				sb.WriteString("DESC")
			}
		}
		sb.WriteByte(')')
	case DescriptorDistinct:
		sb.WriteString("DISTINCT(")
		sb.WriteString(strings.Join(d.Columns, ", "))
		sb.WriteByte(')')
	case DescriptorLimit:
		sb.WriteString("LIMIT(")
		sb.WriteString(strconv.FormatInt(d.Limit, 10))
		sb.WriteByte(')')
	}
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

// printer renders result values for CLI/REPL output. This is
// display-only scaffolding (spec.md's Non-goals exclude a printer from
// the core); it does not attempt to round-trip through the reader.
type printer struct {
	ctx     *root.Context
	symbols *symbol.Table
}

func (p printer) format(v value.Value) string {
	var sb strings.Builder
	p.writeValue(&sb, v)
	return sb.String()
}

func (p printer) writeValue(sb *strings.Builder, v value.Value) {
	ctx := p.ctx
	switch v.Tag() {
	case value.TagInt:
		fmt.Fprintf(sb, "%d", v.Int())
	case value.TagNil:
		sb.WriteString("nil")
	case value.TagTrue:
		sb.WriteString("t")
	case value.TagFloat:
		f, err := ctx.Float(v)
		if err != nil {
			fmt.Fprintf(sb, "#<float:%s>", err)
			return
		}
		fmt.Fprintf(sb, "%g", f)
	case value.TagSymbol:
		sb.WriteString(p.symbols.Name(v))
	case value.TagString:
		s, err := ctx.String(v)
		if err != nil {
			fmt.Fprintf(sb, "#<string:%s>", err)
			return
		}
		fmt.Fprintf(sb, "%q", s.String())
	case value.TagCons:
		p.writeCons(sb, v)
	case value.TagSubrFn:
		sb.WriteString("#<subr>")
	case value.TagLispFn:
		sb.WriteString("#<lisp-fn>")
	case value.TagVector:
		vec, err := ctx.Vector(v)
		if err != nil {
			fmt.Fprintf(sb, "#<vector:%s>", err)
			return
		}
		sb.WriteString("[")
		for i, e := range vec.Elements {
			if i != 0 {
				sb.WriteByte(' ')
			}
			p.writeValue(sb, e)
		}
		sb.WriteString("]")
	case value.TagHashTable:
		sb.WriteString("#<hash-table>")
	case value.TagBuffer:
		sb.WriteString("#<buffer>")
	case value.TagByteString:
		sb.WriteString("#<bytestring>")
	default:
		fmt.Fprintf(sb, "#<%s>", v.Tag())
	}
}

func (p printer) writeCons(sb *strings.Builder, v value.Value) {
	sb.WriteByte('(')
	first := true
	cur := v
	for {
		c, err := p.ctx.Cons(cur)
		if err != nil {
			fmt.Fprintf(sb, "%s", err)
			break
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		p.writeValue(sb, c.Car)
		if c.Cdr.IsNil() {
			break
		}
		if c.Cdr.Tag() != value.TagCons {
			sb.WriteString(" . ")
			p.writeValue(sb, c.Cdr)
			break
		}
		cur = c.Cdr
	}
	sb.WriteByte(')')
}

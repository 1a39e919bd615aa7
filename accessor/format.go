package accessor

import (
	"fmt"
	"strings"

	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/schema"
)

// String renders the record. A contract with a custom string operation
// renders through it; otherwise every field is listed in declaration
// order as {name: value, array: [a, b], nested: {...}}.
func (c *Cursor) String() string {
	if op, ok := c.acc.schema.CustomString(); ok {
		res, err := c.acc.routines[op.Index](c, Args{})
		if err != nil {
			return fmt.Sprintf("%s<%v>", c.acc.schema.Name(), err)
		}
		return res.Text
	}
	var b strings.Builder
	c.writeFields(&b)
	return b.String()
}

// Format implements fmt.Formatter. %+v prefixes the contract name and
// address; every other verb prints String.
func (c *Cursor) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%s@%#x", c.acc.schema.Name(), uint64(c.addr))
	}
	fmt.Fprint(f, c.String())
}

func (c *Cursor) writeFields(b *strings.Builder) {
	b.WriteByte('{')
	for i, f := range c.acc.schema.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")

		if !f.IsArray() {
			c.writeElement(b, f, 0)
			continue
		}
		b.WriteByte('[')
		for j := range f.ElementCount {
			if j > 0 {
				b.WriteString(", ")
			}
			c.writeElement(b, f, j)
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')
}

func (c *Cursor) writeElement(b *strings.Builder, f *schema.Field, i int) {
	addr := c.addr + arena.Address(f.Offset+uint64(i)*f.ElementWidth)
	if f.Kind == schema.KindRecord {
		b.WriteString(c.acc.nested[f].View(addr).String())
		return
	}
	bits, err := loader(f.ElementWidth)(c.acc.mem, addr)
	if err != nil {
		b.WriteString("?")
		return
	}
	b.WriteString(schema.FromBits(f.Kind, bits).String())
}

package accessor

import (
	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

// boolTrue is the byte stored for a true Bool field.
const boolTrue = 'Y'

// Args carries the arguments of one dispatched call. Which members are
// read depends on the operation's action.
type Args struct {
	With  *Cursor // record argument: rebind target, copy source
	Value schema.Value
	Index int
}

// Result is what a routine produced.
type Result struct {
	Cursor *Cursor // set by record-valued operations
	Text   string  // set by the custom string operation
	Value  schema.Value
}

// Routine executes one operation against the record a cursor is bound to.
type Routine func(c *Cursor, args Args) (Result, error)

// builder turns a validated operation into its routine.
type builder func(acc *Accessor, op *schema.Operation) Routine

// builders holds one routine builder per action. Synthesize fails for an
// operation whose action has no entry.
var builders = map[schema.ActionType]builder{
	schema.GetValue:        buildGet,
	schema.GetValueAt:      buildGet,
	schema.GetValueWith:    buildGetWith,
	schema.GetValueWithAt:  buildGetWith,
	schema.SetValue:        buildSet,
	schema.SetValueAt:      buildSet,
	schema.GetArraySize:    buildArraySize,
	schema.IncreaseValue:   buildStep(true, false),
	schema.IncreaseValueBy: buildStep(true, true),
	schema.DecreaseValue:   buildStep(false, false),
	schema.DecreaseValueBy: buildStep(false, true),
	schema.GetRecordID:     buildGetRecordID,
	schema.SetRecordID:     buildSetRecordID,
	schema.GetSchemaID:     buildSchemaID,
	schema.GetRecordSize:   buildRecordSize,
	schema.Copy:            buildCopy,
	schema.CopyFrom:        buildCopyFrom,
	schema.View:            buildView,
	schema.CustomString:    buildCustomString,
}

// slot is the precomputed addressing of one field.
type slot struct {
	load   func(m arena.Memory, addr arena.Address) (uint64, error)
	store  func(m arena.Memory, addr arena.Address, bits uint64) error
	nested *Accessor
	path   []string
	offset arena.Address
	width  uint64
	count  int
	kind   schema.Kind
}

func newSlot(acc *Accessor, op *schema.Operation) *slot {
	f := op.Field
	return &slot{
		load:   loader(f.ElementWidth),
		store:  storer(f.ElementWidth),
		nested: acc.nested[f],
		path:   []string{acc.schema.Name(), op.Name},
		offset: arena.Address(f.Offset),
		width:  f.ElementWidth,
		count:  f.ElementCount,
		kind:   f.Kind,
	}
}

// at returns the address of element i of the field in the record c is
// bound to.
func (s *slot) at(c *Cursor, i int) (arena.Address, error) {
	if i < 0 || i >= s.count {
		return 0, errors.OutOfBounds(errors.PhaseAccess, s.path, i, s.count)
	}
	return c.addr + s.offset + arena.Address(uint64(i)*s.width), nil
}

func (s *slot) read(m arena.Memory, addr arena.Address) (schema.Value, error) {
	bits, err := s.load(m, addr)
	if err != nil {
		return schema.Value{}, err
	}
	return schema.FromBits(s.kind, bits), nil
}

func (s *slot) write(m arena.Memory, addr arena.Address, v schema.Value) error {
	bits := v.Bits(s.kind)
	if s.kind == schema.KindBool && bits != 0 {
		bits = boolTrue
	}
	return s.store(m, addr, bits)
}

// source checks a record argument against the field's nested contract.
func (s *slot) source(with *Cursor, what string) error {
	if with == nil {
		return errors.NilPointer(errors.PhaseAccess, s.path, what)
	}
	if with.acc.schema != s.nested.schema {
		return errors.TypeMismatch(errors.PhaseAccess, s.path, with.acc.schema.Name(), s.nested.schema.Name())
	}
	return nil
}

func loader(width uint64) func(arena.Memory, arena.Address) (uint64, error) {
	switch width {
	case 1:
		return func(m arena.Memory, addr arena.Address) (uint64, error) {
			v, err := m.ReadU8(addr)
			return uint64(v), err
		}
	case 2:
		return func(m arena.Memory, addr arena.Address) (uint64, error) {
			v, err := m.ReadU16(addr)
			return uint64(v), err
		}
	case 4:
		return func(m arena.Memory, addr arena.Address) (uint64, error) {
			v, err := m.ReadU32(addr)
			return uint64(v), err
		}
	case 8:
		return func(m arena.Memory, addr arena.Address) (uint64, error) {
			return m.ReadU64(addr)
		}
	}
	return nil
}

func storer(width uint64) func(arena.Memory, arena.Address, uint64) error {
	switch width {
	case 1:
		return func(m arena.Memory, addr arena.Address, bits uint64) error {
			return m.WriteU8(addr, uint8(bits))
		}
	case 2:
		return func(m arena.Memory, addr arena.Address, bits uint64) error {
			return m.WriteU16(addr, uint16(bits))
		}
	case 4:
		return func(m arena.Memory, addr arena.Address, bits uint64) error {
			return m.WriteU32(addr, uint32(bits))
		}
	case 8:
		return func(m arena.Memory, addr arena.Address, bits uint64) error {
			return m.WriteU64(addr, bits)
		}
	}
	return nil
}

func buildGet(acc *Accessor, op *schema.Operation) Routine {
	s := newSlot(acc, op)
	mem := acc.mem
	if s.nested != nil {
		return func(c *Cursor, args Args) (Result, error) {
			addr, err := s.at(c, args.Index)
			if err != nil {
				return Result{}, err
			}
			return Result{Cursor: s.nested.View(addr)}, nil
		}
	}
	return func(c *Cursor, args Args) (Result, error) {
		addr, err := s.at(c, args.Index)
		if err != nil {
			return Result{}, err
		}
		v, err := s.read(mem, addr)
		return Result{Value: v}, err
	}
}

func buildGetWith(acc *Accessor, op *schema.Operation) Routine {
	s := newSlot(acc, op)
	return func(c *Cursor, args Args) (Result, error) {
		if err := s.source(args.With, "cursor to rebind"); err != nil {
			return Result{}, err
		}
		addr, err := s.at(c, args.Index)
		if err != nil {
			return Result{}, err
		}
		args.With.addr = addr
		return Result{Cursor: args.With}, nil
	}
}

func buildSet(acc *Accessor, op *schema.Operation) Routine {
	s := newSlot(acc, op)
	mem := acc.mem
	if s.nested != nil {
		a := acc.arena
		return func(c *Cursor, args Args) (Result, error) {
			if err := s.source(args.With, "source record"); err != nil {
				return Result{}, err
			}
			addr, err := s.at(c, args.Index)
			if err != nil {
				return Result{}, err
			}
			return Result{}, a.Copy(args.With.addr, addr, s.width)
		}
	}
	return func(c *Cursor, args Args) (Result, error) {
		addr, err := s.at(c, args.Index)
		if err != nil {
			return Result{}, err
		}
		return Result{}, s.write(mem, addr, args.Value)
	}
}

func buildArraySize(acc *Accessor, op *schema.Operation) Routine {
	n := schema.Int(schema.KindS32, int64(op.Field.ElementCount))
	return func(*Cursor, Args) (Result, error) {
		return Result{Value: n}, nil
	}
}

// buildStep builds the increase and decrease routines. They always act on
// element 0; without an argument the delta is 1.
func buildStep(up, withDelta bool) builder {
	return func(acc *Accessor, op *schema.Operation) Routine {
		s := newSlot(acc, op)
		mem := acc.mem
		one := schema.Int(s.kind, 1)
		return func(c *Cursor, args Args) (Result, error) {
			addr, err := s.at(c, 0)
			if err != nil {
				return Result{}, err
			}
			v, err := s.read(mem, addr)
			if err != nil {
				return Result{}, err
			}
			delta := one
			if withDelta {
				delta = args.Value
			}
			if up {
				v = v.Add(delta)
			} else {
				v = v.Sub(delta)
			}
			return Result{}, s.write(mem, addr, v)
		}
	}
}

func buildGetRecordID(*Accessor, *schema.Operation) Routine {
	return func(c *Cursor, _ Args) (Result, error) {
		return Result{Value: schema.Uint(schema.KindU64, uint64(c.addr))}, nil
	}
}

func buildSetRecordID(*Accessor, *schema.Operation) Routine {
	return func(c *Cursor, args Args) (Result, error) {
		c.addr = arena.Address(args.Value.Uint())
		return Result{}, nil
	}
}

func buildSchemaID(acc *Accessor, _ *schema.Operation) Routine {
	id := schema.Int(schema.KindS32, int64(acc.schema.ID()))
	return func(*Cursor, Args) (Result, error) {
		return Result{Value: id}, nil
	}
}

func buildRecordSize(acc *Accessor, _ *schema.Operation) Routine {
	size := schema.Int(schema.KindS32, int64(acc.schema.Size()))
	return func(*Cursor, Args) (Result, error) {
		return Result{Value: size}, nil
	}
}

func buildCopy(acc *Accessor, _ *schema.Operation) Routine {
	return func(c *Cursor, _ Args) (Result, error) {
		dup, err := acc.CopyOf(c)
		return Result{Cursor: dup}, err
	}
}

func buildCopyFrom(acc *Accessor, op *schema.Operation) Routine {
	path := []string{acc.schema.Name(), op.Name}
	size := acc.schema.Size()
	return func(c *Cursor, args Args) (Result, error) {
		if err := acc.own(args.With, path, "source record"); err != nil {
			return Result{}, err
		}
		return Result{}, acc.arena.Copy(args.With.addr, c.addr, size)
	}
}

func buildView(acc *Accessor, op *schema.Operation) Routine {
	path := []string{acc.schema.Name(), op.Name}
	return func(c *Cursor, args Args) (Result, error) {
		if args.With == nil {
			return Result{Cursor: acc.View(c.addr)}, nil
		}
		if err := acc.own(args.With, path, "cursor to rebind"); err != nil {
			return Result{}, err
		}
		args.With.addr = c.addr
		return Result{Cursor: args.With}, nil
	}
}

func buildCustomString(_ *Accessor, op *schema.Operation) Routine {
	hook := op.Impl
	return func(c *Cursor, _ Args) (Result, error) {
		return Result{Text: hook(c)}, nil
	}
}

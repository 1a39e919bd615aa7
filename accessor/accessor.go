// Package accessor turns a frozen schema into executable record access.
//
// Synthesize builds, once per schema, a dispatch table holding one Routine
// per declared operation. Each routine has the field's offset, width and
// element count baked in, so a call costs one table lookup plus the arena
// access. Cursors are thin (accessor, address) pairs that run those
// routines against the record they are bound to.
package accessor

import (
	"go.uber.org/zap"

	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

// Accessor is the synthesized implementation of one schema over one arena.
type Accessor struct {
	schema   *schema.Schema
	arena    *arena.Arena
	mem      arena.Memory
	nested   map[*schema.Field]*Accessor
	index    map[string]int
	routines []Routine
}

// NestedFunc supplies the accessor of a nested schema.
type NestedFunc func(s *schema.Schema) (*Accessor, bool)

type options struct {
	nested NestedFunc
	built  map[*schema.Schema]*Accessor
}

// Option configures Synthesize.
type Option func(*options)

// WithNested makes Synthesize reuse existing accessors for nested schemas.
// Nested schemas the function does not know are synthesized on the spot.
func WithNested(fn NestedFunc) Option {
	return func(o *options) {
		o.nested = fn
	}
}

// Synthesize builds the accessor of a frozen, registered schema.
func Synthesize(s *schema.Schema, a *arena.Arena, opts ...Option) (*Accessor, error) {
	o := &options{built: make(map[*schema.Schema]*Accessor)}
	for _, opt := range opts {
		opt(o)
	}
	return synthesize(s, a, o)
}

func synthesize(s *schema.Schema, a *arena.Arena, o *options) (*Accessor, error) {
	if s == nil {
		return nil, errors.NilPointer(errors.PhaseSynthesize, nil, "schema")
	}
	if a == nil {
		return nil, errors.NilPointer(errors.PhaseSynthesize, []string{s.Name()}, "arena")
	}
	if !s.Frozen() {
		return nil, errors.New(errors.PhaseSynthesize, errors.KindInvalidInput).
			Path(s.Name()).Detail("schema has no layout").Build()
	}
	if s.ID() == 0 {
		return nil, errors.New(errors.PhaseSynthesize, errors.KindInvalidInput).
			Path(s.Name()).Detail("schema is not registered").Build()
	}
	if acc, ok := o.built[s]; ok {
		return acc, nil
	}

	acc := &Accessor{
		schema:   s,
		arena:    a,
		mem:      a.Memory(),
		nested:   make(map[*schema.Field]*Accessor),
		index:    make(map[string]int, len(s.Operations())),
		routines: make([]Routine, len(s.Operations())),
	}

	for _, f := range s.Fields() {
		if f.Nested == nil {
			continue
		}
		n, err := nestedAccessor(f.Nested, a, o)
		if err != nil {
			return nil, err
		}
		acc.nested[f] = n
	}

	for _, op := range s.Operations() {
		build, ok := builders[op.Action]
		if !ok {
			return nil, errors.NoRoutine([]string{s.Name(), op.Name}, op.Action.String())
		}
		acc.routines[op.Index] = build(acc, op)
		acc.index[op.Name] = op.Index
	}

	o.built[s] = acc
	Logger().Debug("accessor synthesized",
		zap.String("schema", s.Name()),
		zap.Uint32("id", s.ID()),
		zap.Int("operations", len(acc.routines)),
		zap.Uint64("size", s.Size()))
	return acc, nil
}

func nestedAccessor(s *schema.Schema, a *arena.Arena, o *options) (*Accessor, error) {
	if o.nested != nil {
		if acc, ok := o.nested(s); ok {
			return acc, nil
		}
	}
	return synthesize(s, a, o)
}

// Schema returns the schema the accessor implements.
func (acc *Accessor) Schema() *schema.Schema {
	return acc.schema
}

// Arena returns the arena records live in.
func (acc *Accessor) Arena() *arena.Arena {
	return acc.arena
}

// Routine returns the routine of the named operation.
func (acc *Accessor) Routine(name string) (Routine, bool) {
	i, ok := acc.index[name]
	if !ok {
		return nil, false
	}
	return acc.routines[i], true
}

// View returns a new cursor bound to addr.
func (acc *Accessor) View(addr arena.Address) *Cursor {
	return &Cursor{acc: acc, addr: addr}
}

// Create reserves a zeroed record and returns a cursor bound to it.
func (acc *Accessor) Create() (*Cursor, error) {
	addr, err := acc.arena.Reserve(acc.schema.Size())
	if err != nil {
		return nil, err
	}
	return acc.View(addr), nil
}

// CreateWith reserves a zeroed record and rebinds reuse to it.
func (acc *Accessor) CreateWith(reuse *Cursor) (*Cursor, error) {
	if err := acc.own(reuse, []string{acc.schema.Name()}, "cursor to rebind"); err != nil {
		return nil, err
	}
	addr, err := acc.arena.Reserve(acc.schema.Size())
	if err != nil {
		return nil, err
	}
	reuse.addr = addr
	return reuse, nil
}

// CopyTo copies the whole record from one cursor to another.
func (acc *Accessor) CopyTo(from, to *Cursor) error {
	path := []string{acc.schema.Name()}
	if err := acc.own(from, path, "source record"); err != nil {
		return err
	}
	if err := acc.own(to, path, "target record"); err != nil {
		return err
	}
	return acc.arena.Copy(from.addr, to.addr, acc.schema.Size())
}

// CopyOf duplicates the record c is bound to into fresh storage.
func (acc *Accessor) CopyOf(c *Cursor) (*Cursor, error) {
	if err := acc.own(c, []string{acc.schema.Name()}, "source record"); err != nil {
		return nil, err
	}
	size := acc.schema.Size()
	addr, err := acc.arena.Reserve(size)
	if err != nil {
		return nil, err
	}
	if err := acc.arena.Copy(c.addr, addr, size); err != nil {
		return nil, err
	}
	return acc.View(addr), nil
}

// own checks that c is a cursor of this accessor's schema.
func (acc *Accessor) own(c *Cursor, path []string, what string) error {
	if c == nil {
		return errors.NilPointer(errors.PhaseAccess, path, what)
	}
	if c.acc.schema != acc.schema {
		return errors.TypeMismatch(errors.PhaseAccess, path, c.acc.schema.Name(), acc.schema.Name())
	}
	return nil
}

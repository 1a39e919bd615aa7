package recordkit

import (
	"go.uber.org/zap"

	"github.com/wippyai/recordkit/accessor"
	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

type entry struct {
	schema   *schema.Schema
	accessor *accessor.Accessor
}

// Registry owns the registered contracts of one arena. Schema ids are
// issued in registration order starting at 1.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	arena    *arena.Arena
	log      *zap.Logger
	byName   map[string]*entry
	entries  []*entry // entries[id-1]
	strategy schema.LayoutStrategy
}

type config struct {
	arena     *arena.Arena
	arenaOpts []arena.Option
	strategy  schema.LayoutStrategy
}

// Option configures New.
type Option func(*config)

// WithArena stores records in an existing arena.
func WithArena(a *arena.Arena) Option {
	return func(c *config) {
		c.arena = a
	}
}

// WithArenaOptions configures the arena New creates. Ignored together
// with WithArena.
func WithArenaOptions(opts ...arena.Option) Option {
	return func(c *config) {
		c.arenaOpts = append(c.arenaOpts, opts...)
	}
}

// WithLayout selects the layout strategy for every registration.
func WithLayout(s schema.LayoutStrategy) Option {
	return func(c *config) {
		c.strategy = s
	}
}

// New creates an empty registry.
func New(opts ...Option) (*Registry, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	a := c.arena
	if a == nil {
		var err error
		a, err = arena.New(c.arenaOpts...)
		if err != nil {
			return nil, err
		}
	}
	return &Registry{
		arena:    a,
		log:      Logger().With(zap.Stringer("arena", a.ID())),
		byName:   make(map[string]*entry),
		strategy: c.strategy,
	}, nil
}

// Register validates d, freezes its layout, issues its id and synthesizes
// its accessor. Registering an identical description again returns the
// existing schema; a different description under a taken name fails.
func (r *Registry) Register(d schema.Description) (*schema.Schema, error) {
	if e, ok := r.byName[d.Name]; ok {
		if e.schema.Fingerprint() == d.Fingerprint() {
			return e.schema, nil
		}
		return nil, errors.New(errors.PhaseRegister, errors.KindConflict).
			Path(d.Name).Detail("a different contract is registered under this name").Build()
	}

	s, err := schema.Compile(d, r, r.strategy)
	if err != nil {
		r.log.Debug("contract rejected", zap.String("schema", d.Name), zap.Error(err))
		return nil, err
	}
	if err := s.AssignID(uint32(len(r.entries) + 1)); err != nil {
		return nil, err
	}

	acc, err := accessor.Synthesize(s, r.arena, accessor.WithNested(r.nested))
	if err != nil {
		return nil, err
	}

	e := &entry{schema: s, accessor: acc}
	r.entries = append(r.entries, e)
	r.byName[s.Name()] = e
	r.log.Debug("contract registered",
		zap.String("schema", s.Name()),
		zap.Uint32("id", s.ID()),
		zap.Uint64("size", s.Size()),
		zap.Int("fields", len(s.Fields())),
		zap.Stringer("layout", s.Strategy()))
	return s, nil
}

// RegisterAll registers descriptions in order, as produced by
// schema.FromWIT and schema.LoadFile.
func (r *Registry) RegisterAll(ds []schema.Description) ([]*schema.Schema, error) {
	out := make([]*schema.Schema, 0, len(ds))
	for _, d := range ds {
		s, err := r.Register(d)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(d schema.Description) *schema.Schema {
	s, err := r.Register(d)
	if err != nil {
		panic(err)
	}
	return s
}

func (r *Registry) nested(s *schema.Schema) (*accessor.Accessor, bool) {
	if e, ok := r.byName[s.Name()]; ok && e.schema == s {
		return e.accessor, true
	}
	return nil, false
}

func (r *Registry) entry(id uint32) (*entry, error) {
	if id == 0 || int(id) > len(r.entries) {
		return nil, errors.New(errors.PhaseRegister, errors.KindNotFound).
			Value(id).Detail("schema id %d is not registered", id).Build()
	}
	return r.entries[id-1], nil
}

// Lookup finds a schema by name. It makes the registry a schema.Resolver.
func (r *Registry) Lookup(name string) (*schema.Schema, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// Schema finds a schema by id.
func (r *Registry) Schema(id uint32) (*schema.Schema, bool) {
	e, err := r.entry(id)
	if err != nil {
		return nil, false
	}
	return e.schema, true
}

// SchemaID returns the id issued for name.
func (r *Registry) SchemaID(name string) (uint32, bool) {
	e, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return e.schema.ID(), true
}

// Schemas returns every schema in id order.
func (r *Registry) Schemas() []*schema.Schema {
	out := make([]*schema.Schema, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.schema
	}
	return out
}

func (r *Registry) Accessor(id uint32) (*accessor.Accessor, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	return e.accessor, nil
}

// Of returns the accessor of the named schema.
func (r *Registry) Of(name string) (*accessor.Accessor, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegister, "schema", name)
	}
	return e.accessor, nil
}

// Create reserves a zeroed record of schema id.
func (r *Registry) Create(id uint32) (*accessor.Cursor, error) {
	acc, err := r.Accessor(id)
	if err != nil {
		return nil, err
	}
	return acc.Create()
}

// CreateWith reserves a zeroed record of reuse's schema and rebinds reuse
// to it.
func (r *Registry) CreateWith(reuse *accessor.Cursor) (*accessor.Cursor, error) {
	if reuse == nil {
		return nil, errors.NilPointer(errors.PhaseAccess, nil, "cursor to rebind")
	}
	return reuse.Accessor().CreateWith(reuse)
}

// View returns a new cursor of schema id bound to addr.
func (r *Registry) View(id uint32, addr arena.Address) (*accessor.Cursor, error) {
	acc, err := r.Accessor(id)
	if err != nil {
		return nil, err
	}
	return acc.View(addr), nil
}

// ViewWith rebinds reuse to addr.
func (r *Registry) ViewWith(reuse *accessor.Cursor, addr arena.Address) (*accessor.Cursor, error) {
	if reuse == nil {
		return nil, errors.NilPointer(errors.PhaseAccess, nil, "cursor to rebind")
	}
	return reuse.Bind(addr), nil
}

// Copy duplicates the record c is bound to.
func (r *Registry) Copy(c *accessor.Cursor) (*accessor.Cursor, error) {
	if c == nil {
		return nil, errors.NilPointer(errors.PhaseAccess, nil, "source record")
	}
	return c.Accessor().CopyOf(c)
}

// CopyTo overwrites the record to is bound to with the record from is
// bound to. Both must share a schema.
func (r *Registry) CopyTo(from, to *accessor.Cursor) error {
	if from == nil {
		return errors.NilPointer(errors.PhaseAccess, nil, "source record")
	}
	return from.Accessor().CopyTo(from, to)
}

// Array reserves n contiguous records of schema id.
func (r *Registry) Array(id uint32, n int) (*accessor.Sequence, error) {
	acc, err := r.Accessor(id)
	if err != nil {
		return nil, err
	}
	return acc.Sequence(n)
}

// ReleaseAll drops every record. Schemas and accessors stay registered;
// cursors bound before the call dangle.
func (r *Registry) ReleaseAll() error {
	return r.arena.ReleaseAll()
}

func (r *Registry) Arena() *arena.Arena {
	return r.arena
}

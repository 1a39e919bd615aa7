// Package schema describes fixed-layout record types.
//
// A contract is declared as a Description (directly, through a Builder,
// from a WIT record, or from a description file). Extract validates the
// description and produces a Schema; Layout assigns field offsets and
// freezes it. A frozen Schema is immutable.
package schema

import (
	"github.com/wippyai/recordkit/errors"
)

// Field is a named fixed-width slot inside a record.
type Field struct {
	Nested       *Schema // set when Kind is KindRecord
	Name         string
	Kind         Kind
	ElementWidth uint64
	ElementCount int
	Offset       uint64
}

// Type returns the external type callers see.
func (f *Field) Type() TypeRef {
	if f.Kind == KindRecord && f.Nested != nil {
		return RecordOf(f.Nested.Name())
	}
	return Of(f.Kind)
}

// Span returns the bytes the field occupies.
func (f *Field) Span() uint64 {
	return f.ElementWidth * uint64(f.ElementCount)
}

// IsArray reports whether the field holds more than a scalar.
func (f *Field) IsArray() bool {
	return f.ElementCount > 1
}

// Operation is a classified, validated operation.
type Operation struct {
	Field   *Field // nil for layout-independent actions
	Impl    StringHook
	Name    string
	Params  []TypeRef
	Returns TypeRef
	Action  ActionType
	Index   int // position in the schema's operation list
}

// Signature renders the operation as name(p1, p2) ret.
func (o *Operation) Signature() string {
	return OperationSpec{Name: o.Name, Params: o.Params, Returns: o.Returns}.Signature()
}

// LayoutStrategy selects how Layout orders fields.
type LayoutStrategy uint8

const (
	// DeclarationOrder packs fields in the order they were declared.
	DeclarationOrder LayoutStrategy = iota
	// SizeDescending packs larger fields first, ties broken by a hash
	// of the field name.
	SizeDescending
)

func (l LayoutStrategy) String() string {
	switch l {
	case DeclarationOrder:
		return "declaration"
	case SizeDescending:
		return "size"
	default:
		return "unknown"
	}
}

// ParseLayoutStrategy accepts the names printed by String.
func ParseLayoutStrategy(s string) (LayoutStrategy, error) {
	switch s {
	case "", "declaration":
		return DeclarationOrder, nil
	case "size":
		return SizeDescending, nil
	}
	return DeclarationOrder, errors.InvalidInput(errors.PhaseValidate, "unknown layout strategy "+s)
}

// Schema is the canonical layout of one contract.
type Schema struct {
	fieldIndex  map[string]*Field
	opIndex     map[string]*Operation
	name        string
	fingerprint string
	fields      []*Field
	ops         []*Operation
	size        uint64
	id          uint32
	strategy    LayoutStrategy
	frozen      bool
}

func newSchema(name string) *Schema {
	return &Schema{
		name:       name,
		fieldIndex: make(map[string]*Field),
		opIndex:    make(map[string]*Operation),
	}
}

func (s *Schema) Name() string {
	return s.name
}

// ID returns the registered id, 0 until assigned.
func (s *Schema) ID() uint32 {
	return s.id
}

// AssignID records the id a registry issued. It may be called once,
// after layout.
func (s *Schema) AssignID(id uint32) error {
	if !s.frozen {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			Path(s.name).Detail("schema has no layout").Build()
	}
	if s.id != 0 {
		return errors.New(errors.PhaseRegister, errors.KindConflict).
			Path(s.name).Detail("schema already has id %d", s.id).Build()
	}
	if id == 0 {
		return errors.InvalidInput(errors.PhaseRegister, "schema id 0 is reserved")
	}
	s.id = id
	return nil
}

// Fingerprint returns the canonical form of the description s came from.
func (s *Schema) Fingerprint() string {
	return s.fingerprint
}

// Frozen reports whether layout has run.
func (s *Schema) Frozen() bool {
	return s.frozen
}

// Strategy returns the layout strategy used to freeze s.
func (s *Schema) Strategy() LayoutStrategy {
	return s.strategy
}

// Size returns the total record size in bytes.
func (s *Schema) Size() uint64 {
	return s.size
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []*Field {
	return s.fields
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.fieldIndex[name]
	return f, ok
}

// FieldOffset returns the frozen offset of a field.
func (s *Schema) FieldOffset(name string) (uint64, bool) {
	f, ok := s.fieldIndex[name]
	if !ok || !s.frozen {
		return 0, false
	}
	return f.Offset, true
}

// Operations returns the operations in declaration order.
func (s *Schema) Operations() []*Operation {
	return s.ops
}

// Operation looks up an operation by name.
func (s *Schema) Operation(name string) (*Operation, bool) {
	op, ok := s.opIndex[name]
	return op, ok
}

// CustomString returns the custom string operation, if declared.
func (s *Schema) CustomString() (*Operation, bool) {
	for _, op := range s.ops {
		if op.Action == CustomString {
			return op, true
		}
	}
	return nil, false
}

func (s *Schema) addField(f *Field) {
	s.fields = append(s.fields, f)
	s.fieldIndex[f.Name] = f
}

func (s *Schema) addOperation(op *Operation) {
	op.Index = len(s.ops)
	s.ops = append(s.ops, op)
	s.opIndex[op.Name] = op
}

// Resolver finds previously registered contracts by name.
type Resolver interface {
	Lookup(name string) (*Schema, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (*Schema, bool)

func (f ResolverFunc) Lookup(name string) (*Schema, bool) {
	return f(name)
}

// Schemas is a Resolver over a fixed set of schemas.
type Schemas []*Schema

func (ss Schemas) Lookup(name string) (*Schema, bool) {
	for _, s := range ss {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

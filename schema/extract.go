package schema

import (
	"github.com/wippyai/recordkit/errors"
)

// reservedNames are taken by the cursor's own methods.
var reservedNames = map[string]bool{
	"bind":     true,
	"address":  true,
	"schema":   true,
	"accessor": true,
	"call":     true,
	"format":   true,
	"string":   true,
}

type extractor struct {
	resolver Resolver
	s        *Schema
	types    map[*Field]TypeRef
	lengths  map[*Field]int
	bound    map[*Field]map[ActionType]string
	desc     Description
}

// Extract validates a description and builds its schema without a layout.
// Nested contracts are looked up through r, which may be nil when d has
// no record fields.
func Extract(d Description, r Resolver) (*Schema, error) {
	if d.Name == "" {
		return nil, errors.InvalidInput(errors.PhaseValidate, "contract has no name")
	}
	x := &extractor{
		desc:     d,
		resolver: r,
		s:        newSchema(d.Name),
		types:    make(map[*Field]TypeRef),
		lengths:  make(map[*Field]int),
		bound:    make(map[*Field]map[ActionType]string),
	}
	x.s.fingerprint = d.Fingerprint()

	for _, fs := range d.Fields {
		if err := x.declareField(fs); err != nil {
			return nil, err
		}
	}
	for _, spec := range d.Operations {
		if err := x.declareOperation(spec); err != nil {
			return nil, err
		}
	}
	for _, f := range x.s.fields {
		if err := x.resolveField(f); err != nil {
			return nil, err
		}
	}
	for _, op := range x.s.ops {
		if err := x.checkShape(op); err != nil {
			return nil, err
		}
	}
	return x.s, nil
}

// Compile runs Extract and Layout.
func Compile(d Description, r Resolver, strategy LayoutStrategy) (*Schema, error) {
	s, err := Extract(d, r)
	if err != nil {
		return nil, err
	}
	if err := Layout(s, strategy); err != nil {
		return nil, err
	}
	return s, nil
}

func (x *extractor) path(name string) []string {
	return []string{x.desc.Name, name}
}

func (x *extractor) declareField(fs FieldSpec) error {
	if fs.Name == "" {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(x.desc.Name).Detail("field has no name").Build()
	}
	if fs.Kind == KindVoid {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(x.path(fs.Name)...).Detail("field has no type").Build()
	}
	if fs.Kind == KindRecord && fs.Schema == "" {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(x.path(fs.Name)...).Detail("record field names no contract").Build()
	}
	if fs.Length < 0 {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(x.path(fs.Name)...).Value(fs.Length).Detail("negative array length").Build()
	}

	ref := TypeRef{Kind: fs.Kind}
	if fs.Kind == KindRecord {
		ref.Schema = fs.Schema
	}
	f, err := x.field(fs.Name, ref, x.path(fs.Name))
	if err != nil {
		return err
	}
	if fs.Length > 0 {
		return x.setLength(f, fs.Length, x.path(fs.Name))
	}
	return nil
}

func (x *extractor) declareOperation(spec OperationSpec) error {
	path := x.path(spec.Name)
	if spec.Name == "" {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(x.desc.Name).Detail("operation has no name").Build()
	}
	if reservedNames[spec.Name] && !(spec.Name == "string" && spec.Action == CustomString) {
		return errors.ReservedName(path, spec.Name)
	}
	if _, dup := x.s.opIndex[spec.Name]; dup {
		return errors.New(errors.PhaseValidate, errors.KindReservedName).
			Path(path...).Value(spec.Name).Detail("name %q already declared", spec.Name).Build()
	}

	sh, ok := spec.Action.shape()
	if !ok {
		return errors.New(errors.PhaseValidate, errors.KindShape).
			Path(path...).Value(spec.Action).Detail("unknown action %d", spec.Action).Build()
	}

	switch {
	case spec.Action == CustomString && spec.Impl == nil:
		return errors.New(errors.PhaseValidate, errors.KindStub).
			Path(path...).Detail("custom string operation needs an implementation").Build()
	case spec.Action != CustomString && spec.Impl != nil:
		return errors.New(errors.PhaseValidate, errors.KindStub).
			Path(path...).Detail("%s operation must be declared without an implementation", spec.Action).Build()
	}

	op := &Operation{
		Name:    spec.Name,
		Action:  spec.Action,
		Params:  spec.Params,
		Returns: spec.Returns,
		Impl:    spec.Impl,
	}

	if !sh.field {
		if spec.Field != "" || spec.Length > 0 {
			return errors.New(errors.PhaseValidate, errors.KindShape).
				Path(path...).Detail("%s operation does not bind a field", spec.Action).Build()
		}
		x.s.addOperation(op)
		return nil
	}

	if spec.Field == "" {
		return errors.New(errors.PhaseValidate, errors.KindShape).
			Path(path...).Detail("%s operation needs a field", spec.Action).Build()
	}

	f, err := x.field(spec.Field, elementType(spec, sh), path)
	if err != nil {
		return err
	}
	if spec.Length < 0 {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(path...).Value(spec.Length).Detail("negative array length").Build()
	}
	if spec.Length > 0 {
		if err := x.setLength(f, spec.Length, path); err != nil {
			return err
		}
	}

	actions := x.bound[f]
	if actions == nil {
		actions = make(map[ActionType]string)
		x.bound[f] = actions
	}
	if other, taken := actions[spec.Action]; taken {
		return errors.New(errors.PhaseValidate, errors.KindConflict).
			Path(path...).Detail("field %q already has %s operation %q", f.Name, spec.Action, other).Build()
	}
	actions[spec.Action] = spec.Name

	op.Field = f
	x.s.addOperation(op)
	return nil
}

// elementType returns the field type an operation declares through its
// parameters or result, or Void when the shape does not reveal it.
func elementType(spec OperationSpec, sh shape) TypeRef {
	if sh.result == roleElement || sh.result == roleRecord {
		return spec.Returns
	}
	if i := sh.elementParam(); i >= 0 && i < len(spec.Params) {
		return spec.Params[i]
	}
	return Void
}

// field resolves or creates a field. A Void type leaves the field's type
// open until another declaration supplies it.
func (x *extractor) field(name string, t TypeRef, path []string) (*Field, error) {
	f, ok := x.s.fieldIndex[name]
	if !ok {
		f = &Field{Name: name}
		x.s.addField(f)
		x.types[f] = t
		return f, nil
	}

	known := x.types[f]
	switch {
	case t.IsVoid():
	case known.IsVoid():
		x.types[f] = t
	case known != t:
		return nil, errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
			Path(path...).Got(t.String()).Want(known.String()).
			Detail("field %q reused with a different type", name).Build()
	}
	return f, nil
}

func (x *extractor) setLength(f *Field, n int, path []string) error {
	if prev, ok := x.lengths[f]; ok && prev != n {
		return errors.ConflictingLength(path, prev, n)
	}
	x.lengths[f] = n
	return nil
}

func (x *extractor) resolveField(f *Field) error {
	path := x.path(f.Name)
	t := x.types[f]

	f.ElementCount = 1
	if n, ok := x.lengths[f]; ok {
		f.ElementCount = n
	}

	switch {
	case t.IsVoid():
		return errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
			Path(path...).Want("a concrete type").
			Detail("no operation declares the type of field %q", f.Name).Build()
	case t.Kind == KindString:
		return errors.NotPureContract(path, "string fields have no fixed width")
	case t.Kind == KindRecord:
		if t.Schema == x.desc.Name {
			return errors.NotPureContract(path, "contract contains itself")
		}
		var nested *Schema
		if x.resolver != nil {
			nested, _ = x.resolver.Lookup(t.Schema)
		}
		if nested == nil {
			return errors.New(errors.PhaseValidate, errors.KindNotFound).
				Path(path...).Value(t.Schema).
				Detail("nested contract %q is not registered", t.Schema).Build()
		}
		if !nested.Frozen() {
			return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
				Path(path...).Detail("nested contract %q has no layout", t.Schema).Build()
		}
		f.Kind = KindRecord
		f.Nested = nested
		f.ElementWidth = nested.Size()
	case t.Kind.IsPrimitive():
		f.Kind = t.Kind
		f.ElementWidth = t.Kind.Width()
	default:
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Path(path...).Got(t.String()).Detail("unsupported field type").Build()
	}
	return nil
}

func (x *extractor) checkShape(op *Operation) error {
	path := x.path(op.Name)
	sh, _ := op.Action.shape()
	f := op.Field

	required := len(sh.params) - sh.optional
	if len(op.Params) < required || len(op.Params) > len(sh.params) {
		return errors.Shape(path, op.Signature(), x.expected(op, sh))
	}
	for i, p := range op.Params {
		if !x.matches(p, sh.params[i], f) {
			return errors.Shape(path, op.Signature(), x.expected(op, sh))
		}
	}
	if sh.result == roleNone {
		if !op.Returns.IsVoid() {
			return errors.ReturnType(path, op.Returns.String(), "void")
		}
	} else if !x.matches(op.Returns, sh.result, f) {
		return errors.ReturnType(path, op.Returns.String(), x.roleName(sh.result, f))
	}

	if f == nil {
		return nil
	}
	if _, declared := x.lengths[f]; sh.indexed && !declared {
		return errors.New(errors.PhaseValidate, errors.KindShape).
			Path(path...).Detail("field %q is not an array", f.Name).Build()
	}
	if sh.numeric && !f.Kind.IsNumeric() {
		return errors.TypeMismatch(errors.PhaseValidate, path, f.Kind.String(), "a numeric type")
	}
	if sh.nested && f.Kind != KindRecord {
		return errors.TypeMismatch(errors.PhaseValidate, path, f.Kind.String(), "a record type")
	}
	return nil
}

func (x *extractor) matches(t TypeRef, r role, f *Field) bool {
	switch r {
	case roleIndex:
		return t.Kind >= KindU8 && t.Kind <= KindS64
	case roleElement:
		return f != nil && t == f.Type()
	case roleRecord:
		return f != nil && f.Kind == KindRecord && t == f.Type()
	case roleSelf:
		return t == RecordOf(x.desc.Name)
	case roleID:
		return t.Kind == KindU64
	case roleCount:
		return t.Kind == KindS32
	case roleText:
		return t.Kind == KindString
	}
	return false
}

func (x *extractor) roleName(r role, f *Field) string {
	switch r {
	case roleIndex:
		return "s32"
	case roleElement, roleRecord:
		if f != nil {
			return f.Type().String()
		}
		return "field type"
	case roleSelf:
		return x.desc.Name
	case roleID:
		return "u64"
	case roleCount:
		return "s32"
	case roleText:
		return "string"
	}
	return "void"
}

func (x *extractor) expected(op *Operation, sh shape) string {
	params := make([]TypeRef, len(sh.params))
	for i, r := range sh.params {
		params[i] = ParseTypeRef(x.roleName(r, op.Field))
	}
	return OperationSpec{Name: op.Name, Params: params}.Signature()
}

package schema

import (
	"unicode"
	"unicode/utf8"
)

// Builder assembles a Description with canonically named operations.
//
//	b := schema.NewBuilder("Point")
//	b.Field("x", schema.KindS32).Get().Set()
//	b.Array("history", schema.KindF64, 8).GetAt().SetAt().Size()
//	b.Copy().View()
//	d := b.Description()
type Builder struct {
	d Description
}

// NewBuilder starts a contract called name.
func NewBuilder(name string) *Builder {
	return &Builder{d: Description{Name: name}}
}

// FieldBuilder adds operations bound to one field.
type FieldBuilder struct {
	b    *Builder
	name string
	elem TypeRef
	arr  bool
}

// Field declares a scalar primitive field.
func (b *Builder) Field(name string, k Kind) *FieldBuilder {
	return b.field(FieldSpec{Name: name, Kind: k})
}

// Array declares a primitive array field of n elements.
func (b *Builder) Array(name string, k Kind, n int) *FieldBuilder {
	return b.field(FieldSpec{Name: name, Kind: k, Length: n})
}

// Record declares a field holding one record of a registered contract.
func (b *Builder) Record(name, contract string) *FieldBuilder {
	return b.field(FieldSpec{Name: name, Kind: KindRecord, Schema: contract})
}

// RecordArray declares a field holding n records of a registered contract.
func (b *Builder) RecordArray(name, contract string, n int) *FieldBuilder {
	return b.field(FieldSpec{Name: name, Kind: KindRecord, Schema: contract, Length: n})
}

func (b *Builder) field(fs FieldSpec) *FieldBuilder {
	b.d.Fields = append(b.d.Fields, fs)
	return &FieldBuilder{
		b:    b,
		name: fs.Name,
		elem: TypeRef{Kind: fs.Kind, Schema: fs.Schema},
		arr:  fs.Length > 0,
	}
}

func (b *Builder) op(spec OperationSpec) *Builder {
	b.d.Operations = append(b.d.Operations, spec)
	return b
}

// Accessors adds the default read and write operations to every field.
func (b *Builder) Accessors() *Builder {
	for _, fs := range b.d.Fields {
		fb := &FieldBuilder{
			b:    b,
			name: fs.Name,
			elem: TypeRef{Kind: fs.Kind, Schema: fs.Schema},
			arr:  fs.Length > 0,
		}
		fb.Accessors()
	}
	return b
}

// RecordID adds getRecordId and setRecordId.
func (b *Builder) RecordID() *Builder {
	b.op(OperationSpec{Name: "getRecordId", Action: GetRecordID, Returns: Of(KindU64)})
	return b.op(OperationSpec{Name: "setRecordId", Action: SetRecordID, Params: []TypeRef{Of(KindU64)}})
}

// SchemaID adds getSchemaId.
func (b *Builder) SchemaID() *Builder {
	return b.op(OperationSpec{Name: "getSchemaId", Action: GetSchemaID, Returns: Of(KindS32)})
}

// RecordSize adds getRecordSize.
func (b *Builder) RecordSize() *Builder {
	return b.op(OperationSpec{Name: "getRecordSize", Action: GetRecordSize, Returns: Of(KindS32)})
}

// Copy adds copy.
func (b *Builder) Copy() *Builder {
	return b.op(OperationSpec{Name: "copy", Action: Copy, Returns: RecordOf(b.d.Name)})
}

// CopyFrom adds copyFrom.
func (b *Builder) CopyFrom() *Builder {
	return b.op(OperationSpec{Name: "copyFrom", Action: CopyFrom, Params: []TypeRef{RecordOf(b.d.Name)}})
}

// View adds view.
func (b *Builder) View() *Builder {
	return b.op(OperationSpec{Name: "view", Action: View, Returns: RecordOf(b.d.Name)})
}

// StringHook adds the custom string operation.
func (b *Builder) StringHook(fn StringHook) *Builder {
	return b.op(OperationSpec{Name: "string", Action: CustomString, Returns: Of(KindString), Impl: fn})
}

// Operation appends a hand-written operation.
func (b *Builder) Operation(spec OperationSpec) *Builder {
	return b.op(spec)
}

// Description returns the assembled contract.
func (b *Builder) Description() Description {
	d := b.d
	d.Fields = append([]FieldSpec(nil), b.d.Fields...)
	d.Operations = append([]OperationSpec(nil), b.d.Operations...)
	return d
}

func (fb *FieldBuilder) add(prefix, suffix string, action ActionType, params []TypeRef, returns TypeRef) *FieldBuilder {
	fb.b.op(OperationSpec{
		Name:    prefix + exported(fb.name) + suffix,
		Action:  action,
		Field:   fb.name,
		Params:  params,
		Returns: returns,
	})
	return fb
}

// Get adds getX.
func (fb *FieldBuilder) Get() *FieldBuilder {
	return fb.add("get", "", GetValue, nil, fb.elem)
}

// GetAt adds getXAt.
func (fb *FieldBuilder) GetAt() *FieldBuilder {
	return fb.add("get", "At", GetValueAt, []TypeRef{Index}, fb.elem)
}

// GetWith adds getXWith, which rebinds a caller-supplied cursor.
func (fb *FieldBuilder) GetWith() *FieldBuilder {
	return fb.add("get", "With", GetValueWith, []TypeRef{fb.elem}, fb.elem)
}

// GetWithAt adds getXWithAt.
func (fb *FieldBuilder) GetWithAt() *FieldBuilder {
	return fb.add("get", "WithAt", GetValueWithAt, []TypeRef{Index, fb.elem}, fb.elem)
}

// Set adds setX.
func (fb *FieldBuilder) Set() *FieldBuilder {
	return fb.add("set", "", SetValue, []TypeRef{fb.elem}, Void)
}

// SetAt adds setXAt.
func (fb *FieldBuilder) SetAt() *FieldBuilder {
	return fb.add("set", "At", SetValueAt, []TypeRef{Index, fb.elem}, Void)
}

// Size adds getXSize.
func (fb *FieldBuilder) Size() *FieldBuilder {
	return fb.add("get", "Size", GetArraySize, nil, Of(KindS32))
}

// Increase adds increaseX.
func (fb *FieldBuilder) Increase() *FieldBuilder {
	return fb.add("increase", "", IncreaseValue, nil, Void)
}

// IncreaseBy adds increaseXBy.
func (fb *FieldBuilder) IncreaseBy() *FieldBuilder {
	return fb.add("increase", "By", IncreaseValueBy, []TypeRef{fb.elem}, Void)
}

// Decrease adds decreaseX.
func (fb *FieldBuilder) Decrease() *FieldBuilder {
	return fb.add("decrease", "", DecreaseValue, nil, Void)
}

// DecreaseBy adds decreaseXBy.
func (fb *FieldBuilder) DecreaseBy() *FieldBuilder {
	return fb.add("decrease", "By", DecreaseValueBy, []TypeRef{fb.elem}, Void)
}

// Accessors adds the default operations for the field's shape: get and
// set for scalars, indexed get/set plus size for arrays, and the
// rebinding getters for records.
func (fb *FieldBuilder) Accessors() *FieldBuilder {
	nested := fb.elem.Kind == KindRecord
	if fb.arr {
		fb.GetAt().SetAt().Size()
		if nested {
			fb.GetWithAt()
		}
		return fb
	}
	fb.Get().Set()
	if nested {
		fb.GetWith()
	}
	return fb
}

// exported upper-cases the first letter of a field name.
func exported(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[n:]
}

package schema

import (
	"fmt"
	"strings"
)

// TypeRef names a parameter or result type. The zero TypeRef is void.
type TypeRef struct {
	Schema string // contract name when Kind is KindRecord
	Kind   Kind
}

// Void is the empty result.
var Void = TypeRef{}

// Index is the type of element index parameters.
var Index = TypeRef{Kind: KindS32}

// Of returns the reference to a primitive kind.
func Of(k Kind) TypeRef {
	return TypeRef{Kind: k}
}

// RecordOf returns the reference to a named contract.
func RecordOf(name string) TypeRef {
	return TypeRef{Kind: KindRecord, Schema: name}
}

// ParseTypeRef accepts a kind name or a contract name.
func ParseTypeRef(s string) TypeRef {
	if k, err := ParseKind(s); err == nil && k != KindRecord {
		return TypeRef{Kind: k}
	}
	return RecordOf(s)
}

func (t TypeRef) IsVoid() bool {
	return t.Kind == KindVoid
}

func (t TypeRef) String() string {
	if t.Kind == KindRecord {
		return t.Schema
	}
	return t.Kind.String()
}

// StringHook renders a record for Cursor.String.
type StringHook func(r Record) string

// Record is the read side of a cursor handed to hooks.
type Record interface {
	Schema() *Schema
	Get(op string) (Value, error)
	GetAt(op string, index int) (Value, error)
}

// FieldSpec declares a field up front. Fields referenced only by
// operations are created on demand.
type FieldSpec struct {
	Name   string
	Schema string // nested contract name when Kind is KindRecord
	Kind   Kind
	Length int // element count; 0 means scalar
}

// OperationSpec declares one operation of a contract.
type OperationSpec struct {
	Impl    StringHook
	Name    string
	Field   string
	Params  []TypeRef
	Returns TypeRef
	Action  ActionType
	Length  int // element count metadata for the field
}

// Signature renders the operation as name(p1, p2) ret.
func (o OperationSpec) Signature() string {
	params := make([]string, len(o.Params))
	for i, p := range o.Params {
		params[i] = p.String()
	}
	sig := o.Name + "(" + strings.Join(params, ", ") + ")"
	if !o.Returns.IsVoid() {
		sig += " " + o.Returns.String()
	}
	return sig
}

// Description is a declarative capability contract.
type Description struct {
	Name       string
	Fields     []FieldSpec
	Operations []OperationSpec
}

// Fingerprint renders d canonically. Two descriptions with the same
// fingerprint describe the same contract. Hook identity is not compared.
func (d Description) Fingerprint() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('{')
	for _, f := range d.Fields {
		ref := TypeRef{Kind: f.Kind, Schema: f.Schema}
		fmt.Fprintf(&b, "%s:%s[%d];", f.Name, ref, f.Length)
	}
	b.WriteByte('|')
	for _, o := range d.Operations {
		fmt.Fprintf(&b, "%s=%s@%s[%d]", o.Signature(), o.Action, o.Field, o.Length)
		if o.Impl != nil {
			b.WriteString("+impl")
		}
		b.WriteByte(';')
	}
	b.WriteByte('}')
	return b.String()
}

package schema

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/wippyai/recordkit/errors"
)

type fileField struct {
	Name   string   `mapstructure:"name"`
	Type   string   `mapstructure:"type"`
	Length int      `mapstructure:"length"`
	Ops    []string `mapstructure:"ops"`
}

type fileContract struct {
	Name   string      `mapstructure:"name"`
	Fields []fileField `mapstructure:"fields"`
	Ops    []string    `mapstructure:"ops"`
}

// LoadFile reads contract descriptions from a YAML, JSON or TOML file:
//
//	schemas:
//	  - name: Point
//	    fields:
//	      - {name: x, type: s32}
//	      - {name: history, type: f64, length: 8, ops: [getAt, setAt, size]}
//	    ops: [copy, view]
//
// A field without ops gets the default accessors. A field whose type is
// not a primitive name refers to another contract, which must appear
// earlier in the file or be registered already.
func LoadFile(path string) ([]Description, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Load("read "+path, err)
	}

	var contracts []fileContract
	if err := v.UnmarshalKey("schemas", &contracts); err != nil {
		return nil, errors.Load("decode "+path, err)
	}
	if len(contracts) == 0 {
		return nil, errors.Load(path+" declares no schemas", nil)
	}

	out := make([]Description, 0, len(contracts))
	for _, c := range contracts {
		d, err := c.description()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c fileContract) description() (Description, error) {
	if c.Name == "" {
		return Description{}, errors.Load("schema entry has no name", nil)
	}
	b := NewBuilder(c.Name)

	for _, f := range c.Fields {
		if f.Type == "" {
			return Description{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Path(c.Name, f.Name).Detail("field has no type").Build()
		}
		ref := ParseTypeRef(f.Type)
		fb := b.field(FieldSpec{Name: f.Name, Kind: ref.Kind, Schema: ref.Schema, Length: f.Length})
		if len(f.Ops) == 0 {
			fb.Accessors()
			continue
		}
		for _, name := range f.Ops {
			if err := fb.action(name); err != nil {
				return Description{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
					Path(c.Name, f.Name).Cause(err).Build()
			}
		}
	}

	for _, name := range c.Ops {
		if err := b.action(name); err != nil {
			return Description{}, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Path(c.Name).Cause(err).Build()
		}
	}
	return b.Description(), nil
}

// action adds the field operation named by an action name.
func (fb *FieldBuilder) action(name string) error {
	a, ok := ParseAction(name)
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	switch a {
	case GetValue:
		fb.Get()
	case GetValueAt:
		fb.GetAt()
	case GetValueWith:
		fb.GetWith()
	case GetValueWithAt:
		fb.GetWithAt()
	case SetValue:
		fb.Set()
	case SetValueAt:
		fb.SetAt()
	case GetArraySize:
		fb.Size()
	case IncreaseValue:
		fb.Increase()
	case IncreaseValueBy:
		fb.IncreaseBy()
	case DecreaseValue:
		fb.Decrease()
	case DecreaseValueBy:
		fb.DecreaseBy()
	default:
		return fmt.Errorf("%q is not a field operation", name)
	}
	return nil
}

// action adds the contract-level operation named by an action name.
func (b *Builder) action(name string) error {
	a, ok := ParseAction(name)
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}
	switch a {
	case GetRecordID:
		b.op(OperationSpec{Name: "getRecordId", Action: GetRecordID, Returns: Of(KindU64)})
	case SetRecordID:
		b.op(OperationSpec{Name: "setRecordId", Action: SetRecordID, Params: []TypeRef{Of(KindU64)}})
	case GetSchemaID:
		b.SchemaID()
	case GetRecordSize:
		b.RecordSize()
	case Copy:
		b.Copy()
	case CopyFrom:
		b.CopyFrom()
	case View:
		b.View()
	case CustomString:
		return fmt.Errorf("%q needs a Go implementation", name)
	default:
		return fmt.Errorf("%q is a field operation", name)
	}
	return nil
}

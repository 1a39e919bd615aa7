package schema

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/recordkit/errors"
)

// FromWIT converts a named WIT record into descriptions. Records nested
// inside it come first, in the order they must be registered; the
// description for td is last. Every field gets default accessors.
//
// Only fixed-width types qualify: primitives other than string, nested
// records, aliases of those, and tuples whose elements share one
// primitive type (stored as arrays). Resources, handles, lists and the
// other variable-size types are rejected.
func FromWIT(td *wit.TypeDef) ([]Description, error) {
	c := &witConverter{seen: make(map[*wit.TypeDef]string)}
	if _, err := c.record(td, nil); err != nil {
		return nil, err
	}
	return c.out, nil
}

type witConverter struct {
	seen map[*wit.TypeDef]string
	out  []Description
}

func (c *witConverter) record(td *wit.TypeDef, path []string) (string, error) {
	if td == nil {
		return "", errors.NilPointer(errors.PhaseLoad, path, "type definition")
	}
	if name, ok := c.seen[td]; ok {
		return name, nil
	}
	if td.Name == nil || *td.Name == "" {
		return "", errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(path...).Detail("record type has no name").Build()
	}
	name := *td.Name
	path = append(path, name)

	rec, ok := td.Kind.(*wit.Record)
	if !ok {
		return "", errors.NotPureContract(path, fmt.Sprintf("%s is a %s, not a record", name, witKindName(td.Kind)))
	}
	// guard against cycles before descending
	c.seen[td] = name

	b := NewBuilder(name)
	for _, f := range rec.Fields {
		fname := camel(f.Name)
		fpath := append(path[:len(path):len(path)], fname)
		if err := c.field(b, fname, f.Type, fpath); err != nil {
			return "", err
		}
	}
	b.Accessors()
	c.out = append(c.out, b.Description())
	return name, nil
}

func (c *witConverter) field(b *Builder, name string, t wit.Type, path []string) error {
	if k, ok := kindOfWIT(t); ok {
		if k == KindString {
			return errors.NotPureContract(path, "string has no fixed width")
		}
		b.Field(name, k)
		return nil
	}

	td, ok := t.(*wit.TypeDef)
	if !ok {
		return errors.NotPureContract(path, fmt.Sprintf("unsupported type %T", t))
	}

	switch kind := td.Kind.(type) {
	case *wit.Record:
		nested, err := c.record(td, path[:len(path)-1])
		if err != nil {
			return err
		}
		b.Record(name, nested)
		return nil

	case *wit.Tuple:
		if len(kind.Types) == 0 {
			return errors.NotPureContract(path, "empty tuple")
		}
		k, ok := kindOfWIT(kind.Types[0])
		if !ok || k == KindString {
			return errors.NotPureContract(path, "tuple elements must be fixed-width primitives")
		}
		for _, et := range kind.Types[1:] {
			if ek, _ := kindOfWIT(et); ek != k {
				return errors.NotPureContract(path, "tuple elements must share one type")
			}
		}
		b.Array(name, k, len(kind.Types))
		return nil

	case wit.Type:
		return c.field(b, name, kind, path)

	default:
		return errors.NotPureContract(path, fmt.Sprintf("%s carries no fixed layout", witKindName(td.Kind)))
	}
}

func witKindName(k wit.TypeDefKind) string {
	switch k.(type) {
	case *wit.Record:
		return "record"
	case *wit.Variant:
		return "variant"
	case *wit.Enum:
		return "enum"
	case *wit.Flags:
		return "flags"
	case *wit.List:
		return "list"
	case *wit.Option:
		return "option"
	case *wit.Result:
		return "result"
	case *wit.Tuple:
		return "tuple"
	case *wit.Own:
		return "own handle"
	case *wit.Borrow:
		return "borrow handle"
	default:
		return fmt.Sprintf("%T", k)
	}
}

// camel turns a kebab-case WIT identifier into lowerCamelCase.
func camel(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		parts[i] = exported(parts[i])
	}
	return strings.Join(parts, "")
}

package schema

import (
	"cmp"
	"hash/fnv"
	"slices"

	"github.com/wippyai/recordkit/errors"
)

// Layout assigns every field an offset and freezes s.
// Offsets are packed without padding; the total size is the sum of
// element width times element count over all fields.
func Layout(s *Schema, strategy LayoutStrategy) error {
	if s.frozen {
		return errors.New(errors.PhaseValidate, errors.KindFrozen).
			Path(s.name).Detail("layout already computed").Build()
	}

	order := s.fields
	switch strategy {
	case DeclarationOrder:
	case SizeDescending:
		order = slices.Clone(s.fields)
		slices.SortStableFunc(order, func(a, b *Field) int {
			if c := cmp.Compare(b.Span(), a.Span()); c != 0 {
				return c
			}
			return cmp.Compare(nameHash(a.Name), nameHash(b.Name))
		})
	default:
		return errors.InvalidInput(errors.PhaseValidate, "unknown layout strategy "+strategy.String())
	}

	var running uint64
	for _, f := range order {
		f.Offset = running
		running += f.Span()
	}

	s.size = running
	s.strategy = strategy
	s.frozen = true
	return nil
}

func nameHash(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

package accessor

import (
	"iter"

	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/errors"
)

// Sequence is a contiguous run of records of one schema, reserved in a
// single arena call. Slot i lives at From() + i*Size.
type Sequence struct {
	acc    *Accessor
	cursor *Cursor
	from   arena.Address
	count  int
}

// Sequence reserves n zeroed records back to back.
func (acc *Accessor) Sequence(n int) (*Sequence, error) {
	if n < 0 {
		return nil, errors.New(errors.PhaseAccess, errors.KindInvalidInput).
			Path(acc.schema.Name()).Value(n).Detail("negative sequence length").Build()
	}
	from, err := acc.arena.Reserve(acc.schema.Size() * uint64(n))
	if err != nil {
		return nil, err
	}
	return &Sequence{
		acc:    acc,
		cursor: acc.View(from),
		from:   from,
		count:  n,
	}, nil
}

func (s *Sequence) Len() int {
	return s.count
}

// From returns the address of slot 0.
func (s *Sequence) From() arena.Address {
	return s.from
}

func (s *Sequence) Accessor() *Accessor {
	return s.acc
}

func (s *Sequence) slot(i int) (arena.Address, error) {
	if i < 0 || i >= s.count {
		return 0, errors.OutOfBounds(errors.PhaseAccess, []string{s.acc.schema.Name()}, i, s.count)
	}
	return s.from + arena.Address(uint64(i)*s.acc.schema.Size()), nil
}

// At rebinds the sequence's shared cursor to slot i. The cursor is only
// valid until the next At call.
func (s *Sequence) At(i int) (*Cursor, error) {
	return s.AtWith(i, s.cursor)
}

// AtWith rebinds c to slot i.
func (s *Sequence) AtWith(i int, c *Cursor) (*Cursor, error) {
	path := []string{s.acc.schema.Name()}
	if err := s.acc.own(c, path, "cursor to rebind"); err != nil {
		return nil, err
	}
	addr, err := s.slot(i)
	if err != nil {
		return nil, err
	}
	c.addr = addr
	return c, nil
}

// Set copies the record c is bound to into slot i.
func (s *Sequence) Set(i int, c *Cursor) error {
	if err := s.acc.own(c, []string{s.acc.schema.Name()}, "source record"); err != nil {
		return err
	}
	addr, err := s.slot(i)
	if err != nil {
		return err
	}
	return s.acc.arena.Copy(c.addr, addr, s.acc.schema.Size())
}

// All yields every slot through one reused cursor.
func (s *Sequence) All() iter.Seq2[int, *Cursor] {
	return func(yield func(int, *Cursor) bool) {
		c := s.acc.View(s.from)
		size := arena.Address(s.acc.schema.Size())
		for i := range s.count {
			c.addr = s.from + arena.Address(i)*size
			if !yield(i, c) {
				return
			}
		}
	}
}

package recordkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/recordkit/arena"
	rkerrors "github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

func pointDescription() schema.Description {
	b := schema.NewBuilder("Point")
	b.Field("x", schema.KindS32).Get().Set()
	b.Field("y", schema.KindS32).Get().Set()
	b.Copy()
	return b.Description()
}

func lineDescription() schema.Description {
	b := schema.NewBuilder("Line")
	b.Record("from", "Point").Accessors()
	b.Record("to", "Point").Accessors()
	b.Field("width", schema.KindU8).Accessors()
	return b.Description()
}

func TestRegisterIssuesIDs(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	point, err := reg.Register(pointDescription())
	require.NoError(t, err)
	line, err := reg.Register(lineDescription())
	require.NoError(t, err)

	assert.Equal(t, uint32(1), point.ID())
	assert.Equal(t, uint32(2), line.ID())
	assert.Equal(t, uint64(8+8+1), line.Size())

	id, ok := reg.SchemaID("Line")
	assert.True(t, ok)
	assert.Equal(t, uint32(2), id)

	s, ok := reg.Schema(1)
	assert.True(t, ok)
	assert.Same(t, point, s)

	_, ok = reg.Schema(0)
	assert.False(t, ok, "id 0 is never issued")
	_, ok = reg.Schema(3)
	assert.False(t, ok)

	assert.Equal(t, []*schema.Schema{point, line}, reg.Schemas())
}

func TestRegisterIdempotent(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	first, err := reg.Register(pointDescription())
	require.NoError(t, err)
	again, err := reg.Register(pointDescription())
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Len(t, reg.Schemas(), 1)

	other := schema.NewBuilder("Point")
	other.Field("x", schema.KindF64).Get()
	_, err = reg.Register(other.Description())
	assert.True(t, errors.Is(err, &rkerrors.Error{Phase: rkerrors.PhaseRegister, Kind: rkerrors.KindConflict}), "got %v", err)
}

func TestRegisterFailureLeavesNoTrace(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	_, err = reg.Register(lineDescription())
	assert.True(t, errors.Is(err, rkerrors.ErrSchemaValidation), "got %v", err)
	assert.Empty(t, reg.Schemas())

	point, err := reg.Register(pointDescription())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), point.ID())
}

func TestMustRegisterPanics(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)
	assert.Panics(t, func() { reg.MustRegister(lineDescription()) })
}

func TestCreateAndNested(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)
	point := reg.MustRegister(pointDescription())
	line := reg.MustRegister(lineDescription())

	l, err := reg.Create(line.ID())
	require.NoError(t, err)
	p, err := reg.Create(point.ID())
	require.NoError(t, err)
	require.NoError(t, p.Set("setX", schema.ValueOf(int32(4))))
	require.NoError(t, l.SetRecord("setTo", p))

	to, err := l.GetRecord("getTo")
	require.NoError(t, err)
	pointAcc, err := reg.Of("Point")
	require.NoError(t, err)
	assert.Same(t, pointAcc, to.Accessor(), "nested cursors use the registered accessor")
	assert.Equal(t, "{from: {x: 0, y: 0}, to: {x: 4, y: 0}, width: 0}", l.String())

	_, err = reg.Create(9)
	assert.True(t, errors.Is(err, &rkerrors.Error{Phase: rkerrors.PhaseRegister, Kind: rkerrors.KindNotFound}), "got %v", err)
	_, err = reg.Of("Circle")
	assert.True(t, errors.Is(err, &rkerrors.Error{Phase: rkerrors.PhaseRegister, Kind: rkerrors.KindNotFound}), "got %v", err)
}

func TestViewCopyAndReuse(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)
	point := reg.MustRegister(pointDescription())

	p, err := reg.Create(point.ID())
	require.NoError(t, err)
	require.NoError(t, p.Set("setY", schema.ValueOf(int32(-8))))

	view, err := reg.View(point.ID(), p.Address())
	require.NoError(t, err)
	v, _ := view.Get("getY")
	assert.Equal(t, int64(-8), v.Int())

	dup, err := reg.Copy(p)
	require.NoError(t, err)
	assert.NotEqual(t, p.Address(), dup.Address())
	v, _ = dup.Get("getY")
	assert.Equal(t, int64(-8), v.Int())

	fresh, err := reg.CreateWith(view)
	require.NoError(t, err)
	assert.Same(t, view, fresh)
	assert.NotEqual(t, p.Address(), fresh.Address())

	require.NoError(t, reg.CopyTo(p, fresh))
	v, _ = fresh.Get("getY")
	assert.Equal(t, int64(-8), v.Int())

	back, err := reg.ViewWith(fresh, p.Address())
	require.NoError(t, err)
	assert.Equal(t, p.Address(), back.Address())

	_, err = reg.Copy(nil)
	assert.True(t, errors.Is(err, &rkerrors.Error{Phase: rkerrors.PhaseAccess, Kind: rkerrors.KindNilPointer}), "got %v", err)
}

func TestArrayAndRelease(t *testing.T) {
	a, err := arena.New(arena.WithBlockSize(256), arena.WithOverProvision(16))
	require.NoError(t, err)
	reg, err := New(WithArena(a))
	require.NoError(t, err)
	assert.Same(t, a, reg.Arena())
	point := reg.MustRegister(pointDescription())

	seq, err := reg.Array(point.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
	first := seq.From()

	require.NoError(t, reg.ReleaseAll())
	seq, err = reg.Array(point.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, first, seq.From(), "addressing restarts after release")

	c, err := seq.At(1)
	require.NoError(t, err)
	v, _ := c.Get("getX")
	assert.Equal(t, int64(0), v.Int())
}

func TestSizeDescendingLayout(t *testing.T) {
	reg, err := New(WithLayout(schema.SizeDescending))
	require.NoError(t, err)

	b := schema.NewBuilder("Sample")
	b.Field("flag", schema.KindBool).Accessors()
	b.Field("value", schema.KindF64).Accessors()
	s := reg.MustRegister(b.Description())

	off, _ := s.FieldOffset("value")
	assert.Equal(t, uint64(0), off)
	off, _ = s.FieldOffset("flag")
	assert.Equal(t, uint64(8), off)
	assert.Equal(t, schema.SizeDescending, s.Strategy())
}

package accessor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/recordkit/arena"
	rkerrors "github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

// fixture compiles descriptions in order and assigns ids from 1.
type fixture struct {
	t       *testing.T
	arena   *arena.Arena
	schemas schema.Schemas
	built   map[*schema.Schema]*Accessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a, err := arena.New()
	require.NoError(t, err)
	return &fixture{t: t, arena: a, built: make(map[*schema.Schema]*Accessor)}
}

func newWasmFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	w, err := arena.NewWasm(ctx, 16)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close(ctx) })
	a, err := arena.New(arena.WithBacking(w))
	require.NoError(t, err)
	return &fixture{t: t, arena: a, built: make(map[*schema.Schema]*Accessor)}
}

func (f *fixture) register(b *schema.Builder) *Accessor {
	f.t.Helper()
	s, err := schema.Compile(b.Description(), f.schemas, schema.DeclarationOrder)
	require.NoError(f.t, err)
	require.NoError(f.t, s.AssignID(uint32(len(f.schemas)+1)))
	f.schemas = append(f.schemas, s)

	acc, err := Synthesize(s, f.arena, WithNested(func(n *schema.Schema) (*Accessor, bool) {
		acc, ok := f.built[n]
		return acc, ok
	}))
	require.NoError(f.t, err)
	f.built[s] = acc
	return acc
}

func (f *fixture) create(acc *Accessor) *Cursor {
	f.t.Helper()
	c, err := acc.Create()
	require.NoError(f.t, err)
	return c
}

func isKind(err error, phase rkerrors.Phase, kind rkerrors.Kind) bool {
	return errors.Is(err, &rkerrors.Error{Phase: phase, Kind: kind})
}

func TestSingleFieldCopy(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Box")
	b.Field("value", schema.KindS32).Get().Set()
	b.Copy()
	acc := f.register(b)

	c := f.create(acc)
	v, err := c.Get("getValue")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Int())

	require.NoError(t, c.Set("setValue", schema.ValueOf(int32(5))))
	dup, err := c.Copy("copy")
	require.NoError(t, err)

	v, err = dup.Get("getValue")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int())
	assert.NotEqual(t, c.Address(), dup.Address())

	// the copy is independent of the original
	require.NoError(t, dup.Set("setValue", schema.ValueOf(int32(9))))
	v, _ = c.Get("getValue")
	assert.Equal(t, int64(5), v.Int())
}

func TestArrayField(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Slots")
	b.Array("slot", schema.KindU16, 3).GetAt().SetAt().Size()
	acc := f.register(b)
	c := f.create(acc)

	require.NoError(t, c.SetAt("setSlotAt", 2, schema.ValueOf(uint16(7))))
	v, err := c.GetAt("getSlotAt", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.Uint())
	v, err = c.GetAt("getSlotAt", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v.Uint())

	n, err := c.ArraySize("getSlotSize")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, i := range []int{-1, 3, 100} {
		_, err := c.GetAt("getSlotAt", i)
		assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindOutOfBounds), "index %d: %v", i, err)
		err = c.SetAt("setSlotAt", i, schema.ValueOf(uint16(1)))
		assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindOutOfBounds), "index %d: %v", i, err)
	}
}

func nestedFixture(t *testing.T) (*fixture, *Accessor, *Accessor) {
	f := newFixture(t)
	ib := schema.NewBuilder("Inner")
	ib.Field("a", schema.KindU8).Accessors()
	ib.Field("b", schema.KindS64).Accessors()
	inner := f.register(ib)

	ob := schema.NewBuilder("Outer")
	ob.Field("tag", schema.KindU32).Accessors()
	ob.Record("inner", "Inner").Accessors()
	ob.RecordArray("items", "Inner", 2).Accessors()
	outer := f.register(ob)
	return f, inner, outer
}

func TestNestedRebindAliases(t *testing.T) {
	f, inner, outer := nestedFixture(t)
	o := f.create(outer)
	reuse := inner.View(0)

	got, err := o.GetWith("getInnerWith", reuse)
	require.NoError(t, err)
	assert.Same(t, reuse, got)
	off, _ := outer.Schema().FieldOffset("inner")
	assert.Equal(t, o.Address()+arena.Address(off), reuse.Address())

	require.NoError(t, reuse.Set("setB", schema.ValueOf(int64(-42))))
	view, err := o.GetRecord("getInner")
	require.NoError(t, err)
	v, err := view.Get("getB")
	require.NoError(t, err)
	assert.Equal(t, int64(-42), v.Int())
}

func TestNestedSetCopies(t *testing.T) {
	f, inner, outer := nestedFixture(t)
	o := f.create(outer)
	src := f.create(inner)
	require.NoError(t, src.Set("setA", schema.ValueOf(uint8(3))))
	require.NoError(t, src.Set("setB", schema.ValueOf(int64(1<<40))))

	require.NoError(t, o.SetRecord("setInner", src))
	require.NoError(t, src.Set("setA", schema.ValueOf(uint8(99))))

	in, err := o.GetRecord("getInner")
	require.NoError(t, err)
	a, _ := in.Get("getA")
	b, _ := in.Get("getB")
	assert.Equal(t, uint64(3), a.Uint(), "set must copy, not alias")
	assert.Equal(t, int64(1<<40), b.Int())
	assert.NotEqual(t, src.Address(), in.Address())
}

func TestNestedArray(t *testing.T) {
	f, inner, outer := nestedFixture(t)
	o := f.create(outer)
	src := f.create(inner)
	require.NoError(t, src.Set("setA", schema.ValueOf(uint8(8))))
	require.NoError(t, o.SetRecordAt("setItemsAt", 1, src))

	item, err := o.GetRecordAt("getItemsAt", 1)
	require.NoError(t, err)
	a, _ := item.Get("getA")
	assert.Equal(t, uint64(8), a.Uint())

	reuse := inner.View(0)
	_, err = o.GetWithAt("getItemsWithAt", 0, reuse)
	require.NoError(t, err)
	off, _ := outer.Schema().FieldOffset("items")
	assert.Equal(t, o.Address()+arena.Address(off), reuse.Address())

	_, err = o.GetWithAt("getItemsWithAt", 2, reuse)
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindOutOfBounds), "got %v", err)

	n, _ := o.ArraySize("getItemsSize")
	assert.Equal(t, 2, n)

	assert.Equal(t, "{tag: 0, inner: {a: 0, b: 0}, items: [{a: 0, b: 0}, {a: 8, b: 0}]}", o.String())
}

func TestNestedArgumentChecks(t *testing.T) {
	f, _, outer := nestedFixture(t)
	o := f.create(outer)

	_, err := o.GetWith("getInnerWith", nil)
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindNilPointer), "got %v", err)

	other := f.create(outer)
	err = o.SetRecord("setInner", other)
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindTypeMismatch), "got %v", err)

	_, err = o.Get("getInner")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindTypeMismatch), "got %v", err)
	_, err = o.GetRecord("getTag")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindTypeMismatch), "got %v", err)
}

func TestConsecutiveRecords(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Triple")
	b.Field("a", schema.KindU8).Get()
	b.Field("b", schema.KindF64).Get()
	b.Field("c", schema.KindChar).Get()
	acc := f.register(b)

	first := f.create(acc)
	second := f.create(acc)
	assert.Equal(t, arena.Address(acc.Schema().Size()), second.Address()-first.Address())
}

func TestRoundTripAllWidths(t *testing.T) {
	kinds := []struct {
		kind   schema.Kind
		values []schema.Value
	}{
		{schema.KindBool, []schema.Value{schema.Bool(true), schema.Bool(false)}},
		{schema.KindU8, []schema.Value{schema.ValueOf(uint8(0)), schema.ValueOf(uint8(math.MaxUint8))}},
		{schema.KindS8, []schema.Value{schema.ValueOf(int8(math.MinInt8)), schema.ValueOf(int8(math.MaxInt8))}},
		{schema.KindU16, []schema.Value{schema.ValueOf(uint16(math.MaxUint16)), schema.ValueOf(uint16(1))}},
		{schema.KindS16, []schema.Value{schema.ValueOf(int16(math.MinInt16)), schema.ValueOf(int16(-1))}},
		{schema.KindU32, []schema.Value{schema.ValueOf(uint32(math.MaxUint32)), schema.ValueOf(uint32(12345))}},
		{schema.KindS32, []schema.Value{schema.ValueOf(int32(math.MinInt32)), schema.ValueOf(int32(-7))}},
		{schema.KindF32, []schema.Value{schema.ValueOf(float32(-2.5)), schema.ValueOf(float32(math.MaxFloat32))}},
		{schema.KindChar, []schema.Value{schema.Char('x'), schema.Char('界')}},
		{schema.KindU64, []schema.Value{schema.ValueOf(uint64(math.MaxUint64)), schema.ValueOf(uint64(1))}},
		{schema.KindS64, []schema.Value{schema.ValueOf(int64(math.MinInt64)), schema.ValueOf(int64(-3))}},
		{schema.KindF64, []schema.Value{schema.ValueOf(math.Pi), schema.ValueOf(-0.125)}},
	}

	for _, fx := range []struct {
		name string
		make func(*testing.T) *fixture
	}{{"heap", newFixture}, {"wasm", newWasmFixture}} {
		t.Run(fx.name, func(t *testing.T) {
			f := fx.make(t)
			b := schema.NewBuilder("Wide")
			for i, k := range kinds {
				b.Field(fmt.Sprintf("s%d", i), k.kind).Get().Set()
				b.Array(fmt.Sprintf("a%d", i), k.kind, 5).GetAt().SetAt()
			}
			acc := f.register(b)
			c := f.create(acc)

			for i, k := range kinds {
				for _, want := range k.values {
					scalar := fmt.Sprintf("S%d", i)
					require.NoError(t, c.Set("set"+scalar, want))
					got, err := c.Get("get" + scalar)
					require.NoError(t, err)
					assert.Equal(t, want, got, "%v scalar", k.kind)

					arr := fmt.Sprintf("A%dAt", i)
					for idx := range 5 {
						require.NoError(t, c.SetAt("set"+arr, idx, want))
					}
					for idx := range 5 {
						got, err := c.GetAt("get"+arr, idx)
						require.NoError(t, err)
						assert.Equal(t, want, got, "%v[%d]", k.kind, idx)
					}
				}
			}
		})
	}
}

func TestBoolStorage(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Flag")
	b.Field("on", schema.KindBool).Get().Set()
	acc := f.register(b)
	c := f.create(acc)

	require.NoError(t, c.Set("setOn", schema.Bool(true)))
	raw, err := f.arena.Memory().ReadU8(c.Address())
	require.NoError(t, err)
	assert.Equal(t, uint8('Y'), raw)

	require.NoError(t, f.arena.Memory().WriteU8(c.Address(), 1))
	v, _ := c.Get("getOn")
	assert.True(t, v.Bool(), "any nonzero byte reads as true")

	require.NoError(t, c.Set("setOn", schema.Bool(false)))
	raw, _ = f.arena.Memory().ReadU8(c.Address())
	assert.Equal(t, uint8(0), raw)
}

func TestIncreaseDecrease(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Counters")
	b.Field("hits", schema.KindU8).Get().Set().Increase().IncreaseBy().Decrease().DecreaseBy()
	b.Field("level", schema.KindS16).Get().Decrease()
	b.Field("ratio", schema.KindF64).Get().IncreaseBy().Decrease()
	b.Array("bins", schema.KindU32, 4).GetAt().Increase()
	acc := f.register(b)
	c := f.create(acc)

	require.NoError(t, c.Increase("increaseHits"))
	require.NoError(t, c.IncreaseBy("increaseHitsBy", schema.ValueOf(uint8(10))))
	v, _ := c.Get("getHits")
	assert.Equal(t, uint64(11), v.Uint())

	require.NoError(t, c.DecreaseBy("decreaseHitsBy", schema.ValueOf(uint8(11))))
	require.NoError(t, c.Decrease("decreaseHits"))
	v, _ = c.Get("getHits")
	assert.Equal(t, uint64(255), v.Uint(), "u8 wraps below zero")

	require.NoError(t, c.Increase("increaseHits"))
	v, _ = c.Get("getHits")
	assert.Equal(t, uint64(0), v.Uint(), "u8 wraps above max")

	require.NoError(t, c.Decrease("decreaseLevel"))
	v, _ = c.Get("getLevel")
	assert.Equal(t, int64(-1), v.Int())

	require.NoError(t, c.IncreaseBy("increaseRatioBy", schema.ValueOf(0.75)))
	require.NoError(t, c.Decrease("decreaseRatio"))
	v, _ = c.Get("getRatio")
	assert.Equal(t, -0.25, v.Float())

	require.NoError(t, c.Increase("increaseBins"))
	v, _ = c.GetAt("getBinsAt", 0)
	assert.Equal(t, uint64(1), v.Uint())
	v, _ = c.GetAt("getBinsAt", 1)
	assert.Equal(t, uint64(0), v.Uint())
}

func TestContractOperations(t *testing.T) {
	f := newFixture(t)
	first := schema.NewBuilder("First")
	first.Field("x", schema.KindU8).Get()
	f.register(first)

	b := schema.NewBuilder("Item")
	b.Field("id", schema.KindU32).Get().Set()
	b.Field("weight", schema.KindF32).Get().Set()
	b.RecordID().SchemaID().RecordSize().CopyFrom().View()
	b.Operation(schema.OperationSpec{
		Name: "viewInto", Action: schema.View,
		Params: []schema.TypeRef{schema.RecordOf("Item")}, Returns: schema.RecordOf("Item"),
	})
	acc := f.register(b)

	c := f.create(acc)
	id, err := c.RecordID("getRecordId")
	require.NoError(t, err)
	assert.Equal(t, uint64(c.Address()), id)

	sid, err := c.SchemaID("getSchemaId")
	require.NoError(t, err)
	assert.Equal(t, 2, sid)

	size, err := c.RecordSize("getRecordSize")
	require.NoError(t, err)
	assert.Equal(t, 8, size)

	other := f.create(acc)
	require.NoError(t, other.Set("setId", schema.ValueOf(uint32(77))))
	require.NoError(t, other.Set("setWeight", schema.ValueOf(float32(1.5))))
	require.NoError(t, c.CopyFrom("copyFrom", other))
	v, _ := c.Get("getId")
	assert.Equal(t, uint64(77), v.Uint())
	v, _ = c.Get("getWeight")
	assert.Equal(t, 1.5, v.Float())

	view, err := c.View("view")
	require.NoError(t, err)
	assert.NotSame(t, c, view)
	assert.Equal(t, c.Address(), view.Address())

	reuse := acc.View(0)
	got, err := c.ViewWith("viewInto", reuse)
	require.NoError(t, err)
	assert.Same(t, reuse, got)
	assert.Equal(t, c.Address(), reuse.Address())

	require.NoError(t, reuse.SetRecordID("setRecordId", uint64(other.Address())))
	assert.Equal(t, other.Address(), reuse.Address())
}

func TestDispatchErrors(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("P")
	b.Field("x", schema.KindS32).Get().Set()
	acc := f.register(b)
	c := f.create(acc)

	_, err := c.Get("getY")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindNotFound), "got %v", err)
	_, err = c.Call("nothing", Args{})
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindNotFound), "got %v", err)

	_, err = c.Get("setX")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindTypeMismatch), "got %v", err)
	err = c.Increase("getX")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindTypeMismatch), "got %v", err)

	res, err := c.Call("getX", Args{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Value.Int())

	unbound := acc.View(0)
	_, err = unbound.Get("getX")
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindOutOfBounds), "got %v", err)
}

func TestString(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Mix")
	b.Field("n", schema.KindS8).Set()
	b.Array("arr", schema.KindU8, 2).SetAt()
	b.Field("c", schema.KindChar).Set()
	b.Field("ok", schema.KindBool).Set()
	acc := f.register(b)
	c := f.create(acc)

	require.NoError(t, c.Set("setN", schema.ValueOf(int8(-4))))
	require.NoError(t, c.SetAt("setArrAt", 1, schema.ValueOf(uint8(9))))
	require.NoError(t, c.Set("setC", schema.Char('q')))
	require.NoError(t, c.Set("setOk", schema.Bool(true)))

	want := "{n: -4, arr: [0, 9], c: 'q', ok: true}"
	assert.Equal(t, want, c.String())
	assert.Equal(t, want, fmt.Sprintf("%v", c))
	assert.Equal(t, fmt.Sprintf("Mix@%#x%s", uint64(c.Address()), want), fmt.Sprintf("%+v", c))
}

func TestCustomString(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Temp")
	b.Field("celsius", schema.KindF32).Get().Set()
	b.StringHook(func(r schema.Record) string {
		v, err := r.Get("getCelsius")
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%s %.1f°C", r.Schema().Name(), v.Float())
	})
	acc := f.register(b)
	c := f.create(acc)
	require.NoError(t, c.Set("setCelsius", schema.ValueOf(float32(21.5))))

	assert.Equal(t, "Temp 21.5°C", c.String())
	res, err := c.Call("string", Args{})
	require.NoError(t, err)
	assert.Equal(t, "Temp 21.5°C", res.Text)
}

func TestSynthesizeErrors(t *testing.T) {
	a, err := arena.New()
	require.NoError(t, err)

	b := schema.NewBuilder("P")
	b.Field("x", schema.KindS32).Get()

	s, err := schema.Extract(b.Description(), nil)
	require.NoError(t, err)
	_, err = Synthesize(s, a)
	assert.True(t, errors.Is(err, rkerrors.ErrSynthesis), "unfrozen: %v", err)

	require.NoError(t, schema.Layout(s, schema.DeclarationOrder))
	_, err = Synthesize(s, a)
	assert.True(t, errors.Is(err, rkerrors.ErrSynthesis), "unregistered: %v", err)

	require.NoError(t, s.AssignID(1))
	_, err = Synthesize(s, nil)
	assert.True(t, isKind(err, rkerrors.PhaseSynthesize, rkerrors.KindNilPointer), "nil arena: %v", err)

	saved := builders[schema.GetValue]
	delete(builders, schema.GetValue)
	defer func() { builders[schema.GetValue] = saved }()

	_, err = Synthesize(s, a)
	assert.True(t, isKind(err, rkerrors.PhaseSynthesize, rkerrors.KindNoRoutine), "missing routine: %v", err)
	assert.Contains(t, err.Error(), "P.getX")
}

func TestSynthesizeNestedOnDemand(t *testing.T) {
	a, err := arena.New()
	require.NoError(t, err)

	ib := schema.NewBuilder("In")
	ib.Field("v", schema.KindU16).Get()
	in, err := schema.Compile(ib.Description(), nil, schema.DeclarationOrder)
	require.NoError(t, err)
	require.NoError(t, in.AssignID(1))

	ob := schema.NewBuilder("Out")
	ob.Record("in", "In").Get()
	out, err := schema.Compile(ob.Description(), schema.Schemas{in}, schema.DeclarationOrder)
	require.NoError(t, err)
	require.NoError(t, out.AssignID(2))

	acc, err := Synthesize(out, a)
	require.NoError(t, err)
	c, err := acc.Create()
	require.NoError(t, err)
	nested, err := c.GetRecord("getIn")
	require.NoError(t, err)
	assert.Same(t, in, nested.Schema())
}

func TestSequence(t *testing.T) {
	f := newFixture(t)
	b := schema.NewBuilder("Pair")
	b.Field("k", schema.KindU16).Get().Set()
	b.Field("v", schema.KindS32).Get().Set()
	acc := f.register(b)

	seq, err := acc.Sequence(4)
	require.NoError(t, err)
	assert.Equal(t, 4, seq.Len())

	for i, c := range seq.All() {
		require.NoError(t, c.Set("setK", schema.ValueOf(uint16(i))))
		require.NoError(t, c.Set("setV", schema.ValueOf(int32(-i))))
	}

	c, err := seq.At(2)
	require.NoError(t, err)
	assert.Equal(t, seq.From()+arena.Address(2*acc.Schema().Size()), c.Address())
	v, _ := c.Get("getV")
	assert.Equal(t, int64(-2), v.Int())

	again, err := seq.At(3)
	require.NoError(t, err)
	assert.Same(t, c, again, "At reuses one cursor")

	own := acc.View(0)
	_, err = seq.AtWith(1, own)
	require.NoError(t, err)
	v, _ = own.Get("getK")
	assert.Equal(t, uint64(1), v.Uint())

	src := f.create(acc)
	require.NoError(t, src.Set("setK", schema.ValueOf(uint16(500))))
	require.NoError(t, seq.Set(0, src))
	first, _ := seq.At(0)
	v, _ = first.Get("getK")
	assert.Equal(t, uint64(500), v.Uint())

	_, err = seq.At(4)
	assert.True(t, isKind(err, rkerrors.PhaseAccess, rkerrors.KindOutOfBounds), "got %v", err)

	count := 0
	for range seq.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func BenchmarkGetSet(b *testing.B) {
	a, _ := arena.New()
	bl := schema.NewBuilder("Bench")
	bl.Field("x", schema.KindS64).Get().Set()
	s, _ := schema.Compile(bl.Description(), nil, schema.DeclarationOrder)
	_ = s.AssignID(1)
	acc, _ := Synthesize(s, a)
	c, _ := acc.Create()

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		_ = c.Set("setX", schema.ValueOf(int64(i)))
		_, _ = c.Get("getX")
	}
}

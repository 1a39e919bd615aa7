package accessor

import (
	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/errors"
	"github.com/wippyai/recordkit/schema"
)

// Cursor is a movable view of one record. It holds no data of its own;
// rebinding it to another address makes it view another record of the
// same schema.
type Cursor struct {
	acc  *Accessor
	addr arena.Address
}

var _ schema.Record = (*Cursor)(nil)

// Bind moves the cursor to addr and returns it.
func (c *Cursor) Bind(addr arena.Address) *Cursor {
	c.addr = addr
	return c
}

// Address returns the address of the record the cursor is bound to.
func (c *Cursor) Address() arena.Address {
	return c.addr
}

func (c *Cursor) Schema() *schema.Schema {
	return c.acc.schema
}

func (c *Cursor) Accessor() *Accessor {
	return c.acc
}

// Call runs the named operation with raw arguments.
func (c *Cursor) Call(name string, args Args) (Result, error) {
	i, ok := c.acc.index[name]
	if !ok {
		return Result{}, c.unknown(name)
	}
	return c.acc.routines[i](c, args)
}

func (c *Cursor) unknown(name string) error {
	return errors.New(errors.PhaseAccess, errors.KindNotFound).
		Path(c.acc.schema.Name(), name).Value(name).
		Detail("operation %q not found", name).Build()
}

// routine resolves name and checks that its action is one of want.
func (c *Cursor) routine(name string, want ...schema.ActionType) (*schema.Operation, Routine, error) {
	op, ok := c.acc.schema.Operation(name)
	if !ok {
		return nil, nil, c.unknown(name)
	}
	for _, a := range want {
		if op.Action == a {
			return op, c.acc.routines[op.Index], nil
		}
	}
	return nil, nil, errors.TypeMismatch(errors.PhaseAccess,
		[]string{c.acc.schema.Name(), name}, op.Action.String(), want[0].String())
}

// scalar rejects record-valued fields on the value entry points.
func (c *Cursor) scalar(op *schema.Operation) error {
	if op.Field != nil && op.Field.Kind == schema.KindRecord {
		return errors.TypeMismatch(errors.PhaseAccess,
			[]string{c.acc.schema.Name(), op.Name}, op.Field.Type().String(), "a primitive field")
	}
	return nil
}

// record rejects primitive fields on the cursor entry points. op is
// always field-bound here.
func (c *Cursor) record(op *schema.Operation) error {
	if op.Field.Kind != schema.KindRecord {
		return errors.TypeMismatch(errors.PhaseAccess,
			[]string{c.acc.schema.Name(), op.Name}, op.Field.Type().String(), "a record field")
	}
	return nil
}

func (c *Cursor) value(name string, args Args, want schema.ActionType) (schema.Value, error) {
	op, r, err := c.routine(name, want)
	if err != nil {
		return schema.Value{}, err
	}
	if err := c.scalar(op); err != nil {
		return schema.Value{}, err
	}
	res, err := r(c, args)
	return res.Value, err
}

func (c *Cursor) cursor(name string, args Args, want schema.ActionType) (*Cursor, error) {
	op, r, err := c.routine(name, want)
	if err != nil {
		return nil, err
	}
	if err := c.record(op); err != nil {
		return nil, err
	}
	res, err := r(c, args)
	return res.Cursor, err
}

func (c *Cursor) run(name string, args Args, want schema.ActionType) (Result, error) {
	_, r, err := c.routine(name, want)
	if err != nil {
		return Result{}, err
	}
	return r(c, args)
}

// Get reads a primitive field through a GetValue operation.
func (c *Cursor) Get(name string) (schema.Value, error) {
	return c.value(name, Args{}, schema.GetValue)
}

// GetAt reads element i of a primitive array field.
func (c *Cursor) GetAt(name string, i int) (schema.Value, error) {
	return c.value(name, Args{Index: i}, schema.GetValueAt)
}

// GetRecord returns a new cursor aliasing a nested record.
func (c *Cursor) GetRecord(name string) (*Cursor, error) {
	return c.cursor(name, Args{}, schema.GetValue)
}

// GetRecordAt returns a new cursor aliasing element i of a nested array.
func (c *Cursor) GetRecordAt(name string, i int) (*Cursor, error) {
	return c.cursor(name, Args{Index: i}, schema.GetValueAt)
}

// GetWith rebinds with to the nested record and returns it.
func (c *Cursor) GetWith(name string, with *Cursor) (*Cursor, error) {
	return c.cursor(name, Args{With: with}, schema.GetValueWith)
}

// GetWithAt rebinds with to element i of the nested array and returns it.
func (c *Cursor) GetWithAt(name string, i int, with *Cursor) (*Cursor, error) {
	return c.cursor(name, Args{Index: i, With: with}, schema.GetValueWithAt)
}

// Set writes a primitive field. v is converted to the field's kind.
func (c *Cursor) Set(name string, v schema.Value) error {
	_, err := c.value(name, Args{Value: v}, schema.SetValue)
	return err
}

// SetAt writes element i of a primitive array field.
func (c *Cursor) SetAt(name string, i int, v schema.Value) error {
	_, err := c.value(name, Args{Index: i, Value: v}, schema.SetValueAt)
	return err
}

// SetRecord copies src into a nested record field.
func (c *Cursor) SetRecord(name string, src *Cursor) error {
	_, err := c.cursor(name, Args{With: src}, schema.SetValue)
	return err
}

// SetRecordAt copies src into element i of a nested array field.
func (c *Cursor) SetRecordAt(name string, i int, src *Cursor) error {
	_, err := c.cursor(name, Args{Index: i, With: src}, schema.SetValueAt)
	return err
}

// ArraySize returns the element count of an array field.
func (c *Cursor) ArraySize(name string) (int, error) {
	res, err := c.run(name, Args{}, schema.GetArraySize)
	return int(res.Value.Int()), err
}

func (c *Cursor) Increase(name string) error {
	_, err := c.run(name, Args{}, schema.IncreaseValue)
	return err
}

func (c *Cursor) IncreaseBy(name string, delta schema.Value) error {
	_, err := c.run(name, Args{Value: delta}, schema.IncreaseValueBy)
	return err
}

func (c *Cursor) Decrease(name string) error {
	_, err := c.run(name, Args{}, schema.DecreaseValue)
	return err
}

func (c *Cursor) DecreaseBy(name string, delta schema.Value) error {
	_, err := c.run(name, Args{Value: delta}, schema.DecreaseValueBy)
	return err
}

// RecordID returns the bound address through a GetRecordID operation.
func (c *Cursor) RecordID(name string) (uint64, error) {
	res, err := c.run(name, Args{}, schema.GetRecordID)
	return res.Value.Uint(), err
}

// SetRecordID rebinds the cursor through a SetRecordID operation.
func (c *Cursor) SetRecordID(name string, id uint64) error {
	_, err := c.run(name, Args{Value: schema.Uint(schema.KindU64, id)}, schema.SetRecordID)
	return err
}

func (c *Cursor) SchemaID(name string) (int, error) {
	res, err := c.run(name, Args{}, schema.GetSchemaID)
	return int(res.Value.Int()), err
}

func (c *Cursor) RecordSize(name string) (int, error) {
	res, err := c.run(name, Args{}, schema.GetRecordSize)
	return int(res.Value.Int()), err
}

// Copy duplicates the record into fresh storage and returns a cursor to
// the duplicate.
func (c *Cursor) Copy(name string) (*Cursor, error) {
	res, err := c.run(name, Args{}, schema.Copy)
	return res.Cursor, err
}

// CopyFrom overwrites the record with the bytes of src.
func (c *Cursor) CopyFrom(name string, src *Cursor) error {
	_, err := c.run(name, Args{With: src}, schema.CopyFrom)
	return err
}

// View returns a new cursor aliasing the same record.
func (c *Cursor) View(name string) (*Cursor, error) {
	res, err := c.run(name, Args{}, schema.View)
	return res.Cursor, err
}

// ViewWith rebinds reuse to the same record and returns it.
func (c *Cursor) ViewWith(name string, reuse *Cursor) (*Cursor, error) {
	if reuse == nil {
		return nil, errors.NilPointer(errors.PhaseAccess, []string{c.acc.schema.Name(), name}, "cursor to rebind")
	}
	res, err := c.run(name, Args{With: reuse}, schema.View)
	return res.Cursor, err
}

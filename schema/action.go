package schema

// ActionType classifies what an operation does.
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	GetValue
	GetValueAt
	GetValueWith
	GetValueWithAt
	SetValue
	SetValueAt
	GetArraySize
	IncreaseValue
	IncreaseValueBy
	DecreaseValue
	DecreaseValueBy
	GetRecordID
	SetRecordID
	GetSchemaID
	GetRecordSize
	Copy
	CopyFrom
	View
	CustomString

	actionCount
)

var actionNames = [...]string{
	ActionUnknown:   "unknown",
	GetValue:        "get",
	GetValueAt:      "getAt",
	GetValueWith:    "getWith",
	GetValueWithAt:  "getWithAt",
	SetValue:        "set",
	SetValueAt:      "setAt",
	GetArraySize:    "size",
	IncreaseValue:   "increase",
	IncreaseValueBy: "increaseBy",
	DecreaseValue:   "decrease",
	DecreaseValueBy: "decreaseBy",
	GetRecordID:     "recordId",
	SetRecordID:     "setRecordId",
	GetSchemaID:     "schemaId",
	GetRecordSize:   "recordSize",
	Copy:            "copy",
	CopyFrom:        "copyFrom",
	View:            "view",
	CustomString:    "string",
}

func (a ActionType) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction resolves the name printed by String.
func ParseAction(name string) (ActionType, bool) {
	for i, n := range actionNames {
		if n == name && ActionType(i) != ActionUnknown {
			return ActionType(i), true
		}
	}
	return ActionUnknown, false
}

// Actions returns every valid action in declaration order.
func Actions() []ActionType {
	out := make([]ActionType, 0, actionCount-1)
	for a := GetValue; a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}

// role is the meaning of one parameter or of a result in an action's shape.
type role uint8

const (
	roleNone    role = iota
	roleIndex        // s32 element index
	roleElement      // the field's element type
	roleRecord       // the field's nested contract
	roleSelf         // the contract itself
	roleID           // u64 record address
	roleCount        // s32 count or size
	roleText         // string
)

// shape is the parameter list and result an action expects.
type shape struct {
	params   []role
	result   role
	field    bool // binds to a field
	indexed  bool // requires an array field
	numeric  bool // requires a numeric field
	nested   bool // requires a record field
	optional int  // trailing params that may be omitted
}

var shapes = [...]shape{
	GetValue:        {result: roleElement, field: true},
	GetValueAt:      {params: []role{roleIndex}, result: roleElement, field: true, indexed: true},
	GetValueWith:    {params: []role{roleRecord}, result: roleRecord, field: true, nested: true},
	GetValueWithAt:  {params: []role{roleIndex, roleRecord}, result: roleRecord, field: true, indexed: true, nested: true},
	SetValue:        {params: []role{roleElement}, field: true},
	SetValueAt:      {params: []role{roleIndex, roleElement}, field: true, indexed: true},
	GetArraySize:    {result: roleCount, field: true},
	IncreaseValue:   {field: true, numeric: true},
	IncreaseValueBy: {params: []role{roleElement}, field: true, numeric: true},
	DecreaseValue:   {field: true, numeric: true},
	DecreaseValueBy: {params: []role{roleElement}, field: true, numeric: true},
	GetRecordID:     {result: roleID},
	SetRecordID:     {params: []role{roleID}},
	GetSchemaID:     {result: roleCount},
	GetRecordSize:   {result: roleCount},
	Copy:            {result: roleSelf},
	CopyFrom:        {params: []role{roleSelf}},
	View:            {params: []role{roleSelf}, result: roleSelf, optional: 1},
	CustomString:    {result: roleText},
}

func (a ActionType) shape() (shape, bool) {
	if a == ActionUnknown || int(a) >= len(shapes) {
		return shape{}, false
	}
	return shapes[a], true
}

// NeedsField reports whether operations of this action bind to a field.
func (a ActionType) NeedsField() bool {
	s, _ := a.shape()
	return s.field
}

// IsIndexed reports whether the action takes an element index.
func (a ActionType) IsIndexed() bool {
	s, _ := a.shape()
	return s.indexed
}

// elementParam returns the position of the parameter carrying the
// field's value type, or -1.
func (s shape) elementParam() int {
	for i, r := range s.params {
		if r == roleElement || r == roleRecord {
			return i
		}
	}
	return -1
}

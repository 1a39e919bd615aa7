package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate   Phase = "validate"   // contract extraction and layout
	PhaseSynthesize Phase = "synthesize" // accessor routine construction
	PhaseAllocate   Phase = "allocate"   // arena growth
	PhaseAccess     Phase = "access"     // cursor reads and writes
	PhaseRegister   Phase = "register"   // registry bookkeeping
	PhaseLoad       Phase = "load"       // description file and WIT loading
)

// Kind categorizes the error
type Kind string

const (
	KindReservedName      Kind = "reserved_name"
	KindShape             Kind = "shape"
	KindReturnType        Kind = "return_type"
	KindTypeMismatch      Kind = "type_mismatch"
	KindConflictingLength Kind = "conflicting_length"
	KindStub              Kind = "stub"
	KindNotPureContract   Kind = "not_pure_contract"
	KindFrozen            Kind = "frozen"
	KindNoRoutine         Kind = "no_routine"
	KindAllocation        Kind = "allocation"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindNilPointer        Kind = "nil_pointer"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindConflict          Kind = "conflict"
)

// Sentinels for errors.Is matching on a whole phase.
var (
	ErrSchemaValidation = &Error{Phase: PhaseValidate}
	ErrSynthesis        = &Error{Phase: PhaseSynthesize}
	ErrAllocation       = &Error{Phase: PhaseAllocate}
)

// Error is the structured error type used throughout recordkit
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Got    string
	Want   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Got != "" || e.Want != "" {
		b.WriteString(": ")
		switch {
		case e.Got != "" && e.Want != "":
			b.WriteString("got ")
			b.WriteString(e.Got)
			b.WriteString(", want ")
			b.WriteString(e.Want)
		case e.Got != "":
			b.WriteString("got ")
			b.WriteString(e.Got)
		default:
			b.WriteString("want ")
			b.WriteString(e.Want)
		}
	}

	if e.Detail != "" {
		if e.Got != "" || e.Want != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Kind matches every error of its phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Phase != t.Phase {
		return false
	}
	return t.Kind == "" || e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the schema/field/operation path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Got sets the type or shape that was found
func (b *Builder) Got(t string) *Builder {
	b.err.Got = t
	return b
}

// Want sets the type or shape that was expected
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Path:  path,
		Got:   got,
		Want:  want,
	}
}

// ReservedName creates an error for an operation name used by the cursor itself
func ReservedName(path []string, name string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindReservedName,
		Path:   path,
		Detail: fmt.Sprintf("name %q is reserved", name),
		Value:  name,
	}
}

// Shape creates a parameter shape error
func Shape(path []string, got, want string) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindShape,
		Path:  path,
		Got:   got,
		Want:  want,
	}
}

// ReturnType creates a return type error
func ReturnType(path []string, got, want string) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindReturnType,
		Path:  path,
		Got:   got,
		Want:  want,
	}
}

// ConflictingLength creates an error for two different array lengths on one field
func ConflictingLength(path []string, first, second int) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindConflictingLength,
		Path:   path,
		Detail: fmt.Sprintf("array length %d conflicts with %d", second, first),
		Value:  second,
	}
}

// NotPureContract creates an error for a contract that carries state or variable-size data
func NotPureContract(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindNotPureContract,
		Path:   path,
		Detail: detail,
	}
}

// NoRoutine creates a synthesis error for an action without a routine builder
func NoRoutine(path []string, action string) *Error {
	return &Error{
		Phase:  PhaseSynthesize,
		Kind:   KindNoRoutine,
		Path:   path,
		Detail: fmt.Sprintf("no routine for action %s", action),
		Value:  action,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint64, cause error) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate block of %d bytes", size),
		Value:  size,
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// BadAddress creates an error for an access outside every arena block
func BadAddress(addr, length uint64) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("address range [%#x, %#x) is not inside a block", addr, addr+length),
		Value:  addr,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		Detail: fmt.Sprintf("nil %s", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a description loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Package errors provides structured error types for recordkit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the schema/field/operation path, the found and expected
// types, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindShape).
//		Path("Point", "setX").
//		Got("()").
//		Want("(s32)").
//		Detail("setter takes the new value").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ConflictingLength(path, 3, 4)
//	err := errors.OutOfBounds(errors.PhaseAccess, path, 10, 5)
//
// Each phase has a sentinel, so callers can test for a whole class:
//
//	if errors.Is(err, rkerrors.ErrSchemaValidation) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

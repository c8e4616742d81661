// Package errors provides structured error types for the hostbridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes the cross-boundary symbol name and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
//		Symbol("env#object_new").
//		Detail("result type is not numeric").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(7)
//	err := errors.OutOfBounds(65530, 10, 65536)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

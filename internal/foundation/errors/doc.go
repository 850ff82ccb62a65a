// Package errors provides the classified error primitives used across buildpipe.
//
// Domain packages return plain sentinel or typed errors; the pipeline boundary
// wraps them into a ClassifiedError carrying a category, a severity and
// structured context. The CLI adapter turns that into a user-facing message and
// a process exit code. A failed build stage carries its raw tool exit code in
// the "exit_code" context key, which the adapter propagates unchanged.
//
// Example:
//
//	err := errors.WrapError(cause, errors.CategoryTool, "build stage failed").
//		Fatal().
//		WithContext(errors.ContextExitCode, 2).
//		Build()
package errors

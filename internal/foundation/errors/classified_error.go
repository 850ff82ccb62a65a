package errors

import (
	stderrors "errors"
	"strings"
)

// ClassifiedError is an error with a category, a severity, a retry strategy
// and structured context. Values are immutable once built.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "category: message: cause".
func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.category))
	sb.WriteString(": ")
	sb.WriteString(e.message)
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// ExitCode returns the raw tool exit code carried in the context, if any.
// Zero is treated as absent.
func (e *ClassifiedError) ExitCode() (int, bool) {
	code, ok := e.context.GetInt(ContextExitCode)
	return code, ok && code != 0
}

// WithContext returns a copy of e with key set.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	next := *e
	next.context = e.context.clone().Set(key, value)
	return &next
}

// Is matches a ClassifiedError sentinel with the same category and message,
// so errors derived through WithContext still match their sentinel.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

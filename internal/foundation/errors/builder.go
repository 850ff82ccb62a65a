package errors

// defaults holds the severity and retry strategy a category starts with.
type defaults struct {
	severity ErrorSeverity
	retry    RetryStrategy
}

var categoryDefaults = map[ErrorCategory]defaults{
	CategoryConfig:     {SeverityFatal, RetryUserAction},
	CategoryValidation: {SeverityFatal, RetryUserAction},
	CategoryTool:       {SeverityFatal, RetryNever},
	CategoryTimeout:    {SeverityError, RetryBackoff},
	CategoryArtifact:   {SeverityFatal, RetryNever},
	CategoryFileSystem: {SeverityFatal, RetryNever},
	CategoryPublish:    {SeverityError, RetryBackoff},
	CategoryRuntime:    {SeverityError, RetryNever},
	CategoryInternal:   {SeverityFatal, RetryNever},
}

// ErrorBuilder assembles a ClassifiedError. Builders are single use.
type ErrorBuilder struct {
	e ClassifiedError
}

// NewError starts a builder with the defaults of category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	d, ok := categoryDefaults[category]
	if !ok {
		d = defaults{SeverityError, RetryNever}
	}
	return &ErrorBuilder{e: ClassifiedError{
		category: category,
		severity: d.severity,
		retry:    d.retry,
		message:  message,
	}}
}

// WrapError starts a builder whose error unwraps to err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.e.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.e.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.e.retry = strategy
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.e.context = b.e.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. Its context is a copy of the builder's.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.e
	e.context = e.context.clone()
	return &e
}

// ConfigError starts a configuration error.
func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

// ValidationError starts a validation error.
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

// FileSystemError starts a filesystem error.
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }

// InternalError starts an internal error.
func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }

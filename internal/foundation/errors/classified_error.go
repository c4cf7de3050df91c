package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error with a category, a severity, a retry hint and
// structured context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	head := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return head
	}
	return head + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// Message is the error text without category, severity or cause.
func (e *ClassifiedError) Message() string { return e.message }

// Location names where in the build the error happened: the output or source
// path when known, else the node name, else the node kind. It is empty for
// errors raised outside the tree.
func (e *ClassifiedError) Location() string {
	for _, key := range []string{"path", "node"} {
		if v, ok := e.context.Get(key); ok {
			if s, _ := v.(string); s != "" {
				return s
			}
		}
	}
	if v, ok := e.context.Get("kind"); ok {
		return fmt.Sprintf("%v node", v)
	}
	return ""
}

// Is matches another ClassifiedError with the same category and message, so
// package-level sentinels work with errors.Is.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// CanRetry reports whether retrying without user intervention may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retry == RetryBackoff }

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	ok := stderrors.As(err, &classified)
	return classified, ok
}

func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory reports whether the first classified error in err's chain has category c.
func HasCategory(err error, c ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == c
}

// IsFatal reports whether err carries a fatal classified error. Fatal errors
// are never recovered into error nodes.
func IsFatal(err error) bool {
	classified, ok := AsClassified(err)
	return ok && classified.IsFatal()
}

// CanRetry reports whether err carries a retryable classified error.
func CanRetry(err error) bool {
	classified, ok := AsClassified(err)
	return ok && classified.CanRetry()
}

// GetCategory returns err's category, or CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}

// GetSeverity returns err's severity, or SeverityError for unclassified errors.
func GetSeverity(err error) ErrorSeverity {
	if classified, ok := AsClassified(err); ok {
		return classified.severity
	}
	return SeverityError
}

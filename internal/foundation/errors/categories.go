package errors

// ErrorCategory routes an error to the right handling: recovered inside the
// tree, reported per page, or surfaced by the CLI.
type ErrorCategory string

const (
	// User input: configuration, CLI arguments and build scripts.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryScript     ErrorCategory = "script"
	CategoryNotFound   ErrorCategory = "not_found"

	// Rendering the node tree.
	CategoryTemplate ErrorCategory = "template"
	CategoryRender   ErrorCategory = "render"
	CategoryResource ErrorCategory = "resource"
	CategoryPath     ErrorCategory = "path"

	// Things outside the process.
	CategoryNetwork    ErrorCategory = "network"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryProcess    ErrorCategory = "process"

	CategoryBuild    ErrorCategory = "build"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity decides how far an error travels.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the build
	SeverityError   ErrorSeverity = "error"   // replaces the node or skips the page
	SeverityWarning ErrorSeverity = "warning" // output is kept, possibly degraded
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy hints whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext is structured detail attached to an error. Well-known keys are
// "path", "node" and "kind", which feed Location.
type ErrorContext map[string]any

// Set stores value under key, allocating c when nil.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

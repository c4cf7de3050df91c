package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError step by step.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with severity error and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError is NewError with cause set.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) WithRetry(r RetryStrategy) *ErrorBuilder {
	b.err.retry = r
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// AtPath records the output or source path the error belongs to.
func (b *ErrorBuilder) AtPath(path string) *ErrorBuilder {
	return b.WithContext("path", path)
}

// ForNode records the failing node's kind and, when it has one, its name.
func (b *ErrorBuilder) ForNode(kind, name string) *ErrorBuilder {
	b.WithContext("kind", kind)
	if name != "" {
		b.WithContext("node", name)
	}
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = maps.Clone(b.err.context)
	return &e
}

// ConfigError: docnodes.yaml or flags cannot be used.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ValidationError: input is well-formed but not acceptable.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal().UserAction()
}

// ScriptError: the build script cannot be loaded or did not produce a root.
func ScriptError(message string) *ErrorBuilder {
	return NewError(CategoryScript, message).Fatal().UserAction()
}

// TemplateExpansionError: a template function failed to construct a node.
// It is rendered inline and never crosses the render boundary.
func TemplateExpansionError(message string) *ErrorBuilder {
	return NewError(CategoryTemplate, message)
}

// NodeRenderError: a node's Content failed and was replaced by an error node.
func NodeRenderError(message string) *ErrorBuilder {
	return NewError(CategoryRender, message)
}

// ResourceMergeConflict: an extension option was overwritten during a merge.
func ResourceMergeConflict(message string) *ErrorBuilder {
	return NewError(CategoryResource, message).Warning()
}

// PathResolutionError: a node was asked for its path outside a rooted nav tree.
func PathResolutionError(message string) *ErrorBuilder {
	return NewError(CategoryPath, message).Fatal()
}

// MissingFileError: an include or template target is absent. Strict callers
// add Fatal().
func MissingFileError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// ProcessError: an external command exited non-zero or could not start.
func ProcessError(message string) *ErrorBuilder {
	return NewError(CategoryProcess, message)
}

func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}

// Package errors provides the classified error primitives used across docnodes.
//
// Key features:
//   - ErrorCategory: broad classification (template, render, path, not_found, script, ...)
//   - ErrorSeverity: impact level. Fatal errors abort a build, everything else is
//     recovered at the nearest node container or page worker.
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing formatting for the CLI
//
// Example usage:
//
//	err := errors.MissingFileError("include target missing").
//		AtPath(path).
//		WithCause(statErr).
//		Build()
//
// Location() turns the path, node and kind context into the prefix the CLI
// prints in front of the message.
package errors

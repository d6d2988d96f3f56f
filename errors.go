package docmig

import "fmt"

// NotFoundError is fatal to the current phase: a required document or
// path is absent and further steps would be meaningless.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("not found: %s", e.Path) }

// ParseError means a document could not be read well enough to extract
// structure. Missing structure never raises this; only unreadable input does.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// SourceNotFoundError marks a copy whose source path is missing. Optional
// assets downgrade it to a warning, everything else aborts the phase.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("copy source not found: %s", e.Path)
}

// DetailedError carries the stack captured by the engine's panic guard.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }

package domain

import "fmt"

// ErrorKind classifies a pipeline failure. Failures are always scoped to
// the smallest unit possible: a comment, then a file, then the run.
type ErrorKind int

const (
	// ErrKindIO marks an unreadable input path. Per-file, skip.
	ErrKindIO ErrorKind = iota
	// ErrKindDiff marks malformed input to the edit-script primitive. Per-file, skip.
	ErrKindDiff
	// ErrKindGenerationTransient marks a timeout or rate-limit from the
	// generation collaborator. Retried before becoming fatal for the file.
	ErrKindGenerationTransient
	// ErrKindGenerationParse marks unparsable generation output. Per-file, FAILED.
	ErrKindGenerationParse
	// ErrKindAnchorResolution marks a comment that cannot be matched to
	// source within the tolerance window. Drops that comment only.
	ErrKindAnchorResolution
	// ErrKindSummarization marks a failed summary call. Run degrades to
	// no-summary and still succeeds.
	ErrKindSummarization
)

// String returns a human-readable name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindIO:
		return "IOError"
	case ErrKindDiff:
		return "DiffError"
	case ErrKindGenerationTransient:
		return "GenerationTransientError"
	case ErrKindGenerationParse:
		return "GenerationParseError"
	case ErrKindAnchorResolution:
		return "AnchorResolutionError"
	case ErrKindSummarization:
		return "SummarizationError"
	default:
		return "UnknownError"
	}
}

// Error is a classified pipeline error tied to a file (and optionally a
// line) so reports can attribute failures precisely.
type Error struct {
	Kind ErrorKind
	File string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", e.Kind, e.File, e.Line, e.Err)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can test taxonomy membership with a
// zero-value target, e.g. errors.Is(err, &Error{Kind: ErrKindIO}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError wraps err with a kind and file scope.
func NewError(kind ErrorKind, file string, err error) *Error {
	return &Error{Kind: kind, File: file, Err: err}
}

// NewAnchorError records a comment that could not be anchored.
func NewAnchorError(file string, line int, err error) *Error {
	return &Error{Kind: ErrKindAnchorResolution, File: file, Line: line, Err: err}
}

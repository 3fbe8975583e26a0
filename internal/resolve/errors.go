package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidateName is matched by every NoCandidateNameError.
	ErrNoCandidateName = errors.New("no candidate filename")
	// ErrNotDirectory means the destination exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrNoFreeName means every probed "name (n).ext" slot was taken.
	ErrNoFreeName = errors.New("no free filename")
)

// DecodingError reports a header-derived name whose percent-encoding or
// UTF-8 is invalid. The resolver records it and moves on to the next rule.
type DecodingError struct {
	Value string
	Err   error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding filename %q: %v", e.Value, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// NoCandidateNameError means every rule was exhausted, e.g. an empty URL and
// no headers. Callers supply their own last-resort name.
type NoCandidateNameError struct {
	URL string
}

func (e *NoCandidateNameError) Error() string {
	if e.URL == "" {
		return "no candidate filename: empty URL and no usable headers"
	}
	return fmt.Sprintf("no candidate filename for %q", e.URL)
}

func (e *NoCandidateNameError) Is(target error) bool { return target == ErrNoCandidateName }

// FilesystemError wraps failures probing the destination directory.
// These are surfaced to the caller and never retried.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

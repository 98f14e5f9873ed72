package classpath

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecoverable marks failures of the cache itself: creating the
	// entry directory, taking its lock, or writing its receipt. Retrying
	// does not help; the enclosing build step should fail.
	ErrUnrecoverable = errors.New("classpath: unrecoverable cache failure")

	// ErrInvalidSource is returned when a Source has no path, no usable
	// content hash, or names something that is neither a file nor a
	// directory.
	ErrInvalidSource = errors.New("classpath: invalid source")
)

// EntryError reports a failure processing one entry of a classpath entry.
type EntryError struct {
	// Entry is the name of the entry inside the source.
	Entry string
	// Source is the path of the classpath entry.
	Source string
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("process entry %q from %s: %v", e.Entry, e.Source, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

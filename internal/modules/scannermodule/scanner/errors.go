package scanner

import (
	"errors"
	"fmt"
)

// Sentinel causes for fatal scan failures.
var (
	ErrInvalidPath      = errors.New("root path does not exist or is not a directory")
	ErrPathOutsideMount = errors.New("root path is outside its mount boundary")
	ErrNoMediaFound     = errors.New("no media files found under root path")
	ErrScanInProgress   = errors.New("a scan is already running for this media type")
)

// FatalScanError aborts the entire scan. No catalog writes from the run
// are committed when one is returned.
type FatalScanError struct {
	Reason string
	Err    error
}

func (e *FatalScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scan failed: %s", e.Reason)
}

func (e *FatalScanError) Unwrap() error {
	return e.Err
}

func fatal(err error, format string, args ...interface{}) *FatalScanError {
	return &FatalScanError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// IsFatal reports whether err is (or wraps) a FatalScanError.
func IsFatal(err error) bool {
	var f *FatalScanError
	return errors.As(err, &f)
}

// CollectionError is a failure while writing one collection. It is
// recovered by rolling the collection's savepoint back and moving on.
type CollectionError struct {
	Collection string
	Err        error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection %q failed: %v", e.Collection, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// FileError is a failure on a single file (unreadable, corrupt metadata).
// The file is skipped and counted; the scan continues.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %q failed: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

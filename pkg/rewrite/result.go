package rewrite

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// ErrRootNotFound is returned by Run when the root does not exist or is not a directory
var ErrRootNotFound = errors.Base("root not found")

// Outcome is the result of processing a single file
type Outcome int

const (
	// OutcomeUnchanged means no rule matched and the file was not written
	OutcomeUnchanged Outcome = iota
	// OutcomeFixed means the content changed and was written back
	OutcomeFixed
	// OutcomeFailed means a read, decode or write failed; see FileError
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeFixed:
		return "fixed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// File operations that can fail
const (
	OpRead   = "read"
	OpDecode = "decode"
	OpWrite  = "write"
)

// FileError is a recoverable failure on a single file
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// FixedFile is a file whose content changed
type FixedFile struct {
	// Path is relative to the scan root, slash separated
	Path         string
	Replacements int
}

// 📊 ScanResult summarizes a single run
type ScanResult struct {
	Root    string
	Scanned int
	Fixed   []FixedFile
	Failed  []*FileError
	DryRun  bool
}

// FixedPaths returns the relative paths of fixed files, in processing order
func (r *ScanResult) FixedPaths() []string {
	paths := make([]string, 0, len(r.Fixed))
	for _, f := range r.Fixed {
		paths = append(paths, f.Path)
	}
	return paths
}

// HasFailures reports whether any file failed
func (r *ScanResult) HasFailures() bool {
	return len(r.Failed) > 0
}

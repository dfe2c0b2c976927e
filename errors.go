// errors.go
package nativekit

import (
	"fmt"

	"github.com/nativekit/nativekit/pkg/deps"
	"github.com/nativekit/nativekit/pkg/dylib"
	"github.com/nativekit/nativekit/pkg/merge"
)

// Re-exported failure modes
var (
	// ErrUnrecognizedName indicates a file name outside the
	// lib<name>.dylib convention
	ErrUnrecognizedName = dylib.ErrUnrecognizedName

	// ErrNoArchitectures indicates a file with no supported architecture
	ErrNoArchitectures = dylib.ErrNoArchitectures

	// ErrToolFailed indicates an external tool could not run or exited
	// with a non-zero status
	ErrToolFailed = dylib.ErrToolFailed

	// ErrUnparsableOutput indicates tool output outside the documented format
	ErrUnparsableOutput = dylib.ErrUnparsableOutput

	// ErrLibraryNotFound indicates a missing subject library file
	ErrLibraryNotFound = deps.ErrLibraryNotFound

	// ErrMultiFileLibrary indicates the single-file entry point was used
	// on a multi-file library
	ErrMultiFileLibrary = deps.ErrMultiFileLibrary

	// ErrDestinationNotFound indicates a declared destination that is
	// not an existing directory
	ErrDestinationNotFound = merge.ErrDestinationNotFound

	// ErrPathEscape indicates a destination path escaping its root
	ErrPathEscape = merge.ErrPathEscape
)

// Error wraps an error with additional context
type Error struct {
	Op   string // Operation that failed
	Path string // File or directory if applicable
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

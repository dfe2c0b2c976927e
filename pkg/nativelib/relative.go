// pkg/nativelib/relative.go
package nativelib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RelativeFile pairs a relative destination path with the absolute file
// that currently holds the content. It is used to place a file at a
// specific path inside a destination tree.
type RelativeFile struct {
	rel string
	abs string
}

// NewRelativeFile creates a RelativeFile. The relative path must not be
// absolute.
func NewRelativeFile(rel, abs string) (RelativeFile, error) {
	if filepath.IsAbs(rel) {
		return RelativeFile{}, fmt.Errorf("relative path is absolute: %s", rel)
	}
	return RelativeFile{rel: rel, abs: abs}, nil
}

// Rel returns the relative destination path
func (r RelativeFile) Rel() string {
	return r.rel
}

// Abs returns the absolute file holding the content
func (r RelativeFile) Abs() string {
	return r.abs
}

// BaseDir recovers the implied base directory: the absolute file's path
// must end with the relative path, and the computed prefix must be an
// existing directory.
func (r RelativeFile) BaseDir() (string, bool) {
	suffix := string(filepath.Separator) + filepath.FromSlash(r.rel)
	if !strings.HasSuffix(r.abs, suffix) {
		return "", false
	}
	base := strings.TrimSuffix(r.abs, suffix)
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return base, true
}

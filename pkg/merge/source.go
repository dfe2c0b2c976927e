// pkg/merge/source.go
package merge

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// SourceElement abstracts an item about to be copied: a name, a
// modification time, a directory flag, and a way to read its bytes.
// The copy/collision logic is identical whether content originates
// from disk or from inside an archive.
type SourceElement interface {
	// Name returns the element's base name
	Name() string

	// ModTime returns the modification time to stamp on the copy
	ModTime() time.Time

	// IsDir reports whether the element is a directory
	IsDir() bool

	// Open returns the element's content; regular elements must be
	// openable repeatedly.
	Open() (io.ReadCloser, error)
}

// fileElement is a SourceElement backed by a real file
type fileElement struct {
	path string
	info fs.FileInfo
}

func newFileElement(p string) (fileElement, error) {
	info, err := os.Stat(p)
	if err != nil {
		return fileElement{}, err
	}
	return fileElement{path: p, info: info}, nil
}

func (f fileElement) Name() string       { return filepath.Base(f.path) }
func (f fileElement) ModTime() time.Time { return f.info.ModTime() }
func (f fileElement) IsDir() bool        { return f.info.IsDir() }

func (f fileElement) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// zipElement is a SourceElement backed by a zip archive entry
type zipElement struct {
	file *zip.File
}

func (z zipElement) Name() string       { return path.Base(z.file.Name) }
func (z zipElement) ModTime() time.Time { return z.file.Modified }
func (z zipElement) IsDir() bool        { return z.file.FileInfo().IsDir() }

func (z zipElement) Open() (io.ReadCloser, error) {
	return z.file.Open()
}

// tempElement is a SourceElement staged to a temporary file. Stream
// archives (tar, nar) cannot reopen an entry, so their entries are
// materialized once and wrapped here.
type tempElement struct {
	path    string
	name    string
	modTime time.Time
}

// stageToTemp drains r into a fresh file under dir and wraps it
func stageToTemp(dir, name string, modTime time.Time, r io.Reader) (tempElement, error) {
	tmp, err := os.CreateTemp(dir, "entry-*")
	if err != nil {
		return tempElement{}, fmt.Errorf("creating temporary file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return tempElement{}, fmt.Errorf("staging %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return tempElement{}, err
	}
	return tempElement{path: tmp.Name(), name: name, modTime: modTime}, nil
}

func (t tempElement) Name() string       { return t.name }
func (t tempElement) ModTime() time.Time { return t.modTime }
func (t tempElement) IsDir() bool        { return false }

func (t tempElement) Open() (io.ReadCloser, error) {
	return os.Open(t.path)
}

// remove deletes the staged temporary file
func (t tempElement) remove() {
	os.Remove(t.path)
}

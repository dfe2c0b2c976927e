// pkg/merge/collision.go
package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrDestinationNotFound indicates a declared destination that is
	// not an existing directory
	ErrDestinationNotFound = errors.New("destination is not an existing directory")

	// ErrPathEscape indicates a computed destination path outside its
	// destination root
	ErrPathEscape = errors.New("destination path escapes destination root")
)

// securePath joins rel onto root and verifies the result stays within
// root; `..`-style traversal is a hard error.
func securePath(root, rel string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(rel))
	if dest != root && !strings.HasPrefix(dest, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return dest, nil
}

// placeFile copies el to root/rel, applying the collision policy.
// It returns the path at which the content now lives, or "" when
// nothing was written: a class-file collision or a failed copy, both
// reported per item so the remaining items still get processed. Only
// traversal is returned as an error.
func (e *Engine) placeFile(el SourceElement, root, rel string) (string, error) {
	dest, err := securePath(root, rel)
	if err != nil {
		return "", err
	}

	info, statErr := os.Lstat(dest)
	if statErr != nil {
		if !os.IsNotExist(statErr) {
			e.reporter.Errorf("cannot copy %s: inspecting %s: %v", rel, dest, statErr)
			e.errorsFound = true
			return "", nil
		}
		// Nothing there: the plain case
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			e.reporter.Errorf("cannot copy %s: creating directory: %v", rel, err)
			e.errorsFound = true
			return "", nil
		}
		if err := e.writeElement(el, dest); err != nil {
			e.reporter.Errorf("cannot copy %s: %v", rel, err)
			e.errorsFound = true
			return "", nil
		}
		return dest, nil
	}

	if info.Mode().IsRegular() {
		if isClassFile(rel) {
			// A compiled-class collision is always a hard collision:
			// report, write nothing, keep going.
			e.reporter.Errorf("class file collision: %s already exists at %s", rel, dest)
			e.errorsFound = true
			return "", nil
		}

		same, err := e.sameContent(el, dest)
		if err != nil {
			e.reporter.Errorf("cannot compare %s with %s: %v", rel, dest, err)
			e.errorsFound = true
			return "", nil
		}
		if same {
			e.reporter.Debugf("skipping %s: identical content already at %s", rel, dest)
			return dest, nil
		}
	}

	// Content differs, or something that is not a regular file occupies
	// the destination: fall back to a unique sibling name.
	sibling := uniqueSibling(dest)
	if err := e.writeElement(el, sibling); err != nil {
		e.reporter.Errorf("cannot copy %s: %v", rel, err)
		e.errorsFound = true
		return "", nil
	}
	e.reporter.Infof("collision: %s written as %s", rel, filepath.Base(sibling))
	return sibling, nil
}

// writeElement copies el's bytes to dest and stamps the source's
// modification time on the copy.
func (e *Engine) writeElement(el SourceElement, dest string) error {
	src, err := el.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", el.Name(), err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	mod := el.ModTime()
	if !mod.IsZero() {
		if err := os.Chtimes(dest, mod, mod); err != nil {
			e.reporter.Debugf("cannot set modification time on %s: %v", dest, err)
		}
	}
	return nil
}

// sameContent compares el's bytes with the file at dest
func (e *Engine) sameContent(el SourceElement, dest string) (bool, error) {
	src, err := el.Open()
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", el.Name(), err)
	}
	defer src.Close()

	existing, err := os.Open(dest)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", dest, err)
	}
	defer existing.Close()

	return readersEqual(src, existing)
}

// readersEqual compares two readers byte-for-byte
func readersEqual(a, b io.Reader) (bool, error) {
	bufA := make([]byte, 64*1024)
	bufB := make([]byte, 64*1024)
	for {
		nA, errA := io.ReadFull(a, bufA)
		nB, errB := io.ReadFull(b, bufB)
		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		aDone := errA == io.EOF || errA == io.ErrUnexpectedEOF
		bDone := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if errA != nil && !aDone {
			return false, errA
		}
		if errB != nil && !bDone {
			return false, errB
		}
		if aDone || bDone {
			return aDone == bDone && nA == nB, nil
		}
	}
}

// uniqueSibling generates the first unused sibling name by inserting
// -1, -2, ... before the file's extension: Foo.txt -> Foo-1.txt.
func uniqueSibling(dest string) string {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// isClassFile reports whether the path denotes a compiled-class file
func isClassFile(rel string) bool {
	return strings.HasSuffix(rel, ".class")
}

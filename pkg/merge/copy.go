// pkg/merge/copy.go
package merge

import (
	"io/fs"
	"os"
	"path/filepath"
)

// copyTree copies the directory at srcDir to root/relBase, applying the
// collision policy to every file. Symbolic links are recreated pointing
// at the same unresolved target, never followed; if anything already
// occupies the link's destination the copy is skipped with a notice.
func (e *Engine) copyTree(srcDir, root, relBase string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			e.reporter.Errorf("cannot scan %s: %v", path, walkErr)
			e.errorsFound = true
			return nil
		}

		relInside, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel := relBase
		if relInside != "." {
			rel = filepath.Join(relBase, relInside)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return e.copySymlink(path, root, rel)
		}

		if d.IsDir() {
			dest, err := securePath(root, rel)
			if err != nil {
				return err
			}
			return os.MkdirAll(dest, 0755)
		}

		el, err := newFileElement(path)
		if err != nil {
			e.reporter.Errorf("cannot read %s: %v", path, err)
			e.errorsFound = true
			return nil
		}
		_, err = e.placeFile(el, root, rel)
		return err
	})
}

// copySymlink recreates the symbolic link at src as root/rel
func (e *Engine) copySymlink(src, root, rel string) error {
	dest, err := securePath(root, rel)
	if err != nil {
		return err
	}

	target, err := os.Readlink(src)
	if err != nil {
		e.reporter.Errorf("cannot read symlink %s: %v", src, err)
		e.errorsFound = true
		return nil
	}

	if _, err := os.Lstat(dest); err == nil {
		e.reporter.Infof("skipping symlink %s: destination already occupied", rel)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		e.reporter.Errorf("cannot create directory for %s: %v", dest, err)
		e.errorsFound = true
		return nil
	}
	if err := os.Symlink(target, dest); err != nil {
		e.reporter.Errorf("cannot create symlink %s: %v", dest, err)
		e.errorsFound = true
	}
	return nil
}

// pkg/merge/expand.go
package merge

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"

	"github.com/nativekit/nativekit/pkg/dylib"
)

// archive kinds recognized among regular-file sources
type archiveFormat int

const (
	archiveNone archiveFormat = iota
	archiveZip
	archiveTarXz
	archiveNar
)

// archiveKind classifies a regular-file source by extension, falling
// back to the zip magic number for unknown names.
func archiveKind(src string) archiveFormat {
	lower := strings.ToLower(src)
	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"):
		return archiveZip
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return archiveTarXz
	case strings.HasSuffix(lower, ".nar"):
		return archiveNar
	}

	f, err := os.Open(src)
	if err != nil {
		return archiveNone
	}
	defer f.Close()
	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err == nil &&
		magic[0] == 'P' && magic[1] == 'K' && magic[2] == 3 && magic[3] == 4 {
		return archiveZip
	}
	return archiveNone
}

// Entry names excluded from expansion: signature files, the manifest,
// the module index, per-service-provider files, and a few broadly
// skippable droppings.
var (
	excludedEntryNames = map[string]bool{
		"META-INF/MANIFEST.MF": true,
		"META-INF/INDEX.LIST":  true,
	}
	excludedServicePrefix = "META-INF/services/"
	signatureExtensions   = []string{".SF", ".RSA", ".DSA", ".EC"}
	excludedBaseNames     = map[string]bool{
		"module-info.class": true,
		".DS_Store":         true,
		".gitkeep":          true,
	}
)

func excludedEntry(name string) bool {
	if excludedEntryNames[name] {
		return true
	}
	if strings.HasPrefix(name, excludedServicePrefix) {
		return true
	}
	base := path.Base(name)
	if excludedBaseNames[base] {
		return true
	}
	if strings.HasPrefix(name, "META-INF/") {
		for _, ext := range signatureExtensions {
			if strings.HasSuffix(base, ext) {
				return true
			}
		}
	}
	return false
}

// expandZip iterates every non-directory entry of a zip archive
func (e *Engine) expandZip(ctx context.Context, src string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		e.reporter.Errorf("cannot open archive %s: %v", src, err)
		e.errorsFound = true
		return nil
	}
	defer reader.Close()

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := e.placeEntry(ctx, zipElement{file: f}, f.Name); err != nil {
			return err
		}
	}
	return nil
}

// expandTarXz iterates a tar stream decompressed from xz. Entries are
// staged to temporary files because a tar stream cannot be reopened;
// the staged copies live until the archive is done so hard links can
// reuse their target's content.
func (e *Engine) expandTarXz(ctx context.Context, src string) error {
	f, err := os.Open(src)
	if err != nil {
		e.reporter.Errorf("cannot open archive %s: %v", src, err)
		e.errorsFound = true
		return nil
	}
	defer f.Close()

	xzReader, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		e.reporter.Errorf("cannot decompress archive %s: %v", src, err)
		e.errorsFound = true
		return nil
	}

	staged := make(map[string]tempElement)
	defer func() {
		for _, el := range staged {
			el.remove()
		}
	}()

	tarReader := tar.NewReader(xzReader)
	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.reporter.Errorf("cannot read archive %s: %v", src, err)
			e.errorsFound = true
			return nil
		}

		name := strings.TrimPrefix(path.Clean(hdr.Name), "./")
		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeSymlink:
			if err := e.placeEntryLink(name, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			// A hard link's target is archive-root-relative; the target
			// entry always precedes the link, so its staged copy can be
			// materialized again under the link's name.
			target := strings.TrimPrefix(path.Clean(hdr.Linkname), "./")
			el, ok := staged[target]
			if !ok {
				e.reporter.Errorf("hard link %s in %s references missing entry %s", name, src, hdr.Linkname)
				e.errorsFound = true
				continue
			}
			if err := e.placeEntry(ctx, el, name); err != nil {
				return err
			}
		case tar.TypeReg:
			el, stageErr := stageToTemp(e.tempDir, path.Base(name), hdr.ModTime, tarReader)
			if stageErr != nil {
				e.reporter.Errorf("cannot read entry %s in %s: %v", name, src, stageErr)
				e.errorsFound = true
				continue
			}
			staged[name] = el
			if err := e.placeEntry(ctx, el, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandNar iterates a nar archive, the only archive format here that
// can carry symbolic links.
func (e *Engine) expandNar(ctx context.Context, src string) error {
	f, err := os.Open(src)
	if err != nil {
		e.reporter.Errorf("cannot open archive %s: %v", src, err)
		e.errorsFound = true
		return nil
	}
	defer f.Close()

	narReader := nar.NewReader(bufio.NewReader(f))
	for {
		hdr, err := narReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			e.reporter.Errorf("cannot read archive %s: %v", src, err)
			e.errorsFound = true
			return nil
		}

		name := strings.TrimPrefix(path.Clean(hdr.Path), "/")
		switch {
		case hdr.Mode.IsDir():
			continue
		case hdr.Mode&os.ModeSymlink != 0:
			if err := e.placeEntryLink(name, hdr.LinkTarget); err != nil {
				return err
			}
		default:
			// nar carries no modification times
			el, stageErr := stageToTemp(e.tempDir, path.Base(name), time.Time{}, narReader)
			if stageErr != nil {
				e.reporter.Errorf("cannot read entry %s in %s: %v", name, src, stageErr)
				e.errorsFound = true
				continue
			}
			err := e.placeEntry(ctx, el, name)
			el.remove()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// placeEntry applies the directory-tree classification rules to one
// archive entry, operating on the entry name instead of a filesystem
// path.
func (e *Engine) placeEntry(ctx context.Context, el SourceElement, entryName string) error {
	name := strings.TrimPrefix(path.Clean(entryName), "./")

	if excludedEntry(name) {
		e.reporter.Debugf("excluding entry %s", name)
		return nil
	}

	segments := strings.Split(name, "/")

	// Frameworks cannot be represented faithfully inside an archive:
	// no symbolic-link entries in zip. Skip, do not copy.
	for _, seg := range segments[:len(segments)-1] {
		if strings.HasSuffix(seg, dylib.FrameworkSuffix) || strings.HasSuffix(seg, dylib.FrameworkDebugSuffix) {
			e.reporter.Infof("skipping framework entry inside archive: %s", name)
			return nil
		}
	}

	// A debug-symbols bundle inside an archive is a directory subtree;
	// it is recognized by its distinguished marker file.
	for i, seg := range segments[:len(segments)-1] {
		if !strings.HasSuffix(seg, dylib.DebugBundleSuffix) {
			continue
		}
		if e.libDest == "" {
			e.reporter.Debugf("skipping %s: no native-library destination", name)
			return nil
		}
		rel := strings.Join(segments[i:], "/")
		if _, err := e.placeFile(el, e.libDest, rel); err != nil {
			return err
		}
		if strings.Join(segments[i+1:], "/") == dylib.DebugBundleMarker {
			key := strings.TrimSuffix(seg, dylib.DebugBundleSuffix)
			e.libDebug[key] = filepath.Join(e.libDest, seg)
		}
		return nil
	}

	base := segments[len(segments)-1]
	if strings.HasSuffix(base, dylib.LibExtension) {
		if e.libDest == "" {
			e.reporter.Debugf("skipping %s: no native-library destination", name)
			return nil
		}
		placed, err := e.placeFile(el, e.libDest, base)
		if err != nil {
			return err
		}
		if placed == "" {
			return nil
		}
		return e.registerLibrary(ctx, placed)
	}

	if e.classDest == "" {
		e.reporter.Debugf("skipping %s: no class destination", name)
		return nil
	}
	_, err := e.placeFile(el, e.classDest, name)
	return err
}

// placeEntryLink recreates an archive symlink entry in the class
// destination, mirroring the directory-walk symlink rule.
func (e *Engine) placeEntryLink(name, target string) error {
	if excludedEntry(name) {
		e.reporter.Debugf("excluding entry %s", name)
		return nil
	}
	if e.classDest == "" {
		e.reporter.Debugf("skipping symlink %s: no class destination", name)
		return nil
	}

	dest, err := securePath(e.classDest, name)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dest); err == nil {
		e.reporter.Infof("skipping symlink %s: destination already occupied", name)
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

// pkg/nativelib/library.go
package nativelib

import (
	"fmt"

	"github.com/nativekit/nativekit/pkg/arch"
)

// libraryKind selects one of the three backing-data shapes of a Library
type libraryKind int

const (
	// singleArch is one file containing code for exactly one architecture
	singleArch libraryKind = iota
	// fatSingleFile is one universal file containing several architecture slices
	fatSingleFile
	// perArchFiles maps each architecture to its own file
	perArchFiles
)

// Library is an immutable, architecture-aware description of a native
// library on disk. The three shapes (single-architecture file, fat
// universal file, per-architecture files) are semantically equivalent
// reads of the same interface; construction always picks the simplest
// shape that fits the backing data.
type Library struct {
	name     string
	kind     libraryKind
	file     string                       // singleArch, fatSingleFile
	archs    []arch.Architecture          // canonical order, never empty
	files    map[arch.Architecture]string // perArchFiles only
	debugDir string                       // optional debug-symbols bundle
}

// New creates a Library from a basic name and a non-empty
// architecture-to-file map. One entry yields a single-architecture
// library; multiple entries backed by one distinct file yield a fat
// library; anything else yields a per-architecture-file library.
func New(name string, files map[arch.Architecture]string) (Library, error) {
	if len(files) == 0 {
		return Library{}, fmt.Errorf("library %q: no architectures", name)
	}

	set := make(map[arch.Architecture]bool, len(files))
	distinct := make(map[string]bool, len(files))
	for a, f := range files {
		set[a] = true
		distinct[f] = true
	}
	archs := arch.Sorted(set)

	if len(distinct) == 1 {
		var file string
		for f := range distinct {
			file = f
		}
		kind := fatSingleFile
		if len(archs) == 1 {
			kind = singleArch
		}
		return Library{name: name, kind: kind, file: file, archs: archs}, nil
	}

	copied := make(map[arch.Architecture]string, len(files))
	for a, f := range files {
		copied[a] = f
	}
	return Library{name: name, kind: perArchFiles, archs: archs, files: copied}, nil
}

// Name returns the basic library name (e.g. "heif" for libheif.dylib)
func (l Library) Name() string {
	return l.name
}

// Architectures returns the supported architectures in canonical order
func (l Library) Architectures() []arch.Architecture {
	out := make([]arch.Architecture, len(l.archs))
	copy(out, l.archs)
	return out
}

// Supports reports whether the library carries code for the architecture
func (l Library) Supports(a arch.Architecture) bool {
	for _, have := range l.archs {
		if have == a {
			return true
		}
	}
	return false
}

// File returns the single backing file when the library is backed by
// exactly one file. For a per-architecture library with several
// distinct files it returns ok=false; callers needing one file must
// build a universal binary first.
func (l Library) File() (string, bool) {
	switch l.kind {
	case singleArch, fatSingleFile:
		return l.file, true
	default:
		return "", false
	}
}

// FileFor returns the file backing the given architecture, or ok=false
// when the architecture is unsupported.
func (l Library) FileFor(a arch.Architecture) (string, bool) {
	if !l.Supports(a) {
		return "", false
	}
	if l.kind == perArchFiles {
		return l.files[a], true
	}
	return l.file, true
}

// DistinctFiles returns the distinct backing files, one entry per file,
// in canonical architecture order.
func (l Library) DistinctFiles() []string {
	if l.kind != perArchFiles {
		return []string{l.file}
	}
	seen := make(map[string]bool, len(l.files))
	var out []string
	for _, a := range l.archs {
		f := l.files[a]
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// DebugSymbols returns the associated debug-symbols directory, if any
func (l Library) DebugSymbols() (string, bool) {
	return l.debugDir, l.debugDir != ""
}

// WithDebugSymbols returns an equivalent library bound to a
// debug-symbols directory. The receiver is left untouched.
func (l Library) WithDebugSymbols(dir string) Library {
	out := l
	out.debugDir = dir
	return out
}

// Intersect narrows the library to the requested architecture set and
// re-derives the simplest applicable shape. ok=false means the
// intersection is empty and no library can be built.
func (l Library) Intersect(requested []arch.Architecture) (Library, bool) {
	files := make(map[arch.Architecture]string)
	for _, a := range requested {
		if f, ok := l.FileFor(a); ok {
			files[a] = f
		}
	}
	if len(files) == 0 {
		return Library{}, false
	}
	out, err := New(l.name, files)
	if err != nil {
		return Library{}, false
	}
	out.debugDir = l.debugDir
	return out, true
}

// pkg/deps/resolver.go
package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/core"
	"github.com/nativekit/nativekit/pkg/dylib"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

var (
	// ErrLibraryNotFound indicates the subject library file does not exist
	ErrLibraryNotFound = errors.New("library file not found")

	// ErrMultiFileLibrary indicates dependency discovery was requested
	// for a multi-file library through the single-file entry point
	ErrMultiFileLibrary = errors.New("library is not backed by a single file")
)

// NameFilter maps a raw dependency path to an optional basic library
// name. It both normalizes names and excludes uninteresting (system)
// dependencies: ok=false means "skip this dependency".
type NameFilter func(path string) (string, bool)

// PrefixFilter returns a NameFilter accepting only libraries installed
// under one of the given path prefixes, normalized through
// dylib.ToLibraryName.
func PrefixFilter(prefixes []string) NameFilter {
	return func(path string) (string, bool) {
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
				return dylib.ToLibraryName(path)
			}
		}
		return "", false
	}
}

// Resolver lists a library's direct link-time dependencies per
// architecture by invoking the external dependency-listing tool.
type Resolver struct {
	inspector *dylib.Inspector
	reporter  core.Reporter
}

// NewResolver creates a Resolver. A nil inspector gets a default one;
// a nil reporter discards diagnostics.
func NewResolver(inspector *dylib.Inspector, reporter core.Reporter) *Resolver {
	if reporter == nil {
		reporter = core.DiscardReporter()
	}
	if inspector == nil {
		inspector = dylib.NewInspector(nil, reporter)
	}
	return &Resolver{inspector: inspector, reporter: reporter}
}

// RawDependencies invokes the dependency-listing tool on one file and
// parses its output into architecture name -> dependency paths.
func (r *Resolver) RawDependencies(ctx context.Context, file string) (map[string][]string, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, file)
	}

	out, err := r.inspector.Runner().Run(ctx, dylib.DefaultOtoolTool, "-L", "-arch", "all", file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dylib.ErrToolFailed, err)
	}

	return dylib.ParseDependencies(bytes.NewReader(out), r.inspector.Describe(ctx, file), r.reporter)
}

// ResolveFile resolves the interesting direct dependencies of a single
// library file.
func (r *Resolver) ResolveFile(ctx context.Context, file string, filter NameFilter) (map[string]nativelib.Library, error) {
	raw, err := r.RawDependencies(ctx, file)
	if err != nil {
		return nil, err
	}
	return buildLibraries(raw, filter)
}

// ResolveSingle is the single-file entry point: it requires the subject
// library to be backed by exactly one file.
func (r *Resolver) ResolveSingle(ctx context.Context, lib nativelib.Library, filter NameFilter) (map[string]nativelib.Library, error) {
	file, ok := lib.File()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMultiFileLibrary, lib.Name())
	}
	return r.ResolveFile(ctx, file, filter)
}

// Resolve resolves the interesting direct dependencies of a library,
// invoking the tool once per distinct backing file and merging the raw
// results before filtering.
func (r *Resolver) Resolve(ctx context.Context, lib nativelib.Library, filter NameFilter) (map[string]nativelib.Library, error) {
	merged := make(map[string][]string)
	for _, file := range lib.DistinctFiles() {
		raw, err := r.RawDependencies(ctx, file)
		if err != nil {
			return nil, err
		}
		for archName, paths := range raw {
			for _, path := range paths {
				merged[archName] = appendUnique(merged[archName], path)
			}
		}
	}
	return buildLibraries(merged, filter)
}

// buildLibraries applies the name filter to every raw dependency path
// and constructs one Library per interesting basic name, restricted to
// the architectures where that name actually appeared.
func buildLibraries(raw map[string][]string, filter NameFilter) (map[string]nativelib.Library, error) {
	interesting := make(map[string]bool)
	for _, paths := range raw {
		for _, path := range paths {
			if name, ok := filter(path); ok {
				interesting[name] = true
			}
		}
	}

	out := make(map[string]nativelib.Library, len(interesting))
	for name := range interesting {
		files := make(map[arch.Architecture]string)
		for archName, paths := range raw {
			a, ok := arch.Parse(archName)
			if !ok {
				continue
			}
			for _, path := range paths {
				if n, ok := filter(path); ok && n == name {
					files[a] = path
				}
			}
		}
		if len(files) == 0 {
			continue
		}
		lib, err := nativelib.New(name, files)
		if err != nil {
			return nil, err
		}
		out[name] = lib
	}
	return out, nil
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

// pkg/merge/engine.go
package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nativekit/nativekit/pkg/core"
	"github.com/nativekit/nativekit/pkg/dylib"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

// engineState tracks a run through its phases; an Engine is single-use
type engineState int

const (
	stateUnvalidated engineState = iota
	stateValidated
	stateProcessing
	stateReconciling
	stateDone
)

// Config configures a merge-engine run
type Config struct {
	// Sources are zip archives, tar.xz archives, nar archives, loose
	// files, or directories, processed in slice order.
	Sources []string

	// ClassDest receives classes and resources; empty skips the
	// category entirely (its items are not even classified).
	ClassDest string

	// LibDest receives native libraries and their debug symbols
	LibDest string

	// FrameworkDest receives frameworks and their debug symbols
	FrameworkDest string

	// Inspector discovers library architectures; nil gets a default
	Inspector *dylib.Inspector

	// Reporter receives diagnostics; nil discards them
	Reporter core.Reporter
}

// Result is the outcome of a merge-engine run
type Result struct {
	// ErrorsFound is true when any per-item error was reported; the
	// output should not be shipped in that case.
	ErrorsFound bool

	// Libraries are the discovered native libraries, possibly
	// debug-symbol-annotated, sorted by basic name.
	Libraries []nativelib.Library

	// Frameworks are the discovered native frameworks, sorted by name
	Frameworks []nativelib.Framework
}

// Engine walks archives and directory trees, classifies every
// discovered item, copies it into the correct destination root, and
// resolves name collisions. Not safe for concurrent use; run
// independent engines only against non-overlapping destinations.
type Engine struct {
	cfg       Config
	reporter  core.Reporter
	inspector *dylib.Inspector
	state     engineState

	classDest string
	libDest   string
	fwDest    string

	tempDir string

	errorsFound bool
	libs        map[string]nativelib.Library   // basic name -> library
	frameworks  map[string]nativelib.Framework // name -> framework
	libDebug    map[string]string              // bundle basename minus .dSYM -> copied bundle
	fwDebug     map[string]string              // ditto for frameworks
}

// NewEngine creates a single-use Engine for the given configuration
func NewEngine(cfg Config) *Engine {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = core.DiscardReporter()
	}
	inspector := cfg.Inspector
	if inspector == nil {
		inspector = dylib.NewInspector(nil, reporter)
	}
	return &Engine{
		cfg:        cfg,
		reporter:   reporter,
		inspector:  inspector,
		libs:       make(map[string]nativelib.Library),
		frameworks: make(map[string]nativelib.Framework),
		libDebug:   make(map[string]string),
		fwDebug:    make(map[string]string),
	}
}

// Run validates the destinations, processes every source in order,
// reconciles debug-symbols bundles, and returns the aggregate result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state != stateUnvalidated {
		return nil, errors.New("merge engine already run")
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	e.state = stateValidated

	tempDir, err := os.MkdirTemp("", "nativekit-merge-")
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	e.tempDir = tempDir
	defer os.RemoveAll(tempDir)

	e.state = stateProcessing
	for _, src := range e.cfg.Sources {
		if err := e.processSource(ctx, src); err != nil {
			return nil, err
		}
	}

	e.state = stateReconciling
	e.reconcile()

	e.state = stateDone
	return e.result(), nil
}

// validate resolves each declared destination to an absolute,
// symlink-resolved path and requires it to be an existing directory.
func (e *Engine) validate() error {
	resolve := func(dest string) (string, error) {
		if dest == "" {
			return "", nil
		}
		info, err := os.Stat(dest)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrDestinationNotFound, dest)
		}
		resolved, err := filepath.EvalSymlinks(dest)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrDestinationNotFound, dest)
		}
		return filepath.Abs(resolved)
	}

	var err error
	if e.classDest, err = resolve(e.cfg.ClassDest); err != nil {
		return err
	}
	if e.libDest, err = resolve(e.cfg.LibDest); err != nil {
		return err
	}
	if e.fwDest, err = resolve(e.cfg.FrameworkDest); err != nil {
		return err
	}
	return nil
}

// processSource classifies and dispatches one top-level source item
func (e *Engine) processSource(ctx context.Context, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		e.reporter.Errorf("cannot read source %s: %v", src, err)
		e.errorsFound = true
		return nil
	}

	if info.IsDir() {
		e.reporter.Debugf("expanding directory %s", src)
		return e.processDirectory(ctx, src)
	}

	switch kind := archiveKind(src); kind {
	case archiveZip:
		e.reporter.Debugf("expanding archive %s", src)
		return e.expandZip(ctx, src)
	case archiveTarXz:
		e.reporter.Debugf("expanding archive %s", src)
		return e.expandTarXz(ctx, src)
	case archiveNar:
		e.reporter.Debugf("expanding archive %s", src)
		return e.expandNar(ctx, src)
	}

	if isLibraryFile(src) {
		return e.copyLibraryFile(ctx, src)
	}

	if e.classDest == "" {
		e.reporter.Debugf("skipping %s: no class destination", src)
		return nil
	}
	el, err := newFileElement(src)
	if err != nil {
		e.reporter.Errorf("cannot read source %s: %v", src, err)
		e.errorsFound = true
		return nil
	}
	_, err = e.placeFile(el, e.classDest, el.Name())
	return err
}

// processDirectory classifies the items of a directory source
func (e *Engine) processDirectory(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.reporter.Errorf("cannot scan directory %s: %v", dir, err)
		e.errorsFound = true
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		if entry.Type()&fs.ModeSymlink != 0 {
			if e.classDest == "" {
				e.reporter.Debugf("skipping symlink %s: no class destination", full)
				continue
			}
			if err := e.copySymlink(full, e.classDest, name); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			if err := e.dispatchDirectory(ctx, full, name); err != nil {
				return err
			}
			continue
		}

		if isLibraryFile(full) {
			if err := e.copyLibraryFile(ctx, full); err != nil {
				return err
			}
			continue
		}

		if e.classDest == "" {
			e.reporter.Debugf("skipping %s: no class destination", full)
			continue
		}
		el, err := newFileElement(full)
		if err != nil {
			e.reporter.Errorf("cannot read %s: %v", full, err)
			e.errorsFound = true
			continue
		}
		if _, err := e.placeFile(el, e.classDest, name); err != nil {
			return err
		}
	}
	return nil
}

// dispatchDirectory handles one directory item found inside a source
func (e *Engine) dispatchDirectory(ctx context.Context, full, name string) error {
	switch {
	case strings.HasSuffix(name, dylib.FrameworkDebugSuffix):
		if e.fwDest == "" {
			e.reporter.Debugf("skipping %s: no framework destination", full)
			return nil
		}
		if err := e.copyTree(full, e.fwDest, name); err != nil {
			return err
		}
		e.fwDebug[strings.TrimSuffix(name, dylib.DebugBundleSuffix)] = filepath.Join(e.fwDest, name)

	case strings.HasSuffix(name, dylib.FrameworkSuffix):
		if e.fwDest == "" {
			e.reporter.Debugf("skipping %s: no framework destination", full)
			return nil
		}
		if err := e.copyTree(full, e.fwDest, name); err != nil {
			return err
		}
		return e.registerFramework(ctx, name)

	case strings.HasSuffix(name, dylib.DebugBundleSuffix):
		if e.libDest == "" {
			e.reporter.Debugf("skipping %s: no native-library destination", full)
			return nil
		}
		if err := e.copyTree(full, e.libDest, name); err != nil {
			return err
		}
		e.libDebug[strings.TrimSuffix(name, dylib.DebugBundleSuffix)] = filepath.Join(e.libDest, name)

	default:
		if e.classDest == "" {
			e.reporter.Debugf("skipping %s: no class destination", full)
			return nil
		}
		return e.copyTree(full, e.classDest, name)
	}
	return nil
}

// copyLibraryFile copies a native library into the library destination
// and registers it through discovery.
func (e *Engine) copyLibraryFile(ctx context.Context, src string) error {
	if e.libDest == "" {
		e.reporter.Debugf("skipping %s: no native-library destination", src)
		return nil
	}
	el, err := newFileElement(src)
	if err != nil {
		e.reporter.Errorf("cannot read %s: %v", src, err)
		e.errorsFound = true
		return nil
	}
	placed, err := e.placeFile(el, e.libDest, el.Name())
	if err != nil {
		return err
	}
	if placed == "" {
		return nil
	}
	return e.registerLibrary(ctx, placed)
}

// registerLibrary runs discovery on a copied library file. Tool
// failures are fatal; unrecognized names and empty architecture sets
// are per-item errors.
func (e *Engine) registerLibrary(ctx context.Context, file string) error {
	lib, err := e.inspector.CreateForFile(ctx, file)
	if err != nil {
		if errors.Is(err, dylib.ErrToolFailed) || errors.Is(err, dylib.ErrUnparsableOutput) {
			return err
		}
		e.reporter.Errorf("cannot register %s: %v", file, err)
		e.errorsFound = true
		return nil
	}
	e.libs[lib.Name()] = lib
	e.reporter.Debugf("discovered library %s (%v)", lib.Name(), lib.Architectures())
	return nil
}

// registerFramework constructs the framework value for a copied bundle
func (e *Engine) registerFramework(ctx context.Context, bundleName string) error {
	fwName := strings.TrimSuffix(bundleName, dylib.FrameworkSuffix)
	root := filepath.Join(e.fwDest, bundleName)

	var libPtr *nativelib.Library
	libFile := filepath.Join(root, fwName)
	if info, err := os.Stat(libFile); err == nil && !info.IsDir() {
		lib, err := e.inspector.CreateForFrameworkFile(ctx, libFile)
		if err != nil {
			if errors.Is(err, dylib.ErrToolFailed) || errors.Is(err, dylib.ErrUnparsableOutput) {
				return err
			}
			e.reporter.Errorf("cannot inspect framework library %s: %v", libFile, err)
			e.errorsFound = true
		} else {
			libPtr = &lib
		}
	}

	e.frameworks[fwName] = nativelib.NewFramework(fwName, libPtr, root)
	e.reporter.Debugf("discovered framework %s", fwName)
	return nil
}

// reconcile binds every indexed debug-symbols bundle to the library or
// framework whose basename matches the bundle name with the suffix
// stripped. Unmatched bundles stay silently unmatched.
func (e *Engine) reconcile() {
	for key, bundle := range e.libDebug {
		matched := false
		for name, lib := range e.libs {
			if file, ok := lib.File(); ok && filepath.Base(file) == key {
				e.libs[name] = lib.WithDebugSymbols(bundle)
				matched = true
			}
		}
		if !matched {
			e.reporter.Debugf("debug symbols %s match no library", bundle)
		}
	}

	for key, bundle := range e.fwDebug {
		fwName := strings.TrimSuffix(key, dylib.FrameworkSuffix)
		if fw, ok := e.frameworks[fwName]; ok {
			e.frameworks[fwName] = fw.WithDebugSymbols(bundle)
		} else {
			e.reporter.Debugf("debug symbols %s match no framework", bundle)
		}
	}
}

// result assembles the final, name-sorted run outcome
func (e *Engine) result() *Result {
	res := &Result{ErrorsFound: e.errorsFound}

	libNames := make([]string, 0, len(e.libs))
	for name := range e.libs {
		libNames = append(libNames, name)
	}
	sort.Strings(libNames)
	for _, name := range libNames {
		res.Libraries = append(res.Libraries, e.libs[name])
	}

	fwNames := make([]string, 0, len(e.frameworks))
	for name := range e.frameworks {
		fwNames = append(fwNames, name)
	}
	sort.Strings(fwNames)
	for _, name := range fwNames {
		res.Frameworks = append(res.Frameworks, e.frameworks[name])
	}

	return res
}

// isLibraryFile recognizes a native library by filename: the library
// extension, outside any debug-symbols bundle path.
func isLibraryFile(path string) bool {
	if !strings.HasSuffix(path, dylib.LibExtension) {
		return false
	}
	return !strings.Contains(path, dylib.DebugBundleSuffix+string(filepath.Separator))
}

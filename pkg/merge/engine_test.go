// pkg/merge/engine_test.go
package merge

import (
	"archive/zip"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/dylib"
)

// runnerFunc adapts a function to the dylib.Runner interface
type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// thinInspector answers every file-type query with a thin Intel library
func thinInspector() *dylib.Inspector {
	return dylib.NewInspector(runnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Mach-O 64-bit dynamically linked shared library x86_64\n"), nil
	}), nil)
}

type zipEntry struct {
	name string
	body string
}

func writeZip(t *testing.T, name string, entries []zipEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for _, entry := range entries {
		ew, err := w.Create(entry.name)
		require.NoError(t, err)
		_, err = ew.Write([]byte(entry.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

func TestRunMissingDestination(t *testing.T) {
	engine := NewEngine(Config{
		ClassDest: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	_, err := engine.Run(context.Background())
	require.ErrorIs(t, err, ErrDestinationNotFound)
}

func TestRunSingleUse(t *testing.T) {
	engine := NewEngine(Config{ClassDest: t.TempDir()})

	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.Error(t, err, "a spent engine refuses to run again")
}

func TestRunDirectoryWithLibraryAndDebugSymbols(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "libfoo.dylib"), []byte("machO"), 0644))
	bundle := filepath.Join(src, "libfoo.dylib.dSYM", "Contents", "Resources", "DWARF")
	require.NoError(t, os.MkdirAll(bundle, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "libfoo.dylib"), []byte("dwarf"), 0644))

	libDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{src},
		ClassDest: t.TempDir(),
		LibDest:   libDest,
		Inspector: thinInspector(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)

	require.Len(t, result.Libraries, 1)
	lib := result.Libraries[0]
	assert.Equal(t, "foo", lib.Name())
	assert.Equal(t, []arch.Architecture{arch.ArchIntel}, lib.Architectures())

	file, ok := lib.File()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(libDest, "libfoo.dylib"), file)

	debug, ok := lib.DebugSymbols()
	require.True(t, ok, "the bundle reconciles against the library basename")
	assert.Equal(t, filepath.Join(libDest, "libfoo.dylib.dSYM"), debug)
	assert.FileExists(t, filepath.Join(debug, "Contents", "Resources", "DWARF", "libfoo.dylib"))
}

func TestRunDirectoryWithFramework(t *testing.T) {
	src := t.TempDir()
	fwRoot := filepath.Join(src, "Foo.framework")
	require.NoError(t, os.MkdirAll(fwRoot, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fwRoot, "Foo"), []byte("machO"), 0644))
	dsym := filepath.Join(src, "Foo.framework.dSYM", "Contents")
	require.NoError(t, os.MkdirAll(dsym, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dsym, "Info.plist"), []byte("<plist/>"), 0644))

	fwDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:       []string{src},
		ClassDest:     t.TempDir(),
		FrameworkDest: fwDest,
		Inspector:     thinInspector(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)

	require.Len(t, result.Frameworks, 1)
	fw := result.Frameworks[0]
	assert.Equal(t, "Foo", fw.Name())
	assert.False(t, fw.IsSystem())

	root, ok := fw.Root()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(fwDest, "Foo.framework"), root)

	debug, ok := fw.DebugSymbols()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(fwDest, "Foo.framework.dSYM"), debug)
}

func TestRunZipExpansion(t *testing.T) {
	archive := writeZip(t, "input.jar", []zipEntry{
		{"com/example/App.class", "class bytes"},
		{"resources/data.txt", "data"},
		{"native/libfoo.dylib", "machO"},
	})

	classDest := t.TempDir()
	libDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{archive},
		ClassDest: classDest,
		LibDest:   libDest,
		Inspector: thinInspector(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)

	assert.Equal(t, []string{"com/example/App.class", "resources/data.txt"}, listFiles(t, classDest))
	// Library entries flatten to the destination root
	assert.Equal(t, []string{"libfoo.dylib"}, listFiles(t, libDest))
	require.Len(t, result.Libraries, 1)
	assert.Equal(t, "foo", result.Libraries[0].Name())
}

func TestRunZipIdempotence(t *testing.T) {
	archive := writeZip(t, "input.zip", []zipEntry{
		{"a/one.txt", "one"},
		{"b/two.txt", "two"},
	})

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{archive, archive},
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)
	assert.Equal(t, []string{"a/one.txt", "b/two.txt"}, listFiles(t, classDest),
		"identical content expands to nothing new")
}

func TestRunManifestsNeverCollide(t *testing.T) {
	first := writeZip(t, "first.jar", []zipEntry{
		{"META-INF/MANIFEST.MF", "Manifest-Version: 1.0\nMain-Class: a.A\n"},
		{"a/A.class", "a"},
	})
	second := writeZip(t, "second.jar", []zipEntry{
		{"META-INF/MANIFEST.MF", "Manifest-Version: 1.0\nMain-Class: b.B\n"},
		{"b/B.class", "b"},
	})

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{first, second},
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)
	assert.Equal(t, []string{"a/A.class", "b/B.class"}, listFiles(t, classDest))
}

func TestRunCollisionSiblingNames(t *testing.T) {
	var sources []string
	for _, body := range []string{"first", "second", "third"} {
		dir := t.TempDir()
		path := filepath.Join(dir, "Foo.txt")
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		sources = append(sources, path)
	}

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   sources,
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound, "resource collisions resolve without error")
	assert.Equal(t, []string{"Foo-1.txt", "Foo-2.txt", "Foo.txt"}, listFiles(t, classDest))
}

func TestRunClassCollision(t *testing.T) {
	first := writeZip(t, "first.jar", []zipEntry{{"a/A.class", "old bytes"}})
	second := writeZip(t, "second.jar", []zipEntry{{"a/A.class", "new bytes"}})

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{first, second},
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err, "a class collision is a per-item error, not a run failure")
	assert.True(t, result.ErrorsFound)

	// First writer wins; no sibling is generated for class files
	assert.Equal(t, []string{"a/A.class"}, listFiles(t, classDest))
	content, err := os.ReadFile(filepath.Join(classDest, "a", "A.class"))
	require.NoError(t, err)
	assert.Equal(t, "old bytes", string(content))
}

func TestRunClassCollisionIgnoresContent(t *testing.T) {
	first := writeZip(t, "first.jar", []zipEntry{{"a/A.class", "same bytes"}})
	second := writeZip(t, "second.jar", []zipEntry{{"a/A.class", "same bytes"}})

	engine := NewEngine(Config{
		Sources:   []string{first, second},
		ClassDest: t.TempDir(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.ErrorsFound,
		"a class destination hit is a collision even for identical bytes")
}

func TestRunBlockedDestinationIsPerItemError(t *testing.T) {
	archive := writeZip(t, "input.zip", []zipEntry{
		{"a/x.txt", "x"},
		{"b/y.txt", "y"},
	})

	classDest := t.TempDir()
	// A regular file where the first entry needs a directory
	require.NoError(t, os.WriteFile(filepath.Join(classDest, "a"), []byte("blocker"), 0644))

	engine := NewEngine(Config{
		Sources:   []string{archive},
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err, "a failed copy must not abort the run")
	assert.True(t, result.ErrorsFound)
	assert.FileExists(t, filepath.Join(classDest, "b", "y.txt"),
		"items after the failed one still get placed")
}

func TestRunRejectsPathTraversal(t *testing.T) {
	archive := writeZip(t, "evil.zip", []zipEntry{{"../evil.txt", "payload"}})

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{archive},
		ClassDest: classDest,
	})

	_, err := engine.Run(context.Background())
	require.ErrorIs(t, err, ErrPathEscape)
	assert.Empty(t, listFiles(t, classDest))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(classDest), "evil.txt"))
}

func TestRunFrameworkEntriesInsideArchiveAreSkipped(t *testing.T) {
	archive := writeZip(t, "input.zip", []zipEntry{
		{"Foo.framework/Versions/A/Foo", "machO"},
		{"readme.txt", "hello"},
	})

	classDest := t.TempDir()
	fwDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:       []string{archive},
		ClassDest:     classDest,
		FrameworkDest: fwDest,
		Inspector:     thinInspector(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)
	assert.Empty(t, result.Frameworks)
	assert.Empty(t, listFiles(t, fwDest))
	assert.Equal(t, []string{"readme.txt"}, listFiles(t, classDest))
}

func TestRunArchiveDebugBundle(t *testing.T) {
	archive := writeZip(t, "input.zip", []zipEntry{
		{"native/libfoo.dylib", "machO"},
		{"native/libfoo.dylib.dSYM/Contents/Info.plist", "<plist/>"},
		{"native/libfoo.dylib.dSYM/Contents/Resources/DWARF/libfoo.dylib", "dwarf"},
	})

	libDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{archive},
		ClassDest: t.TempDir(),
		LibDest:   libDest,
		Inspector: thinInspector(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)

	require.Len(t, result.Libraries, 1)
	debug, ok := result.Libraries[0].DebugSymbols()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(libDest, "libfoo.dylib.dSYM"), debug)
}

func TestRunSymlinkRecreation(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "real.txt"), []byte("x"), 0644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(src, "alias.txt")))

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{src},
		ClassDest: classDest,
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)

	target, err := os.Readlink(filepath.Join(classDest, "alias.txt"))
	require.NoError(t, err)
	assert.Equal(t, "real.txt", target)
}

func TestRunUnreadableSourceIsPerItemError(t *testing.T) {
	engine := NewEngine(Config{
		Sources:   []string{filepath.Join(t.TempDir(), "missing.zip")},
		ClassDest: t.TempDir(),
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.ErrorsFound)
}

func TestRunSkipsCategoriesWithoutDestination(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "libfoo.dylib"), []byte("machO"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("hello"), 0644))

	classDest := t.TempDir()
	engine := NewEngine(Config{
		Sources:   []string{src},
		ClassDest: classDest,
		// no LibDest: library items are skipped, not errors
	})

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.ErrorsFound)
	assert.Empty(t, result.Libraries)
	assert.Equal(t, []string{"readme.txt"}, listFiles(t, classDest))
}

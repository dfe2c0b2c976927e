// pkg/nativelib/library_test.go
package nativelib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativekit/nativekit/pkg/arch"
)

func TestNewEmptyMap(t *testing.T) {
	_, err := New("foo", nil)
	require.Error(t, err)

	_, err = New("foo", map[arch.Architecture]string{})
	require.Error(t, err)
}

func TestNewSingleArchitecture(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/libfoo.dylib",
	})
	require.NoError(t, err)

	assert.Equal(t, "foo", lib.Name())
	assert.Equal(t, []arch.Architecture{arch.ArchIntel}, lib.Architectures())

	file, ok := lib.File()
	require.True(t, ok)
	assert.Equal(t, "/tmp/libfoo.dylib", file)

	file, ok = lib.FileFor(arch.ArchIntel)
	require.True(t, ok)
	assert.Equal(t, "/tmp/libfoo.dylib", file)

	_, ok = lib.FileFor(arch.ArchARM)
	assert.False(t, ok)
}

func TestNewFatSingleFile(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/libfoo.dylib",
		arch.ArchARM:   "/tmp/libfoo.dylib",
	})
	require.NoError(t, err)

	assert.Equal(t, []arch.Architecture{arch.ArchIntel, arch.ArchARM}, lib.Architectures())

	file, ok := lib.File()
	require.True(t, ok)
	assert.Equal(t, "/tmp/libfoo.dylib", file)

	assert.Equal(t, []string{"/tmp/libfoo.dylib"}, lib.DistinctFiles())
}

func TestNewPerArchitectureFiles(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/intel/libfoo.dylib",
		arch.ArchARM:   "/tmp/arm/libfoo.dylib",
	})
	require.NoError(t, err)

	_, ok := lib.File()
	assert.False(t, ok, "multi-file library has no single file")

	file, ok := lib.FileFor(arch.ArchARM)
	require.True(t, ok)
	assert.Equal(t, "/tmp/arm/libfoo.dylib", file)

	assert.Equal(t, []string{"/tmp/intel/libfoo.dylib", "/tmp/arm/libfoo.dylib"}, lib.DistinctFiles())
}

func TestWithDebugSymbolsIsPure(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/libfoo.dylib",
	})
	require.NoError(t, err)

	annotated := lib.WithDebugSymbols("/tmp/libfoo.dylib.dSYM")

	dir, ok := annotated.DebugSymbols()
	require.True(t, ok)
	assert.Equal(t, "/tmp/libfoo.dylib.dSYM", dir)

	_, ok = lib.DebugSymbols()
	assert.False(t, ok, "original value must stay unannotated")

	assert.Equal(t, lib.Architectures(), annotated.Architectures())
}

func TestIntersectCollapsesShape(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/intel/libfoo.dylib",
		arch.ArchARM:   "/tmp/arm/libfoo.dylib",
	})
	require.NoError(t, err)

	narrowed, ok := lib.Intersect([]arch.Architecture{arch.ArchARM})
	require.True(t, ok)

	// Only one distinct file remains, so the simplest shape applies
	file, ok := narrowed.File()
	require.True(t, ok)
	assert.Equal(t, "/tmp/arm/libfoo.dylib", file)
	assert.Equal(t, []arch.Architecture{arch.ArchARM}, narrowed.Architectures())
}

func TestIntersectEmpty(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/libfoo.dylib",
	})
	require.NoError(t, err)

	_, ok := lib.Intersect([]arch.Architecture{arch.ArchARM})
	assert.False(t, ok)
}

func TestIntersectKeepsDebugSymbols(t *testing.T) {
	lib, err := New("foo", map[arch.Architecture]string{
		arch.ArchIntel: "/tmp/libfoo.dylib",
		arch.ArchARM:   "/tmp/libfoo.dylib",
	})
	require.NoError(t, err)
	lib = lib.WithDebugSymbols("/tmp/libfoo.dylib.dSYM")

	narrowed, ok := lib.Intersect([]arch.Architecture{arch.ArchIntel})
	require.True(t, ok)

	dir, ok := narrowed.DebugSymbols()
	require.True(t, ok)
	assert.Equal(t, "/tmp/libfoo.dylib.dSYM", dir)
}

func TestFramework(t *testing.T) {
	lib, err := New("Foo", map[arch.Architecture]string{
		arch.ArchARM: "/tmp/Foo.framework/Foo",
	})
	require.NoError(t, err)

	fw := NewFramework("Foo", &lib, "/tmp/Foo.framework")
	assert.Equal(t, "Foo", fw.Name())
	assert.False(t, fw.IsSystem())

	root, ok := fw.Root()
	require.True(t, ok)
	assert.Equal(t, "/tmp/Foo.framework", root)

	file, ok := fw.File()
	require.True(t, ok)
	assert.Equal(t, "/tmp/Foo.framework/Foo", file)

	annotated := fw.WithDebugSymbols("/tmp/Foo.framework.dSYM")
	dir, ok := annotated.DebugSymbols()
	require.True(t, ok)
	assert.Equal(t, "/tmp/Foo.framework.dSYM", dir)
	_, ok = fw.DebugSymbols()
	assert.False(t, ok)
}

func TestSystemFramework(t *testing.T) {
	fw := NewSystemFramework("Cocoa")
	assert.True(t, fw.IsSystem())

	_, ok := fw.Library()
	assert.False(t, ok)
	_, ok = fw.Root()
	assert.False(t, ok)
	_, ok = fw.File()
	assert.False(t, ok)

	// Binding debug symbols to a system framework changes nothing
	annotated := fw.WithDebugSymbols("/tmp/Cocoa.framework.dSYM")
	_, ok = annotated.DebugSymbols()
	assert.False(t, ok)
}

// pkg/dylib/discover_test.go
package dylib

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativekit/nativekit/pkg/arch"
)

// runnerFunc adapts a function to the Runner interface
type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

func fileToolRunner(t *testing.T, output string) Runner {
	t.Helper()
	return runnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		require.Equal(t, DefaultFileTool, name)
		require.Equal(t, "-b", args[0])
		return []byte(output + "\n"), nil
	})
}

func TestCreateForFileSingleArchitecture(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "Mach-O 64-bit dynamically linked shared library x86_64"), nil)

	lib, err := in.CreateForFile(context.Background(), "/tmp/libheif.2.0.dylib")
	require.NoError(t, err)

	assert.Equal(t, "heif", lib.Name())
	assert.Equal(t, []arch.Architecture{arch.ArchIntel}, lib.Architectures())

	file, ok := lib.File()
	require.True(t, ok)
	assert.Equal(t, "/tmp/libheif.2.0.dylib", file)
}

func TestCreateForFileUniversal(t *testing.T) {
	in := NewInspector(fileToolRunner(t,
		"Mach-O universal binary with 2 architectures: [x86_64:foo] [arm64:bar]"), nil)

	lib, err := in.CreateForFile(context.Background(), "/tmp/libfoo.dylib")
	require.NoError(t, err)

	assert.Equal(t, []arch.Architecture{arch.ArchIntel, arch.ArchARM}, lib.Architectures())
	_, ok := lib.File()
	assert.True(t, ok, "a universal library is still backed by one file")
}

func TestCreateForFileUnrecognizedName(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "irrelevant"), nil)

	_, err := in.CreateForFile(context.Background(), "/tmp/heif.so")
	require.ErrorIs(t, err, ErrUnrecognizedName)
}

func TestCreateForFileNoSupportedArchitectures(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "Mach-O executable ppc"), nil)

	_, err := in.CreateForFile(context.Background(), "/tmp/libfoo.dylib")
	require.ErrorIs(t, err, ErrNoArchitectures)
}

func TestCreateForFileNonMachO(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "ASCII text"), nil)

	_, err := in.CreateForFile(context.Background(), "/tmp/libfoo.dylib")
	require.ErrorIs(t, err, ErrUnparsableOutput,
		"output describing a non-Mach-O file is unparsable, not architecture-free")
}

func TestCreateForFileToolFailure(t *testing.T) {
	in := NewInspector(runnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}), nil)

	_, err := in.CreateForFile(context.Background(), "/tmp/libfoo.dylib")
	require.ErrorIs(t, err, ErrToolFailed)
}

func TestCreateForFrameworkFile(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "Mach-O 64-bit dynamically linked shared library arm64"), nil)

	lib, err := in.CreateForFrameworkFile(context.Background(), "/tmp/Foo.framework/Foo")
	require.NoError(t, err)

	assert.Equal(t, "Foo", lib.Name(), "framework library files keep their literal name")
	assert.Equal(t, []arch.Architecture{arch.ArchARM}, lib.Architectures())
}

func TestCreateUniversal(t *testing.T) {
	var gotName string
	var gotArgs []string
	in := NewInspector(runnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return nil, nil
	}), nil)

	err := in.CreateUniversal(context.Background(), "/tmp/out/libfoo.dylib",
		"/tmp/intel/libfoo.dylib", "/tmp/arm/libfoo.dylib")
	require.NoError(t, err)

	assert.Equal(t, DefaultLipoTool, gotName)
	assert.Equal(t, []string{
		"/tmp/intel/libfoo.dylib", "/tmp/arm/libfoo.dylib",
		"-create", "-output", "/tmp/out/libfoo.dylib",
	}, gotArgs)
}

func TestCreateUniversalFailure(t *testing.T) {
	in := NewInspector(runnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}), nil)

	err := in.CreateUniversal(context.Background(), "/tmp/out", "/tmp/in")
	require.ErrorIs(t, err, ErrToolFailed)
}

func TestCreateUniversalNoInputs(t *testing.T) {
	in := NewInspector(fileToolRunner(t, "irrelevant"), nil)
	require.Error(t, in.CreateUniversal(context.Background(), "/tmp/out"))
}

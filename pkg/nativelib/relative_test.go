// pkg/nativelib/relative_test.go
package nativelib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelativeFileRejectsAbsolute(t *testing.T) {
	_, err := NewRelativeFile("/etc/passwd", "/etc/passwd")
	require.Error(t, err)
}

func TestBaseDir(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "sub", "file.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte("x"), 0644))

	rf, err := NewRelativeFile("sub/file.txt", abs)
	require.NoError(t, err)

	got, ok := rf.BaseDir()
	require.True(t, ok)
	assert.Equal(t, base, got)
}

func TestBaseDirMismatch(t *testing.T) {
	rf, err := NewRelativeFile("other/file.txt", "/nonexistent/sub/file.txt")
	require.NoError(t, err)

	_, ok := rf.BaseDir()
	assert.False(t, ok)
}

func TestBaseDirMissingDirectory(t *testing.T) {
	rf, err := NewRelativeFile("sub/file.txt", "/nonexistent/sub/file.txt")
	require.NoError(t, err)

	_, ok := rf.BaseDir()
	assert.False(t, ok, "computed prefix must be an existing directory")
}

// pkg/dylib/discover.go
package dylib

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/core"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

var (
	// ErrUnrecognizedName indicates a file name not following the
	// lib<name>.dylib convention
	ErrUnrecognizedName = errors.New("unrecognized library file name")

	// ErrNoArchitectures indicates the introspection tool reported no
	// supported architecture for the file
	ErrNoArchitectures = errors.New("no supported architectures")

	// ErrToolFailed indicates an external tool could not run or exited
	// with a non-zero status
	ErrToolFailed = errors.New("tool invocation failed")

	// ErrUnparsableOutput indicates tool output that does not follow
	// the documented format
	ErrUnparsableOutput = errors.New("unparsable tool output")
)

// ToLibraryName derives the basic library name from a file name of the
// form lib<name>.dylib, additionally stripping trailing `.N` numeric
// version components: libfoo.2.0.dylib -> foo. ok=false for any other
// file name.
func ToLibraryName(file string) (string, bool) {
	base := filepath.Base(file)
	if !strings.HasPrefix(base, LibPrefix) || !strings.HasSuffix(base, LibExtension) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(base, LibPrefix), LibExtension)

	for {
		dot := strings.LastIndex(name, ".")
		if dot == -1 || !isInteger(name[dot+1:]) {
			break
		}
		name = name[:dot]
	}

	if name == "" {
		return "", false
	}
	return name, true
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Inspector classifies native library files and determines their
// supported architectures by invoking the external introspection tools.
type Inspector struct {
	runner   Runner
	reporter core.Reporter
	fileTool string
}

// NewInspector creates an Inspector. A nil runner uses blocking
// subprocesses; a nil reporter discards diagnostics.
func NewInspector(runner Runner, reporter core.Reporter) *Inspector {
	if runner == nil {
		runner = NewRunner()
	}
	if reporter == nil {
		reporter = core.DiscardReporter()
	}
	return &Inspector{
		runner:   runner,
		reporter: reporter,
		fileTool: DefaultFileTool,
	}
}

// Runner returns the tool runner used by this inspector
func (in *Inspector) Runner() Runner {
	return in.runner
}

// ArchitectureNames queries the describe-file-type tool and returns the
// raw architecture names it reports for the file.
func (in *Inspector) ArchitectureNames(ctx context.Context, file string) ([]string, error) {
	out, err := in.runner.Run(ctx, in.fileTool, "-b", file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolFailed, err)
	}

	line := firstLine(string(out))
	names := ParseFileType(line)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnparsableOutput, line)
	}
	return names, nil
}

// SupportedArchitectures returns the file's supported architectures,
// dropping names outside the known set.
func (in *Inspector) SupportedArchitectures(ctx context.Context, file string) ([]arch.Architecture, error) {
	names, err := in.ArchitectureNames(ctx, file)
	if err != nil {
		return nil, err
	}

	set := make(map[arch.Architecture]bool)
	for _, name := range names {
		if a, ok := arch.Parse(name); ok {
			set[a] = true
		} else {
			in.reporter.Debugf("skipping unrecognized architecture %q in %s", name, file)
		}
	}
	return arch.Sorted(set), nil
}

// CreateForFile builds the library value for a lib<name>.dylib file.
// Starting from one file, the result is always single-architecture or
// fat, never per-architecture.
func (in *Inspector) CreateForFile(ctx context.Context, file string) (nativelib.Library, error) {
	name, ok := ToLibraryName(file)
	if !ok {
		return nativelib.Library{}, fmt.Errorf("%w: %s", ErrUnrecognizedName, filepath.Base(file))
	}
	return in.createNamed(ctx, name, file)
}

// CreateForFrameworkFile builds the library value for a framework's
// dynamic library, whose file name is the basic name itself.
func (in *Inspector) CreateForFrameworkFile(ctx context.Context, file string) (nativelib.Library, error) {
	return in.createNamed(ctx, filepath.Base(file), file)
}

func (in *Inspector) createNamed(ctx context.Context, name, file string) (nativelib.Library, error) {
	archs, err := in.SupportedArchitectures(ctx, file)
	if err != nil {
		return nativelib.Library{}, err
	}
	if len(archs) == 0 {
		return nativelib.Library{}, fmt.Errorf("%w: %s", ErrNoArchitectures, file)
	}

	files := make(map[arch.Architecture]string, len(archs))
	for _, a := range archs {
		files[a] = file
	}
	return nativelib.New(name, files)
}

// Describe returns a DescribeFunc answering the thin-binary
// architecture query for file, for use with ParseDependencies.
func (in *Inspector) Describe(ctx context.Context, file string) DescribeFunc {
	return func() (string, error) {
		names, err := in.ArchitectureNames(ctx, file)
		if err != nil {
			return "", err
		}
		return names[0], nil
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return s[:idx]
	}
	return s
}

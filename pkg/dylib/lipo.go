// pkg/dylib/lipo.go
package dylib

import (
	"context"
	"fmt"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

// CreateUniversal combines same-named single-architecture files into
// one fat file at output. A non-zero tool exit is a hard failure.
func (in *Inspector) CreateUniversal(ctx context.Context, output string, inputs ...string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input files for universal binary %s", output)
	}

	args := make([]string, 0, len(inputs)+3)
	args = append(args, inputs...)
	args = append(args, "-create", "-output", output)

	if _, err := in.runner.Run(ctx, DefaultLipoTool, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrToolFailed, err)
	}
	return nil
}

// CreateUniversalLibrary collapses a per-architecture-file library into
// an equivalent fat library backed by a single file at output.
// Libraries already backed by one file are returned unchanged.
func (in *Inspector) CreateUniversalLibrary(ctx context.Context, lib nativelib.Library, output string) (nativelib.Library, error) {
	if _, ok := lib.File(); ok {
		return lib, nil
	}

	if err := in.CreateUniversal(ctx, output, lib.DistinctFiles()...); err != nil {
		return nativelib.Library{}, err
	}

	archFiles := make(map[arch.Architecture]string, len(lib.Architectures()))
	for _, a := range lib.Architectures() {
		archFiles[a] = output
	}
	out, err := nativelib.New(lib.Name(), archFiles)
	if err != nil {
		return nativelib.Library{}, err
	}
	if dir, ok := lib.DebugSymbols(); ok {
		out = out.WithDebugSymbols(dir)
	}
	return out, nil
}

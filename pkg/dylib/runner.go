// pkg/dylib/runner.go
package dylib

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes an external tool and returns its combined standard
// output. Implementations must report a non-zero exit status as an
// error. Tests substitute a fake Runner so nothing shells out.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs tools as blocking subprocesses
type execRunner struct{}

// NewRunner returns the default subprocess-backed Runner
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, stderr.String())
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

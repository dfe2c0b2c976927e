// nativekit.go
package nativekit

import (
	"context"
	"fmt"
	"os"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/core"
	"github.com/nativekit/nativekit/pkg/deps"
	"github.com/nativekit/nativekit/pkg/dylib"
	"github.com/nativekit/nativekit/pkg/merge"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

// Re-export core types for convenience
type (
	Architecture = arch.Architecture
	Target       = arch.Target
	Library      = nativelib.Library
	Framework    = nativelib.Framework
	RelativeFile = nativelib.RelativeFile
	Config       = core.Config
	Reporter     = core.Reporter
	NameFilter   = deps.NameFilter
	MergeConfig  = merge.Config
	MergeResult  = merge.Result
)

// Re-export the architecture constants
const (
	ArchIntel = arch.ArchIntel
	ArchARM   = arch.ArchARM
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Packager wires configuration, discovery, dependency resolution and
// the merge engine into one front door.
type Packager struct {
	config    *core.Config
	reporter  core.Reporter
	inspector *dylib.Inspector
	resolver  *deps.Resolver
}

// NewPackager creates a Packager. A nil config gets defaults; a nil
// reporter logs to stderr honoring the config's debug flag.
func NewPackager(cfg *core.Config, reporter core.Reporter) *Packager {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if reporter == nil {
		reporter = core.NewReporter(os.Stderr, cfg.Debug)
	}
	inspector := dylib.NewInspector(nil, reporter)
	return &Packager{
		config:    cfg,
		reporter:  reporter,
		inspector: inspector,
		resolver:  deps.NewResolver(inspector, reporter),
	}
}

// Inspector returns the tool-backed library inspector
func (p *Packager) Inspector() *dylib.Inspector {
	return p.inspector
}

// Resolver returns the dependency resolver
func (p *Packager) Resolver() *deps.Resolver {
	return p.resolver
}

// Expand runs the merge engine over the configured sources and
// destinations.
func (p *Packager) Expand(ctx context.Context) (*merge.Result, error) {
	engine := merge.NewEngine(merge.Config{
		Sources:       p.config.Sources,
		ClassDest:     p.config.ClassDest,
		LibDest:       p.config.LibDest,
		FrameworkDest: p.config.FrameworkDest,
		Inspector:     p.inspector,
		Reporter:      p.reporter,
	})
	return engine.Run(ctx)
}

// Closure computes the transitive closure of interesting dependencies
// of the required libraries, honoring the configured search prefixes
// and architecture restriction.
func (p *Packager) Closure(ctx context.Context, required []nativelib.Library) ([]nativelib.Library, error) {
	archs, err := p.requiredArchitectures()
	if err != nil {
		return nil, err
	}
	return deps.Closure(ctx, p.resolver, required, deps.ClosureOptions{
		Filter:        deps.PrefixFilter(p.config.SearchPrefixes),
		Architectures: archs,
		Reporter:      p.reporter,
	})
}

func (p *Packager) requiredArchitectures() ([]arch.Architecture, error) {
	var out []arch.Architecture
	for _, name := range p.config.Architectures {
		a, ok := arch.Parse(name)
		if !ok {
			return nil, fmt.Errorf("unsupported architecture: %s", name)
		}
		out = append(out, a)
	}
	return out, nil
}

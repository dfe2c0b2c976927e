// pkg/deps/closure.go
package deps

import (
	"context"
	"sort"

	"github.com/nativekit/nativekit/pkg/arch"
	"github.com/nativekit/nativekit/pkg/core"
	"github.com/nativekit/nativekit/pkg/nativelib"
)

// DirectResolver resolves one library's interesting direct
// dependencies. *Resolver implements it; tests inject synthetic graphs.
type DirectResolver interface {
	Resolve(ctx context.Context, lib nativelib.Library, filter NameFilter) (map[string]nativelib.Library, error)
}

// ClosureOptions configures a transitive-closure computation
type ClosureOptions struct {
	// Filter selects interesting dependencies; nil uses PrefixFilter
	// over the default non-system install prefixes.
	Filter NameFilter

	// Architectures, when non-empty, intersects every discovered
	// dependency's architecture set before it enters the output. A
	// dependency left with no architecture is dropped.
	Architectures []arch.Architecture

	// Reporter receives diagnostics; nil discards them
	Reporter core.Reporter
}

// Closure computes the transitive closure of interesting dependencies
// of the required libraries. The required libraries themselves never
// appear in the output. Dependencies are discovered breadth-first;
// a known-name set guarantees termination even on cyclic graphs.
func Closure(ctx context.Context, r DirectResolver, required []nativelib.Library, opts ClosureOptions) ([]nativelib.Library, error) {
	filter := opts.Filter
	if filter == nil {
		filter = PrefixFilter(core.DefaultSearchPrefixes())
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = core.DiscardReporter()
	}

	known := make(map[string]bool, len(required))
	queue := make([]nativelib.Library, 0, len(required))
	for _, lib := range required {
		known[lib.Name()] = true
		queue = append(queue, lib)
	}

	var out []nativelib.Library
	for len(queue) > 0 {
		lib := queue[0]
		queue = queue[1:]

		direct, err := r.Resolve(ctx, lib, filter)
		if err != nil {
			return nil, err
		}

		// Deterministic expansion order regardless of map iteration
		names := make([]string, 0, len(direct))
		for name := range direct {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if known[name] {
				continue
			}
			known[name] = true

			dep := direct[name]
			if len(opts.Architectures) > 0 {
				narrowed, ok := dep.Intersect(opts.Architectures)
				if !ok {
					reporter.Debugf("dropping %s: no slice for the requested architectures", name)
					continue
				}
				dep = narrowed
			}

			reporter.Debugf("%s depends on %s", lib.Name(), name)
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}

	return out, nil
}

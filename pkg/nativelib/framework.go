// pkg/nativelib/framework.go
package nativelib

// Framework is an immutable description of a native framework bundle.
// A framework with neither a root directory nor a backing library is a
// system framework: assumed present in the execution environment,
// never copied and never resolved further.
type Framework struct {
	name     string
	lib      *Library // the framework's own dynamic library, optional
	root     string   // bundle root directory, optional
	debugDir string   // optional debug-symbols bundle
}

// NewFramework creates a framework backed by a bundle root and,
// optionally, its dynamic library.
func NewFramework(name string, lib *Library, root string) Framework {
	return Framework{name: name, lib: lib, root: root}
}

// NewSystemFramework creates a framework assumed to exist in the
// execution environment.
func NewSystemFramework(name string) Framework {
	return Framework{name: name}
}

// Name returns the framework name
func (f Framework) Name() string {
	return f.name
}

// IsSystem reports whether this is a system framework
func (f Framework) IsSystem() bool {
	return f.lib == nil && f.root == ""
}

// Library returns the framework's backing dynamic library, if any.
// System frameworks have none.
func (f Framework) Library() (Library, bool) {
	if f.IsSystem() || f.lib == nil {
		return Library{}, false
	}
	return *f.lib, true
}

// Root returns the bundle root directory, if any
func (f Framework) Root() (string, bool) {
	if f.IsSystem() {
		return "", false
	}
	return f.root, f.root != ""
}

// File returns the backing library's file; a framework's file is always
// its library's file.
func (f Framework) File() (string, bool) {
	lib, ok := f.Library()
	if !ok {
		return "", false
	}
	return lib.File()
}

// DebugSymbols returns the associated debug-symbols directory, if any
func (f Framework) DebugSymbols() (string, bool) {
	if f.IsSystem() {
		return "", false
	}
	return f.debugDir, f.debugDir != ""
}

// WithDebugSymbols returns an equivalent framework bound to a
// debug-symbols directory. Binding debug symbols to a system framework
// is a no-op.
func (f Framework) WithDebugSymbols(dir string) Framework {
	if f.IsSystem() {
		return f
	}
	out := f
	out.debugDir = dir
	return out
}

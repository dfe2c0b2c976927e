// pkg/arch/arch.go
package arch

// Architecture represents a target CPU architecture
type Architecture string

const (
	// ArchIntel is 64-bit Intel/AMD (x86_64)
	ArchIntel Architecture = "x86_64"
	// ArchARM is 64-bit ARM (arm64)
	ArchARM Architecture = "arm64"
)

// AllArchitectures contains every supported architecture
var AllArchitectures = []Architecture{
	ArchIntel,
	ArchARM,
}

// Parse maps a textual architecture name to an Architecture.
// It recognizes the names used by the introspection tools; anything
// else yields ok=false, which callers treat as "skip this entry".
func Parse(name string) (Architecture, bool) {
	switch name {
	case "x86", "x86_64":
		return ArchIntel, true
	case "arm", "arm64":
		return ArchARM, true
	default:
		return "", false
	}
}

// String returns the canonical short name of the architecture
func (a Architecture) String() string {
	return string(a)
}

// IsValid checks if the architecture is a member of the closed set
func (a Architecture) IsValid() bool {
	for _, valid := range AllArchitectures {
		if a == valid {
			return true
		}
	}
	return false
}

// Sorted returns the architectures of a set in canonical order
// (AllArchitectures order), dropping unknown members.
func Sorted(set map[Architecture]bool) []Architecture {
	var out []Architecture
	for _, a := range AllArchitectures {
		if set[a] {
			out = append(out, a)
		}
	}
	return out
}

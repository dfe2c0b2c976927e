// pkg/arch/target.go
package arch

import (
	"fmt"
	"strings"
)

// Target is a parsed target triple of the form
//
//	arch[-vendor]-os[minOSVersion]
//
// e.g. "arm64-apple-macos12" or "x86_64-macos". It is only consulted
// when a compiler or linker has to be invoked; equality is by the
// canonical string form.
type Target struct {
	Arch         string // raw architecture token (e.g. "arm64")
	Vendor       string // optional vendor token (e.g. "apple")
	OS           string // operating system token without version (e.g. "macos")
	MinOSVersion string // optional trailing version (e.g. "12")
}

// ParseTarget parses a target triple. The vendor component is optional;
// a trailing numeric suffix on the OS component is the minimum OS
// version.
func ParseTarget(triple string) (*Target, error) {
	parts := strings.Split(triple, "-")

	var archPart, vendor, osPart string
	switch len(parts) {
	case 2:
		archPart, osPart = parts[0], parts[1]
	case 3:
		archPart, vendor, osPart = parts[0], parts[1], parts[2]
	default:
		return nil, fmt.Errorf("invalid target triple: %q", triple)
	}

	if archPart == "" || osPart == "" {
		return nil, fmt.Errorf("invalid target triple: %q", triple)
	}

	// Split a trailing version off the OS token: "macos12" -> "macos", "12"
	i := len(osPart)
	for i > 0 && (osPart[i-1] >= '0' && osPart[i-1] <= '9' || osPart[i-1] == '.') {
		i--
	}
	osName, version := osPart[:i], osPart[i:]
	if osName == "" {
		return nil, fmt.Errorf("invalid target triple: %q", triple)
	}

	return &Target{
		Arch:         archPart,
		Vendor:       vendor,
		OS:           osName,
		MinOSVersion: version,
	}, nil
}

// Architecture resolves the triple's architecture token through Parse
func (t *Target) Architecture() (Architecture, bool) {
	return Parse(t.Arch)
}

// String returns the canonical triple form
func (t *Target) String() string {
	osPart := t.OS + t.MinOSVersion
	if t.Vendor != "" {
		return t.Arch + "-" + t.Vendor + "-" + osPart
	}
	return t.Arch + "-" + osPart
}

// Equal reports whether two targets have the same canonical form
func (t *Target) Equal(other *Target) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.String() == other.String()
}

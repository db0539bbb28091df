package domain

import (
	"fmt"
	"strings"
)

// Platform describes the os/architecture target of a manifest list entry.
// Variant refines the architecture (e.g. "v7" for arm); Features are
// purely descriptive and never take part in identity.
type Platform struct {
	OS           string   `json:"os"`
	Architecture string   `json:"architecture"`
	Variant      string   `json:"variant,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// knownPlatforms is the fixed table of valid (os, architecture) pairs,
// keyed as "os/arch".
var knownPlatforms = map[string]struct{}{
	"aix/ppc64":       {},
	"android/386":     {},
	"android/amd64":   {},
	"android/arm":     {},
	"android/arm64":   {},
	"darwin/amd64":    {},
	"darwin/arm64":    {},
	"dragonfly/amd64": {},
	"freebsd/386":     {},
	"freebsd/amd64":   {},
	"freebsd/arm":     {},
	"illumos/amd64":   {},
	"ios/arm64":       {},
	"js/wasm":         {},
	"linux/386":       {},
	"linux/amd64":     {},
	"linux/arm":       {},
	"linux/arm64":     {},
	"linux/loong64":   {},
	"linux/mips":      {},
	"linux/mipsle":    {},
	"linux/mips64":    {},
	"linux/mips64le":  {},
	"linux/ppc64":     {},
	"linux/ppc64le":   {},
	"linux/riscv64":   {},
	"linux/s390x":     {},
	"netbsd/386":      {},
	"netbsd/amd64":    {},
	"netbsd/arm":      {},
	"openbsd/386":     {},
	"openbsd/amd64":   {},
	"openbsd/arm":     {},
	"openbsd/arm64":   {},
	"plan9/386":       {},
	"plan9/amd64":     {},
	"plan9/arm":       {},
	"solaris/amd64":   {},
	"wasip1/wasm":     {},
	"windows/386":     {},
	"windows/amd64":   {},
	"windows/arm":     {},
	"windows/arm64":   {},
}

// KnownPlatform reports whether the (os, architecture) pair is in the
// fixed table of valid platforms. Variant and features are unconstrained.
func KnownPlatform(os, architecture string) bool {
	key := strings.ToLower(strings.TrimSpace(os) + "/" + strings.TrimSpace(architecture))
	_, ok := knownPlatforms[key]
	return ok
}

// ParsePlatform parses an "os/arch" or "os/arch/variant" string.
func ParsePlatform(s string) (Platform, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Platform{}, fmt.Errorf("invalid platform string %q", s)
	}

	p := Platform{
		OS:           parts[0],
		Architecture: parts[1],
	}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}
	return p, nil
}

// Valid reports whether the platform's (os, architecture) pair is known.
func (p Platform) Valid() bool {
	return KnownPlatform(p.OS, p.Architecture)
}

// Equal reports platform identity: os, architecture, and variant must all
// match. Features are descriptive and intentionally excluded.
func (p Platform) Equal(other Platform) bool {
	return p.OS == other.OS &&
		p.Architecture == other.Architecture &&
		p.Variant == other.Variant
}

// String renders the platform as "os/arch" or "os/arch/variant".
func (p Platform) String() string {
	if p.Variant != "" {
		return p.OS + "/" + p.Architecture + "/" + p.Variant
	}
	return p.OS + "/" + p.Architecture
}

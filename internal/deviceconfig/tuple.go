package deviceconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVersionTuple splits v on "." and parses the first two components as
// integers. Anything after the second component is ignored, so "2.10.3+cpu"
// yields (2, 10) while "1.9rc1" fails.
func ParseVersionTuple(v string) (VersionTuple, error) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return VersionTuple{}, fmt.Errorf("%w: %q has fewer than two components", ErrMalformedVersion, v)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return VersionTuple{}, fmt.Errorf("%w: %q: major: %w", ErrMalformedVersion, v, err)
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return VersionTuple{}, fmt.Errorf("%w: %q: minor: %w", ErrMalformedVersion, v, err)
	}

	return VersionTuple{Major: major, Minor: minor}, nil
}

// parseModuleVersionTuple accepts Go module versions ("v0.9.1") as well as
// bare dotted versions.
func parseModuleVersionTuple(v string) (VersionTuple, error) {
	return ParseVersionTuple(strings.TrimPrefix(v, "v"))
}

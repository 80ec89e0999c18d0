package deviceconfig

import (
	"errors"
	"strconv"
)

const (
	// NotInstalled is reported for the optional training-loop library when
	// its module is not linked into the binary.
	NotInstalled = "NOT INSTALLED"

	// Unknown is reported for a mandatory library whose module cannot be found.
	Unknown = "unknown"

	// Devel is reported for a module linked without a version, such as a
	// local replace target.
	Devel = "(devel)"
)

// Fixed labels of the first two report lines. The library labels come
// from configuration.
const (
	ToolkitLabel = "MedKit version"
	RuntimeLabel = "Go version"
)

// ErrMalformedVersion is returned when a version string has no numeric
// MAJOR.MINOR prefix.
var ErrMalformedVersion = errors.New("malformed version string")

// ErrModuleNotFound is returned when a module is not linked into the binary.
var ErrModuleNotFound = errors.New("module not found in build info")

// Record is one "<label>: <version>" line of the version report
type Record struct {
	Label   string `json:"label"`
	Version string `json:"version"`
}

// Values is the ordered version record set. Order is report order.
type Values []Record

// Get returns the version recorded under label
func (v Values) Get(label string) (string, bool) {
	for _, r := range v {
		if r.Label == label {
			return r.Version, true
		}
	}
	return "", false
}

// Labels returns the labels in report order
func (v Values) Labels() []string {
	labels := make([]string, len(v))
	for i, r := range v {
		labels[i] = r.Label
	}
	return labels
}

// Dependency names a reported library and the module path it resolves from.
// Module may also be a package path inside a module.
type Dependency struct {
	Label  string
	Module string
}

// Dependencies lists the three library roles in report order
type Dependencies struct {
	Numeric  Dependency
	Tensor   Dependency
	Training Dependency
}

// Resolution is the outcome of probing for a module: either present with a
// version, or absent.
type Resolution struct {
	Version string
	Present bool
}

// Present returns a resolution for a module found at version
func Present(version string) Resolution {
	return Resolution{Version: version, Present: true}
}

// Absent returns a resolution for a module that is not linked
func Absent() Resolution {
	return Resolution{}
}

// Or returns the resolved version, or fallback when absent
func (r Resolution) Or(fallback string) string {
	if !r.Present {
		return fallback
	}
	return r.Version
}

// VersionTuple is the (major, minor) pair of a dotted version string
type VersionTuple struct {
	Major int
	Minor int
}

// Less reports whether t orders before other
func (t VersionTuple) Less(other VersionTuple) bool {
	if t.Major != other.Major {
		return t.Major < other.Major
	}
	return t.Minor < other.Minor
}

func (t VersionTuple) String() string {
	return strconv.Itoa(t.Major) + "." + strconv.Itoa(t.Minor)
}

// Package pyver holds the Version type threaded through every
// version-sensitive component: opcode tables, the line-table codec and
// the exception-table codec.
package pyver

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version identifies a CPython minor release in the 3.8-3.12 family.
// It is stored and compared as a "vMAJOR.MINOR" semver string so
// ordering can be delegated to golang.org/x/mod/semver instead of a
// hand-rolled comparator.
type Version string

// Supported versions, leaves-first so a range loop over this slice
// visits them in ascending order.
const (
	V38  Version = "v3.8"
	V39  Version = "v3.9"
	V310 Version = "v3.10"
	V311 Version = "v3.11"
	V312 Version = "v3.12"
)

// All lists every version this library understands, ascending.
var All = []Version{V38, V39, V310, V311, V312}

func (v Version) semver() string {
	return "v" + string(v)[1:] + ".0"
}

// Valid reports whether v is one of the supported versions.
func (v Version) Valid() bool {
	for _, c := range All {
		if c == v {
			return true
		}
	}
	return false
}

// Compare returns -1, 0 or +1 per the usual comparator contract.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// Less reports whether v precedes other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// AtLeast reports whether v is other or newer.
func (v Version) AtLeast(other Version) bool { return v.Compare(other) >= 0 }

func (v Version) String() string { return string(v) }

// Parse validates s against the supported set.
func Parse(s string) (Version, error) {
	v := Version(s)
	if !v.Valid() {
		return "", fmt.Errorf("pyver: unsupported version %q", s)
	}
	return v, nil
}

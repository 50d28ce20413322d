// Package version provides semantic version handling for version bumps.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Part is a component of a version number that can be bumped.
type Part string

const (
	PartMajor Part = "major"
	PartMinor Part = "minor"
	PartPatch Part = "patch"
)

// Parts lists the bumpable parts, highest first.
var Parts = []Part{PartMajor, PartMinor, PartPatch}

// ParsePart parses a part name, case-insensitively.
func ParsePart(s string) (Part, error) {
	p := Part(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Parts {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown version part %q (want major, minor or patch)", s)
}

// Version is a major.minor.patch version as carried by header macros.
type Version struct {
	v *semver.Version
}

// New creates a version from its numeric parts.
func New(major, minor, patch uint64) Version {
	return Version{v: semver.New(major, minor, patch, "", "")}
}

// Parse parses a version string. A leading "v" is accepted.
func Parse(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: prerelease and metadata are not supported", s)
	}
	return Version{v: v}, nil
}

func (v Version) sv() *semver.Version {
	if v.v == nil {
		return semver.New(0, 0, 0, "", "")
	}
	return v.v
}

// Major returns the major number.
func (v Version) Major() uint64 { return v.sv().Major() }

// Minor returns the minor number.
func (v Version) Minor() uint64 { return v.sv().Minor() }

// Patch returns the patch number.
func (v Version) Patch() uint64 { return v.sv().Patch() }

// String returns the version as major.minor.patch.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// Equal reports whether both versions are the same.
func (v Version) Equal(o Version) bool {
	return v.sv().Equal(o.sv())
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return v.sv().LessThan(o.sv())
}

// Bump returns the next version for the given part. Lower parts reset to 0.
func (v Version) Bump(part Part) (Version, error) {
	var next semver.Version
	switch part {
	case PartMajor:
		next = v.sv().IncMajor()
	case PartMinor:
		next = v.sv().IncMinor()
	case PartPatch:
		next = v.sv().IncPatch()
	default:
		return Version{}, fmt.Errorf("unknown version part %q", part)
	}
	return Version{v: &next}, nil
}

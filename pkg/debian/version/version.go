// Package version implements Debian package version strings
// ([epoch:]upstream[-revision]) and their ordering.
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#version
package version

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	pversion "pault.ag/go/debian/version"
)

var ErrInvalid = errors.New("invalid version")

// Version is a parsed Debian package version.
type Version struct {
	Epoch    uint32
	Upstream string
	// Revision is empty when the version has no "-revision" suffix.
	Revision string
}

// Parse parses a version string. The epoch defaults to 0 and the
// last '-' separates the upstream version from the revision.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	v, err := pversion.Parse(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %w", ErrInvalid, s, err)
	}
	if v.Epoch > math.MaxInt32 {
		return Version{}, fmt.Errorf("%w: epoch in %q is out of range", ErrInvalid, s)
	}
	if v.Version == "" {
		return Version{}, fmt.Errorf("%w: upstream version in %q is empty", ErrInvalid, s)
	}
	// "1.0-" parses with an empty revision, which dpkg rejects
	if v.Revision == "" && strings.HasSuffix(s, "-") {
		return Version{}, fmt.Errorf("%w: revision in %q is empty", ErrInvalid, s)
	}
	return Version{
		Epoch:    uint32(v.Epoch),
		Upstream: v.Version,
		Revision: v.Revision,
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical form, which omits a zero epoch.
func (v Version) String() string {
	sb := strings.Builder{}
	if v.Epoch > 0 {
		sb.WriteString(strconv.FormatUint(uint64(v.Epoch), 10) + ":")
	}
	sb.WriteString(v.Upstream)
	if v.Revision != "" {
		sb.WriteString("-" + v.Revision)
	}
	return sb.String()
}

func (v Version) debian() pversion.Version {
	return pversion.Version{
		Epoch:    uint(v.Epoch),
		Version:  v.Upstream,
		Revision: v.Revision,
	}
}

// Compare returns -1, 0 or +1 depending on whether a sorts
// before, equal to or after b.
func Compare(a, b Version) int {
	c := pversion.Compare(a.debian(), b.debian())
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

func (v Version) Compare(o Version) int {
	return Compare(v, o)
}

func (v Version) LessThan(o Version) bool {
	return Compare(v, o) < 0
}

func (v Version) GreaterThan(o Version) bool {
	return Compare(v, o) > 0
}

// Equal reports whether both versions sort equally, which is
// not the same as having identical text (e.g. "1.0" and "0:1.0-0").
func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

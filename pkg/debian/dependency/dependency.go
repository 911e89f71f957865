// Package dependency parses Debian package relationship fields
// such as Depends and Recommends.
//
// https://www.debian.org/doc/debian-policy/ch-relationships.html
package dependency

import (
	"fmt"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian/version"
)

// Relation is a version relation operator.
type Relation string

const (
	StrictlyEarlier Relation = "<<"
	EarlierOrEqual  Relation = "<="
	ExactlyEqual    Relation = "="
	LaterOrEqual    Relation = ">="
	StrictlyLater   Relation = ">>"
)

func (r Relation) valid() bool {
	switch r {
	case StrictlyEarlier, EarlierOrEqual, ExactlyEqual, LaterOrEqual, StrictlyLater:
		return true
	}
	return false
}

// Constraint restricts an alternative to a range of versions.
type Constraint struct {
	Relation Relation
	Version  version.Version
}

// SatisfiedBy reports whether v falls within the constraint.
func (c Constraint) SatisfiedBy(v version.Version) bool {
	cmp := version.Compare(v, c.Version)
	switch c.Relation {
	case StrictlyEarlier:
		return cmp < 0
	case EarlierOrEqual:
		return cmp <= 0
	case ExactlyEqual:
		return cmp == 0
	case LaterOrEqual:
		return cmp >= 0
	case StrictlyLater:
		return cmp > 0
	default:
		return false
	}
}

func (c Constraint) String() string {
	return fmt.Sprintf("(%s %s)", c.Relation, c.Version)
}

// Alternative is one candidate within an "or" group.
type Alternative struct {
	Name string
	// Arch is the multiarch qualifier following "name:", if any.
	Arch       string
	Constraint *Constraint
	// Architectures is the "[...]" restriction list, kept as written
	// (entries may be negated with '!').
	Architectures []string
	// Profiles holds each "<...>" build profile group.
	Profiles [][]string
}

// Satisfies reports whether a package version satisfies the
// alternative's constraint. Alternatives without a constraint
// are satisfied by any version.
func (a Alternative) Satisfies(v version.Version) bool {
	if a.Constraint == nil {
		return true
	}
	return a.Constraint.SatisfiedBy(v)
}

func (a Alternative) String() string {
	sb := strings.Builder{}
	sb.WriteString(a.Name)
	if a.Arch != "" {
		sb.WriteString(":" + a.Arch)
	}
	if a.Constraint != nil {
		sb.WriteString(" " + a.Constraint.String())
	}
	if len(a.Architectures) > 0 {
		sb.WriteString(" [" + strings.Join(a.Architectures, " ") + "]")
	}
	for _, p := range a.Profiles {
		sb.WriteString(" <" + strings.Join(p, " ") + ">")
	}
	return sb.String()
}

// Expression is a non-empty list of alternatives separated by '|'.
type Expression struct {
	Alternatives []Alternative
}

func (e Expression) String() string {
	alts := make([]string, len(e.Alternatives))
	for i := range e.Alternatives {
		alts[i] = e.Alternatives[i].String()
	}
	return strings.Join(alts, " | ")
}

// List is a comma-separated list of expressions.
type List []Expression

func (l List) String() string {
	exprs := make([]string, len(l))
	for i := range l {
		exprs[i] = l[i].String()
	}
	return strings.Join(exprs, ", ")
}

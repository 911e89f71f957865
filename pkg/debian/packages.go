package debian

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian/control"
	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
	"github.com/djcass44/deb-resolver/pkg/debian/version"
)

// NewBinaryPackage wraps a control paragraph.
func NewBinaryPackage(p *control.Paragraph) *BinaryPackage {
	return &BinaryPackage{paragraph: p}
}

// ParseBinaryPackage parses a single control paragraph.
func ParseBinaryPackage(s string) (*BinaryPackage, error) {
	p, err := control.ParseParagraph(s)
	if err != nil {
		return nil, err
	}
	return NewBinaryPackage(p), nil
}

// ParseRelationship matches a relationship field name. Matching is
// case-insensitive and tolerates a missing '-' (e.g. "PreDepends").
func ParseRelationship(s string) (Relationship, error) {
	for _, r := range []Relationship{Depends, PreDepends, Recommends, Suggests, Enhances} {
		if strings.EqualFold(s, string(r)) || strings.EqualFold(s, strings.ReplaceAll(string(r), "-", "")) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown relationship: %q", s)
}

func (p *BinaryPackage) Paragraph() *control.Paragraph {
	return p.paragraph
}

func (p *BinaryPackage) FieldString(name string) (string, bool) {
	return p.paragraph.FieldString(name)
}

func (p *BinaryPackage) required(name string) (string, error) {
	v, ok := p.paragraph.FieldString(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return v, nil
}

func (p *BinaryPackage) Package() (string, error) {
	return p.required(FieldPackage)
}

// VersionString returns the Version field as written.
func (p *BinaryPackage) VersionString() (string, error) {
	return p.required(FieldVersion)
}

func (p *BinaryPackage) Version() (version.Version, error) {
	s, err := p.VersionString()
	if err != nil {
		return version.Version{}, err
	}
	return version.Parse(s)
}

func (p *BinaryPackage) Architecture() (string, error) {
	return p.required(FieldArchitecture)
}

func (p *BinaryPackage) Maintainer() (string, error) {
	return p.required(FieldMaintainer)
}

func (p *BinaryPackage) Description() (string, error) {
	return p.required(FieldDescription)
}

func (p *BinaryPackage) Source() (string, bool) {
	return p.paragraph.FieldString(FieldSource)
}

func (p *BinaryPackage) Section() (string, bool) {
	return p.paragraph.FieldString(FieldSection)
}

func (p *BinaryPackage) Priority() (string, bool) {
	return p.paragraph.FieldString(FieldPriority)
}

func (p *BinaryPackage) Homepage() (string, bool) {
	return p.paragraph.FieldString(FieldHomepage)
}

func (p *BinaryPackage) BuiltUsing() (string, bool) {
	return p.paragraph.FieldString(FieldBuiltUsing)
}

func (p *BinaryPackage) MultiArch() (string, bool) {
	return p.paragraph.FieldString(FieldMultiArch)
}

func (p *BinaryPackage) Filename() (string, bool) {
	return p.paragraph.FieldString(FieldFilename)
}

func (p *BinaryPackage) SHA256() (string, bool) {
	return p.paragraph.FieldString(FieldSHA256)
}

// Essential reports whether the package is marked "Essential: yes".
func (p *BinaryPackage) Essential() bool {
	v, _ := p.paragraph.FieldBool(FieldEssential)
	return v
}

// InstalledSize returns the Installed-Size field (in KiB). The
// boolean is false when the field is absent.
func (p *BinaryPackage) InstalledSize() (uint64, bool, error) {
	return p.uintField(FieldInstalledSize)
}

// Size returns the size in bytes of the .deb referenced by Filename.
func (p *BinaryPackage) Size() (uint64, bool, error) {
	return p.uintField(FieldSize)
}

func (p *BinaryPackage) uintField(name string) (uint64, bool, error) {
	v, ok := p.paragraph.FieldString(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("parsing %s: %w", name, err)
	}
	return n, true, nil
}

// Relationship parses the named relationship field. An absent
// field yields an empty list.
func (p *BinaryPackage) Relationship(r Relationship) (dependency.List, error) {
	return p.dependencyField(string(r))
}

func (p *BinaryPackage) Depends() (dependency.List, error) {
	return p.Relationship(Depends)
}

func (p *BinaryPackage) PreDepends() (dependency.List, error) {
	return p.Relationship(PreDepends)
}

func (p *BinaryPackage) Recommends() (dependency.List, error) {
	return p.Relationship(Recommends)
}

func (p *BinaryPackage) Suggests() (dependency.List, error) {
	return p.Relationship(Suggests)
}

func (p *BinaryPackage) Enhances() (dependency.List, error) {
	return p.Relationship(Enhances)
}

func (p *BinaryPackage) Provides() (dependency.List, error) {
	return p.dependencyField(FieldProvides)
}

func (p *BinaryPackage) Conflicts() (dependency.List, error) {
	return p.dependencyField(FieldConflicts)
}

func (p *BinaryPackage) Breaks() (dependency.List, error) {
	return p.dependencyField(FieldBreaks)
}

func (p *BinaryPackage) Replaces() (dependency.List, error) {
	return p.dependencyField(FieldReplaces)
}

func (p *BinaryPackage) dependencyField(name string) (dependency.List, error) {
	v, ok := p.paragraph.FieldString(name)
	if !ok {
		return dependency.List{}, nil
	}
	l, err := dependency.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return l, nil
}

// String identifies the package as name_version_arch, leaving
// out anything that is missing.
func (p *BinaryPackage) String() string {
	var parts []string
	for _, f := range []string{FieldPackage, FieldVersion, FieldArchitecture} {
		if v, ok := p.paragraph.FieldString(f); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "_")
}

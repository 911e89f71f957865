package debian

import (
	"errors"

	"github.com/djcass44/deb-resolver/pkg/debian/control"
)

// Field names of a binary package control paragraph.
//
// https://www.debian.org/doc/debian-policy/ch-controlfields.html#binary-package-control-files-debian-control
const (
	FieldPackage       = "Package"
	FieldVersion       = "Version"
	FieldArchitecture  = "Architecture"
	FieldMaintainer    = "Maintainer"
	FieldDescription   = "Description"
	FieldSource        = "Source"
	FieldSection       = "Section"
	FieldPriority      = "Priority"
	FieldEssential     = "Essential"
	FieldHomepage      = "Homepage"
	FieldInstalledSize = "Installed-Size"
	FieldBuiltUsing    = "Built-Using"
	FieldMultiArch     = "Multi-Arch"
	FieldProvides      = "Provides"
	FieldConflicts     = "Conflicts"
	FieldBreaks        = "Breaks"
	FieldReplaces      = "Replaces"
	FieldFilename      = "Filename"
	FieldSize          = "Size"
	FieldSHA256        = "SHA256"
)

// Relationship is a relationship field whose value is a
// dependency list.
type Relationship string

const (
	Depends    Relationship = "Depends"
	PreDepends Relationship = "Pre-Depends"
	Recommends Relationship = "Recommends"
	Suggests   Relationship = "Suggests"
	Enhances   Relationship = "Enhances"
)

var ErrMissingField = errors.New("required field missing")

// BinaryPackage is a read-only view over the control paragraph
// of a binary package.
type BinaryPackage struct {
	paragraph *control.Paragraph
}

// Index is an ordered list of binary packages read from a
// Packages file.
type Index struct {
	packages []*BinaryPackage
	source   string
}

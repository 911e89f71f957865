// Package release reads the Release and InRelease files that describe
// a distribution of a Debian archive.
//
// https://wiki.debian.org/DebianRepository/Format#A.22Release.22_files
package release

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/djcass44/deb-resolver/pkg/debian/control"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
)

const (
	FieldOrigin        = "Origin"
	FieldLabel         = "Label"
	FieldSuite         = "Suite"
	FieldCodename      = "Codename"
	FieldVersion       = "Version"
	FieldDate          = "Date"
	FieldValidUntil    = "Valid-Until"
	FieldArchitectures = "Architectures"
	FieldComponents    = "Components"
	FieldDescription   = "Description"
	FieldAcquireByHash = "Acquire-By-Hash"
)

var dateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// File is a parsed Release file. It is immutable once parsed.
type File struct {
	paragraph *control.Paragraph
	entries   map[ChecksumKind][]Entry
	byPath    map[ChecksumKind]map[string]Entry
}

// Parse reads an unsigned Release file.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p, err := control.ParseParagraph(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing release file: %w", err)
	}
	return newFile(p)
}

// ParseArmored reads a clear-signed InRelease file.
func ParseArmored(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	payload, err := ExtractSignedPayload(data)
	if err != nil {
		return nil, err
	}
	p, err := control.ParseParagraph(string(payload))
	if err != nil {
		return nil, fmt.Errorf("parsing release file: %w", err)
	}
	return newFile(p)
}

func newFile(p *control.Paragraph) (*File, error) {
	f := &File{
		paragraph: p,
		entries:   map[ChecksumKind][]Entry{},
		byPath:    map[ChecksumKind]map[string]Entry{},
	}
	for _, kind := range ChecksumKinds() {
		field, ok := p.Field(string(kind))
		if !ok {
			continue
		}
		f.byPath[kind] = map[string]Entry{}
		for _, line := range field.Lines() {
			if strings.TrimSpace(line) == "" {
				continue
			}
			e, err := parseEntry(kind, line)
			if err != nil {
				return nil, err
			}
			f.entries[kind] = append(f.entries[kind], e)
			f.byPath[kind][e.Path] = e
		}
	}
	return f, nil
}

func (f *File) Paragraph() *control.Paragraph {
	return f.paragraph
}

func (f *File) field(name string) string {
	v, _ := f.paragraph.FieldString(name)
	return v
}

func (f *File) Origin() string      { return f.field(FieldOrigin) }
func (f *File) Label() string       { return f.field(FieldLabel) }
func (f *File) Suite() string       { return f.field(FieldSuite) }
func (f *File) Codename() string    { return f.field(FieldCodename) }
func (f *File) Version() string     { return f.field(FieldVersion) }
func (f *File) Description() string { return f.field(FieldDescription) }

// AcquireByHash reports whether the archive serves indices
// under by-hash paths.
func (f *File) AcquireByHash() bool {
	v, _ := f.paragraph.FieldBool(FieldAcquireByHash)
	return v
}

// Date returns the time the file was generated. The boolean is
// false when the field is absent.
func (f *File) Date() (time.Time, bool, error) {
	return f.timeField(FieldDate)
}

// ValidUntil returns the time after which the file should be
// considered expired.
func (f *File) ValidUntil() (time.Time, bool, error) {
	return f.timeField(FieldValidUntil)
}

func (f *File) timeField(name string) (time.Time, bool, error) {
	v, ok := f.paragraph.FieldString(name)
	if !ok {
		return time.Time{}, false, nil
	}
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, true, fmt.Errorf("parsing %s: unrecognised date %q", name, v)
}

// Architectures returns the distinct architectures in the order listed.
func (f *File) Architectures() []string {
	return set(f.field(FieldArchitectures))
}

// Components returns the distinct components in the order listed.
func (f *File) Components() []string {
	return set(f.field(FieldComponents))
}

func (f *File) HasArchitecture(arch string) bool {
	return slices.Contains(f.Architectures(), arch)
}

func (f *File) HasComponent(component string) bool {
	return slices.Contains(f.Components(), component)
}

func set(s string) []string {
	var out []string
	for _, v := range strings.Fields(s) {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Entries returns the checksum entries of a section in source order.
func (f *File) Entries(kind ChecksumKind) []Entry {
	return slices.Clone(f.entries[kind])
}

// Entry looks up a path in a checksum section.
func (f *File) Entry(path string, kind ChecksumKind) (Entry, bool) {
	e, ok := f.byPath[kind][path]
	return e, ok
}

// StrongestChecksum returns the strongest checksum kind that
// has at least one entry.
func (f *File) StrongestChecksum() (ChecksumKind, bool) {
	for _, kind := range ChecksumKinds() {
		if len(f.entries[kind]) > 0 {
			return kind, true
		}
	}
	return "", false
}

// PackagesPath returns the location of a Packages index relative
// to the distribution directory.
func PackagesPath(component, arch string, c requestutil.Compression) string {
	return fmt.Sprintf("%s/binary-%s/Packages%s", strings.Trim(component, "/"), arch, c.Extension())
}

// PackagesIndex finds the checksum entry of the Packages index for
// a component and architecture, trying each compression in order.
func (f *File) PackagesIndex(component, arch string, kind ChecksumKind, order ...requestutil.Compression) (Entry, requestutil.Compression, bool) {
	if len(order) == 0 {
		order = requestutil.DefaultPreferredOrder()
	}
	for _, c := range order {
		if e, ok := f.Entry(PackagesPath(component, arch, c), kind); ok {
			return e, c, true
		}
	}
	return Entry{}, "", false
}

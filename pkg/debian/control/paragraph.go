package control

import (
	"fmt"
	"io"
	"strings"
)

// Field is a single "Name: value" entry of a paragraph.
//
// Multi-line values are stored with one line per "\n". The first
// line holds whatever followed the separator (possibly empty) and
// each continuation line is stored without its leading fold
// character. A continuation line of "." is stored as an empty line.
type Field struct {
	Name  string
	Value string
}

// Lines returns the lines of a folded value. A leading empty
// line (e.g. "SHA256:" followed by continuation lines) is dropped.
func (f Field) Lines() []string {
	lines := strings.Split(f.Value, "\n")
	if len(lines) > 1 && lines[0] == "" {
		return lines[1:]
	}
	return lines
}

// Paragraph is an ordered list of fields. Lookups are
// case-insensitive and the first occurrence of a name wins.
type Paragraph struct {
	fields []Field
}

// NewParagraph creates a paragraph from the given fields,
// preserving their order.
func NewParagraph(fields ...Field) *Paragraph {
	p := &Paragraph{}
	for _, f := range fields {
		p.Add(f.Name, f.Value)
	}
	return p
}

// Add appends a field, even if one with the same name exists.
func (p *Paragraph) Add(name, value string) {
	p.fields = append(p.fields, Field{Name: name, Value: value})
}

// Set replaces the value of the first field with the given name
// or appends a new field if there is none.
func (p *Paragraph) Set(name, value string) {
	for i := range p.fields {
		if strings.EqualFold(p.fields[i].Name, name) {
			p.fields[i].Value = value
			return
		}
	}
	p.Add(name, value)
}

// Fields returns a copy of the fields in source order.
func (p *Paragraph) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Len returns the number of fields.
func (p *Paragraph) Len() int {
	return len(p.fields)
}

// Field returns the first field matching name.
func (p *Paragraph) Field(name string) (Field, bool) {
	for _, f := range p.fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// FieldString returns the value of the first field matching name.
func (p *Paragraph) FieldString(name string) (string, bool) {
	f, ok := p.Field(name)
	if !ok {
		return "", false
	}
	return f.Value, true
}

// FieldBool evaluates a field as a boolean, which is true
// only if its value is "yes".
func (p *Paragraph) FieldBool(name string) (bool, bool) {
	v, ok := p.FieldString(name)
	if !ok {
		return false, false
	}
	return v == "yes", true
}

// WriteTo serialises the paragraph in control-file syntax,
// folding multi-line values. It does not write the trailing
// blank line that separates paragraphs.
func (p *Paragraph) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, f := range p.fields {
		n, err := io.WriteString(w, formatField(f))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p *Paragraph) String() string {
	sb := strings.Builder{}
	_, _ = p.WriteTo(&sb)
	return sb.String()
}

func formatField(f Field) string {
	sb := strings.Builder{}
	for i, line := range strings.Split(f.Value, "\n") {
		if i == 0 {
			sb.WriteString(f.Name + ":")
			if line != "" {
				sb.WriteString(" " + line)
			}
			sb.WriteString("\n")
			continue
		}
		if line == "" {
			line = "."
		}
		sb.WriteString(fmt.Sprintf(" %s\n", line))
	}
	return sb.String()
}

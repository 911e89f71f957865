package control

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

var (
	ErrSyntax            = errors.New("control file syntax error")
	ErrMultipleParagraph = errors.New("expected a single paragraph")
	ErrEmpty             = errors.New("no paragraph found")
)

// SyntaxError describes a line that could not be parsed.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Reader lazily splits a control file into paragraphs.
//
// A Reader is not seekable: to iterate again, create a new
// Reader over the start of the source.
type Reader struct {
	r    *bufio.Reader
	line int
	done bool
	// skip discards the remainder of a paragraph that
	// failed to parse
	skip bool
}

// NewReader returns a Reader that reads paragraphs from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next paragraph, or io.EOF once the input
// is exhausted. After a *SyntaxError the next call resumes at
// the following paragraph.
func (r *Reader) Next() (*Paragraph, error) {
	var p *Paragraph
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			if p != nil {
				return p, nil
			}
			return nil, io.EOF
		}

		if strings.TrimSpace(line) == "" {
			r.skip = false
			if p != nil {
				return p, nil
			}
			continue
		}
		if r.skip {
			continue
		}

		// continuation line
		if line[0] == ' ' || line[0] == '\t' {
			if p == nil || p.Len() == 0 {
				return nil, r.fail(line, "continuation line outside of a field")
			}
			cont := line[1:]
			if strings.TrimSpace(cont) == "." {
				cont = ""
			}
			last := &p.fields[len(p.fields)-1]
			last.Value += "\n" + cont
			continue
		}

		name, value, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" || strings.ContainsAny(name, " \t") {
			return nil, r.fail(line, "missing field separator")
		}
		if p == nil {
			p = &Paragraph{}
		}
		p.Add(name, strings.TrimSpace(value))
	}
}

// fail records a syntax error and arranges for the rest of the
// current paragraph to be skipped.
func (r *Reader) fail(line, msg string) error {
	r.skip = true
	return &SyntaxError{Line: r.line, Text: line, Msg: msg}
}

func (r *Reader) readLine() (string, bool, error) {
	if r.done {
		return "", false, nil
	}
	line, err := r.r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", false, err
		}
		r.done = true
		if line == "" {
			return "", false, nil
		}
	}
	r.line++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// Paragraphs iterates over every paragraph in r. Iteration stops
// after the first error is yielded.
func Paragraphs(r io.Reader) iter.Seq2[*Paragraph, error] {
	return func(yield func(*Paragraph, error) bool) {
		cr := NewReader(r)
		for {
			p, err := cr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// ParseParagraphs reads every paragraph in s.
func ParseParagraphs(s string) ([]*Paragraph, error) {
	var out []*Paragraph
	for p, err := range Paragraphs(strings.NewReader(s)) {
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseParagraph parses s, which must contain exactly one paragraph.
func ParseParagraph(s string) (*Paragraph, error) {
	paragraphs, err := ParseParagraphs(s)
	if err != nil {
		return nil, err
	}
	switch len(paragraphs) {
	case 0:
		return nil, ErrEmpty
	case 1:
		return paragraphs[0], nil
	default:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleParagraph, len(paragraphs))
	}
}

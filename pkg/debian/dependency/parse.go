package dependency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian/version"
)

var (
	ErrMalformed             = errors.New("malformed dependency expression")
	ErrMissingName           = fmt.Errorf("%w: missing package name", ErrMalformed)
	ErrUnbalancedParenthesis = fmt.Errorf("%w: unbalanced parenthesis", ErrMalformed)
	ErrUnknownRelation       = fmt.Errorf("%w: unknown relation operator", ErrMalformed)
)

// Parse parses a relationship field value. An empty (or blank)
// value yields an empty list.
func Parse(s string) (List, error) {
	p := &parser{in: s}
	p.skipSpace()
	if p.eof() {
		return List{}, nil
	}
	var out List
	for {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		if p.peek() != ',' {
			return nil, p.errorf(ErrMalformed, "unexpected %q", p.peek())
		}
		p.pos++
	}
}

// ParseExpression parses a single expression (no top-level commas).
func ParseExpression(s string) (Expression, error) {
	l, err := Parse(s)
	if err != nil {
		return Expression{}, err
	}
	if len(l) != 1 {
		return Expression{}, fmt.Errorf("%w: expected one expression, found %d", ErrMalformed, len(l))
	}
	return l[0], nil
}

type parser struct {
	in  string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	return p.in[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) errorf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d of %q", err, fmt.Sprintf(format, args...), p.pos, p.in)
}

// takeWhile consumes bytes for which fn returns true.
func (p *parser) takeWhile(fn func(c byte) bool) string {
	start := p.pos
	for !p.eof() && fn(p.peek()) {
		p.pos++
	}
	return p.in[start:p.pos]
}

func (p *parser) expression() (Expression, error) {
	var expr Expression
	for {
		alt, err := p.alternative()
		if err != nil {
			return Expression{}, err
		}
		expr.Alternatives = append(expr.Alternatives, alt)
		p.skipSpace()
		if p.eof() || p.peek() != '|' {
			return expr, nil
		}
		p.pos++
	}
}

func (p *parser) alternative() (Alternative, error) {
	var alt Alternative
	p.skipSpace()
	alt.Name = p.takeWhile(isNameChar)
	if alt.Name == "" {
		return Alternative{}, p.errorf(ErrMissingName, "expected a package name")
	}
	if !p.eof() && p.peek() == ':' {
		p.pos++
		alt.Arch = p.takeWhile(isNameChar)
		if alt.Arch == "" {
			return Alternative{}, p.errorf(ErrMalformed, "missing architecture qualifier")
		}
	}

	p.skipSpace()
	if !p.eof() && p.peek() == '(' {
		c, err := p.constraint()
		if err != nil {
			return Alternative{}, err
		}
		alt.Constraint = c
	}

	for {
		p.skipSpace()
		if p.eof() {
			return alt, nil
		}
		switch p.peek() {
		case '[':
			items, err := p.group('[', ']')
			if err != nil {
				return Alternative{}, err
			}
			alt.Architectures = append(alt.Architectures, items...)
		case '<':
			items, err := p.group('<', '>')
			if err != nil {
				return Alternative{}, err
			}
			alt.Profiles = append(alt.Profiles, items)
		case ')':
			return Alternative{}, p.errorf(ErrUnbalancedParenthesis, "unexpected ')'")
		case '(':
			return Alternative{}, p.errorf(ErrMalformed, "more than one version constraint")
		default:
			return alt, nil
		}
	}
}

// constraint parses "(relop version)". A missing operator means "=".
func (p *parser) constraint() (*Constraint, error) {
	p.pos++ // '('
	p.skipSpace()
	rel := Relation(p.takeWhile(func(c byte) bool {
		return c == '<' || c == '>' || c == '='
	}))
	// operators like "!=" or "~" stop the scan early
	if !p.eof() && !isSpace(p.peek()) && !isAlnum(p.peek()) && p.peek() != ')' {
		junk := p.takeWhile(func(c byte) bool { return !isSpace(c) && !isAlnum(c) && c != ')' })
		return nil, p.errorf(ErrUnknownRelation, "%q", string(rel)+junk)
	}
	if rel == "" {
		rel = ExactlyEqual
	}
	if !rel.valid() {
		return nil, p.errorf(ErrUnknownRelation, "%q", rel)
	}
	p.skipSpace()
	raw := p.takeWhile(func(c byte) bool {
		return !isSpace(c) && c != ')' && c != '(' && c != ',' && c != '|'
	})
	p.skipSpace()
	if p.eof() || p.peek() != ')' {
		return nil, p.errorf(ErrUnbalancedParenthesis, "expected ')'")
	}
	p.pos++
	if raw == "" {
		return nil, p.errorf(ErrMalformed, "missing version")
	}
	v, err := version.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &Constraint{Relation: rel, Version: v}, nil
}

// group parses a whitespace separated list enclosed by start and end.
func (p *parser) group(start, end byte) ([]string, error) {
	p.pos++ // start
	n := strings.IndexByte(p.in[p.pos:], end)
	if n < 0 {
		return nil, p.errorf(ErrMalformed, "unterminated %q", start)
	}
	items := strings.Fields(p.in[p.pos : p.pos+n])
	p.pos += n + 1
	if len(items) == 0 {
		return nil, p.errorf(ErrMalformed, "empty %q group", start)
	}
	return items, nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isNameChar matches characters allowed in package and
// architecture names.
func isNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '.' || c == '+' || c == '-' || c == '_'
}

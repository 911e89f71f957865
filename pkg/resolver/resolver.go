// Package resolver computes the dependencies of binary packages
// against a fixed pool of candidates.
//
// A Resolver is immutable once built and may be queried from
// multiple goroutines.
package resolver

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
	"github.com/go-logr/logr"
)

const (
	archAll    = "all"
	archAny    = "any"
	archNative = "native"
)

type Resolver struct {
	pool   *pool
	native string
}

type Option func(*Resolver)

// WithArchitecture sets the architecture that "native" qualifiers
// and architecture-independent packages resolve against.
func WithArchitecture(arch string) Option {
	return func(r *Resolver) {
		r.native = arch
	}
}

// New builds a resolver over packages. Every package must carry a
// Package, a valid Version and an Architecture, and its Provides
// field must parse, otherwise an error describing each offending
// package is returned.
func New(ctx context.Context, packages []*debian.BinaryPackage, opts ...Option) (*Resolver, error) {
	log := logr.FromContextOrDiscard(ctx)

	p, errs := newPool(packages)
	if len(errs) > 0 {
		log.V(1).Info("failed to load packages", "count", len(errs))
		return nil, fmt.Errorf("loading packages: %w", errors.Join(errs...))
	}
	r := &Resolver{pool: p}
	for _, opt := range opts {
		opt(r)
	}
	log.V(1).Info("loaded package pool", "packages", len(p.entries), "names", len(p.byName), "virtual", len(p.providers))
	return r, nil
}

// Len returns the number of packages in the pool.
func (r *Resolver) Len() int {
	return len(r.pool.entries)
}

// Find returns every package called name, newest first.
func (r *Resolver) Find(name string) []*debian.BinaryPackage {
	entries := slices.Clone(r.pool.byName[name])
	slices.SortStableFunc(entries, func(a, b *entry) int {
		return b.version.Compare(a.version)
	})
	out := make([]*debian.BinaryPackage, len(entries))
	for i := range entries {
		out[i] = entries[i].pkg
	}
	return out
}

// Resolve picks the package that satisfies expr for a package built
// for arch. The first alternative with a match wins.
func (r *Resolver) Resolve(expr dependency.Expression, arch string) (*debian.BinaryPackage, bool) {
	_, c := r.resolveExpression(expr, arch)
	if c == nil {
		return nil, false
	}
	return c.pkg, true
}

// Resolution is the outcome of a single satisfied expression.
type Resolution struct {
	Expression dependency.Expression
	// Alternative is the alternative that matched.
	Alternative dependency.Alternative
	Package     *debian.BinaryPackage
	// Virtual is set when Package was chosen through its Provides field.
	Virtual bool
}

// DirectDependencies is the result of resolving one relationship
// field of a package.
type DirectDependencies struct {
	Package    *debian.BinaryPackage
	Kind       debian.Relationship
	Resolved   []Resolution
	Unresolved []*UnresolvedError
}

// Packages returns the resolved packages in expression order.
func (d *DirectDependencies) Packages() []*debian.BinaryPackage {
	out := make([]*debian.BinaryPackage, 0, len(d.Resolved))
	for _, res := range d.Resolved {
		out = append(out, res.Package)
	}
	return out
}

// Err joins every unresolved expression, or returns nil when
// everything resolved.
func (d *DirectDependencies) Err() error {
	return joinUnresolved(d.Unresolved)
}

// DirectDependencies resolves every expression of the kind field of
// pkg. Expressions that cannot be satisfied are collected in the
// result rather than returned as an error. An error is returned only
// when pkg itself is unusable.
func (r *Resolver) DirectDependencies(ctx context.Context, pkg *debian.BinaryPackage, kind debian.Relationship) (*DirectDependencies, error) {
	e, err := r.pool.lookup(pkg)
	if err != nil {
		return nil, err
	}
	return r.direct(ctx, e, kind)
}

func (r *Resolver) direct(ctx context.Context, e *entry, kind debian.Relationship) (*DirectDependencies, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("package", e.id.String(), "kind", kind)

	list, err := e.pkg.Relationship(kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.id, err)
	}
	out := &DirectDependencies{
		Package: e.pkg,
		Kind:    kind,
	}
	for _, expr := range list {
		alt, c := r.resolveExpression(expr, e.id.Architecture)
		if alt == nil {
			// every alternative is restricted to other architectures
			continue
		}
		if c == nil {
			log.V(4).Info("unresolved dependency", "expression", expr.String())
			out.Unresolved = append(out.Unresolved, &UnresolvedError{
				Package:    e.pkg,
				Kind:       kind,
				Expression: expr,
			})
			continue
		}
		log.V(5).Info("resolved dependency", "expression", expr.String(), "candidate", c.entry.id.String(), "virtual", c.virtual)
		out.Resolved = append(out.Resolved, Resolution{
			Expression:  expr,
			Alternative: *alt,
			Package:     c.pkg,
			Virtual:     c.virtual,
		})
	}
	return out, nil
}

type candidate struct {
	*entry
	virtual bool
}

// resolveExpression returns the first applicable alternative that
// has a candidate together with the best candidate. If no
// alternative applies to arch, the alternative is nil. If none
// matched, the candidate is nil and the alternative is the last
// applicable one.
func (r *Resolver) resolveExpression(expr dependency.Expression, arch string) (*dependency.Alternative, *candidate) {
	var last *dependency.Alternative
	for i := range expr.Alternatives {
		alt := &expr.Alternatives[i]
		if !r.applies(*alt, arch) {
			continue
		}
		last = alt
		if c := r.candidates(*alt, arch); len(c) > 0 {
			return alt, &c[0]
		}
	}
	return last, nil
}

// applies evaluates the [arch ...] restriction list of an
// alternative. Negated entries ("!arch") exclude an architecture.
func (r *Resolver) applies(alt dependency.Alternative, arch string) bool {
	if len(alt.Architectures) == 0 {
		return true
	}
	arch = r.effectiveArch(arch)
	negated := false
	for _, a := range alt.Architectures {
		name, neg := a, false
		if a != "" && a[0] == '!' {
			name, neg = a[1:], true
			negated = true
		}
		if name == arch || name == archAny {
			return !neg
		}
	}
	// a list of only negations applies to everything it does not name
	return negated
}

// candidates returns every package that satisfies alt, best first.
// Real packages are preferred over virtual ones.
func (r *Resolver) candidates(alt dependency.Alternative, arch string) []candidate {
	var concrete, virtual []candidate
	for _, e := range r.pool.byName[alt.Name] {
		if r.archAllowed(alt.Arch, e.id.Architecture, arch) && alt.Satisfies(e.version) {
			concrete = append(concrete, candidate{entry: e})
		}
	}
	if len(concrete) > 0 {
		r.rank(concrete, arch)
		return concrete
	}
	for _, p := range r.pool.providers[alt.Name] {
		if !r.archAllowed(alt.Arch, p.entry.id.Architecture, arch) {
			continue
		}
		// versioned dependencies are only satisfied by versioned provides
		if alt.Constraint != nil && (p.version == nil || !alt.Constraint.SatisfiedBy(*p.version)) {
			continue
		}
		virtual = append(virtual, candidate{entry: p.entry, virtual: true})
	}
	r.rank(virtual, arch)
	return virtual
}

// rank orders candidates by architecture preference, then newest
// version, then pool order.
func (r *Resolver) rank(c []candidate, arch string) {
	slices.SortStableFunc(c, func(a, b candidate) int {
		if n := cmp.Compare(r.archRank(a.id.Architecture, arch), r.archRank(b.id.Architecture, arch)); n != 0 {
			return n
		}
		if n := b.version.Compare(a.version); n != 0 {
			return n
		}
		return cmp.Compare(a.order, b.order)
	})
}

func (r *Resolver) effectiveArch(arch string) string {
	if (arch == "" || arch == archAll) && r.native != "" {
		return r.native
	}
	return arch
}

func (r *Resolver) archRank(arch, depender string) int {
	switch arch {
	case r.effectiveArch(depender):
		return 0
	case archAll:
		return 1
	default:
		return 2
	}
}

// archAllowed applies a multiarch qualifier (the "arch" in
// "name:arch") to a candidate.
func (r *Resolver) archAllowed(qualifier, arch, depender string) bool {
	switch qualifier {
	case "", archAny:
		return true
	case archNative:
		native := r.effectiveArch(depender)
		return arch == archAll || native == "" || native == archAll || arch == native
	default:
		return arch == qualifier || arch == archAll
	}
}

func joinUnresolved(errs []*UnresolvedError) error {
	if len(errs) == 0 {
		return nil
	}
	out := make([]error, len(errs))
	for i := range errs {
		out[i] = errs[i]
	}
	return errors.Join(out...)
}

package resolver

import (
	"fmt"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
	"github.com/djcass44/deb-resolver/pkg/debian/version"
)

// Identity is the key used to tell packages apart. Two paragraphs
// with the same identity are treated as the same package.
type Identity struct {
	Name         string
	Version      string
	Architecture string
}

func (i Identity) String() string {
	return i.Name + "_" + i.Version + "_" + i.Architecture
}

type entry struct {
	pkg     *debian.BinaryPackage
	id      Identity
	version version.Version
	// position in the pool, used to break ties
	order int
}

// provider is a package that satisfies a virtual name.
type provider struct {
	entry *entry
	// nil for unversioned Provides
	version *version.Version
}

// pool indexes packages by name and by the virtual names they
// provide. It is never modified after newPool returns.
type pool struct {
	entries   []*entry
	byName    map[string][]*entry
	byPackage map[*debian.BinaryPackage]*entry
	providers map[string][]provider
}

func newPool(packages []*debian.BinaryPackage) (*pool, []error) {
	p := &pool{
		byName:    map[string][]*entry{},
		byPackage: map[*debian.BinaryPackage]*entry{},
		providers: map[string][]provider{},
	}
	var errs []error
	for _, pkg := range packages {
		e, err := newEntry(pkg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		provides, err := pkg.Provides()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.id, err))
			continue
		}
		e.order = len(p.entries)
		p.entries = append(p.entries, e)
		p.byName[e.id.Name] = append(p.byName[e.id.Name], e)
		p.byPackage[pkg] = e

		for _, expr := range provides {
			for _, alt := range expr.Alternatives {
				prov := provider{entry: e}
				if alt.Constraint != nil && alt.Constraint.Relation == dependency.ExactlyEqual {
					v := alt.Constraint.Version
					prov.version = &v
				}
				p.providers[alt.Name] = append(p.providers[alt.Name], prov)
			}
		}
	}
	return p, errs
}

func newEntry(pkg *debian.BinaryPackage) (*entry, error) {
	name, err := pkg.Package()
	if err != nil {
		return nil, err
	}
	v, err := pkg.Version()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	arch, err := pkg.Architecture()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &entry{
		pkg:     pkg,
		id:      Identity{Name: name, Version: v.String(), Architecture: arch},
		version: v,
		order:   -1,
	}, nil
}

// lookup returns the pool entry of pkg, or a detached entry when
// pkg was never loaded (e.g. a local .deb used as a root).
func (p *pool) lookup(pkg *debian.BinaryPackage) (*entry, error) {
	if e, ok := p.byPackage[pkg]; ok {
		return e, nil
	}
	return newEntry(pkg)
}

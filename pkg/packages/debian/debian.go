package debian

import (
	"context"
	"fmt"
	"strings"

	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
	"github.com/djcass44/deb-resolver/pkg/lockfile"
	"github.com/djcass44/deb-resolver/pkg/resolver"
	"github.com/go-logr/logr"
)

// NewPackageKeeper fetches every repository and file in cfg and
// builds a resolver over the combined pool. Local files come first
// in the pool so that they win ties against repository packages.
func NewPackageKeeper(ctx context.Context, cfg v1.ResolveSpec, opts Options) (*PackageKeeper, error) {
	log := logr.FromContextOrDiscard(ctx)

	arch := cfg.Architecture
	if arch == "" {
		arch = DefaultArchitecture
	}
	kinds, err := ParseRelations(cfg.Relations)
	if err != nil {
		return nil, err
	}

	p := &PackageKeeper{
		arch:    arch,
		kinds:   kinds,
		origins: map[*debian.BinaryPackage]origin{},
		files:   cfg.Files,
		digests: map[string]string{},
	}

	var pool []*debian.BinaryPackage
	for _, file := range cfg.Files {
		pkg, digest, err := readFile(ctx, file, opts)
		if err != nil {
			return nil, err
		}
		log.V(2).Info("added file", "uri", file.URI, "package", pkg.String())
		p.origins[pkg] = origin{base: file.URI, typ: v1.PackageFile}
		p.digests[file.URI] = digest
		pool = append(pool, pkg)
	}

	indices, err := fetchRepositories(ctx, arch, cfg.Repositories, opts)
	if err != nil {
		return nil, err
	}
	for _, f := range indices {
		for _, pkg := range f.index.Packages() {
			p.origins[pkg] = origin{base: f.base, typ: v1.PackageDebian}
			pool = append(pool, pkg)
		}
	}

	p.resolver, err = resolver.New(ctx, pool, resolver.WithArchitecture(arch))
	if err != nil {
		return nil, err
	}
	log.V(1).Info("prepared package keeper", "packages", p.resolver.Len(), "arch", arch, "kinds", kinds)
	return p, nil
}

// ParseRelations converts relationship field names. An empty list
// selects the resolver defaults.
func ParseRelations(names []string) ([]debian.Relationship, error) {
	if len(names) == 0 {
		return resolver.DefaultRelationships(), nil
	}
	out := make([]debian.Relationship, len(names))
	for i, n := range names {
		r, err := debian.ParseRelationship(n)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (p *PackageKeeper) Architecture() string {
	return p.arch
}

func (p *PackageKeeper) Relations() []debian.Relationship {
	return p.kinds
}

func (p *PackageKeeper) Resolver() *resolver.Resolver {
	return p.resolver
}

// Closure finds the package selected by the dependency expression
// name and walks its dependencies.
func (p *PackageKeeper) Closure(ctx context.Context, name string) (*resolver.TransitiveDependencies, error) {
	expr, err := dependency.ParseExpression(name)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", name, err)
	}
	root, ok := p.resolver.Resolve(expr, p.arch)
	if !ok {
		return nil, fmt.Errorf("%w: package could not be found in any index: %s", resolver.ErrUnresolved, name)
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("selected root package", "request", name, "package", root.String())
	return p.resolver.TransitiveDependencies(ctx, root, p.kinds...)
}

// Resolve returns the lockfile entries for name and everything it
// depends on. Any relationship that cannot be satisfied is an error
// since the lock would be incomplete.
func (p *PackageKeeper) Resolve(ctx context.Context, name string) ([]lockfile.Package, error) {
	deps, err := p.Closure(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := deps.Err(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", name, err)
	}

	root, err := p.Lock(deps.Root, nil, "")
	if err != nil {
		return nil, err
	}
	root.Requested = []string{name}
	out := []lockfile.Package{root}
	for _, e := range deps.PackagesWithSources() {
		pkg, err := p.Lock(e.Package, e.Source, e.Kind)
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	return out, nil
}

// Files returns the lockfile entries of the local files in the pool.
func (p *PackageKeeper) Files() []lockfile.Package {
	out := make([]lockfile.Package, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, lockfile.Package{
			Name:      f.URI,
			Type:      v1.PackageFile,
			Resolved:  f.URI,
			Integrity: lockfile.Integrity(p.digests[f.URI]),
		})
	}
	return out
}

// Lock converts a package into a lockfile entry. source and kind
// describe the relationship that pulled it in and are empty for
// roots.
func (p *PackageKeeper) Lock(pkg, source *debian.BinaryPackage, kind debian.Relationship) (lockfile.Package, error) {
	name, err := pkg.Package()
	if err != nil {
		return lockfile.Package{}, err
	}
	ver, err := pkg.VersionString()
	if err != nil {
		return lockfile.Package{}, err
	}
	arch, err := pkg.Architecture()
	if err != nil {
		return lockfile.Package{}, err
	}

	out := lockfile.Package{
		Name:         p.key(name, arch),
		Type:         v1.PackageDebian,
		Version:      ver,
		Architecture: arch,
		Kind:         string(kind),
	}
	if source != nil {
		srcName, _ := source.Package()
		srcArch, _ := source.Architecture()
		out.Source = p.key(srcName, srcArch)
	}

	o := p.origins[pkg]
	switch o.typ {
	case v1.PackageFile:
		out.Resolved = o.base
		out.Integrity = lockfile.Integrity(p.digests[o.base])
	default:
		if filename, ok := pkg.Filename(); ok && o.base != "" {
			out.Resolved = strings.TrimSuffix(o.base, "/") + "/" + strings.TrimPrefix(filename, "/")
		}
		digest, _ := pkg.SHA256()
		out.Integrity = lockfile.Integrity(digest)
	}
	return out, nil
}

// key names a package in the lockfile. Foreign packages carry their
// architecture so that they cannot collide with native ones.
func (p *PackageKeeper) key(name, arch string) string {
	if arch == p.arch || arch == "all" || arch == "" {
		return name
	}
	return name + ":" + arch
}

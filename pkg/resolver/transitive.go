package resolver

import (
	"context"
	"errors"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/go-logr/logr"
)

// DefaultRelationships are followed when a transitive query does
// not name any.
func DefaultRelationships() []debian.Relationship {
	return []debian.Relationship{debian.Depends, debian.PreDepends}
}

// Edge records that Package was first pulled into a closure by the
// Kind field of Source.
type Edge struct {
	Package *debian.BinaryPackage
	Source  *debian.BinaryPackage
	Kind    debian.Relationship
}

// TransitiveDependencies is the closure of a package over a set of
// relationship kinds.
type TransitiveDependencies struct {
	Root       *debian.BinaryPackage
	Kinds      []debian.Relationship
	edges      []Edge
	unresolved []*UnresolvedError
	problems   []error
}

// PackagesWithSources returns each package in the closure together
// with the package that pulled it in, in discovery order.
func (t *TransitiveDependencies) PackagesWithSources() []Edge {
	out := make([]Edge, len(t.edges))
	copy(out, t.edges)
	return out
}

// Packages returns the packages in the closure in discovery order.
// The root is not included.
func (t *TransitiveDependencies) Packages() []*debian.BinaryPackage {
	out := make([]*debian.BinaryPackage, len(t.edges))
	for i := range t.edges {
		out[i] = t.edges[i].Package
	}
	return out
}

func (t *TransitiveDependencies) Len() int {
	return len(t.edges)
}

// Unresolved returns every expression in the closure that could not
// be satisfied.
func (t *TransitiveDependencies) Unresolved() []*UnresolvedError {
	out := make([]*UnresolvedError, len(t.unresolved))
	copy(out, t.unresolved)
	return out
}

// Problems returns errors from packages reached during the traversal
// whose relationship fields could not be read. Those packages are in
// the closure but their dependencies are not.
func (t *TransitiveDependencies) Problems() []error {
	out := make([]error, len(t.problems))
	copy(out, t.problems)
	return out
}

// Err joins every unresolved expression and problem, or returns nil
// when the closure is complete.
func (t *TransitiveDependencies) Err() error {
	return errors.Join(append([]error{joinUnresolved(t.unresolved)}, t.problems...)...)
}

// TransitiveDependencies walks the dependencies of root breadth
// first. Each package dequeued has its kinds resolved in the order
// given, and newly seen packages are queued in the order they
// resolve. The result is deterministic for a given pool and query.
//
// Packages are visited once per identity, so cyclic relationships
// terminate. The root is never part of the result.
func (r *Resolver) TransitiveDependencies(ctx context.Context, root *debian.BinaryPackage, kinds ...debian.Relationship) (*TransitiveDependencies, error) {
	if len(kinds) == 0 {
		kinds = DefaultRelationships()
	}
	rootEntry, err := r.pool.lookup(root)
	if err != nil {
		return nil, err
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("root", rootEntry.id.String(), "kinds", kinds)
	log.V(1).Info("resolving transitive dependencies")

	out := &TransitiveDependencies{
		Root:  root,
		Kinds: kinds,
	}
	visited := map[Identity]struct{}{
		rootEntry.id: {},
	}
	queue := []*entry{rootEntry}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		for _, kind := range kinds {
			direct, err := r.direct(ctx, current, kind)
			if err != nil {
				// a broken root is the caller's problem
				if current == rootEntry {
					return nil, err
				}
				log.V(4).Info("skipping unreadable relationship", "package", current.id.String(), "kind", kind, "error", err.Error())
				out.problems = append(out.problems, err)
				continue
			}
			out.unresolved = append(out.unresolved, direct.Unresolved...)

			for _, res := range direct.Resolved {
				dep := r.pool.byPackage[res.Package]
				if _, ok := visited[dep.id]; ok {
					continue
				}
				visited[dep.id] = struct{}{}
				queue = append(queue, dep)
				out.edges = append(out.edges, Edge{
					Package: res.Package,
					Source:  current.pkg,
					Kind:    kind,
				})
				log.V(5).Info("discovered package", "package", dep.id.String(), "source", current.id.String())
			}
		}
	}
	log.V(1).Info("resolved transitive dependencies", "count", len(out.edges), "unresolved", len(out.unresolved))
	return out, nil
}

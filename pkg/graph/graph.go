// Package graph exports dependency closures for visualisation.
package graph

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/resolver"
	"github.com/go-logr/logr"
	"github.com/goccy/go-graphviz"
)

type Options struct {
	// ShowVersions labels nodes with name_version_arch instead of
	// just the package name.
	ShowVersions bool
	// ShowUnresolved adds a node for every expression that could
	// not be satisfied.
	ShowUnresolved bool
}

// ToDOT converts a closure into Graphviz DOT. Edges point from the
// package that declared the relationship to the package it pulled in.
func ToDOT(deps *resolver.TransitiveDependencies, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	root := nodeID(deps.Root, opts)
	_, _ = fmt.Fprintf(&buf, "  %q [fillcolor=lightblue];\n", root)
	for _, e := range deps.PackagesWithSources() {
		_, _ = fmt.Fprintf(&buf, "  %q;\n", nodeID(e.Package, opts))
	}

	buf.WriteString("\n")
	for _, e := range deps.PackagesWithSources() {
		_, _ = fmt.Fprintf(&buf, "  %q -> %q [%s];\n", nodeID(e.Source, opts), nodeID(e.Package, opts), edgeAttrs(e.Kind))
	}

	if opts.ShowUnresolved {
		buf.WriteString("\n")
		for _, u := range deps.Unresolved() {
			id := u.Expression.String()
			_, _ = fmt.Fprintf(&buf, "  %q [style=\"rounded,dashed\", color=red];\n", id)
			_, _ = fmt.Fprintf(&buf, "  %q -> %q [%s, color=red];\n", nodeID(u.Package, opts), id, edgeAttrs(u.Kind))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(p *debian.BinaryPackage, opts Options) string {
	if opts.ShowVersions {
		return p.String()
	}
	name, err := p.Package()
	if err != nil {
		return p.String()
	}
	return name
}

func edgeAttrs(kind debian.Relationship) string {
	attrs := []string{fmt.Sprintf("label=%q", kind)}
	switch kind {
	case debian.Recommends, debian.Suggests, debian.Enhances:
		attrs = append(attrs, "style=dashed")
	case debian.PreDepends:
		attrs = append(attrs, "penwidth=2")
	}
	return strings.Join(attrs, ", ")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, graphviz.SVG)
}

// Render renders a DOT graph in the given format.
func Render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("format", format)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	log.V(1).Info("rendered graph", "bytes", buf.Len())
	return buf.Bytes(), nil
}

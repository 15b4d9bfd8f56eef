package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/graph"
)

// GraphOptions configuration for the Graph method.
type GraphOptions struct {
	Entries []string
	// Dot renders Graphviz syntax instead of the plain listing.
	Dot bool
}

// Graph discovers the module graph and prints it in build order.
func (a *App) Graph(ctx context.Context, opts GraphOptions) error {
	s, err := a.newSession(opts.Entries, Overrides{})
	if err != nil {
		return err
	}

	g, err := graph.NewBuilder(s.project, s.sources, s.toolchain.Resolver, a.locator).Build(ctx, s.entries)
	if err != nil {
		return err
	}

	if opts.Dot {
		return WriteDot(a.stdout, g)
	}
	return WriteListing(a.stdout, g)
}

// WriteListing prints one line per module in build order followed by its imports.
func WriteListing(w io.Writer, g *domain.BuildGraph) error {
	root := g.Root()
	var b strings.Builder
	for _, idx := range g.Order() {
		b.WriteString(g.Node(idx).ID.Rel(root))
		if deps := g.Deps(idx); len(deps) > 0 {
			b.WriteString(" ->")
			for _, dep := range deps {
				b.WriteString(" ")
				b.WriteString(g.Node(dep).ID.Rel(root))
			}
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDot prints the graph as a Graphviz digraph. Edges point from importer to import.
func WriteDot(w io.Writer, g *domain.BuildGraph) error {
	root := g.Root()
	var b strings.Builder
	b.WriteString("digraph kiln {\n")
	for _, idx := range g.Order() {
		name := g.Node(idx).ID.Rel(root)
		deps := g.Deps(idx)
		if len(deps) == 0 {
			fmt.Fprintf(&b, "  %q;\n", name)
			continue
		}
		for _, dep := range deps {
			fmt.Fprintf(&b, "  %q -> %q;\n", name, g.Node(dep).ID.Rel(root))
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Package graph turns entry modules into a sealed import graph.
package graph

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Builder discovers the modules reachable from a set of entries.
type Builder struct {
	root     string
	search   domain.SearchPaths
	jobs     int
	sources  ports.SourceReader
	resolver ports.ImportResolver
	locator  ports.ModuleLocator
}

// NewBuilder creates a Builder for project. Imports are listed by resolver
// and mapped to files by locator.
func NewBuilder(
	project *domain.Project,
	sources ports.SourceReader,
	resolver ports.ImportResolver,
	locator ports.ModuleLocator,
) *Builder {
	jobs := project.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Builder{
		root:     project.Root,
		search:   project.Search,
		jobs:     jobs,
		sources:  sources,
		resolver: resolver,
		locator:  locator,
	}
}

// scanResult holds what was learned about one module during discovery.
type scanResult struct {
	source  []byte
	hash    domain.Hash
	imports []domain.ImportRef
	targets []domain.ModuleID
	missing []error
}

// Build walks the imports breadth first from entries and returns the sealed graph.
// Every unresolved import is reported, joined into one error. Import cycles
// are reported as a *domain.CycleError.
func (b *Builder) Build(ctx context.Context, entries []string) (*domain.BuildGraph, error) {
	if len(entries) == 0 {
		return nil, domain.ErrNoEntries
	}

	g := domain.NewBuildGraph(b.root)
	frontier := make([]int, 0, len(entries))
	for _, entry := range entries {
		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.root, path)
		}
		id, err := b.locator.Canonical(path)
		if err != nil {
			return nil, zerr.With(err, "entry", entry)
		}
		idx, added := g.AddModule(&domain.ModuleNode{ID: id})
		g.MarkEntry(idx)
		if added {
			frontier = append(frontier, idx)
		}
	}

	var missing []error
	for len(frontier) > 0 {
		results, err := b.scan(ctx, g, frontier)
		if err != nil {
			return nil, err
		}

		var next []int
		for i, idx := range frontier {
			res := results[i]
			node := g.Node(idx)
			node.Source = res.source
			node.SourceHash = res.hash
			node.Imports = res.imports
			missing = append(missing, res.missing...)

			for _, target := range res.targets {
				dep, added := g.AddModule(&domain.ModuleNode{ID: target})
				g.AddEdge(idx, dep)
				if added {
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}

	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	if cycles := FindCycles(g, MaxReportedCycles); len(cycles) > 0 {
		return nil, &domain.CycleError{Root: b.root, Cycles: cycles}
	}

	if err := g.Seal(); err != nil {
		return nil, err
	}
	return g, nil
}

// scan reads and resolves the imports of every module in frontier concurrently.
// Results are indexed like frontier so the graph grows in a stable order.
func (b *Builder) scan(ctx context.Context, g *domain.BuildGraph, frontier []int) ([]scanResult, error) {
	results := make([]scanResult, len(frontier))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.jobs)
	for i, idx := range frontier {
		id := g.Node(idx).ID
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := b.scanModule(ctx, id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) scanModule(ctx context.Context, id domain.ModuleID) (scanResult, error) {
	source, hash, err := b.sources.ReadSource(string(id))
	if err != nil {
		return scanResult{}, err
	}

	imports, err := b.resolver.ResolveImports(ctx, id, source)
	if err != nil {
		return scanResult{}, zerr.With(err, "module", id.Rel(b.root))
	}

	res := scanResult{source: source, hash: hash, imports: imports}
	for _, ref := range imports {
		target, err := b.locator.Locate(id, ref, b.search)
		if err != nil {
			var notFound *domain.ImportNotFoundError
			if errors.As(err, &notFound) {
				res.missing = append(res.missing, notFound)
				continue
			}
			return scanResult{}, zerr.With(err, "module", id.Rel(b.root))
		}
		res.targets = append(res.targets, target)
	}
	return res, nil
}

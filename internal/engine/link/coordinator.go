// Package link produces the final binary from a build's object files.
package link

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options selects what the linker produces.
type Options struct {
	Target string
	Output string
}

// Coordinator runs the linker over the artifacts of a successful build.
// Linking is never cached.
type Coordinator struct {
	linker  ports.Linker
	tracer  ports.Tracer
	metrics ports.Metrics
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(linker ports.Linker, tracer ports.Tracer, metrics ports.Metrics) *Coordinator {
	return &Coordinator{linker: linker, tracer: tracer, metrics: metrics}
}

// Link links the artifacts of every module in g into opts.Output and
// returns the output path. A non-zero linker exit is a *domain.LinkError.
func (c *Coordinator) Link(
	ctx context.Context,
	g *domain.BuildGraph,
	artifacts map[domain.ModuleID]domain.Artifact,
	opts Options,
) (path string, err error) {
	ctx, span := c.tracer.Start(ctx, "link "+domain.ModuleID(opts.Output).Rel(g.Root()))
	start := time.Now()
	defer func() {
		c.metrics.ObserveLink(time.Since(start), err)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	objects, err := ObjectOrder(g, artifacts)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", opts.Output)
	}

	res, err := c.linker.Link(ctx, ports.LinkRequest{
		Objects: objects,
		Target:  opts.Target,
		Output:  opts.Output,
	})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &domain.LinkError{Output: opts.Output, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return opts.Output, nil
}

// ObjectOrder lists object paths dependents first, the reverse of the
// graph's topological order.
func ObjectOrder(g *domain.BuildGraph, artifacts map[domain.ModuleID]domain.Artifact) ([]string, error) {
	order := g.Order()
	objects := make([]string, 0, len(order))
	for _, idx := range slices.Backward(order) {
		id := g.Node(idx).ID
		artifact, ok := artifacts[id]
		if !ok {
			return nil, zerr.With(domain.ErrMissingObject, "module", id.Rel(g.Root()))
		}
		objects = append(objects, artifact.Path)
	}
	return objects, nil
}

// Package scheduler drives the modules of a build graph through the cache
// and the compiler with a bounded worker pool.
package scheduler

import (
	"context"
	"runtime"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// ModuleCompiler compiles a module after a cache miss.
type ModuleCompiler interface {
	Compile(
		ctx context.Context,
		module *domain.ModuleNode,
		deps map[domain.ModuleID]domain.Signature,
		key domain.CacheKey,
	) (domain.Artifact, error)
}

// Options are the per build inputs of Run.
type Options struct {
	// Jobs bounds the number of concurrent workers. Zero or less means one per CPU.
	Jobs            int
	FlagsHash       domain.Hash
	CompilerVersion string
}

// Scheduler manages the execution of modules in the build graph.
type Scheduler struct {
	store    ports.CacheStore
	hasher   ports.Hasher
	compiler ModuleCompiler
	tracer   ports.Tracer
	metrics  ports.Metrics
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	store ports.CacheStore,
	hasher ports.Hasher,
	compiler ModuleCompiler,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Scheduler {
	return &Scheduler{
		store:    store,
		hasher:   hasher,
		compiler: compiler,
		tracer:   tracer,
		metrics:  metrics,
	}
}

type result struct {
	node     int
	artifact domain.Artifact
	err      error
	elapsed  time.Duration
}

type runState struct {
	s    *Scheduler
	ctx  context.Context
	g    *domain.BuildGraph
	opts Options

	jobs      []domain.BuildJob
	inDegree  []int
	ready     []int
	active    int
	closure   [][]int
	artifacts []domain.Artifact
	resultsCh chan result
	report    *domain.BuildReport
}

// Run builds every module of g and returns the report. Module failures are
// recorded in the report, not returned. When ctx is cancelled, running
// modules finish, the rest are listed as not started and the report is
// marked cancelled.
func (s *Scheduler) Run(ctx context.Context, g *domain.BuildGraph, opts Options) (*domain.BuildReport, error) {
	start := time.Now()
	if g.Order() == nil {
		if err := g.Seal(); err != nil {
			return nil, err
		}
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}

	plan := make([]string, 0, g.Len())
	for _, idx := range g.Order() {
		plan = append(plan, g.Node(idx).ID.Rel(g.Root()))
	}
	s.tracer.EmitPlan(ctx, plan)

	state := s.newRunState(ctx, g, opts)
	state.loop()

	report := state.finish()
	report.Duration = time.Since(start)
	return report, nil
}

func (s *Scheduler) newRunState(ctx context.Context, g *domain.BuildGraph, opts Options) *runState {
	state := &runState{
		s:         s,
		ctx:       ctx,
		g:         g,
		opts:      opts,
		jobs:      make([]domain.BuildJob, g.Len()),
		inDegree:  make([]int, g.Len()),
		closure:   make([][]int, g.Len()),
		artifacts: make([]domain.Artifact, g.Len()),
		resultsCh: make(chan result, opts.Jobs),
		report:    domain.NewBuildReport(),
	}

	for _, idx := range g.Order() {
		state.jobs[idx] = domain.BuildJob{Node: idx, State: domain.JobPending}
		state.inDegree[idx] = len(g.Deps(idx))
		if state.inDegree[idx] == 0 {
			state.jobs[idx].State = domain.JobReady
			state.ready = append(state.ready, idx)
		}
	}
	return state
}

func (state *runState) loop() {
	done := state.ctx.Done()
	for {
		for state.ctx.Err() == nil && state.active < state.opts.Jobs && len(state.ready) > 0 {
			idx := state.ready[0]
			state.ready = state.ready[1:]
			state.launch(idx)
		}

		if state.active == 0 {
			return
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			// Keep collecting results of running workers without spinning.
			done = nil
		}
	}
}

func (state *runState) launch(idx int) {
	node := state.g.Node(idx)

	deps := make(map[domain.ModuleID]domain.Signature, len(node.Deps))
	for _, dep := range node.Deps {
		deps[state.g.Node(dep).ID] = state.artifacts[dep].Signature
	}

	key := domain.CacheKey{
		ModuleID:                node.ID,
		SourceHash:              node.SourceHash,
		TransitiveSignatureHash: state.transitiveHash(idx),
		CompilerFlagsHash:       state.opts.FlagsHash,
		CompilerVersion:         state.opts.CompilerVersion,
	}

	state.jobs[idx].State = domain.JobRunning
	state.active++
	name := node.ID.Rel(state.g.Root())
	go func() {
		state.resultsCh <- state.s.work(state.ctx, idx, name, node, deps, key)
	}()
}

// transitiveHash combines the signature hashes of every module idx depends
// on, directly or not. All of them are done when idx is launched.
func (state *runState) transitiveHash(idx int) domain.Hash {
	seen := make(map[int]bool)
	var closure []int
	for _, dep := range state.g.Deps(idx) {
		for _, c := range append([]int{dep}, state.closure[dep]...) {
			if !seen[c] {
				seen[c] = true
				closure = append(closure, c)
			}
		}
	}
	slices.Sort(closure)
	state.closure[idx] = closure

	signatures := make(map[domain.ModuleID]domain.Hash, len(closure))
	for _, c := range closure {
		signatures[state.g.Node(c).ID] = state.artifacts[c].SignatureHash
	}
	return state.s.hasher.HashTransitive(signatures)
}

func (s *Scheduler) work(
	ctx context.Context,
	idx int,
	name string,
	node *domain.ModuleNode,
	deps map[domain.ModuleID]domain.Signature,
	key domain.CacheKey,
) result {
	// Once picked up a module runs to completion, even if the build is cancelled.
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	span.SetAttribute(ports.AttrModule, string(node.ID))
	start := time.Now()

	if entry, ok := s.store.Get(ctx, key); ok {
		s.metrics.ObserveCacheLookup(true)
		span.SetAttribute(ports.AttrCached, true)
		return result{
			node: idx,
			artifact: domain.Artifact{
				Module:        node.ID,
				Path:          entry.ArtifactPath,
				Signature:     entry.Signature,
				SignatureHash: entry.SignatureHash,
				Cached:        true,
			},
			elapsed: time.Since(start),
		}
	}
	s.metrics.ObserveCacheLookup(false)

	artifact, err := s.compiler.Compile(ctx, node, deps, key)
	if err != nil {
		span.RecordError(err)
	}
	return result{node: idx, artifact: artifact, err: err, elapsed: time.Since(start)}
}

func (state *runState) handleResult(res result) {
	state.active--
	job := &state.jobs[res.node]
	id := state.g.Node(res.node).ID

	if res.err != nil {
		job.State = domain.JobFailed
		job.Err = res.err
		state.report.Failed = append(state.report.Failed, domain.ModuleFailure{Module: id, Err: res.err})
		state.s.metrics.ObserveModule(domain.JobFailed, res.elapsed)
		state.skipDependents(res.node)
		return
	}

	job.State = domain.JobDone
	job.Cached = res.artifact.Cached
	state.artifacts[res.node] = res.artifact
	state.report.Artifacts[id] = res.artifact
	if res.artifact.Cached {
		state.report.Cached = append(state.report.Cached, id)
	} else {
		state.report.Compiled = append(state.report.Compiled, id)
	}
	state.s.metrics.ObserveModule(domain.JobDone, res.elapsed)

	for _, dependent := range state.g.Dependents(res.node) {
		state.inDegree[dependent]--
		if state.inDegree[dependent] == 0 && state.jobs[dependent].State == domain.JobPending {
			state.jobs[dependent].State = domain.JobReady
			state.ready = append(state.ready, dependent)
		}
	}
}

// skipDependents marks every transitive dependent of failed as skipped.
func (state *runState) skipDependents(failed int) {
	cause := state.g.Node(failed).ID
	queue := slices.Clone(state.g.Dependents(failed))
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		job := &state.jobs[idx]
		if job.State != domain.JobPending {
			continue
		}
		job.State = domain.JobSkipped
		job.Cause = cause

		node := state.g.Node(idx)
		state.report.Skipped = append(state.report.Skipped, domain.ModuleSkip{Module: node.ID, Cause: cause})
		state.s.metrics.ObserveModule(domain.JobSkipped, 0)

		_, span := state.s.tracer.Start(state.ctx, node.ID.Rel(state.g.Root()))
		span.SetAttribute(ports.AttrModule, string(node.ID))
		span.SetAttribute(ports.AttrSkipped, true)
		span.End()

		queue = append(queue, state.g.Dependents(idx)...)
	}
}

// finish lists unfinished modules and sorts every outcome list by build order.
func (state *runState) finish() *domain.BuildReport {
	report := state.report
	position := make(map[domain.ModuleID]int, state.g.Len())
	for pos, idx := range state.g.Order() {
		position[state.g.Node(idx).ID] = pos
		if !state.jobs[idx].State.Terminal() {
			report.NotStarted = append(report.NotStarted, state.g.Node(idx).ID)
		}
	}
	report.Cancelled = len(report.NotStarted) > 0

	byOrder := func(a, b domain.ModuleID) int { return position[a] - position[b] }
	slices.SortFunc(report.Compiled, byOrder)
	slices.SortFunc(report.Cached, byOrder)
	slices.SortFunc(report.Failed, func(a, b domain.ModuleFailure) int { return byOrder(a.Module, b.Module) })
	slices.SortFunc(report.Skipped, func(a, b domain.ModuleSkip) int { return byOrder(a.Module, b.Module) })
	return report
}

package scheduler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/compile"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// module describes a source file of a test graph. Lines of the form
// "pub fn name" become exported items; a line "error" fails compilation.
type module struct {
	source string
	deps   []string
}

type harness struct {
	t        *testing.T
	hasher   *fs.Hasher
	store    *cas.MemoryStore
	compiler *mocks.MockCompiler
	tracer   ports.Tracer
	recorder *metrics.Recorder

	mu       sync.Mutex
	compiled []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		t:        t,
		hasher:   fs.NewHasher(),
		store:    cas.NewMemoryStore(),
		compiler: mocks.NewMockCompiler(ctrl),
		tracer:   telemetry.NewNoOpTracer(),
		recorder: metrics.NewRecorder(),
	}
	h.compiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(h.compile).AnyTimes()
	return h
}

func (h *harness) compile(_ context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
	h.mu.Lock()
	h.compiled = append(h.compiled, req.Module.Rel("/p"))
	h.mu.Unlock()

	var items []domain.ExportedItem
	for line := range strings.Lines(string(req.Source)) {
		line = strings.TrimSpace(line)
		if line == "error" {
			return nil, errors.New("syntax error")
		}
		if name, ok := strings.CutPrefix(line, "pub fn "); ok {
			items = append(items, domain.ExportedItem{Name: name, Kind: "fn", Type: "() -> int"})
		}
	}
	return &ports.CompileOutput{Object: req.Source, Signature: domain.Signature{Items: items}}, nil
}

// compiledModules returns the modules handed to the compiler so far, sorted.
func (h *harness) compiledModules() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := slices.Clone(h.compiled)
	slices.Sort(out)
	h.compiled = nil
	return out
}

func (h *harness) graph(modules map[string]module) *domain.BuildGraph {
	h.t.Helper()
	g := domain.NewBuildGraph("/p")

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	slices.Sort(names)

	add := func(name string) int {
		source := []byte(modules[name].source)
		idx, _ := g.AddModule(&domain.ModuleNode{
			ID:         domain.ModuleID("/p/" + name),
			Source:     source,
			SourceHash: h.hasher.HashSource(source),
		})
		return idx
	}
	for _, name := range names {
		add(name)
	}
	for _, name := range names {
		from := add(name)
		for _, dep := range modules[name].deps {
			g.AddEdge(from, add(dep))
		}
	}
	require.NoError(h.t, g.Seal())
	return g
}

func (h *harness) scheduler(compiler scheduler.ModuleCompiler) *scheduler.Scheduler {
	h.t.Helper()
	if compiler == nil {
		ctrl := gomock.NewController(h.t)
		compiler = compile.NewCoordinator(compile.Config{
			Root:       "/p",
			ScratchDir: filepath.Join(h.t.TempDir(), "build"),
		}, h.compiler, h.store, h.hasher, mocks.NewMockLogger(ctrl))
	}
	return scheduler.NewScheduler(h.store, h.hasher, compiler, h.tracer, h.recorder)
}

func (h *harness) run(g *domain.BuildGraph, jobs int) *domain.BuildReport {
	h.t.Helper()
	report, err := h.scheduler(nil).Run(h.t.Context(), g, scheduler.Options{Jobs: jobs, CompilerVersion: "0.4.1"})
	require.NoError(h.t, err)
	return report
}

func rel(ids []domain.ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Rel("/p")
	}
	return out
}

// layered is main -> {net, fmt} -> base.
func layered(baseSource string) map[string]module {
	return map[string]module{
		"main.kn": {source: "pub fn main\n", deps: []string{"net.kn", "fmt.kn"}},
		"net.kn":  {source: "pub fn dial\n", deps: []string{"base.kn"}},
		"fmt.kn":  {source: "pub fn print\n", deps: []string{"base.kn"}},
		"base.kn": {source: baseSource},
	}
}

func TestScheduler_Run_FreshBuild(t *testing.T) {
	h := newHarness(t)
	g := h.graph(layered("pub fn alloc\n"))

	report := h.run(g, 4)

	assert.True(t, report.Succeeded())
	assert.Equal(t, []string{"base.kn", "fmt.kn", "net.kn", "main.kn"}, rel(report.Compiled))
	assert.Empty(t, report.Cached)
	assert.Len(t, report.Artifacts, 4)
	assert.Equal(t, []string{"base.kn", "fmt.kn", "main.kn", "net.kn"}, h.compiledModules())

	base := report.Artifacts["/p/base.kn"]
	assert.Equal(t, h.hasher.HashSignature(base.Signature.Items), base.SignatureHash)
	assert.FileExists(t, base.Path)
}

func TestScheduler_Run_Idempotent(t *testing.T) {
	h := newHarness(t)
	g := h.graph(layered("pub fn alloc\n"))

	first := h.run(g, 4)
	require.True(t, first.Succeeded())
	h.compiledModules()

	second := h.run(g, 4)
	assert.True(t, second.Succeeded())
	assert.Empty(t, second.Compiled)
	assert.Equal(t, []string{"base.kn", "fmt.kn", "net.kn", "main.kn"}, rel(second.Cached))
	assert.Empty(t, h.compiledModules())

	for id, artifact := range second.Artifacts {
		assert.True(t, artifact.Cached)
		assert.Equal(t, first.Artifacts[id].SignatureHash, artifact.SignatureHash)
	}
}

func TestScheduler_Run_InterfaceStableRebuild(t *testing.T) {
	h := newHarness(t)
	chain := map[string]module{
		"main.kn": {source: "pub fn main\n", deps: []string{"util.kn"}},
		"util.kn": {source: "pub fn helper\n", deps: []string{"base.kn"}},
		"base.kn": {source: "pub fn alloc\nbody 1\n"},
	}
	h.run(h.graph(chain), 2)
	h.compiledModules()

	chain["base.kn"] = module{source: "pub fn alloc\nbody 2\n"}
	report := h.run(h.graph(chain), 2)

	assert.Equal(t, []string{"base.kn"}, rel(report.Compiled))
	assert.Equal(t, []string{"util.kn", "main.kn"}, rel(report.Cached))
	assert.Equal(t, []string{"base.kn"}, h.compiledModules())
}

func TestScheduler_Run_InterfaceChangePropagates(t *testing.T) {
	h := newHarness(t)
	chain := map[string]module{
		"main.kn": {source: "pub fn main\n", deps: []string{"util.kn"}},
		"util.kn": {source: "pub fn helper\n", deps: []string{"base.kn"}},
		"base.kn": {source: "pub fn alloc\n"},
	}
	h.run(h.graph(chain), 2)
	h.compiledModules()

	chain["base.kn"] = module{source: "pub fn alloc\npub fn free\n"}
	report := h.run(h.graph(chain), 2)

	assert.Equal(t, []string{"base.kn", "util.kn", "main.kn"}, rel(report.Compiled))
	assert.Empty(t, report.Cached)
	assert.Equal(t, []string{"base.kn", "main.kn", "util.kn"}, h.compiledModules())
}

func TestScheduler_Run_FailFast(t *testing.T) {
	h := newHarness(t)
	modules := layered("pub fn alloc\n")
	modules["net.kn"] = module{source: "error\n", deps: []string{"base.kn"}}
	modules["tool.kn"] = module{source: "pub fn tool\n", deps: []string{"main.kn"}}

	report := h.run(h.graph(modules), 4)

	assert.False(t, report.Succeeded())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, domain.ModuleID("/p/net.kn"), report.Failed[0].Module)

	var compileErr *domain.CompileError
	require.ErrorAs(t, report.Failed[0].Err, &compileErr)
	assert.Contains(t, compileErr.Error(), "syntax error")

	assert.Equal(t, []domain.ModuleSkip{
		{Module: "/p/main.kn", Cause: "/p/net.kn"},
		{Module: "/p/tool.kn", Cause: "/p/net.kn"},
	}, report.Skipped)
	assert.Equal(t, []string{"base.kn", "fmt.kn"}, rel(report.Compiled))
	assert.Equal(t, []string{"base.kn", "fmt.kn", "net.kn"}, h.compiledModules())
	assert.Equal(t, 5, report.Total())
}

func TestScheduler_Run_WorkerCountDeterminism(t *testing.T) {
	modules := map[string]module{
		"main.kn": {source: "pub fn main\n", deps: []string{"a.kn", "b.kn", "c.kn"}},
		"a.kn":    {source: "pub fn a\n", deps: []string{"d.kn", "e.kn"}},
		"b.kn":    {source: "error\n", deps: []string{"e.kn"}},
		"c.kn":    {source: "pub fn c\n", deps: []string{"f.kn"}},
		"d.kn":    {source: "pub fn d\n"},
		"e.kn":    {source: "pub fn e\n"},
		"f.kn":    {source: "pub fn f\n"},
		"g.kn":    {source: "pub fn g\n", deps: []string{"b.kn"}},
	}

	var reports []*domain.BuildReport
	for _, jobs := range []int{1, 8} {
		h := newHarness(t)
		reports = append(reports, h.run(h.graph(modules), jobs))
	}

	serial, parallel := reports[0], reports[1]
	assert.Equal(t, serial.Compiled, parallel.Compiled)
	assert.Equal(t, serial.Cached, parallel.Cached)
	assert.Equal(t, serial.Skipped, parallel.Skipped)
	require.Len(t, parallel.Failed, 1)
	assert.Equal(t, serial.Failed[0].Module, parallel.Failed[0].Module)
	for id, artifact := range serial.Artifacts {
		assert.Equal(t, artifact.SignatureHash, parallel.Artifacts[id].SignatureHash)
	}
}

func TestScheduler_Run_CacheKeyInputs(t *testing.T) {
	h := newHarness(t)
	g := h.graph(map[string]module{"main.kn": {source: "pub fn main\n"}})

	run := func(opts scheduler.Options) *domain.BuildReport {
		report, err := h.scheduler(nil).Run(t.Context(), g, opts)
		require.NoError(t, err)
		return report
	}

	assert.Len(t, run(scheduler.Options{Jobs: 1, CompilerVersion: "0.4.1"}).Compiled, 1)
	assert.Len(t, run(scheduler.Options{Jobs: 1, CompilerVersion: "0.4.1"}).Cached, 1)
	assert.Len(t, run(scheduler.Options{Jobs: 1, CompilerVersion: "0.4.1", FlagsHash: 7}).Compiled, 1)
	assert.Len(t, run(scheduler.Options{Jobs: 1, CompilerVersion: "0.5.0", FlagsHash: 7}).Compiled, 1)
}

func TestScheduler_Run_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(map[string]module{
			"a.kn": {source: "pub fn a\n", deps: []string{"b.kn", "c.kn"}},
			"b.kn": {source: "pub fn b\n", deps: []string{"d.kn"}},
			"c.kn": {source: "pub fn c\n", deps: []string{"d.kn"}},
			"d.kn": {source: "pub fn d\n"},
		})

		started := map[string]chan struct{}{
			"d.kn": make(chan struct{}), "b.kn": make(chan struct{}), "c.kn": make(chan struct{}),
		}
		proceed := map[string]chan struct{}{
			"d.kn": make(chan struct{}), "b.kn": make(chan struct{}), "c.kn": make(chan struct{}),
		}

		ctrl := gomock.NewController(t)
		mockCompiler := mocks.NewMockCompiler(ctrl)
		mockCompiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
				name := req.Module.Rel("/p")
				if name == "a.kn" {
					t.Error("a.kn should not be compiled")
					return nil, errors.New("unexpected")
				}
				close(started[name])
				<-proceed[name]
				if name == "b.kn" {
					return nil, errors.New("b failed")
				}
				return h.compile(ctx, req)
			}).Times(3)

		coord := compile.NewCoordinator(compile.Config{Root: "/p", ScratchDir: t.TempDir()},
			mockCompiler, h.store, h.hasher, mocks.NewMockLogger(ctrl))
		s := h.scheduler(coord)

		reportCh := make(chan *domain.BuildReport)
		go func() {
			report, err := s.Run(context.Background(), g, scheduler.Options{Jobs: 2})
			assert.NoError(t, err)
			reportCh <- report
		}()

		synctest.Wait()
		<-started["d.kn"]
		close(proceed["d.kn"])

		synctest.Wait()
		<-started["b.kn"]
		<-started["c.kn"]

		close(proceed["b.kn"])
		close(proceed["c.kn"])

		report := <-reportCh
		assert.Equal(t, []string{"d.kn", "c.kn"}, rel(report.Compiled))
		require.Len(t, report.Failed, 1)
		assert.Equal(t, domain.ModuleID("/p/b.kn"), report.Failed[0].Module)
		assert.Equal(t, []domain.ModuleSkip{{Module: "/p/a.kn", Cause: "/p/b.kn"}}, report.Skipped)
	})
}

func TestScheduler_Run_BoundedParallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		modules := make(map[string]module)
		for _, name := range []string{"a.kn", "b.kn", "c.kn", "d.kn", "e.kn", "f.kn"} {
			modules[name] = module{source: "pub fn " + name + "\n"}
		}
		g := h.graph(modules)

		var mu sync.Mutex
		running, peak := 0, 0

		ctrl := gomock.NewController(t)
		mockCompiler := mocks.NewMockCompiler(ctrl)
		mockCompiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
				mu.Lock()
				running++
				peak = max(peak, running)
				mu.Unlock()

				time.Sleep(time.Second)

				mu.Lock()
				running--
				mu.Unlock()
				return h.compile(ctx, req)
			}).Times(6)

		coord := compile.NewCoordinator(compile.Config{Root: "/p", ScratchDir: t.TempDir()},
			mockCompiler, h.store, h.hasher, mocks.NewMockLogger(ctrl))

		start := time.Now()
		report, err := h.scheduler(coord).Run(t.Context(), g, scheduler.Options{Jobs: 2})
		require.NoError(t, err)

		assert.True(t, report.Succeeded())
		assert.Equal(t, 2, peak)
		assert.Equal(t, 3*time.Second, time.Since(start))
	})
}

func TestScheduler_Run_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t)
		g := h.graph(map[string]module{
			"a.kn":    {source: "pub fn a\n"},
			"b.kn":    {source: "pub fn b\n"},
			"main.kn": {source: "pub fn main\n", deps: []string{"a.kn", "b.kn"}},
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		started := make(chan struct{})
		proceed := make(chan struct{})

		ctrl := gomock.NewController(t)
		mockCompiler := mocks.NewMockCompiler(ctrl)
		mockCompiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
				close(started)
				<-proceed
				assert.NoError(t, ctx.Err(), "running compile must not observe cancellation")
				return h.compile(ctx, req)
			}).Times(1)

		coord := compile.NewCoordinator(compile.Config{Root: "/p", ScratchDir: t.TempDir()},
			mockCompiler, h.store, h.hasher, mocks.NewMockLogger(ctrl))

		reportCh := make(chan *domain.BuildReport)
		go func() {
			report, err := h.scheduler(coord).Run(ctx, g, scheduler.Options{Jobs: 1})
			assert.NoError(t, err)
			reportCh <- report
		}()

		<-started
		cancel()
		synctest.Wait()
		close(proceed)

		report := <-reportCh
		assert.True(t, report.Cancelled)
		assert.False(t, report.Succeeded())
		assert.Equal(t, []string{"a.kn"}, rel(report.Compiled))
		assert.Equal(t, []string{"b.kn", "main.kn"}, rel(report.NotStarted))
		assert.Contains(t, report.Artifacts, domain.ModuleID("/p/a.kn"))
	})
}

func TestScheduler_Run_CancelAfterLastModule(t *testing.T) {
	h := newHarness(t)
	g := h.graph(map[string]module{
		"a.kn":    {source: "pub fn a\n"},
		"main.kn": {source: "pub fn main\n", deps: []string{"a.kn"}},
	})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ctrl := gomock.NewController(t)
	mockCompiler := mocks.NewMockCompiler(ctrl)
	mockCompiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
			if strings.HasSuffix(string(req.Module), "main.kn") {
				cancel()
			}
			return h.compile(ctx, req)
		}).Times(2)

	coord := compile.NewCoordinator(compile.Config{Root: "/p", ScratchDir: t.TempDir()},
		mockCompiler, h.store, h.hasher, mocks.NewMockLogger(ctrl))

	report, err := h.scheduler(coord).Run(ctx, g, scheduler.Options{Jobs: 1})
	require.NoError(t, err)
	assert.False(t, report.Cancelled)
	assert.True(t, report.Succeeded())
	assert.Empty(t, report.NotStarted)
	assert.Equal(t, []string{"a.kn", "main.kn"}, rel(report.Compiled))
}

func TestScheduler_Run_AlreadyCancelled(t *testing.T) {
	h := newHarness(t)
	g := h.graph(layered("pub fn alloc\n"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := h.scheduler(nil).Run(ctx, g, scheduler.Options{Jobs: 2})
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, []string{"base.kn", "fmt.kn", "net.kn", "main.kn"}, rel(report.NotStarted))
	assert.Empty(t, h.compiledModules())
}

func TestScheduler_Run_DefaultJobs(t *testing.T) {
	h := newHarness(t)
	report := h.run(h.graph(layered("pub fn alloc\n")), 0)
	assert.True(t, report.Succeeded())
}

type recordedSpan struct {
	attrs map[string]any
	err   error
	ended bool
}

type recordingTracer struct {
	mu    sync.Mutex
	plan  []string
	spans map[string]*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := &recordedSpan{attrs: make(map[string]any)}
	r.spans[name] = span
	return ctx, &recordingSpan{tracer: r, span: span}
}

func (r *recordingTracer) EmitPlan(_ context.Context, modules []string) {
	r.plan = modules
}

type recordingSpan struct {
	tracer *recordingTracer
	span   *recordedSpan
}

func (s *recordingSpan) End() {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.span.ended = true
}

func (s *recordingSpan) RecordError(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.span.err = err
}

func (s *recordingSpan) SetAttribute(key string, value any) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.span.attrs[key] = value
}

func TestScheduler_Run_Spans(t *testing.T) {
	h := newHarness(t)
	modules := layered("pub fn alloc\n")
	h.run(h.graph(modules), 2)

	tracer := &recordingTracer{spans: make(map[string]*recordedSpan)}
	h.tracer = tracer
	modules["net.kn"] = module{source: "error\n", deps: []string{"base.kn"}}
	h.run(h.graph(modules), 2)

	assert.Equal(t, []string{"base.kn", "fmt.kn", "net.kn", "main.kn"}, tracer.plan)
	require.Len(t, tracer.spans, 4)
	for name, span := range tracer.spans {
		assert.True(t, span.ended, "span %s not ended", name)
		assert.Equal(t, "/p/"+name, span.attrs[ports.AttrModule])
	}

	assert.Equal(t, true, tracer.spans["base.kn"].attrs[ports.AttrCached])
	assert.Equal(t, true, tracer.spans["fmt.kn"].attrs[ports.AttrCached])
	assert.Error(t, tracer.spans["net.kn"].err)
	assert.NotContains(t, tracer.spans["net.kn"].attrs, ports.AttrCached)
	assert.Equal(t, true, tracer.spans["main.kn"].attrs[ports.AttrSkipped])
}

func TestScheduler_Run_Metrics(t *testing.T) {
	h := newHarness(t)
	g := h.graph(layered("pub fn alloc\n"))
	h.run(g, 2)
	h.run(g, 2)

	path := filepath.Join(t.TempDir(), "kiln.prom")
	require.NoError(t, h.recorder.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `kiln_cache_lookups_total{result="hit"} 4`)
	assert.Contains(t, text, `kiln_cache_lookups_total{result="miss"} 4`)
	assert.Contains(t, text, `kiln_modules_total{state="done"} 8`)
}

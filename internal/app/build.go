package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/compile"
	"go.trai.ch/kiln/internal/engine/graph"
	"go.trai.ch/kiln/internal/engine/link"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// tracerName names the spans kiln emits.
const tracerName = "kiln"

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Entries overrides the configured entry modules. Relative paths are
	// taken from the working directory.
	Entries   []string
	Overrides Overrides
	NoCache   bool
	// OutputMode is one of "auto", "tui", "linear" or "ci".
	OutputMode  string
	MetricsFile string
	TraceFile   string
}

// Build compiles and links the project in the working directory. Module
// failures are summarized and reported as domain.ErrBuildFailed; an
// interrupted build returns domain.ErrBuildCancelled. The report is
// returned whenever the scheduler ran.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*domain.BuildReport, error) {
	s, err := a.newSession(opts.Entries, opts.Overrides)
	if err != nil {
		return nil, err
	}
	return a.build(ctx, s, opts)
}

//nolint:cyclop,funlen // orchestration function
func (a *App) build(ctx context.Context, s *session, opts BuildOptions) (*domain.BuildReport, error) {
	project := s.project

	// 1. Discover the module graph.
	g, err := graph.NewBuilder(project, s.sources, s.toolchain.Resolver, a.locator).Build(ctx, s.entries)
	if err != nil {
		return nil, err
	}

	// 2. Open the cache.
	store, err := a.opener.Open(ctx, domain.CacheOptions{
		Dir:             project.CacheDir,
		CompilerVersion: project.CompilerVersion,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to close cache: %v", err))
		}
	}()
	if opts.NoCache {
		if err := store.InvalidateProject(ctx); err != nil {
			return nil, err
		}
	}

	// 3. Initialize renderer and telemetry.
	renderer := a.newRenderer(ctx, opts.OutputMode)

	traceOut, closeTrace, err := openTraceFile(opts.TraceFile)
	if err != nil {
		return nil, err
	}
	defer closeTrace()

	provider, err := telemetry.NewProvider(renderer, traceOut)
	if err != nil {
		return nil, err
	}
	tracer := telemetry.NewOTelTracer(provider, tracerName, renderer)
	recorder := metrics.NewRecorder()

	// 4. Wire the engine for this build.
	scratch := filepath.Join(domain.DefaultScratchPath(project.Root), uuid.NewString())
	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	coordinator := compile.NewCoordinator(compile.Config{
		Root:       project.Root,
		ScratchDir: scratch,
		Flags:      project.Flags,
	}, s.toolchain.Compiler, store, a.hasher, a.logger)
	sched := scheduler.NewScheduler(store, a.hasher, coordinator, tracer, recorder)
	linker := link.NewCoordinator(s.toolchain.Linker, tracer, recorder)

	// 5. Run renderer and scheduler concurrently.
	var (
		report  *domain.BuildReport
		linkErr error
	)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := renderer.Start(egCtx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	eg.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		r, err := sched.Run(egCtx, g, scheduler.Options{
			Jobs:            project.Jobs,
			FlagsHash:       a.hasher.HashFlags(project.Flags),
			CompilerVersion: project.CompilerVersion,
		})
		if err != nil {
			return err
		}
		report = r

		if report.Succeeded() {
			report.BinaryPath, linkErr = linker.Link(egCtx, g, report.Artifacts, link.Options{
				Target: project.Flags.Target,
				Output: project.Output,
			})
		}
		return nil
	})

	waitErr := eg.Wait()

	if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(fmt.Sprintf("failed to flush traces: %v", err))
	}
	if report == nil {
		return nil, waitErr
	}
	// A failing renderer also cancels egCtx; only a user interrupt or a
	// cancelled parent context counts as a cancelled build.
	if waitErr != nil && !errors.Is(waitErr, domain.ErrBuildCancelled) && ctx.Err() == nil {
		return report, waitErr
	}
	cancelled := report.Cancelled || errors.Is(waitErr, domain.ErrBuildCancelled)

	// 6. Report and housekeeping.
	a.printSummary(g, report)

	if opts.MetricsFile != "" {
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to write metrics: %v", err))
		}
	}
	if project.CacheMaxBytes > 0 {
		pruned, err := store.Prune(context.WithoutCancel(ctx), project.CacheMaxBytes)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("failed to prune cache: %v", err))
		} else if pruned > 0 {
			a.logger.Info(fmt.Sprintf("pruned %d cache entries", pruned))
		}
	}

	switch {
	case cancelled:
		return report, domain.ErrBuildCancelled
	case len(report.Failed) > 0 || len(report.Skipped) > 0:
		return report, domain.ErrBuildFailed
	case linkErr != nil:
		return report, linkErr
	}

	a.logger.Info("linked " + domain.ModuleID(report.BinaryPath).Rel(project.Root))
	return report, nil
}

func (a *App) newRenderer(ctx context.Context, outputMode string) ports.Renderer {
	if a.renderer != nil {
		return a.renderer
	}
	mode := detector.ResolveMode(detector.DetectEnvironment(), outputMode)
	if mode != detector.ModeTUI {
		return linear.NewRenderer(a.stderr)
	}

	model := tui.NewModel(a.stderr)
	if a.disableTick {
		model = model.WithDisableTick()
	}
	teaOpts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.stderr)}, a.teaOptions...)
	return tui.NewRenderer(&model, teaOpts...)
}

func openTraceFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to create trace directory"), "path", path)
	}
	f, err := os.Create(path) //nolint:gosec // path comes from --trace-file
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to create trace file"), "path", path)
	}
	return f, func() { _ = f.Close() }, nil
}

// printSummary logs module failures, skips and the build statistics.
func (a *App) printSummary(g *domain.BuildGraph, report *domain.BuildReport) {
	root := g.Root()
	for _, failure := range report.Failed {
		a.logger.Error(failure.Err)
	}
	for _, skip := range report.Skipped {
		a.logger.Warn(fmt.Sprintf("skipped %s: dependency %s failed", skip.Module.Rel(root), skip.Cause.Rel(root)))
	}
	a.logger.Info(Summary(report))
}

// Summary renders the statistics line of a build report.
func Summary(report *domain.BuildReport) string {
	var b strings.Builder
	if report.Cancelled {
		b.WriteString("build cancelled: ")
	} else {
		b.WriteString("build finished: ")
	}
	fmt.Fprintf(&b, "%d modules, %d compiled, %d cached, %d failed, %d skipped",
		report.Total(),
		len(report.Compiled),
		len(report.Cached),
		len(report.Failed),
		len(report.Skipped),
	)
	if n := len(report.NotStarted); n > 0 {
		fmt.Fprintf(&b, ", %d not started", n)
	}
	fmt.Fprintf(&b, " in %s", report.Duration.Round(time.Millisecond))
	return b.String()
}

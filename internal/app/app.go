// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	hasher       ports.Hasher
	locator      ports.ModuleLocator
	opener       ports.CacheOpener
	toolchains   ports.ToolchainFactory
	watcher      ports.Watcher
	stdout       io.Writer
	stderr       io.Writer
	teaOptions   []tea.ProgramOption
	disableTick  bool
	renderer     ports.Renderer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	hasher ports.Hasher,
	locator ports.ModuleLocator,
	opener ports.CacheOpener,
	toolchains ports.ToolchainFactory,
	watcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		hasher:       hasher,
		locator:      locator,
		opener:       opener,
		toolchains:   toolchains,
		watcher:      watcher,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithDisableTick disables the TUI tick loop.
// This is primarily used for testing with synctest to avoid goroutine deadlocks.
func (a *App) WithDisableTick() *App {
	a.disableTick = true
	return a
}

// WithRenderer replaces the progress renderer otherwise chosen by output mode.
func (a *App) WithRenderer(r ports.Renderer) *App {
	a.renderer = r
	return a
}

// WithOutput redirects command output and progress rendering.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// SetLogJSON switches the logger to JSON output when it supports it.
func (a *App) SetLogJSON(enable bool) {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enable)
	}
}

// session is the per project state shared by consecutive builds.
type session struct {
	project   *domain.Project
	toolchain *ports.Toolchain
	sources   ports.SourceReader
	entries   []string
}

func (a *App) newSession(entries []string, overrides Overrides) (*session, error) {
	project, err := a.configLoader.Load(".")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	overrides.apply(project)

	resolved, err := resolveEntries(project, entries)
	if err != nil {
		return nil, err
	}

	tc, err := a.toolchains.ForProject(project)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to prepare toolchain")
	}

	return &session{
		project:   project,
		toolchain: tc,
		sources:   fs.NewSourceReader(a.hasher, project.NormalizeSource),
		entries:   resolved,
	}, nil
}

// resolveEntries makes command line entries absolute against the working
// directory. Without any, the configured entries are used.
func resolveEntries(project *domain.Project, entries []string) ([]string, error) {
	if len(entries) == 0 {
		if len(project.Entries) == 0 {
			return nil, domain.ErrNoEntries
		}
		return project.Entries, nil
	}

	resolved := make([]string, 0, len(entries))
	for _, entry := range entries {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to resolve entry"), "entry", entry)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

// Overrides are command line values that take precedence over kiln.yaml.
type Overrides struct {
	Jobs     *int
	OptLevel *int
	Target   string
	Output   string
}

func (o Overrides) apply(project *domain.Project) {
	if o.Jobs != nil {
		project.Jobs = *o.Jobs
	}
	if o.OptLevel != nil {
		project.Flags.OptLevel = *o.OptLevel
	}
	if o.Target != "" {
		project.Flags.Target = o.Target
	}
	if o.Output != "" {
		if abs, err := filepath.Abs(o.Output); err == nil {
			project.Output = abs
		}
	}
}

// Clean removes the cache and scratch directories of the current project.
func (a *App) Clean(_ context.Context) error {
	project, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	var errs error
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(project.CacheDir, "artifact cache")
	remove(domain.DefaultScratchPath(project.Root), "scratch directory")

	return errs
}

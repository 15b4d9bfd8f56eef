// Package toolchain assembles the frontend and linker adapters for a project.
package toolchain

import (
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/adapters/frontend"
	"go.trai.ch/kiln/internal/adapters/linker"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Factory implements ports.ToolchainFactory.
type Factory struct {
	runner   *shell.Runner
	logger   ports.Logger
	lookPath func(string) (string, error)
}

// NewFactory creates a toolchain factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{
		runner:   shell.NewRunner(),
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// ForProject resolves the configured frontend and linker executables and
// returns adapters bound to the project root.
func (f *Factory) ForProject(project *domain.Project) (*ports.Toolchain, error) {
	feCmd, err := f.resolveCommand(project.Root, project.CompilerCommand)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFrontendFailed.Error()), "config", project.ConfigPath)
	}
	ldCmd, err := f.resolveCommand(project.Root, project.LinkerCommand)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLinkerFailed.Error()), "config", project.ConfigPath)
	}

	fe := frontend.New(f.runner, feCmd, project.Root, f.logger)
	return &ports.Toolchain{
		Resolver: fe,
		Compiler: fe,
		Linker:   linker.New(f.runner, ldCmd, project.LinkerArgs, project.Root),
	}, nil
}

// resolveCommand locates argv[0]. Names containing a separator are taken
// relative to the project root, bare names are looked up in PATH.
func (f *Factory) resolveCommand(root string, argv []string) ([]string, error) {
	if len(argv) == 0 {
		return nil, shell.ErrEmptyCommand
	}

	name := argv[0]
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(root, name)
		}
	}

	path, err := f.lookPath(name)
	if err != nil {
		return nil, zerr.With(err, "command", argv[0])
	}

	resolved := make([]string, len(argv))
	copy(resolved, argv)
	resolved[0] = path
	return resolved, nil
}

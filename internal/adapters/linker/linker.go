// Package linker runs the native linker as an external process.
package linker

import (
	"context"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Linker implements ports.Linker.
type Linker struct {
	runner  *shell.Runner
	command []string
	args    []string
	dir     string
}

// New creates a linker adapter invoking command with the configured args.
func New(runner *shell.Runner, command, args []string, dir string) *Linker {
	return &Linker{
		runner:  runner,
		command: command,
		args:    args,
		dir:     dir,
	}
}

// Argv builds "<command...> <args...> [--target=<triple>] -o <output> <objects...>".
func (l *Linker) Argv(req ports.LinkRequest) []string {
	argv := make([]string, 0, len(l.command)+len(l.args)+len(req.Objects)+4)
	argv = append(argv, l.command...)
	argv = append(argv, l.args...)
	if req.Target != "" {
		argv = append(argv, "--target="+req.Target)
	}
	argv = append(argv, "-o", req.Output)
	argv = append(argv, req.Objects...)
	return argv
}

// Link runs the linker and reports its exit code and stderr.
func (l *Linker) Link(ctx context.Context, req ports.LinkRequest) (*ports.LinkResult, error) {
	res, err := l.runner.Run(ctx, shell.Command{Argv: l.Argv(req), Dir: l.dir})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLinkerFailed.Error()), "output", req.Output)
	}
	return &ports.LinkResult{
		ExitCode: res.ExitCode,
		Stderr:   strings.TrimSpace(string(res.Stderr)),
	}, nil
}

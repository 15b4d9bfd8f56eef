// Package shell runs the external frontend and linker processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyCommand is returned when a command has no argv.
var ErrEmptyCommand = zerr.New("empty command")

// Command describes one process invocation.
type Command struct {
	Argv  []string
	Dir   string
	Stdin []byte
	// Env overrides entries of the inherited environment.
	Env map[string]string
}

// Result is the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner starts processes and captures their output.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the command, feeding Stdin and collecting stdout and stderr.
// A non-zero exit is reported in the result. An error is returned only when
// the process could not be started or its pipes failed.
func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	if len(c.Argv) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...) //nolint:gosec // configured toolchain command
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = resolveEnvironment(os.Environ(), c.Env)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open stderr")
	}

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to start command"), "command", c.Argv[0])
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		defer func() { _ = stdin.Close() }()
		if _, err := stdin.Write(c.Stdin); err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, syscall.EPIPE) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	pumpErr := g.Wait()

	waitErr := cmd.Wait()
	res := &Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			return res, zerr.With(zerr.Wrap(waitErr, "command terminated"), "command", c.Argv[0])
		}
		return res, nil
	default:
		return res, zerr.With(zerr.Wrap(waitErr, "command failed"), "command", c.Argv[0])
	}

	if pumpErr != nil {
		return res, zerr.With(zerr.Wrap(pumpErr, "failed to exchange data with command"), "command", c.Argv[0])
	}
	return res, nil
}

// StderrLines splits captured stderr into trimmed, non-empty lines.
func StderrLines(stderr []byte) []string {
	var lines []string
	for line := range strings.SplitSeq(strings.TrimSpace(string(stderr)), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// resolveEnvironment applies overrides on top of the inherited environment.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	result := make([]string, 0, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if ok {
			if _, replaced := overrides[k]; replaced {
				continue
			}
		}
		result = append(result, entry)
	}
	for k, v := range overrides {
		result = append(result, k+"="+v)
	}
	return result
}

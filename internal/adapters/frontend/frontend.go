// Package frontend talks to the language frontend process over a JSON protocol.
package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	importsVerb = "imports"
	compileVerb = "compile"
)

type importsResponse struct {
	Imports []domain.ImportRef `json:"imports"`
}

type compileFlags struct {
	OptLevel int      `json:"opt_level"`
	Target   string   `json:"target,omitzero"`
	Extra    []string `json:"extra,omitzero"`
}

type compileRequest struct {
	Module       domain.ModuleID                      `json:"module"`
	Source       []byte                               `json:"source"`
	Dependencies map[domain.ModuleID]domain.Signature `json:"dependencies"`
	Flags        compileFlags                         `json:"flags"`
}

type compileResponse struct {
	Object    []byte           `json:"object"`
	Signature domain.Signature `json:"signature"`
}

// Frontend implements ports.ImportResolver and ports.Compiler by running the
// configured frontend command once per request.
type Frontend struct {
	runner  *shell.Runner
	command []string
	dir     string
	logger  ports.Logger
}

// New creates a frontend adapter running command from dir.
func New(runner *shell.Runner, command []string, dir string, logger ports.Logger) *Frontend {
	return &Frontend{
		runner:  runner,
		command: command,
		dir:     dir,
		logger:  logger,
	}
}

// ResolveImports runs "<command> imports <path>" with the source on stdin.
func (f *Frontend) ResolveImports(
	ctx context.Context,
	module domain.ModuleID,
	source []byte,
) ([]domain.ImportRef, error) {
	stdout, err := f.invoke(ctx, module, source, importsVerb, string(module))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
	}

	var resp importsResponse
	if err := decode(stdout, &resp); err != nil {
		return nil, zerr.With(err, "module", string(module))
	}
	for _, ref := range resp.Imports {
		switch ref.Kind {
		case domain.ImportRelative, domain.ImportDirectory, domain.ImportLibrary:
		default:
			return nil, zerr.With(zerr.With(domain.ErrFrontendProtocol, "module", string(module)), "kind", string(ref.Kind))
		}
	}
	return resp.Imports, nil
}

// CompileModule runs "<command> compile" with the request encoded as JSON on stdin.
func (f *Frontend) CompileModule(ctx context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
	deps := req.Dependencies
	if deps == nil {
		deps = map[domain.ModuleID]domain.Signature{}
	}
	payload, err := json.Marshal(compileRequest{
		Module:       req.Module,
		Source:       req.Source,
		Dependencies: deps,
		Flags: compileFlags{
			OptLevel: req.Flags.OptLevel,
			Target:   req.Flags.Target,
			Extra:    req.Flags.Extra,
		},
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode compile request")
	}

	stdout, err := f.invoke(ctx, req.Module, payload, compileVerb)
	if err != nil {
		return nil, err
	}

	var resp compileResponse
	if err := decode(stdout, &resp); err != nil {
		return nil, zerr.With(err, "module", string(req.Module))
	}
	return &ports.CompileOutput{Object: resp.Object, Signature: resp.Signature}, nil
}

// invoke runs one frontend verb. A non-zero exit becomes a *domain.CompileError
// carrying the trimmed stderr. Diagnostics printed on success are logged as warnings.
func (f *Frontend) invoke(ctx context.Context, module domain.ModuleID, stdin []byte, verb ...string) ([]byte, error) {
	argv := make([]string, 0, len(f.command)+len(verb))
	argv = append(argv, f.command...)
	argv = append(argv, verb...)

	res, err := f.runner.Run(ctx, shell.Command{Argv: argv, Dir: f.dir, Stdin: stdin})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFrontendFailed.Error()), "module", string(module))
	}

	if !res.Success() {
		return nil, &domain.CompileError{
			Module: module,
			Stderr: strings.TrimSpace(string(res.Stderr)),
			Err:    zerr.With(domain.ErrFrontendFailed, "exit_code", res.ExitCode),
		}
	}

	for _, line := range shell.StderrLines(res.Stderr) {
		f.logger.Warn(line)
	}
	return res.Stdout, nil
}

func decode(data []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(target); err != nil {
		return zerr.Wrap(err, domain.ErrFrontendProtocol.Error())
	}
	return nil
}

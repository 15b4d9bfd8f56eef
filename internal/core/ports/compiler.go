package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// CompileRequest is the input of a single module compilation.
type CompileRequest struct {
	Module domain.ModuleID
	Source []byte
	// Dependencies holds the signatures of the directly imported modules only.
	Dependencies map[domain.ModuleID]domain.Signature
	Flags        domain.CompilerFlags
}

// CompileOutput is the object code and public interface of a compiled module.
type CompileOutput struct {
	Object    []byte
	Signature domain.Signature
}

// Compiler compiles one module at a time. It is provided by the frontend.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// CompileModule parses, type checks and generates code for one module.
	CompileModule(ctx context.Context, req CompileRequest) (*CompileOutput, error)
}

package ports

import "context"

// LinkRequest describes one invocation of the native linker.
type LinkRequest struct {
	Objects []string
	Target  string
	Output  string
}

// LinkResult is the exit status and diagnostics of a linker run.
type LinkResult struct {
	ExitCode int
	Stderr   string
}

// Linker runs the native linker.
//
//go:generate go run go.uber.org/mock/mockgen -source=linker.go -destination=mocks/mock_linker.go -package=mocks
type Linker interface {
	// Link runs the linker. A non-zero exit is reported in the result, not as an error.
	Link(ctx context.Context, req LinkRequest) (*LinkResult, error)
}

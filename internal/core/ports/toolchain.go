package ports

import "go.trai.ch/kiln/internal/core/domain"

// Toolchain bundles the external collaborators configured for a project.
type Toolchain struct {
	Resolver ImportResolver
	Compiler Compiler
	Linker   Linker
}

// ToolchainFactory creates the toolchain for a resolved project.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type ToolchainFactory interface {
	ForProject(project *domain.Project) (*Toolchain, error)
}

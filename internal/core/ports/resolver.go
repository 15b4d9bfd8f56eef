package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ImportResolver lists the imports a module declares. It is provided by the frontend.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ImportResolver interface {
	// ResolveImports returns the import declarations of the module in source order.
	ResolveImports(ctx context.Context, module domain.ModuleID, source []byte) ([]domain.ImportRef, error)
}

// ModuleLocator maps import declarations to canonical module paths.
type ModuleLocator interface {
	// Canonical returns the module id of an existing source file.
	Canonical(path string) (domain.ModuleID, error)

	// Locate probes the filesystem for the module an import refers to.
	// A miss returns a *domain.ImportNotFoundError listing every probed path.
	Locate(importer domain.ModuleID, ref domain.ImportRef, paths domain.SearchPaths) (domain.ModuleID, error)
}

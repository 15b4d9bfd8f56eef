package ports

import "go.trai.ch/kiln/internal/core/domain"

// Hasher computes the content hashes that make up cache keys.
// Implementations must be pure and deterministic across platforms.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// HashSource hashes raw source bytes. The result depends on byte order.
	HashSource(source []byte) domain.Hash

	// HashSignature hashes the public items of a signature independent of their order.
	HashSignature(items []domain.ExportedItem) domain.Hash

	// HashFlags hashes the compiler configuration of a build.
	HashFlags(flags domain.CompilerFlags) domain.Hash

	// HashTransitive combines the signature hashes of a module's dependency closure.
	HashTransitive(signatures map[domain.ModuleID]domain.Hash) domain.Hash
}

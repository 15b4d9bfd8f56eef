package ports

import "go.trai.ch/kiln/internal/core/domain"

// SourceReader loads module sources together with their content hash.
//
//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type SourceReader interface {
	// ReadSource returns the bytes and source hash of the file at path.
	ReadSource(path string) ([]byte, domain.Hash, error)

	// Invalidate drops any memoized state for the given paths.
	Invalidate(paths []string)
}

package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// CacheStore maps cache keys to previously produced artifacts.
// It is shared by all workers of a build and is safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get returns the entry whose stored key equals key exactly.
	// Missing or unreadable artifacts are reported as a miss.
	Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, bool)

	// Put stores an artifact. Storing an existing key is a no-op that returns the existing entry.
	Put(
		ctx context.Context,
		key domain.CacheKey,
		artifact []byte,
		signature domain.Signature,
		signatureHash domain.Hash,
	) (*domain.CacheEntry, error)

	// InvalidateProject removes every entry.
	InvalidateProject(ctx context.Context) error

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Verify returns the keys of entries whose artifact is missing or damaged.
	Verify(ctx context.Context) ([]domain.CacheKey, error)

	// Prune removes the oldest entries until the stored artifacts fit in maxBytes.
	Prune(ctx context.Context, maxBytes int64) (int, error)

	// Close releases the store.
	Close() error
}

// CacheOpener opens the cache store of a project.
type CacheOpener interface {
	Open(ctx context.Context, opts domain.CacheOptions) (CacheStore, error)
}

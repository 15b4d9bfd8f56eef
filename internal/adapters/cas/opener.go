package cas

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.CacheOpener = (*Opener)(nil)

// Opener opens FSStore instances for a project's cache directory.
type Opener struct {
	logger ports.Logger
}

// NewOpener creates an Opener that reports cache warnings to logger.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open opens the cache described by opts.
func (o *Opener) Open(ctx context.Context, opts domain.CacheOptions) (ports.CacheStore, error) {
	return OpenFSStore(ctx, opts, o.logger)
}

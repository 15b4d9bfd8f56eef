package app

import (
	"context"
	"fmt"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

func (a *App) openCache(ctx context.Context) (*domain.Project, ports.CacheStore, error) {
	project, err := a.configLoader.Load(".")
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}
	store, err := a.opener.Open(ctx, domain.CacheOptions{
		Dir:             project.CacheDir,
		CompilerVersion: project.CompilerVersion,
	})
	if err != nil {
		return nil, nil, err
	}
	return project, store, nil
}

// CacheStats prints the number of entries and stored bytes of the project cache.
func (a *App) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	project, store, err := a.openCache(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}
	defer func() {
		_ = store.Close()
	}()

	stats, err := store.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}

	_, _ = fmt.Fprintf(a.stdout, "cache:   %s\n", domain.ModuleID(project.CacheDir).Rel(project.Root))
	_, _ = fmt.Fprintf(a.stdout, "entries: %d\n", stats.Entries)
	_, _ = fmt.Fprintf(a.stdout, "blobs:   %d\n", stats.Blobs)
	_, _ = fmt.Fprintf(a.stdout, "size:    %s\n", formatBytes(stats.Bytes))
	if project.CacheMaxBytes > 0 {
		_, _ = fmt.Fprintf(a.stdout, "limit:   %s\n", formatBytes(project.CacheMaxBytes))
	}
	return stats, nil
}

// CacheVerify checks every cache entry against its blob and drops the damaged ones.
func (a *App) CacheVerify(ctx context.Context) ([]domain.CacheKey, error) {
	project, store, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = store.Close()
	}()

	bad, err := store.Verify(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range bad {
		a.logger.Warn(fmt.Sprintf("removed damaged entry for %s", key.ModuleID.Rel(project.Root)))
	}
	a.logger.Info(fmt.Sprintf("verified cache, %d damaged entries removed", len(bad)))
	return bad, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
)

// Watch builds the project, then rebuilds it whenever a source file below
// the project root changes. It returns when ctx is cancelled. Build
// failures are reported and watching continues.
func (a *App) Watch(ctx context.Context, opts BuildOptions) error {
	s, err := a.newSession(opts.Entries, opts.Overrides)
	if err != nil {
		return err
	}

	if err := a.watcher.Start(ctx, s.project.Root); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	changes := make(chan []string)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			if filepath.Ext(event.Path) == s.project.Search.Extension {
				debouncer.Add(event.Path)
			}
		}
	}()

	a.watchBuild(ctx, s, opts)
	for {
		a.logger.Info("watching for changes...")
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			s.sources.Invalidate(paths)
			a.logger.Info(fmt.Sprintf("%d files changed, rebuilding", len(paths)))
			a.watchBuild(ctx, s, opts)
		}
	}
}

// watchBuild runs one build of the watch loop. Failures already summarized
// by the build are not logged again.
func (a *App) watchBuild(ctx context.Context, s *session, opts BuildOptions) {
	_, err := a.build(ctx, s, opts)
	if err == nil || errors.Is(err, domain.ErrBuildFailed) || errors.Is(err, domain.ErrBuildCancelled) {
		return
	}
	a.logger.Error(err)
}

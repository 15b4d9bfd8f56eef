// Package compile turns a cache miss into a fresh object file.
package compile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Config holds the per build settings of a Coordinator.
type Config struct {
	// Root is the project root used to name scratch objects.
	Root string
	// ScratchDir receives the objects of this build, usually .kiln/scratch/<build-id>.
	ScratchDir string
	Flags      domain.CompilerFlags
}

// Coordinator compiles single modules and writes the results through to the cache.
type Coordinator struct {
	cfg      Config
	compiler ports.Compiler
	store    ports.CacheStore
	hasher   ports.Hasher
	logger   ports.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	cfg Config,
	compiler ports.Compiler,
	store ports.CacheStore,
	hasher ports.Hasher,
	logger ports.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		compiler: compiler,
		store:    store,
		hasher:   hasher,
		logger:   logger,
	}
}

// Compile compiles module against the signatures of its direct dependencies
// and stores the object under key. A failing cache write is logged and the
// scratch object is used instead.
func (c *Coordinator) Compile(
	ctx context.Context,
	module *domain.ModuleNode,
	deps map[domain.ModuleID]domain.Signature,
	key domain.CacheKey,
) (domain.Artifact, error) {
	if deps == nil {
		deps = map[domain.ModuleID]domain.Signature{}
	}

	out, err := c.compiler.CompileModule(ctx, ports.CompileRequest{
		Module:       module.ID,
		Source:       module.Source,
		Dependencies: deps,
		Flags:        c.cfg.Flags,
	})
	if err != nil {
		var compileErr *domain.CompileError
		if errors.As(err, &compileErr) {
			return domain.Artifact{}, err
		}
		return domain.Artifact{}, &domain.CompileError{Module: module.ID, Err: err}
	}

	path := filepath.Join(c.cfg.ScratchDir, ObjectName(c.cfg.Root, module.ID))
	if err := writeObject(path, out.Object); err != nil {
		return domain.Artifact{}, zerr.With(zerr.Wrap(err, domain.ErrScratchWriteFailed.Error()), "path", path)
	}

	sigHash := c.hasher.HashSignature(out.Signature.Items)
	if _, err := c.store.Put(ctx, key, out.Object, out.Signature, sigHash); err != nil {
		c.logger.Warn(fmt.Sprintf("failed to cache %s, keeping scratch object: %v", module.ID.Rel(c.cfg.Root), err))
	}

	return domain.Artifact{
		Module:        module.ID,
		Path:          path,
		Signature:     out.Signature,
		SignatureHash: sigHash,
	}, nil
}

// ObjectName returns the scratch file name of a module's object. The name is
// readable and unique per module id.
func ObjectName(root string, id domain.ModuleID) string {
	rel := strings.TrimSuffix(id.Rel(root), filepath.Ext(string(id)))
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, rel)
	return fmt.Sprintf("%s-%08x.o", sanitized, uint32(xxhash.Sum64String(string(id))))
}

func writeObject(path string, data []byte) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

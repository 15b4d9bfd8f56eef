// Package cas implements the content addressed artifact cache.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*FSStore)(nil)

// FSStore is a CacheStore persisted in a directory:
//
//	<dir>/index.json      entry metadata keyed by cache key digest
//	<dir>/blobs/<sha256>  artifact bytes
//	<dir>/LOCK            advisory lock serializing index writers
//
// Lookups read an immutable snapshot of the index and never take a lock.
type FSStore struct {
	dir             string
	compilerVersion string
	logger          ports.Logger
	now             func() time.Time

	mu       sync.Mutex
	lock     *dirLock
	snapshot atomic.Pointer[index]
}

// OpenFSStore opens or creates the cache at opts.Dir. When the stored compiler
// version differs from opts.CompilerVersion every entry is dropped.
func OpenFSStore(ctx context.Context, opts domain.CacheOptions, logger ports.Logger) (*FSStore, error) {
	if err := os.MkdirAll(filepath.Join(opts.Dir, domain.BlobDirName), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheOpenFailed.Error()), "dir", opts.Dir)
	}
	lock, err := openDirLock(filepath.Join(opts.Dir, domain.LockFileName))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheLockFailed.Error()), "dir", opts.Dir)
	}

	s := &FSStore{
		dir:             opts.Dir,
		compilerVersion: normalizeVersion(opts.CompilerVersion),
		logger:          logger,
		now:             time.Now,
		lock:            lock,
	}

	err = s.withLock(func() error {
		idx, err := s.loadIndex()
		if err != nil {
			return err
		}
		if normalizeVersion(idx.CompilerVersion) == s.compilerVersion {
			s.snapshot.Store(idx)
			return nil
		}
		if len(idx.Entries) > 0 {
			s.logger.Info(fmt.Sprintf("compiler version changed from %q to %q, clearing cache",
				idx.CompilerVersion, s.compilerVersion))
		}
		return s.clearLocked(ctx)
	})
	if err != nil {
		_ = lock.close()
		return nil, err
	}
	return s, nil
}

// Dir returns the cache directory.
func (s *FSStore) Dir() string {
	return s.dir
}

// Get returns the entry stored for key. It is a hit only if the stored key
// equals key and the artifact blob is present with the recorded size.
func (s *FSStore) Get(_ context.Context, key domain.CacheKey) (*domain.CacheEntry, bool) {
	entry, ok := s.snapshot.Load().Entries[key.Digest()]
	if !ok || entry.Key != key {
		return nil, false
	}

	path := s.blobPath(entry)
	info, err := os.Stat(path)
	switch {
	case err != nil:
		s.logger.Warn(fmt.Sprintf("cache blob for %s unreadable, recompiling: %v", key.ModuleID, err))
		return nil, false
	case info.Size() != entry.Size:
		s.logger.Warn(fmt.Sprintf("cache blob for %s truncated (%d of %d bytes), recompiling",
			key.ModuleID, info.Size(), entry.Size))
		return nil, false
	}

	entry.ArtifactPath = path
	return &entry, true
}

// Put stores artifact under key. Storing an identical key again returns the
// existing entry and leaves the index untouched, unless the existing blob is
// missing or truncated, in which case the entry is replaced.
func (s *FSStore) Put(
	_ context.Context,
	key domain.CacheKey,
	artifact []byte,
	signature domain.Signature,
	signatureHash domain.Hash,
) (*domain.CacheEntry, error) {
	sum := sha256.Sum256(artifact)
	digest := hex.EncodeToString(sum[:])
	if err := s.writeBlob(digest, artifact); err != nil {
		return nil, err
	}

	var stored domain.CacheEntry
	err := s.withLock(func() error {
		// Reload so entries written by other processes since our last read survive.
		idx, err := s.loadIndex()
		if err != nil {
			return err
		}

		name := key.Digest()
		if existing, ok := idx.Entries[name]; ok && existing.Key == key && s.blobPresent(existing) {
			stored = existing
			s.snapshot.Store(idx)
			return nil
		}

		// Another process may have pruned the blob between writeBlob and the lock.
		if err := s.writeBlob(digest, artifact); err != nil {
			return err
		}

		stored = domain.CacheEntry{
			Key:            key,
			ArtifactPath:   filepath.ToSlash(filepath.Join(domain.BlobDirName, digest)),
			ArtifactSHA256: digest,
			Size:           int64(len(artifact)),
			SignatureHash:  signatureHash,
			Signature:      signature,
			CreatedAt:      s.now().UTC(),
		}
		idx.Entries[name] = stored
		return s.commitLocked(idx)
	})
	if err != nil {
		return nil, err
	}

	stored.ArtifactPath = s.blobPath(stored)
	return &stored, nil
}

// InvalidateProject drops every entry and blob.
func (s *FSStore) InvalidateProject(ctx context.Context) error {
	return s.withLock(func() error {
		return s.clearLocked(ctx)
	})
}

// Stats reports the number of entries and the blobs on disk.
func (s *FSStore) Stats(_ context.Context) (domain.CacheStats, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return domain.CacheStats{}, err
	}
	stats := domain.CacheStats{Entries: len(idx.Entries)}

	blobs, err := s.listBlobs()
	if err != nil {
		return stats, err
	}
	for _, size := range blobs {
		stats.Blobs++
		stats.Bytes += size
	}
	return stats, nil
}

// Verify checks every entry against its blob and removes entries whose blob
// is missing or does not match the recorded size and checksum.
// It returns the keys of the removed entries.
func (s *FSStore) Verify(ctx context.Context) ([]domain.CacheKey, error) {
	var bad []domain.CacheKey
	err := s.withLock(func() error {
		idx, err := s.loadIndex()
		if err != nil {
			return err
		}

		for name, entry := range idx.Entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.blobMatches(entry) {
				continue
			}
			bad = append(bad, entry.Key)
			delete(idx.Entries, name)
		}
		if len(bad) == 0 {
			s.snapshot.Store(idx)
			return nil
		}
		return s.commitLocked(idx)
	})

	slices.SortFunc(bad, func(a, b domain.CacheKey) int {
		return strings.Compare(a.Digest(), b.Digest())
	})
	return bad, err
}

// Prune removes the oldest entries until the referenced blobs fit in maxBytes,
// then deletes blobs no entry references. It returns the number of removed entries.
func (s *FSStore) Prune(_ context.Context, maxBytes int64) (int, error) {
	if maxBytes <= 0 {
		return 0, nil
	}

	removed := 0
	err := s.withLock(func() error {
		idx, err := s.loadIndex()
		if err != nil {
			return err
		}

		type named struct {
			name  string
			entry domain.CacheEntry
		}
		entries := make([]named, 0, len(idx.Entries))
		refs := make(map[string]int)
		sizes := make(map[string]int64)
		var total int64
		for name, entry := range idx.Entries {
			entries = append(entries, named{name, entry})
			if refs[entry.ArtifactSHA256] == 0 {
				total += entry.Size
				sizes[entry.ArtifactSHA256] = entry.Size
			}
			refs[entry.ArtifactSHA256]++
		}
		slices.SortFunc(entries, func(a, b named) int {
			if c := a.entry.CreatedAt.Compare(b.entry.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.name, b.name)
		})

		for _, e := range entries {
			if total <= maxBytes {
				break
			}
			delete(idx.Entries, e.name)
			removed++
			refs[e.entry.ArtifactSHA256]--
			if refs[e.entry.ArtifactSHA256] == 0 {
				total -= sizes[e.entry.ArtifactSHA256]
			}
		}

		if removed > 0 {
			if err := s.commitLocked(idx); err != nil {
				return err
			}
		}
		return s.removeUnreferencedBlobs(idx)
	})
	return removed, err
}

// Close releases the lock file handle.
func (s *FSStore) Close() error {
	return s.lock.close()
}

// withLock runs fn while holding both the in-process mutex and the directory lock.
func (s *FSStore) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.lock(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheLockFailed.Error()), "dir", s.dir)
	}
	defer func() {
		_ = s.lock.unlock()
	}()
	return fn()
}

// loadIndex reads the index from disk. A corrupt index is logged and treated as empty.
func (s *FSStore) loadIndex() (*index, error) {
	idx, corrupt, err := readIndex(s.indexPath())
	if err != nil {
		return nil, err
	}
	if corrupt != nil {
		s.logger.Warn(fmt.Sprintf("cache index unreadable, starting empty: %v", corrupt))
		idx.CompilerVersion = s.compilerVersion
	}
	return idx, nil
}

// commitLocked writes idx and publishes it as the lookup snapshot.
func (s *FSStore) commitLocked(idx *index) error {
	idx.CompilerVersion = s.compilerVersion
	if err := writeIndex(s.indexPath(), idx); err != nil {
		return err
	}
	s.snapshot.Store(idx.clone())
	return nil
}

func (s *FSStore) clearLocked(_ context.Context) error {
	blobDir := filepath.Join(s.dir, domain.BlobDirName)
	if err := os.RemoveAll(blobDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheInvalidateFailed.Error()), "dir", blobDir)
	}
	if err := os.MkdirAll(blobDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheInvalidateFailed.Error()), "dir", blobDir)
	}
	return s.commitLocked(newIndex(s.compilerVersion))
}

// writeBlob stores data as blobs/<digest> unless it already exists.
func (s *FSStore) writeBlob(digest string, data []byte) error {
	path := filepath.Join(s.dir, domain.BlobDirName, digest)
	if info, err := os.Stat(path); err == nil && info.Size() == int64(len(data)) {
		return nil
	}
	if err := writeFileAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheBlobWriteFailed.Error()), "path", path)
	}
	return nil
}

// blobPresent reports whether the blob of entry exists with the recorded size.
func (s *FSStore) blobPresent(entry domain.CacheEntry) bool {
	info, err := os.Stat(s.blobPath(entry))
	return err == nil && info.Size() == entry.Size
}

func (s *FSStore) blobMatches(entry domain.CacheEntry) bool {
	f, err := os.Open(s.blobPath(entry))
	if err != nil {
		return false
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil || n != entry.Size {
		return false
	}
	return hex.EncodeToString(h.Sum(nil)) == entry.ArtifactSHA256
}

// listBlobs returns the size of every blob file keyed by its name.
func (s *FSStore) listBlobs() (map[string]int64, error) {
	dir := filepath.Join(s.dir, domain.BlobDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to list cache blobs"), "dir", dir)
	}

	out := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[e.Name()] = info.Size()
	}
	return out, nil
}

func (s *FSStore) removeUnreferencedBlobs(idx *index) error {
	referenced := make(map[string]bool, len(idx.Entries))
	for _, entry := range idx.Entries {
		referenced[entry.ArtifactSHA256] = true
	}

	blobs, err := s.listBlobs()
	if err != nil {
		return err
	}
	for name := range blobs {
		if referenced[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, domain.BlobDirName, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to remove cache blob"), "blob", name)
		}
	}
	return nil
}

func (s *FSStore) blobPath(entry domain.CacheEntry) string {
	return filepath.Join(s.dir, domain.BlobDirName, entry.ArtifactSHA256)
}

func (s *FSStore) indexPath() string {
	return filepath.Join(s.dir, domain.IndexFileName)
}

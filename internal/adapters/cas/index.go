package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

const indexFormatVersion = 1

// index is the on-disk metadata of a cache directory, keyed by CacheKey digest.
type index struct {
	Format          int                          `json:"format"`
	CompilerVersion string                       `json:"compiler_version"`
	Entries         map[string]domain.CacheEntry `json:"entries"`
}

func newIndex(compilerVersion string) *index {
	return &index{
		Format:          indexFormatVersion,
		CompilerVersion: compilerVersion,
		Entries:         make(map[string]domain.CacheEntry),
	}
}

// clone returns a copy whose entry map can be modified independently.
func (idx *index) clone() *index {
	out := &index{
		Format:          idx.Format,
		CompilerVersion: idx.CompilerVersion,
		Entries:         make(map[string]domain.CacheEntry, len(idx.Entries)),
	}
	for k, v := range idx.Entries {
		out.Entries[k] = v
	}
	return out
}

// readIndex loads the index at path. A missing file yields an empty index.
// Malformed content is reported through errCorrupt together with an empty index.
func readIndex(path string) (idx *index, errCorrupt, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is inside the cache directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newIndex(""), nil, nil
		}
		return nil, nil, zerr.With(zerr.Wrap(err, domain.ErrCacheIndexReadFailed.Error()), "path", path)
	}

	var loaded index
	if err := json.Unmarshal(data, &loaded); err != nil {
		return newIndex(""), zerr.With(zerr.Wrap(err, domain.ErrCacheCorrupt.Error()), "path", path), nil
	}
	if loaded.Format != indexFormatVersion {
		return newIndex(""), zerr.With(zerr.With(domain.ErrCacheCorrupt, "path", path), "format", loaded.Format), nil
	}
	if loaded.Entries == nil {
		loaded.Entries = make(map[string]domain.CacheEntry)
	}
	return &loaded, nil, nil
}

// writeIndex replaces the index at path atomically: temp file, fsync, rename.
func writeIndex(path string, idx *index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheIndexWriteFailed.Error())
	}
	if err := writeFileAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheIndexWriteFailed.Error()), "path", path)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) (err error) {
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
	if err = tmp.Sync(); err != nil {
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

// normalizeVersion maps equivalent spellings of a compiler version to one form,
// so "0.4.1", "v0.4.1" and "v0.4.1+build" compare equal.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	candidate := v
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if semver.IsValid(candidate) {
		return semver.Canonical(candidate)
	}
	return v
}

package fs

import (
	"bytes"
	"os"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceReader = (*SourceReader)(nil)

type sourceEntry struct {
	size    int64
	modTime time.Time
	data    []byte
	hash    domain.Hash
}

// SourceReader reads module sources and memoizes their content hash.
// A memoized entry is reused while the file keeps its size and modification time.
type SourceReader struct {
	hasher    ports.Hasher
	normalize bool

	mu      sync.RWMutex
	entries map[string]sourceEntry
}

// NewSourceReader creates a SourceReader. When normalize is set, line endings
// are converted to LF and trailing whitespace is stripped before hashing.
func NewSourceReader(hasher ports.Hasher, normalize bool) *SourceReader {
	return &SourceReader{
		hasher:    hasher,
		normalize: normalize,
		entries:   make(map[string]sourceEntry),
	}
}

// ReadSource returns the source bytes of path and their hash.
func (r *SourceReader) ReadSource(path string) ([]byte, domain.Hash, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, zerr.With(zerr.Wrap(err, domain.ErrSourceReadFailed.Error()), "path", path)
	}

	r.mu.RLock()
	entry, ok := r.entries[path]
	r.mu.RUnlock()
	if ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		return entry.data, entry.hash, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the import graph
	if err != nil {
		return nil, 0, zerr.With(zerr.Wrap(err, domain.ErrSourceReadFailed.Error()), "path", path)
	}
	if r.normalize {
		data = normalizeSource(data)
	}

	entry = sourceEntry{
		size:    info.Size(),
		modTime: info.ModTime(),
		data:    data,
		hash:    r.hasher.HashSource(data),
	}
	r.mu.Lock()
	r.entries[path] = entry
	r.mu.Unlock()

	return entry.data, entry.hash, nil
}

// Invalidate drops the memoized entries of paths.
func (r *SourceReader) Invalidate(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		delete(r.entries, p)
	}
}

func normalizeSource(data []byte) []byte {
	lines := bytes.Split(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")), []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t\r")
	}
	return bytes.Join(lines, []byte("\n"))
}

package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.CacheStore = (*MemoryStore)(nil)

// MemoryStore is an in-process CacheStore. Nothing survives the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.CacheKey]domain.CacheEntry
	blobs   map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[domain.CacheKey]domain.CacheEntry),
		blobs:   make(map[string][]byte),
	}
}

// Get returns the entry stored for key.
func (m *MemoryStore) Get(_ context.Context, key domain.CacheKey) (*domain.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return &entry, true
}

// Put stores artifact under key. An identical key keeps its first entry.
func (m *MemoryStore) Put(
	_ context.Context,
	key domain.CacheKey,
	artifact []byte,
	signature domain.Signature,
	signatureHash domain.Hash,
) (*domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[key]; ok {
		return &existing, nil
	}

	sum := sha256.Sum256(artifact)
	digest := hex.EncodeToString(sum[:])
	m.blobs[digest] = append([]byte(nil), artifact...)

	entry := domain.CacheEntry{
		Key:            key,
		ArtifactPath:   "memory://" + digest,
		ArtifactSHA256: digest,
		Size:           int64(len(artifact)),
		SignatureHash:  signatureHash,
		Signature:      signature,
		CreatedAt:      time.Now().UTC(),
	}
	m.entries[key] = entry
	return &entry, nil
}

// Artifact returns the bytes stored for key.
func (m *MemoryStore) Artifact(key domain.CacheKey) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return m.blobs[entry.ArtifactSHA256], true
}

// InvalidateProject drops every entry.
func (m *MemoryStore) InvalidateProject(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	clear(m.blobs)
	return nil
}

// Stats reports the stored entries and blobs.
func (m *MemoryStore) Stats(_ context.Context) (domain.CacheStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := domain.CacheStats{Entries: len(m.entries), Blobs: len(m.blobs)}
	for _, b := range m.blobs {
		stats.Bytes += int64(len(b))
	}
	return stats, nil
}

// Verify never finds a damaged entry in memory.
func (m *MemoryStore) Verify(_ context.Context) ([]domain.CacheKey, error) {
	return nil, nil
}

// Prune is a no-op; the store is discarded with the process.
func (m *MemoryStore) Prune(_ context.Context, _ int64) (int, error) {
	return 0, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

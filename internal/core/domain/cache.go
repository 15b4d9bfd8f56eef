package domain

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheKey is the composite identity deciding whether a module's cached
// artifact can be reused. Two builds produce identical output for a module
// iff their keys are equal.
type CacheKey struct {
	ModuleID                ModuleID `json:"module_id"`
	SourceHash              Hash     `json:"source_hash"`
	TransitiveSignatureHash Hash     `json:"transitive_signature_hash"`
	CompilerFlagsHash       Hash     `json:"compiler_flags_hash"`
	CompilerVersion         string   `json:"compiler_version"`
}

// Digest hashes the serialized key. It names the key in the cache index.
func (k CacheKey) Digest() string {
	d := xxhash.New()
	_, _ = d.WriteString(string(k.ModuleID))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.SourceHash.String())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.TransitiveSignatureHash.String())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.CompilerFlagsHash.String())
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.CompilerVersion)
	return Hash(d.Sum64()).String()
}

// CacheEntry is a stored compilation result. Entries are written once and
// never edited in place.
type CacheEntry struct {
	Key            CacheKey  `json:"key"`
	ArtifactPath   string    `json:"artifact_path"`
	ArtifactSHA256 string    `json:"artifact_sha256"`
	Size           int64     `json:"size"`
	SignatureHash  Hash      `json:"signature_hash"`
	Signature      Signature `json:"signature"`
	CreatedAt      time.Time `json:"created_at"`
}

// CacheStats summarizes a cache store.
type CacheStats struct {
	Entries int
	Blobs   int
	Bytes   int64
}

// CacheOptions configures a cache store when it is opened.
type CacheOptions struct {
	Dir             string
	CompilerVersion string
}

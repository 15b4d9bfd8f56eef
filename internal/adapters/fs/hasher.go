package fs

import (
	"encoding/binary"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes xxhash64 digests for sources, signatures and build flags.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashSource hashes the raw bytes of a module source.
func (h *Hasher) HashSource(source []byte) domain.Hash {
	return domain.Hash(xxhash.Sum64(source))
}

// HashSignature hashes the public items of a signature. Item order does not
// matter, duplicates do. Private items and doc comments are ignored.
func (h *Hasher) HashSignature(items []domain.ExportedItem) domain.Hash {
	itemHashes := make([]uint64, 0, len(items))
	for _, item := range items {
		if item.Visibility == domain.VisibilityPrivate {
			continue
		}
		itemHashes = append(itemHashes, hashItem(item))
	}
	slices.Sort(itemHashes)

	digest := xxhash.New()
	var buf [8]byte
	for _, ih := range itemHashes {
		binary.LittleEndian.PutUint64(buf[:], ih)
		_, _ = digest.Write(buf[:])
	}
	return domain.Hash(digest.Sum64())
}

func hashItem(item domain.ExportedItem) uint64 {
	digest := xxhash.New()
	_, _ = digest.WriteString(item.Name)
	_, _ = digest.Write([]byte{0}) // Separator
	_, _ = digest.WriteString(item.Kind)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(item.Type)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(item.Visibility)
	return digest.Sum64()
}

// HashFlags hashes the compiler configuration. Extra flags are order dependent.
func (h *Hasher) HashFlags(flags domain.CompilerFlags) domain.Hash {
	digest := xxhash.New()
	_, _ = digest.WriteString(strconv.Itoa(flags.OptLevel))
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(flags.Target)
	_, _ = digest.Write([]byte{0})
	for _, flag := range flags.Extra {
		_, _ = digest.WriteString(flag)
		_, _ = digest.Write([]byte{0})
	}
	return domain.Hash(digest.Sum64())
}

// HashTransitive combines the signature hashes of a dependency closure,
// sorted by module id.
func (h *Hasher) HashTransitive(signatures map[domain.ModuleID]domain.Hash) domain.Hash {
	ids := make([]domain.ModuleID, 0, len(signatures))
	for id := range signatures {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	digest := xxhash.New()
	var buf [8]byte
	for _, id := range ids {
		_, _ = digest.WriteString(string(id))
		_, _ = digest.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(signatures[id]))
		_, _ = digest.Write(buf[:])
	}
	return domain.Hash(digest.Sum64())
}

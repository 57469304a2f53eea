package mtlcore

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// fileTag and treeTag are the ASCII prefixes mixed into the hash of every
// object, so a file and a tree that happen to share bytes never collide.
var (
	fileTag = []byte(kindFileStr)
	treeTag = []byte(kindTreeStr)
)

// sep is the single 0x00 separator used throughout the canonical encodings.
var sep = []byte{0x00}

// Hasher accumulates a streaming 64-bit content hash. It is not safe for
// concurrent use by multiple goroutines.
type Hasher struct {
	h *xxhash.Digest
}

// NewFileHasher starts a Hasher primed with the file-object tag, ready to
// stream the file's content bytes via Write.
func NewFileHasher() *Hasher {
	h := xxhash.New()
	_, _ = h.Write(fileTag)
	_, _ = h.Write(sep)
	return &Hasher{h: h}
}

// Write feeds more content bytes into the hash. Chunking content across
// multiple Write calls yields the same digest as a single Write of the
// concatenated bytes, because xxhash.Digest is a true streaming hash.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the OID for everything written so far.
func (h *Hasher) Sum() OID {
	return OID(h.h.Sum64())
}

// HashFileBytes computes the OID of a file object from its full content in
// one call, equivalent to streaming the same bytes through NewFileHasher.
func HashFileBytes(content []byte) OID {
	h := NewFileHasher()
	_, _ = h.Write(content)
	return h.Sum()
}

// HashTree computes the OID of a tree object from its entries. Entries need
// not already be sorted; HashTree sorts a copy before hashing so callers
// may pass entries in any order. The canonical encoding is:
//
//	"tree" 0x00 (kind 0x00 oid-16hex 0x00 name 0x00)*
//
// in ascending byte-wise order of name.
func HashTree(entries []Entry) OID {
	sorted := sortedEntries(entries)

	h := xxhash.New()
	_, _ = h.Write(treeTag)
	_, _ = h.Write(sep)
	for _, e := range sorted {
		_, _ = h.Write([]byte(e.Kind.String()))
		_, _ = h.Write(sep)
		_, _ = h.Write([]byte(e.OID.String()))
		_, _ = h.Write(sep)
		_, _ = h.Write([]byte(e.Name))
		_, _ = h.Write(sep)
	}
	return OID(h.Sum64())
}

// sortedEntries returns a copy of entries sorted ascending by name.
func sortedEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

package alta

import (
	"crypto/sha256"
	"hash"
)

// HashClass describes a truncated cryptographic digest algorithm: a
// constructor for fresh hash.Hash instances and the octet length the
// final digest is cut down to. Two HashClass values with the same
// factory and Size produce byte-identical output for identical input.
type HashClass struct {
	factory func() hash.Hash
	Size    int
}

// New returns a fresh streaming digest for this hash class.
func (hc HashClass) New() *Hash {
	return &Hash{h: hc.factory(), size: hc.Size}
}

// NewHashClass builds a HashClass from an arbitrary hash.Hash constructor,
// truncating its digest to truncBytes octets.
func NewHashClass(factory func() hash.Hash, truncBytes int) HashClass {
	return HashClass{factory: factory, Size: truncBytes}
}

// Hash is a single truncated-digest computation in progress. Update
// forwards unchanged to the underlying hash; truncation is applied only
// when Digest is called.
type Hash struct {
	h    hash.Hash
	size int
}

// Update feeds more data into the underlying digest.
func (h *Hash) Update(p []byte) {
	h.h.Write(p) //nolint:errcheck // hash.Hash.Write never returns an error
}

// Digest returns the first Size octets of the underlying digest.
func (h *Hash) Digest() []byte {
	return h.h.Sum(nil)[:h.size]
}

// Size returns the truncated digest length in octets.
func (h *Hash) Size() int {
	return h.size
}

// ModelHashClass is the model profile's hash: SHA-256 truncated to 8
// octets (spec §3, §4.1).
var ModelHashClass = NewHashClass(sha256.New, 8)

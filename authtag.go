package alta

import (
	"encoding/binary"
	"fmt"
	"iter"
	"sort"
)

// explicitIndexSize is the wire width of an AuthTag's own index field.
const explicitIndexSize = 4

// AuthTagOptions is the leading options octet of a serialized AuthTag:
// the number of chained-hash entries that follow, and whether a
// trailing signature is present.
type AuthTagOptions struct {
	HashCount        int
	SignaturePresent bool
}

// MaxLen is the options field's own wire width, always one octet.
func (AuthTagOptions) MaxLen() int { return 1 }

func (o AuthTagOptions) toByte() byte {
	b := byte(o.HashCount&0x7) << 5
	if o.SignaturePresent {
		b |= 1 << 4
	}
	return b
}

func authTagOptionsFromByte(b byte) AuthTagOptions {
	return AuthTagOptions{
		HashCount:        int(b >> 5),
		SignaturePresent: b&0x10 != 0,
	}
}

// AuthTag is the explicit-index variant of the authentication tag
// (spec §3, §4.4): an options octet, a 4-octet index, zero or more
// chained-hash entries, and an optional trailing signature.
type AuthTag struct {
	hashCls    HashClass
	sigLen     int
	signingKey *SigningKey
	options    AuthTagOptions
	index      Index
	hashes     map[Index][]byte
	signature  []byte
}

// NewAuthTag starts a tag for index under the given profile. signingKey
// is nil for an unsigned tag; otherwise the tag reserves space for a
// signature, which is filled in when Sign is called (Payload.ToBytes
// does this).
func NewAuthTag(index Index, profile Profile, signingKey *SigningKey) *AuthTag {
	return &AuthTag{
		hashCls:    profile.HashClass,
		sigLen:     profile.SignatureLen,
		signingKey: signingKey,
		options:    AuthTagOptions{SignaturePresent: signingKey != nil},
		index:      index,
		hashes:     make(map[Index][]byte),
	}
}

// Index returns the tag's own index.
func (t *AuthTag) Index() Index { return t.index }

// GetChainedHash returns the recorded hash for src, or nil if src has
// not been chained yet.
func (t *AuthTag) GetChainedHash(src Index) []byte {
	return t.hashes[src]
}

// ChainPayloadHash records h as the chained hash for source index src.
// It fails if src equals the tag's own index, if the signed offset
// src-index falls outside [-128, 127], or if src was already chained.
func (t *AuthTag) ChainPayloadHash(src Index, h []byte) error {
	if src == t.index {
		return fmt.Errorf("%w: source index %d equals tag index", ErrInvalidParameter, src)
	}
	offset := int64(src) - int64(t.index)
	if offset < -128 || offset > 127 {
		return fmt.Errorf("%w: source offset %d for index %d exceeds signed-octet range", ErrInvalidParameter, offset, t.index)
	}
	if _, exists := t.hashes[src]; exists {
		return fmt.Errorf("%w: source index %d already chained on tag %d", ErrOverwriteHash, src, t.index)
	}
	t.hashes[src] = h
	t.options.HashCount = len(t.hashes)
	return nil
}

// ChainedHashes iterates the tag's chained hashes in ascending source
// index order, the order they are serialized in.
func (t *AuthTag) ChainedHashes() iter.Seq2[Index, []byte] {
	return func(yield func(Index, []byte) bool) {
		keys := make([]Index, 0, len(t.hashes))
		for k := range t.hashes {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			if !yield(k, t.hashes[k]) {
				return
			}
		}
	}
}

// MaxLen returns the tag's worst-case wire length given scheme, used to
// size outgoing datagram buffers before the tag is finalized.
func (t *AuthTag) MaxLen(scheme Scheme) int {
	n := len(scheme.Sources(t.index, nil, nil))
	l := t.options.MaxLen() + explicitIndexSize + (1+t.hashCls.Size)*n
	if t.options.SignaturePresent {
		l += t.sigLen
	}
	return l
}

func (t *AuthTag) sigOffset() int {
	return t.options.MaxLen() + explicitIndexSize + (1+t.hashCls.Size)*len(t.hashes)
}

// ToBytes serializes the tag alone (no application data), with the
// signature slot zeroed if the tag is signed but not yet signed.
func (t *AuthTag) ToBytes() []byte {
	buf := make([]byte, 0, t.options.MaxLen()+explicitIndexSize+(1+t.hashCls.Size)*len(t.hashes)+t.sigLen)
	buf = append(buf, t.options.toByte())
	var idxBuf [explicitIndexSize]byte
	binary.BigEndian.PutUint32(idxBuf[:], uint32(t.index))
	buf = append(buf, idxBuf[:]...)
	for src, h := range t.ChainedHashes() {
		buf = append(buf, byte(int8(int64(src)-int64(t.index))))
		buf = append(buf, h...)
	}
	if t.options.SignaturePresent {
		if t.signature != nil {
			buf = append(buf, t.signature...)
		} else {
			buf = append(buf, make([]byte, t.sigLen)...)
		}
	}
	return buf
}

// Sign computes (if not already cached) and embeds a signature over
// unsignedPayload — the full serialized payload (tag plus application
// data) with the signature slot zeroed — and returns the signed bytes.
func (t *AuthTag) Sign(unsignedPayload []byte) []byte {
	if t.signature == nil {
		t.signature = t.signingKey.Sign(unsignedPayload)
	}
	return t.addSignature(unsignedPayload, t.signature)
}

func (t *AuthTag) addSignature(payload, sig []byte) []byte {
	off := t.sigOffset()
	out := make([]byte, len(payload))
	copy(out, payload)
	copy(out[off:off+len(sig)], sig)
	return out
}

// StripSignature returns a copy of signedPayload with the signature
// slot zeroed, the canonical form the hash invariant is computed over.
func (t *AuthTag) StripSignature(signedPayload []byte) []byte {
	out := make([]byte, len(signedPayload))
	copy(out, signedPayload)
	off := t.sigOffset()
	for i := 0; i < t.sigLen && off+i < len(out); i++ {
		out[off+i] = 0
	}
	return out
}

// Verify checks the tag's cached signature against signedPayload with
// its own signature slot stripped. It is a no-op returning nil if the
// tag carries no signature.
func (t *AuthTag) Verify(signedPayload []byte, verifyKey *VerifyingKey) error {
	if !t.options.SignaturePresent {
		return nil
	}
	return verifyKey.Verify(t.StripSignature(signedPayload), t.signature)
}

// authTagFromBytes decodes a tag prefix of data under profile, returning
// the tag and the number of octets consumed.
func authTagFromBytes(data []byte, profile Profile) (*AuthTag, int, error) {
	if len(data) < 1 {
		return nil, 0, ErrTruncatedInput
	}
	options := authTagOptionsFromByte(data[0])
	used := 1
	if len(data) < used+explicitIndexSize {
		return nil, 0, ErrTruncatedInput
	}
	index := Index(binary.BigEndian.Uint32(data[used : used+explicitIndexSize]))
	used += explicitIndexSize

	t := &AuthTag{
		hashCls: profile.HashClass,
		sigLen:  profile.SignatureLen,
		options: options,
		index:   index,
		hashes:  make(map[Index][]byte),
	}

	entrySize := 1 + t.hashCls.Size
	for i := 0; i < options.HashCount; i++ {
		if len(data) < used+entrySize {
			return nil, 0, ErrTruncatedInput
		}
		off := int8(data[used])
		h := append([]byte(nil), data[used+1:used+entrySize]...)
		src := index + Index(off)
		if _, exists := t.hashes[src]; exists {
			return nil, 0, fmt.Errorf("%w: source index %d repeated on tag %d", ErrOverwriteHash, src, index)
		}
		t.hashes[src] = h
		used += entrySize
	}

	if options.SignaturePresent {
		if len(data) < used+t.sigLen {
			return nil, 0, ErrTruncatedInput
		}
		t.signature = append([]byte(nil), data[used:used+t.sigLen]...)
		used += t.sigLen
	}

	return t, used, nil
}

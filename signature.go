package alta

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Ed25519SignatureLen is the model profile's signature_len constant
// (spec §3, §6): every Ed25519 signature is exactly 64 octets.
const Ed25519SignatureLen = ed25519.SignatureSize

// SigningKey produces signatures over payload bytes. It is held only by
// the producer side of a stream.
type SigningKey struct {
	priv ed25519.PrivateKey
}

// GenerateSigningKey creates a fresh Ed25519 signing key.
func GenerateSigningKey() (*SigningKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("alta: generate signing key: %w", err)
	}
	return &SigningKey{priv: priv}, nil
}

// NewSigningKeyFromSeed reconstructs a signing key from a 32-octet seed,
// the form in which Ed25519 private keys are usually distributed.
func NewSigningKeyFromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 seed must be %d octets, got %d", ErrInvalidParameter, ed25519.SeedSize, len(seed))
	}
	return &SigningKey{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign returns a detached signature over data.
func (k *SigningKey) Sign(data []byte) []byte {
	return ed25519.Sign(k.priv, data)
}

// VerifyingKey derives the public counterpart of this signing key, the
// form distributed to consumers out-of-band.
func (k *SigningKey) VerifyingKey() *VerifyingKey {
	return &VerifyingKey{pub: k.priv.Public().(ed25519.PublicKey)}
}

// VerifyingKey checks signatures produced by the matching SigningKey. It
// is held only by the consumer side of a stream.
type VerifyingKey struct {
	pub ed25519.PublicKey
}

// NewVerifyingKey wraps a raw 32-octet Ed25519 public key.
func NewVerifyingKey(raw []byte) (*VerifyingKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key must be %d octets, got %d", ErrInvalidParameter, ed25519.PublicKeySize, len(raw))
	}
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, raw)
	return &VerifyingKey{pub: pub}, nil
}

// Verify reports ErrBadSignature if sig is not a valid signature over
// data under this key.
func (k *VerifyingKey) Verify(data, sig []byte) error {
	if !ed25519.Verify(k.pub, data, sig) {
		return ErrBadSignature
	}
	return nil
}

// Bytes returns the raw 32-octet public key.
func (k *VerifyingKey) Bytes() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

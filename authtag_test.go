package alta

import (
	"bytes"
	"errors"
	"testing"
)

func TestAuthTagRoundTripUnsigned(t *testing.T) {
	tag := NewAuthTag(100, ModelProfile, nil)
	h1 := bytes.Repeat([]byte{0xAA}, ModelProfile.HashClass.Size)
	h2 := bytes.Repeat([]byte{0xBB}, ModelProfile.HashClass.Size)
	if err := tag.ChainPayloadHash(97, h1); err != nil {
		t.Fatal(err)
	}
	if err := tag.ChainPayloadHash(99, h2); err != nil {
		t.Fatal(err)
	}

	wire := tag.ToBytes()
	decoded, used, err := authTagFromBytes(wire, ModelProfile)
	if err != nil {
		t.Fatal(err)
	}
	if used != len(wire) {
		t.Errorf("consumed %d bytes, wire is %d bytes", used, len(wire))
	}
	if decoded.Index() != 100 {
		t.Errorf("decoded index = %d, want 100", decoded.Index())
	}
	if !bytes.Equal(decoded.GetChainedHash(97), h1) {
		t.Errorf("decoded hash at 97 = %x, want %x", decoded.GetChainedHash(97), h1)
	}
	if !bytes.Equal(decoded.GetChainedHash(99), h2) {
		t.Errorf("decoded hash at 99 = %x, want %x", decoded.GetChainedHash(99), h2)
	}
}

func TestAuthTagChainedHashesAscendingOrder(t *testing.T) {
	tag := NewAuthTag(50, ModelProfile, nil)
	h := bytes.Repeat([]byte{0x01}, ModelProfile.HashClass.Size)
	for _, src := range []Index{45, 49, 30, 48} {
		if err := tag.ChainPayloadHash(src, h); err != nil {
			t.Fatal(err)
		}
	}
	var order []Index
	for src := range tag.ChainedHashes() {
		order = append(order, src)
	}
	want := []Index{30, 45, 48, 49}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("ChainedHashes()[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestAuthTagRejectsSelfReference(t *testing.T) {
	tag := NewAuthTag(10, ModelProfile, nil)
	if err := tag.ChainPayloadHash(10, make([]byte, ModelProfile.HashClass.Size)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ChainPayloadHash(self) error = %v, want ErrInvalidParameter", err)
	}
}

func TestAuthTagRejectsOffsetOutOfRange(t *testing.T) {
	tag := NewAuthTag(1000, ModelProfile, nil)
	h := make([]byte, ModelProfile.HashClass.Size)
	if err := tag.ChainPayloadHash(1000-200, h); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ChainPayloadHash(offset -200) error = %v, want ErrInvalidParameter", err)
	}
	if err := tag.ChainPayloadHash(1000+128, h); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ChainPayloadHash(offset +128) error = %v, want ErrInvalidParameter", err)
	}
	if err := tag.ChainPayloadHash(1000+127, h); err != nil {
		t.Errorf("ChainPayloadHash(offset +127) unexpected error: %v", err)
	}
}

func TestAuthTagRejectsDuplicateSource(t *testing.T) {
	tag := NewAuthTag(10, ModelProfile, nil)
	h := make([]byte, ModelProfile.HashClass.Size)
	if err := tag.ChainPayloadHash(5, h); err != nil {
		t.Fatal(err)
	}
	if err := tag.ChainPayloadHash(5, h); !errors.Is(err, ErrOverwriteHash) {
		t.Errorf("duplicate ChainPayloadHash error = %v, want ErrOverwriteHash", err)
	}
}

func TestAuthTagFromBytesTruncated(t *testing.T) {
	tag := NewAuthTag(10, ModelProfile, nil)
	if err := tag.ChainPayloadHash(5, make([]byte, ModelProfile.HashClass.Size)); err != nil {
		t.Fatal(err)
	}
	wire := tag.ToBytes()
	if _, _, err := authTagFromBytes(wire[:len(wire)-1], ModelProfile); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("truncated wire decode error = %v, want ErrTruncatedInput", err)
	}
	if _, _, err := authTagFromBytes(nil, ModelProfile); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("empty wire decode error = %v, want ErrTruncatedInput", err)
	}
}

func TestAuthTagSignatureZeroedUntilSigned(t *testing.T) {
	sk, err := GenerateSigningKey()
	if err != nil {
		t.Fatal(err)
	}
	tag := NewAuthTag(10, ModelProfile, sk)
	wireUnsigned := tag.ToBytes()
	sigStart := len(wireUnsigned) - ModelProfile.SignatureLen
	for _, b := range wireUnsigned[sigStart:] {
		if b != 0 {
			t.Fatal("unsigned tag's signature slot is not all-zero")
		}
	}

	signed := tag.Sign(wireUnsigned)
	stripped := tag.StripSignature(signed)
	if !bytes.Equal(stripped, wireUnsigned) {
		t.Error("StripSignature(Sign(x)) != x")
	}

	vk := sk.VerifyingKey()
	if err := tag.Verify(signed, vk); err != nil {
		t.Errorf("Verify of a freshly-signed tag failed: %v", err)
	}
}

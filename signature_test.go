package alta

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, err := GenerateSigningKey()
	if err != nil {
		t.Fatal(err)
	}
	vk := sk.VerifyingKey()

	msg := []byte("payload bytes with signature slot zeroed")
	sig := sk.Sign(msg)
	if len(sig) != Ed25519SignatureLen {
		t.Fatalf("signature length = %d, want %d", len(sig), Ed25519SignatureLen)
	}
	if err := vk.Verify(msg, sig); err != nil {
		t.Errorf("Verify of a genuine signature failed: %v", err)
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	sk, err := GenerateSigningKey()
	if err != nil {
		t.Fatal(err)
	}
	vk := sk.VerifyingKey()

	sig := sk.Sign([]byte("original"))
	if err := vk.Verify([]byte("tampered"), sig); err == nil {
		t.Error("Verify accepted a signature over a different message")
	}
}

func TestVerifyingKeyRoundTripBytes(t *testing.T) {
	sk, err := GenerateSigningKey()
	if err != nil {
		t.Fatal(err)
	}
	vk := sk.VerifyingKey()
	raw := vk.Bytes()

	vk2, err := NewVerifyingKey(raw)
	if err != nil {
		t.Fatal(err)
	}
	sig := sk.Sign([]byte("msg"))
	if err := vk2.Verify([]byte("msg"), sig); err != nil {
		t.Errorf("reconstructed VerifyingKey rejected a genuine signature: %v", err)
	}
}

func TestNewVerifyingKeyRejectsWrongLength(t *testing.T) {
	if _, err := NewVerifyingKey([]byte{1, 2, 3}); err == nil {
		t.Error("NewVerifyingKey accepted a too-short key")
	}
}

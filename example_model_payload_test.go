package alta

import (
	"testing"
)

// TestExampleThreePayloadChain walks through building a small chain by
// hand: p0 chains a hash from p1, and p2 chains hashes from both p0 and
// p1. It mirrors constructing payloads directly and wiring their
// chained hashes without going through a Producer, which is useful
// when a caller wants full control over which sources are chained.
//
//	p0 -> p1
//	p2 -> p0, p1
func TestExampleThreePayloadChain(t *testing.T) {
	p0 := NewPayload(0, ModelProfile, nil, []byte("p0"))
	p1 := NewPayload(1, ModelProfile, nil, []byte("p1"))
	p2 := NewPayload(2, ModelProfile, nil, []byte("p2"))

	if err := p0.Tag.ChainPayloadHash(p1.Index(), p1.Hash()); err != nil {
		t.Fatal(err)
	}
	if err := p2.Tag.ChainPayloadHash(p0.Index(), p0.Hash()); err != nil {
		t.Fatal(err)
	}
	if err := p2.Tag.ChainPayloadHash(p1.Index(), p1.Hash()); err != nil {
		t.Fatal(err)
	}

	p2Wire := p2.ToBytes()
	t.Logf("p2 wire: %x (%d bytes)", p2Wire, len(p2Wire))

	decoded, err := PayloadFromBytes(p2Wire, ModelProfile, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded.Hash()) != string(p2.Hash()) {
		t.Error("round-tripped p2 hash does not match the original")
	}
	if string(decoded.Tag.GetChainedHash(p0.Index())) != string(p0.Hash()) {
		t.Error("round-tripped p2 lost its chained hash from p0")
	}
	if string(decoded.Tag.GetChainedHash(p1.Index())) != string(p1.Hash()) {
		t.Error("round-tripped p2 lost its chained hash from p1")
	}
}

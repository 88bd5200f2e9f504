package alta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"iter"
	"sort"
)

const defaultLVWindow = 128

// Consumer accepts payloads in any order, including duplicates and
// gaps left by loss, and extends verification outward from signed
// anchors across the hash chains those anchors cover. A payload is
// delivered via PayloadsReady only once a verified hash is known for
// its index and that payload's own hash matches it.
//
// First-seen-wins: if two different payloads ever arrive claiming the
// same index, only whichever arrived first is held for that index; a
// later arrival is never substituted in, and one whose hash disagrees
// with the verified hash for the index raises EventHashMismatch. A
// held payload whose hash disagrees with the verified hash is dropped
// rather than delivered. A Consumer does
// not by itself protect against a forged payload arriving before the
// genuine one for an index that has not yet been reached by
// verification.
type Consumer struct {
	profile Profile

	preLV, postLV  uint64
	payloads       map[Index]*Payload
	verifiedHashes map[Index][]byte
	latestVerified Index
	haveVerified   bool

	sink EventSink
}

// NewConsumer constructs a Consumer from cfg.
func NewConsumer(cfg ConsumerConfig, profile Profile) *Consumer {
	pre := cfg.PreLVWindow
	if pre == 0 {
		pre = defaultLVWindow
	}
	post := cfg.PostLVWindow
	if post == 0 {
		post = defaultLVWindow
	}
	if profile.HashClass.Size == 0 {
		profile = ModelProfile
	}
	return &Consumer{
		profile:        profile,
		preLV:          pre,
		postLV:         post,
		payloads:       make(map[Index]*Payload),
		verifiedHashes: make(map[Index][]byte),
		sink:           cfg.Sink,
	}
}

// DecodePayload decodes a wire-format payload under the consumer's
// configured profile, verifying its signature against verifyKey if it
// carries one. A failed signature check is returned as ErrBadSignature
// and also reported to the sink as EventBadSignature.
func (c *Consumer) DecodePayload(data []byte, verifyKey *VerifyingKey) (*Payload, error) {
	p, err := PayloadFromBytes(data, c.profile, verifyKey)
	if errors.Is(err, ErrBadSignature) {
		e := Event{Kind: EventBadSignature, Err: err}
		if len(data) >= 1+explicitIndexSize {
			e.Index = Index(binary.BigEndian.Uint32(data[1 : 1+explicitIndexSize]))
		}
		c.emit(e)
	}
	return p, err
}

// PushPayload records payload. assumeVerified marks it as verified
// without requiring a signature or an already-verified hash — intended
// for payloads the caller trusts through some out-of-band channel (for
// example, the very first payload of a stream whose index a peer
// already confirmed out of band). A duplicate index keeps whichever
// payload arrived first; later arrivals are only checked for
// agreement, never substituted in.
func (c *Consumer) PushPayload(payload *Payload, assumeVerified bool) {
	index := payload.Index()
	if _, exists := c.payloads[index]; !exists {
		c.payloads[index] = payload
	}

	h := payload.Hash()
	if vh, ok := c.verifiedHashes[index]; ok && !bytes.Equal(vh, h) {
		c.emit(Event{Kind: EventHashMismatch, Index: index})
	}

	verifiedNow := assumeVerified || payload.SignatureValid()
	if vh, ok := c.verifiedHashes[index]; ok && bytes.Equal(vh, h) {
		verifiedNow = true
	}
	if verifiedNow {
		c.setVerified(index, h)
	}

	c.expireOldState()
}

// setVerified records h as the verified hash for index and, if a
// payload for index is on hand and its own hash agrees, extends
// verification to every index it chains a hash from.
func (c *Consumer) setVerified(index Index, h []byte) {
	c.verifiedHashes[index] = h
	if !c.haveVerified || index > c.latestVerified {
		c.latestVerified = index
		c.haveVerified = true
	}

	payload, ok := c.payloads[index]
	if !ok {
		return
	}
	if !bytes.Equal(payload.Hash(), h) {
		c.emit(Event{Kind: EventHashMismatch, Index: index})
		return
	}
	c.extendVerification(payload)
}

func (c *Consumer) extendVerification(payload *Payload) {
	for src, h := range payload.Tag.ChainedHashes() {
		if _, exists := c.verifiedHashes[src]; !exists {
			c.setVerified(src, h)
		}
	}
}

// PayloadsReady yields every held payload, in index order, whose
// verified hash agrees with its own computed hash, and removes them
// from the consumer's held state. Payloads whose hash disagrees with a
// verified hash are dropped and reported via EventHashMismatch instead
// of being yielded.
func (c *Consumer) PayloadsReady() iter.Seq2[Index, *Payload] {
	return func(yield func(Index, *Payload) bool) {
		indices := make([]Index, 0, len(c.payloads))
		for idx := range c.payloads {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

		for _, idx := range indices {
			payload, ok := c.payloads[idx]
			if !ok {
				continue
			}
			vh, verified := c.verifiedHashes[idx]
			if !verified {
				continue
			}
			delete(c.payloads, idx)
			if !bytes.Equal(vh, payload.Hash()) {
				c.emit(Event{Kind: EventHashMismatch, Index: idx})
				continue
			}
			if !yield(idx, payload) {
				return
			}
		}
	}
}

// expireOldState prunes both held payloads and verified hashes to the
// window [latestVerified - preLV, latestVerified + postLV].
func (c *Consumer) expireOldState() {
	if !c.haveVerified {
		return
	}
	lo := int64(c.latestVerified) - int64(c.preLV)
	hi := int64(c.latestVerified) + int64(c.postLV)
	for idx := range c.payloads {
		if int64(idx) < lo || int64(idx) > hi {
			delete(c.payloads, idx)
		}
	}
	for idx := range c.verifiedHashes {
		if int64(idx) < lo || int64(idx) > hi {
			delete(c.verifiedHashes, idx)
		}
	}
}

func (c *Consumer) emit(e Event) {
	if c.sink != nil {
		c.sink(e)
	}
}

package alta

// Payload is one unit of a stream: an authentication tag chaining
// hashes from other payloads, plus arbitrary application data. A
// Payload's hash is computed over its own wire encoding with the
// signature slot (if any) zeroed, so signing a payload never changes
// the hash other payloads chain against it (spec §3 hash invariant).
type Payload struct {
	Tag     *AuthTag
	AppData []byte

	// signatureValid is set by FromBytes when the decoded payload
	// carried a signature that verified. It is meaningless for
	// locally-constructed payloads, which are trusted by construction.
	signatureValid bool
}

// NewPayload starts a payload at index carrying appData. signingKey is
// nil for an unsigned payload.
func NewPayload(index Index, profile Profile, signingKey *SigningKey, appData []byte) *Payload {
	return &Payload{
		Tag:     NewAuthTag(index, profile, signingKey),
		AppData: appData,
	}
}

// Index returns the payload's index.
func (p *Payload) Index() Index { return p.Tag.index }

// SignatureValid reports whether a decoded payload's signature
// verified. Always false for payloads built with NewPayload.
func (p *Payload) SignatureValid() bool { return p.signatureValid }

// ToBytes serializes the payload, signing it if its tag carries a
// signing key and has not been signed yet.
func (p *Payload) ToBytes() []byte {
	unsigned := append(p.Tag.ToBytes(), p.AppData...)
	if p.Tag.options.SignaturePresent && p.Tag.signingKey != nil {
		return p.Tag.Sign(unsigned)
	}
	return unsigned
}

// Hash returns the payload's truncated digest, computed over its
// serialized form with the signature slot (if any) zeroed.
func (p *Payload) Hash() []byte {
	data := append(p.Tag.ToBytes(), p.AppData...)
	if p.Tag.options.SignaturePresent {
		data = p.Tag.StripSignature(data)
	}
	h := p.Tag.hashCls.New()
	h.Update(data)
	return h.Digest()
}

// PayloadFromBytes decodes a payload from data under profile. If the
// decoded tag carries a signature, it is verified against verifyKey and
// ErrBadSignature is returned on failure; verifyKey may be nil only if
// the caller already knows the tag is unsigned. All trailing bytes not
// consumed by the tag become the payload's application data.
func PayloadFromBytes(data []byte, profile Profile, verifyKey *VerifyingKey) (*Payload, error) {
	tag, used, err := authTagFromBytes(data, profile)
	if err != nil {
		return nil, err
	}
	p := &Payload{Tag: tag}
	if tag.options.SignaturePresent {
		if err := tag.Verify(data, verifyKey); err != nil {
			return nil, err
		}
		p.signatureValid = true
	}
	p.AppData = append([]byte(nil), data[used:]...)
	return p, nil
}

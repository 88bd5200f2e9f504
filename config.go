package alta

// Profile bundles the wire-format constants a producer and consumer
// must agree on out-of-band: the truncated hash algorithm and the
// signature length. Both sides of a stream must construct AuthTags
// from the same Profile or the wire encoding will not line up.
type Profile struct {
	HashClass    HashClass
	SignatureLen int
}

// ModelProfile is the profile described in the specification: SHA-256
// truncated to 8 octets and Ed25519 64-octet signatures, with an
// explicit 32-bit index on every tag.
var ModelProfile = Profile{
	HashClass:    ModelHashClass,
	SignatureLen: Ed25519SignatureLen,
}

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	// Scheme is the DAG shape payloads are chained under. Required.
	Scheme Scheme

	// Profile selects the hash and signature constants payloads are
	// built with. Defaults to ModelProfile if left zero-valued.
	Profile Profile
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	// PreLVWindow is how many indices below the latest verified index
	// are retained while waiting to be chained into. Defaults to 128.
	PreLVWindow uint64

	// PostLVWindow is how many indices above the latest verified index
	// are retained while waiting to arrive. Defaults to 128.
	PostLVWindow uint64

	// Sink receives diagnostic events (hash mismatches, bad signatures).
	// A nil Sink discards events.
	Sink EventSink
}

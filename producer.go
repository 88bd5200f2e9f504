package alta

import (
	"errors"
	"fmt"
	"iter"
)

// producerHashState records a payload hash once it has stabilized, or
// marks the index as mid-computation so a cyclic scheme is caught
// instead of recursing forever.
type producerHashState struct {
	hash    []byte
	pending bool
}

// Producer accepts payloads strictly in index order and emits them,
// each carrying a full set of chained hashes, once its scheme reports
// no further hash for it will ever arrive. A Producer holds no stream
// state beyond the live window its scheme requires: nothing suspends
// and nothing runs concurrently with PushPayload or PayloadsReady.
type Producer struct {
	scheme  Scheme
	profile Profile

	stream    []*Payload
	hashes    map[Index]producerHashState
	nextIndex Index
	lastIndex *Index

	err error
}

// NewProducer constructs a Producer from cfg. cfg.Scheme is required;
// cfg.Profile defaults to ModelProfile.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if cfg.Scheme == nil {
		return nil, fmt.Errorf("%w: producer requires a scheme", ErrInvalidParameter)
	}
	profile := cfg.Profile
	if profile.HashClass.Size == 0 {
		profile = ModelProfile
	}
	return &Producer{
		scheme:  cfg.Scheme,
		profile: profile,
		hashes:  make(map[Index]producerHashState),
	}, nil
}

// NewPayload builds a payload at the producer's next expected index
// under its configured profile, ready to be pushed.
func (p *Producer) NewPayload(signingKey *SigningKey, appData []byte) *Payload {
	return NewPayload(p.nextIndex, p.profile, signingKey, appData)
}

// PushPayload appends payload to the stream. payload.Index() must equal
// the next expected index or ErrOutOfOrder is returned.
func (p *Producer) PushPayload(payload *Payload) error {
	if payload.Index() != p.nextIndex {
		return fmt.Errorf("%w: expected index %d, got %d", ErrOutOfOrder, p.nextIndex, payload.Index())
	}
	p.stream = append(p.stream, payload)
	p.nextIndex++
	_, err := p.payloadHash(payload.Index())
	if err != nil && !errors.Is(err, errPending) {
		return err
	}
	return nil
}

// Shutdown marks the stream closed at its current latest index. Every
// payload still held becomes immediately ready, since no further
// source payloads can ever arrive to chain into them.
func (p *Producer) Shutdown() error {
	latest, err := p.latestIndex()
	if err != nil {
		return err
	}
	p.lastIndex = &latest
	return nil
}

// PayloadsReady yields payloads, in index order, whose chained hashes
// are complete. Iteration stops early if a scheme invariant is
// violated; call Err after ranging to check for that case.
func (p *Producer) PayloadsReady() iter.Seq[*Payload] {
	return func(yield func(*Payload) bool) {
		p.err = nil
		for len(p.stream) > 0 {
			front := p.stream[0]
			if p.lastIndex == nil {
				latest := p.stream[len(p.stream)-1].Index()
				if !p.scheme.IsReady(front.Index(), latest) {
					break
				}
			}
			if _, err := p.payloadHash(front.Index()); err != nil {
				if errors.Is(err, errPending) {
					break
				}
				p.err = err
				break
			}
			p.stream = p.stream[1:]
			if !yield(front) {
				return
			}
		}
		p.expireOldState()
	}
}

// Err returns the error, if any, that stopped the most recent
// PayloadsReady iteration early.
func (p *Producer) Err() error { return p.err }

func (p *Producer) earliestIndex() (Index, error) {
	if len(p.stream) == 0 {
		return 0, ErrOutOfRange
	}
	return p.stream[0].Index(), nil
}

func (p *Producer) latestIndex() (Index, error) {
	if p.lastIndex != nil {
		return *p.lastIndex, nil
	}
	if len(p.stream) == 0 {
		return 0, ErrOutOfRange
	}
	return p.stream[len(p.stream)-1].Index(), nil
}

func (p *Producer) getPayload(index Index) (*Payload, error) {
	earliest, err := p.earliestIndex()
	if err != nil {
		return nil, err
	}
	latest, err := p.latestIndex()
	if err != nil {
		return nil, err
	}
	if index < earliest || index > latest {
		return nil, ErrOutOfRange
	}
	return p.stream[index-earliest], nil
}

// payloadHash returns the stabilized hash for index, computing it (and
// recursively, any unchained sources) on first access. A cached pending
// marker for index signals a cycle in the scheme's own DAG.
func (p *Producer) payloadHash(index Index) ([]byte, error) {
	if st, ok := p.hashes[index]; ok {
		if st.pending {
			return nil, fmt.Errorf("%w: cyclic source dependency at index %d", ErrSchemeError, index)
		}
		return st.hash, nil
	}

	earliest, err := p.earliestIndex()
	if err != nil {
		return nil, err
	}
	if index < earliest || (p.lastIndex != nil && index > *p.lastIndex) {
		return nil, ErrOutOfRange
	}
	latest, err := p.latestIndex()
	if err != nil {
		return nil, err
	}
	if index > latest {
		return nil, errPending
	}

	p.hashes[index] = producerHashState{pending: true}
	h, err := p.computePayloadHash(index)
	if err != nil {
		delete(p.hashes, index)
		return nil, err
	}
	p.hashes[index] = producerHashState{hash: h}
	return h, nil
}

func (p *Producer) computePayloadHash(index Index) ([]byte, error) {
	payload, err := p.getPayload(index)
	if err != nil {
		return nil, err
	}

	var lastPtr *Index
	if p.lastIndex != nil {
		v := *p.lastIndex
		lastPtr = &v
	}
	zero := Index(0)

	incomplete := false
	for _, src := range p.scheme.Sources(index, &zero, lastPtr) {
		if payload.Tag.GetChainedHash(src) != nil {
			continue
		}
		h, err := p.payloadHash(src)
		if err != nil {
			if errors.Is(err, errPending) {
				incomplete = true
				continue
			}
			return nil, err
		}
		if err := payload.Tag.ChainPayloadHash(src, h); err != nil {
			return nil, err
		}
	}
	if incomplete {
		return nil, errPending
	}
	return payload.Hash(), nil
}

// expireOldState drops cached hashes no scheme's InWriteWindow still
// needs, or all of them once the stream has been shut down.
func (p *Producer) expireOldState() {
	if p.lastIndex != nil {
		p.hashes = make(map[Index]producerHashState)
		return
	}
	latest, err := p.latestIndex()
	if err != nil {
		return
	}
	for idx := range p.hashes {
		if !p.scheme.InWriteWindow(idx, latest) {
			delete(p.hashes, idx)
		}
	}
}

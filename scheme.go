package alta

import (
	"fmt"
	"sort"
)

// Index identifies a payload's position in a stream. The wire encoding
// is an unsigned 32-bit big-endian integer (authtag.go); Index is kept
// signed internally so offset arithmetic against neighboring indices
// never has to worry about underflow.
type Index int64

// Scheme is the pure DAG-shape contract shared by Producer and
// Consumer: which indices a payload at i must chain hashes from, which
// downstream payloads in turn chain from i, and the liveness windows
// that bound both. Scheme implementations hold no per-stream state —
// every method is a pure function of its arguments.
type Scheme interface {
	// Sources returns, in ascending order, the indices whose hashes a
	// payload at index must chain, clipped to [first, last] when those
	// bounds are non-nil.
	Sources(index Index, first, last *Index) []Index

	// Destinations returns the indices that chain a hash from index,
	// clipped to [first, last] when those bounds are non-nil.
	Destinations(index Index, first, last *Index) []Index

	// IsReady reports whether a payload at wantSendIndex has received
	// every chained hash it will ever receive, given the current
	// latest pushed index.
	IsReady(wantSendIndex, latestIndex Index) bool

	// InWriteWindow reports whether queryIndex's hash is still needed
	// to compute some future payload's hash, given the current latest
	// pushed index.
	InWriteWindow(queryIndex, latestIndex Index) bool
}

// AugmentedScheme is the Golle–Modadugu augmented scheme: strength a
// controls how many redundant long-range chains protect each payload,
// and period p controls how densely those chains are spaced.
type AugmentedScheme struct {
	a, p     Index
	doffsets [][]Index // doffsets[i % p] = offsets of payloads that chain from i
	soffsets [][]Index // soffsets[i % p] = offsets of payloads i chains from
}

// NewAugmentedScheme constructs the scheme for strength a (>= 1) and
// period p (1, 2, or any odd integer >= 3).
func NewAugmentedScheme(a, p Index) (*AugmentedScheme, error) {
	if a < 1 {
		return nil, fmt.Errorf("%w: strength a must be >= 1, got %d", ErrInvalidParameter, a)
	}
	s := &AugmentedScheme{a: a, p: p}
	if err := s.constructDoffsets(); err != nil {
		return nil, err
	}
	s.computeSoffsets()
	return s, nil
}

func (s *AugmentedScheme) constructDoffsets() error {
	switch {
	case s.p == 1:
		s.doffsets = [][]Index{{1, s.a}}
	case s.p == 2:
		s.doffsets = [][]Index{{2, 2 * s.a}, {-1, 1}}
	case s.p >= 3 && s.p%2 == 1:
		ap := newAugmentedPeriod()
		for i := Index(0); i < (s.p-1)/2; i++ {
			ap.augment()
		}
		s.doffsets = make([][]Index, 0, s.p)
		s.doffsets = append(s.doffsets, []Index{s.p, s.p * s.a})
		for _, offs := range ap.flattenInteriorOffsets() {
			row := make([]Index, len(offs))
			for i, o := range offs {
				row[i] = Index(o)
			}
			s.doffsets = append(s.doffsets, row)
		}
	default:
		return fmt.Errorf("%w: period p must be 1, 2, or odd and >= 3, got %d", ErrInvalidParameter, s.p)
	}
	return nil
}

// computeSoffsets inverts doffsets: if residue r's template chains an
// offset o (landing on residue (r+o) mod p), then residue (r+o) mod p is
// in turn a source for residue r at offset -o.
func (s *AugmentedScheme) computeSoffsets() {
	s.soffsets = make([][]Index, len(s.doffsets))
	for r, offs := range s.doffsets {
		for _, o := range offs {
			target := mod(Index(r)+o, s.p)
			s.soffsets[target] = append(s.soffsets[target], -o)
		}
	}
}

func mod(v, m Index) Index {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

func clipIndices(values []Index, first, last *Index) []Index {
	out := make([]Index, 0, len(values))
	for _, v := range values {
		if first != nil && v < *first {
			continue
		}
		if last != nil && v > *last {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Sources implements Scheme.
func (s *AugmentedScheme) Sources(index Index, first, last *Index) []Index {
	r := mod(index, s.p)
	raw := make([]Index, len(s.soffsets[r]))
	for i, o := range s.soffsets[r] {
		raw[i] = index + o
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i] < raw[j] })
	return clipIndices(raw, first, last)
}

// Destinations implements Scheme.
func (s *AugmentedScheme) Destinations(index Index, first, last *Index) []Index {
	r := mod(index, s.p)
	raw := make([]Index, len(s.doffsets[r]))
	for i, o := range s.doffsets[r] {
		raw[i] = index + o
	}
	return clipIndices(raw, first, last)
}

// IsReady implements Scheme: a payload p-1 indices behind the latest
// pushed index has accumulated every hash it will ever chain.
func (s *AugmentedScheme) IsReady(wantSendIndex, latestIndex Index) bool {
	return latestIndex-wantSendIndex >= s.p-1
}

// InWriteWindow implements Scheme: a payload's hash is still needed for
// up to a*p indices after it was pushed.
func (s *AugmentedScheme) InWriteWindow(queryIndex, latestIndex Index) bool {
	return latestIndex-queryIndex <= s.a*s.p
}

// apNode is one node of an in-progress augmented period, addressed by
// its position in augmentedPeriod.nodes rather than by pointer — this
// mirrors the recursive pred/edges structure the augment step builds
// while staying free of cyclic Go pointers.
type apNode struct {
	predIdx int // arena index of predecessor, -1 for the root
	edges   []int
	idx     int // template-local index, assigned by flatten
}

// augmentedPeriod builds one period's interior chaining structure by
// repeatedly bisecting the gap between two fixed endpoints A and B.
// Grounded on the AugmentedPeriod class: A is always arena index 0, B
// is always arena index 1; every augment() call inserts two new nodes
// between the current insertion point and its predecessor.
type augmentedPeriod struct {
	nodes      []apNode
	nextInsert int
}

func newAugmentedPeriod() *augmentedPeriod {
	return &augmentedPeriod{
		nodes: []apNode{
			{predIdx: -1},
			{predIdx: 0},
		},
		nextInsert: 1,
	}
}

func (ap *augmentedPeriod) augment() {
	q := ap.nextInsert
	p := ap.nodes[q].predIdx
	n1 := len(ap.nodes)
	ap.nodes = append(ap.nodes, apNode{predIdx: p, edges: []int{p, q}})
	n2 := len(ap.nodes)
	ap.nodes = append(ap.nodes, apNode{predIdx: n1, edges: []int{n1, q}})
	ap.nodes[q].predIdx = n2
	ap.nextInsert = n2
}

// flattenInteriorOffsets assigns each node a template-local index by
// walking the predecessor chain backward from B, then returns the
// ascending-offset edge lists for every interior node (everything but
// the A and B endpoints, whose own template slot is represented by the
// scheme's prepended long-range entry instead).
func (ap *augmentedPeriod) flattenInteriorOffsets() [][]int {
	count := len(ap.nodes)
	order := make([]int, count)
	idx := count - 1
	for n := 1; n != -1; n = ap.nodes[n].predIdx {
		ap.nodes[n].idx = idx
		order[idx] = n
		idx--
	}
	out := make([][]int, 0, count-2)
	for t := 1; t < count-1; t++ {
		n := ap.nodes[order[t]]
		offs := make([]int, len(n.edges))
		for i, e := range n.edges {
			offs[i] = ap.nodes[e].idx - n.idx
		}
		sort.Ints(offs)
		out = append(out, offs)
	}
	return out
}

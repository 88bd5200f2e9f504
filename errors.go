package alta

import "errors"

// Sentinel errors returned by producers, consumers, schemes, and the
// wire codec. Callers should compare with errors.Is; wrapped context
// (offending index, offset, etc.) is added with fmt.Errorf's %w verb.
var (
	// ErrOutOfOrder is returned by Producer.PushPayload when a payload's
	// index does not equal the next expected index.
	ErrOutOfOrder = errors.New("alta: payload pushed out of order")

	// ErrOutOfRange is returned when an index falls outside the
	// currently live window of a producer.
	ErrOutOfRange = errors.New("alta: index outside live window")

	// ErrSchemeError is returned when a scheme's DAG shape cannot be
	// satisfied — most commonly a cyclic dependency.
	ErrSchemeError = errors.New("alta: scheme invariant violated")

	// ErrOverwriteHash is returned when a chained hash entry for the
	// same source index is written twice.
	ErrOverwriteHash = errors.New("alta: duplicate chained source index")

	// ErrBadSignature is returned when a trailing signature does not
	// verify against the stripped payload.
	ErrBadSignature = errors.New("alta: signature verification failed")

	// ErrTruncatedInput is returned by the wire codec when fewer bytes
	// are available than a field declares it needs.
	ErrTruncatedInput = errors.New("alta: truncated wire input")

	// ErrInvalidParameter is returned at construction time for scheme
	// parameters, keys, or tag fields that cannot be represented on
	// the wire.
	ErrInvalidParameter = errors.New("alta: invalid parameter")

	// ErrHashMismatch names the condition that EventHashMismatch
	// reports: a received payload's own hash disagrees with an
	// already-verified hash for its index. It is not an error callers
	// must stop on; no function returns it, and the Consumer's
	// EventHashMismatch events carry no Err.
	ErrHashMismatch = errors.New("alta: received hash does not match verified hash")
)

// errPending is the internal signal that a hash cannot yet be computed
// because a source payload has not arrived. It never escapes Producer's
// exported methods.
var errPending = errors.New("alta: hash pending")

// EventKind classifies a diagnostic Event raised by a Consumer.
type EventKind int

const (
	// EventHashMismatch fires when a payload's hash disagrees with an
	// already-verified hash recorded for its index — either the first
	// payload at that index was wrong, or a later duplicate is.
	EventHashMismatch EventKind = iota
	// EventBadSignature fires when Consumer.DecodePayload rejects a
	// signed payload whose signature fails to verify.
	EventBadSignature
)

// String renders the event kind for logging.
func (k EventKind) String() string {
	switch k {
	case EventHashMismatch:
		return "hash_mismatch"
	case EventBadSignature:
		return "bad_signature"
	default:
		return "unknown"
	}
}

// Event is a diagnostic notification a Consumer raises for conditions
// that are not fatal to the stream but that callers may want to
// observe, count, or alert on.
type Event struct {
	Kind  EventKind
	Index Index
	Err   error
}

// EventSink receives Events as a Consumer processes payloads. A nil
// sink is valid and simply discards events.
type EventSink func(Event)

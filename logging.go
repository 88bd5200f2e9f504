package alta

import "github.com/rs/zerolog"

// NewZerologSink adapts a zerolog.Logger into an EventSink, logging
// each Consumer event at warn level with its index and kind. Hash
// mismatches and bad signatures are not fatal to a stream, but an
// operator watching a log for them can catch a misbehaving peer or a
// misconfigured profile early.
func NewZerologSink(logger zerolog.Logger) EventSink {
	return func(e Event) {
		ev := logger.Warn().Str("event", e.Kind.String()).Int64("index", int64(e.Index))
		if e.Err != nil {
			ev = ev.Err(e.Err)
		}
		ev.Msg("alta: consumer event")
	}
}

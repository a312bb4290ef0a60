package markup

import "iter"

// Stream is a lazy, single-pass, forward-only sequence of events.
// A stream is not restartable; consumers that need look-back must
// buffer explicitly (see Buffer).
//
// Streams carry errors in-band: a producer that fails yields a zero
// event together with a non-nil error and then stops. Transformers
// must pass such a pair through unchanged and stop as well, so the
// error reaches the outermost consumer exactly once.
type Stream = iter.Seq2[Event, error]

// EmptyStream returns a stream that yields nothing.
func EmptyStream() Stream {
	return func(yield func(Event, error) bool) {}
}

// StreamOf returns a stream replaying the given events.
func StreamOf(events ...Event) Stream {
	return func(yield func(Event, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// FailedStream returns a stream that immediately reports err.
func FailedStream(err error) Stream {
	return func(yield func(Event, error) bool) {
		yield(Event{}, err)
	}
}

// Drain consumes a stream into a slice, or returns the first error the
// stream reports.
func Drain(s Stream) ([]Event, error) {
	var events []Event
	for ev, err := range s {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Concat chains streams end to end.
func Concat(streams ...Stream) Stream {
	return func(yield func(Event, error) bool) {
		for _, s := range streams {
			for ev, err := range s {
				if !yield(ev, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// Balanced reports whether the events form a well-formed linearization:
// every Start has a matching End at the same depth and the depth never
// goes negative.
func Balanced(events []Event) bool {
	depth := 0
	for _, ev := range events {
		switch ev.Kind {
		case Start:
			depth++
		case End:
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return depth == 0
}

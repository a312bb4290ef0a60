package markup

// Buffer accumulates events so they can be replayed. It exists for
// operations that must look at a subtree more than once, like the
// select() function bound inside match-template bodies.
//
// A Buffer is owned by the operation that materializes it and must be
// fully populated before Replay is called.
type Buffer struct {
	events []Event
}

// NewBuffer returns a buffer pre-filled with the given events.
func NewBuffer(events ...Event) *Buffer {
	return &Buffer{events: events}
}

// Append adds an event to the end of the buffer.
func (b *Buffer) Append(ev Event) {
	b.events = append(b.events, ev)
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Events exposes the buffered events. The returned slice is the
// buffer's backing store; callers must not modify it.
func (b *Buffer) Events() []Event {
	return b.events
}

// Replay returns a fresh stream over the buffered events. Unlike most
// streams, Replay may be called any number of times.
func (b *Buffer) Replay() Stream {
	return StreamOf(b.events...)
}

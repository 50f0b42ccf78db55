package devtools

import (
	"slices"
	"sync"
)

// Sink receives store events. Emit is called on the store's loop and must not
// block.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Buffer keeps the most recent events in memory.
type Buffer struct {
	mu     sync.Mutex
	events []Event

	// 0 means unbounded
	limit int
}

func NewBuffer(limit int) *Buffer {
	return &Buffer{limit: limit}
}

func (b *Buffer) Emit(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, e)
	if b.limit > 0 && len(b.events) > b.limit {
		b.events = slices.Delete(b.events, 0, len(b.events)-b.limit)
	}
}

// Events returns a copy of the buffered events, oldest first.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.events)
}

// Take returns the buffered events and empties the buffer.
func (b *Buffer) Take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.events
	b.events = nil
	return events
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.events)
}

// Multi fans events out to several sinks.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

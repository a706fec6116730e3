package refresh

// Slot is a single-value channel where a new value replaces an unread one.
// Receivers always see the most recent publication; intermediate values
// may be dropped.
type Slot[T any] struct {
	ch chan T
}

// NewSlot creates an empty slot
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ch: make(chan T, 1)}
}

// Publish stores v, discarding any value not yet received. Never blocks.
func (s *Slot[T]) Publish(v T) {
	for {
		select {
		case s.ch <- v:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// C returns the receive side of the slot
func (s *Slot[T]) C() <-chan T {
	return s.ch
}

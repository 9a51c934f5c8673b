package trigger

// Waker is a coalescing one-slot signal. Any number of Wake calls while the
// signal is pending collapse into a single wakeup.
type Waker struct {
	ch chan struct{}
}

// NewWaker constructs an empty waker.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake signals the waker. Returns false when a wakeup was already pending.
func (w *Waker) Wake() bool {
	select {
	case w.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// C returns the wakeup channel.
func (w *Waker) C() <-chan struct{} {
	return w.ch
}

package chanmux

import "sync"

// Lock is a plain mutex shared between the receiver pump and the sender
// pump of a Session. It serialises listener-registration mutations with
// admin operations and guards the sender task queue; it is distinct from a
// channel's own queue mutex, which protects only that channel's FIFO.
type Lock struct {
	mu sync.Mutex
}

// NewLock allocates a fresh Lock.
func NewLock() *Lock {
	return &Lock{}
}

// Lock acquires the mutex.
func (l *Lock) Lock() {
	l.mu.Lock()
}

// Unlock releases the mutex.
func (l *Lock) Unlock() {
	l.mu.Unlock()
}

// SameAs reports whether l and other are the same Lock instance. The
// receiver pump and sender pump of a Session must share one Lock; channel
// construction asserts this by identity, mirroring the original source's
// assert(rcver->getlock() == snder->getlock()).
func (l *Lock) SameAs(other *Lock) bool {
	return l == other
}

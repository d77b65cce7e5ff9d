package cart

import "sync"

// lineLocks serializes mutations per cart line so a double-clicked "+"
// cannot race itself on the server. Different lines proceed in parallel.
type lineLocks struct {
	mu    sync.Mutex
	locks map[string]*lineLock
}

type lineLock struct {
	mu   sync.Mutex
	refs int
}

func (l *lineLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*lineLock)
	}
	ll, ok := l.locks[id]
	if !ok {
		ll = &lineLock{}
		l.locks[id] = ll
	}
	ll.refs++
	l.mu.Unlock()

	ll.mu.Lock()
	return func() {
		ll.mu.Unlock()

		l.mu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

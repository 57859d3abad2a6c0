package session

import "sync"

// gameLocks hands out one mutex per game ID. Entries are reference counted
// and dropped when the last holder unlocks.
type gameLocks struct {
	mu    sync.Mutex
	locks map[int]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func (l *gameLocks) lock(id int) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int]*gameLock)
	}
	gl, ok := l.locks[id]
	if !ok {
		gl = &gameLock{}
		l.locks[id] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()
	return func() {
		gl.mu.Unlock()
		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

package session

import "sync"

// keyedLocks serializes operations per session id. Every manager operation
// is a read-modify-write cycle against the store; without this, two
// concurrent AddMessage calls on the same session would both read the same
// prior state and the second write would silently drop a message.
//
// Entries are reference-counted so the table does not grow with the number
// of sessions ever seen, only with the number currently being operated on.
type keyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	refs int
	mu   sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{entries: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key, creating it on first use.
func (l *keyedLocks) Lock(key string) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key and drops the entry once nobody is
// waiting on it.
func (l *keyedLocks) Unlock(key string) {
	l.mu.Lock()
	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

package rooms

import "sync"

// roomLocks serializes read-decide-write sequences per room id. Entries are
// reference-counted so the map does not grow with every room ever seen.
type roomLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{entries: make(map[int64]*lockEntry)}
}

// lock blocks until the per-room lock is held and returns the release func.
func (l *roomLocks) lock(roomID int64) func() {
	l.mu.Lock()
	entry, ok := l.entries[roomID]
	if !ok {
		entry = &lockEntry{}
		l.entries[roomID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, roomID)
		}
		l.mu.Unlock()
	}
}

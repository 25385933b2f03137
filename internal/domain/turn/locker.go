package turn

import (
	"fmt"
	"sync"
)

// contextLocker serializes turns per (project, stage) pair. Concurrent turns
// against the same context would interleave remote message order
// unpredictably, so each ExecuteTurn holds the pair's lock end to end.
type contextLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newContextLocker() *contextLocker {
	return &contextLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire blocks until the pair's lock is held and returns its release func.
func (l *contextLocker) acquire(projectID string, stage int) func() {
	key := fmt.Sprintf("%s/%d", projectID, stage)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

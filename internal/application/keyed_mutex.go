package application

import (
	"sort"
	"sync"
)

// keyedMutex serializes mutations per logical key so the conflict detector's
// read-then-decide sequence stays atomic with the write it guards. Locks are
// acquired in sorted key order, which keeps multi-key acquisitions (a
// reschedule touching two building-dates) deadlock free.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires every distinct key and returns the matching release function.
// The release must run on all exit paths; callers defer it immediately.
func (m *keyedMutex) Lock(keys ...string) func() {
	distinct := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, key)
	}
	sort.Strings(distinct)

	acquired := make([]*keyedLock, 0, len(distinct))
	for _, key := range distinct {
		lock := m.retain(key)
		lock.mu.Lock()
		acquired = append(acquired, lock)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()
		}
		for _, key := range distinct {
			m.release(key)
		}
	}
}

func (m *keyedMutex) retain(key string) *keyedLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &keyedLock{}
		m.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (m *keyedMutex) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs <= 0 {
		delete(m.locks, key)
	}
}

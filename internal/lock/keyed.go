// Package lock provides in-process mutual exclusion scoped by string key.
// The clock service serializes each (user, facility) pair with it so that
// two near-simultaneous requests cannot both validate against stale status.
package lock

import "sync"

// Keyed hands out one mutex per key. Entries are reference-counted and
// removed once the last holder releases, so the map tracks only keys
// with an active or waiting locker.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key and returns its release function.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

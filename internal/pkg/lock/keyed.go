// Package lock provides per-key mutual exclusion.
//
// Every phase or active-set operation is a read-modify-write over a single
// workshop row. Operations on different workshops must not contend, so a
// single process-wide mutex is out; instead each workshop ID maps to its own
// mutex, created on first use and reference-counted so that idle entries are
// released instead of accumulating for the life of the process.
package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed serializes critical sections per key. The zero value is not usable;
// construct with NewKeyed.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewKeyed creates an empty keyed lock set.
func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *Keyed) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not held panics,
// matching sync.Mutex semantics.
func (k *Keyed) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("lock: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Do runs fn while holding the mutex for key.
func (k *Keyed) Do(key string, fn func() error) error {
	k.Lock(key)
	defer k.Unlock(key)
	return fn()
}

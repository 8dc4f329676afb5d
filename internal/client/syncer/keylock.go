package syncer

import (
	"fmt"
	"sync"
)

// keyMutex serializes work per (game, filename) key so that no second
// decision starts for a file before the prior transfer has finished.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*lockEntry)}
}

func fileKey(gameID int64, filename string) string {
	return fmt.Sprintf("%d/%s", gameID, filename)
}

// Lock blocks until the key is free and returns its unlock func.
func (k *keyMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
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

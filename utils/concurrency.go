package utils

import "sync"

// KeyedMutex serializes work per key. The reconciler uses one per entity
// kind so that no two reconciliations interleave on the same identity.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int]*sync.Mutex)}
}

// Lock acquires the mutex for a key, creating it on first use. Locks are
// kept for the lifetime of the table; the key space is bounded by the set of
// tracked entities.
func (k *KeyedMutex) Lock(key int) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()
	lock.Lock()
}

func (k *KeyedMutex) Unlock(key int) {
	k.mu.Lock()
	lock := k.locks[key]
	k.mu.Unlock()
	if lock != nil {
		lock.Unlock()
	}
}

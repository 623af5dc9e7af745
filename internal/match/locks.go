package match

import "sync"

// KeyedMutex serializes mutations per (matchID, teamID) scope. Two referee
// devices checking players into the same team at once take turns; different
// teams and different matches proceed independently.
//
// Callers must not hold the lock across a Scoring Gateway call: capture the
// inputs, release, score, re-acquire for the final state transition.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	matchID string
	teamID  string
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[lockKey]*sync.Mutex)}
}

// Lock acquires the mutex for one match-team scope and returns its unlock
// function.
func (k *KeyedMutex) Lock(matchID, teamID string) func() {
	k.mu.Lock()
	key := lockKey{matchID, teamID}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the mutex for an archived match-team scope.
func (k *KeyedMutex) Forget(matchID, teamID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.locks, lockKey{matchID, teamID})
}

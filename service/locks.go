package service

import (
	"sync"
)

type keyedLock struct {
	lock sync.Mutex
	refs int
}

// KeyedMutex serializes work per key and forgets keys nobody holds.
type KeyedMutex struct {
	lock  *sync.Mutex
	locks map[string]*keyedLock
}

func NewKeyedMutex() KeyedMutex {
	return KeyedMutex{
		lock:  &sync.Mutex{},
		locks: make(map[string]*keyedLock),
	}
}

// Lock blocks until the key is free and returns the unlock function.
func (m KeyedMutex) Lock(key string) func() {
	m.lock.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.lock.Unlock()

	l.lock.Lock()
	return func() {
		l.lock.Unlock()

		m.lock.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.lock.Unlock()
	}
}

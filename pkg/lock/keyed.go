package lock

import (
	"context"
	"sync"
)

type keyLock struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker with one mutex per key.
// Entries are dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (m *KeyedMutex) ref(key string) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	return l
}

func (m *KeyedMutex) unref(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

func (m *KeyedMutex) lockOne(ctx context.Context, key string) (Release, error) {
	l := m.ref(key)
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			m.unref(key, l)
		})
	}, nil
}

// Acquire implements Locker
func (m *KeyedMutex) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = sortedKeys(keys)
	held := make([]Release, 0, len(keys))
	for _, key := range keys {
		release, err := m.lockOne(ctx, key)
		if err != nil {
			releaseAll(held)()
			return nil, err
		}
		held = append(held, release)
	}
	return releaseAll(held), nil
}

// TryAcquire implements Locker
func (m *KeyedMutex) TryAcquire(_ context.Context, key string) (Release, error) {
	l := m.ref(key)
	select {
	case l.sem <- struct{}{}:
	default:
		m.unref(key, l)
		return nil, ErrNotObtained
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			m.unref(key, l)
		})
	}, nil
}

// Len reports how many keys are currently tracked
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

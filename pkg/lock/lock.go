package lock

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotObtained is returned by TryAcquire when the key is already held
var ErrNotObtained = errors.New("lock: not obtained")

// Release frees the keys taken by an acquire call. It is safe to call more than once.
type Release func()

// Locker provides mutual exclusion scoped by key
type Locker interface {
	// Acquire blocks until every key is held or ctx is done. Keys are taken
	// in sorted order so callers locking overlapping sets cannot deadlock.
	Acquire(ctx context.Context, keys ...string) (Release, error)
	// TryAcquire takes key only if it is free right now
	TryAcquire(ctx context.Context, key string) (Release, error)
}

// sortedKeys returns the distinct keys in lock order
func sortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func releaseAll(releases []Release) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
		})
	}
}

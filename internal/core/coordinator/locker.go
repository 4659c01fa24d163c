package coordinator

import (
	"context"
	"sort"
	"sync"
)

// lockEntry is a mutex that can be waited on with a context. Holding the
// single token in ch means holding the lock; refs counts holders and waiters.
type lockEntry struct {
	ch   chan struct{}
	refs int
}

// keyedLocker hands out exclusive access per account id. Entries live only
// while someone holds or waits for them.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*lockEntry)}
}

// acquire locks every key in ascending order and returns a function that
// releases them in reverse order. On error nothing remains held.
func (l *keyedLocker) acquire(ctx context.Context, keys []string) (func(), error) {
	ordered := sortedUnique(keys)
	held := make([]string, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, key := range ordered {
		if err := l.lock(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func (l *keyedLocker) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.dropRef(key, entry)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *keyedLocker) unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		return
	}
	<-entry.ch
	l.dropRef(key, entry)
}

// dropRef must be called with l.mu held.
func (l *keyedLocker) dropRef(key string, entry *lockEntry) {
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// size returns the number of live entries.
func (l *keyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

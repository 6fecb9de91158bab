package ledger

import (
	"sort"
	"sync"
)

// walletLocks serializes work per user id. Entries are reference counted so
// the map only holds ids that are currently locked or waited on.
type walletLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{entries: make(map[string]*lockEntry)}
}

// Lock acquires the locks of every non-empty id in ascending id order, which
// keeps two multi-user operations from deadlocking. The returned func
// releases them.
func (l *walletLocks) Lock(ids ...string) func() {
	keys := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, id)
	}
	sort.Strings(keys)

	held := make([]*lockEntry, 0, len(keys))
	for _, k := range keys {
		e := l.acquire(k)
		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(keys[i])
		}
	}
}

func (l *walletLocks) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *walletLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *walletLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

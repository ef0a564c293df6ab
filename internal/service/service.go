// Package service contains the business rules for resource assignment,
// lunch balancing, overrides, conflict analysis, and recommendations.
package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"
)

// txProvider starts database transactions. *sqlx.DB satisfies it.
type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// keyedMutex serializes work per string key. Entries are created lazily and
// never removed; the key space (waves, slots, courses) is small and bounded.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for one key.
func (k *keyedMutex) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// LockPair acquires two key mutexes in ascending key order so that
// concurrent cross-key moves cannot deadlock. Equal keys lock once.
func (k *keyedMutex) LockPair(a, b string) func() {
	if a == b {
		return k.Lock(a)
	}
	keys := []string{a, b}
	sort.Strings(keys)
	first := k.get(keys[0])
	second := k.get(keys[1])
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

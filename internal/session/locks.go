// Package session serializes work per challenge account.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var ErrTimeout = errors.New("timed out waiting for account lock")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locks hands out one exclusive lock per key. Entries are dropped once nobody holds or
// waits for them, so the map only grows with concurrently active keys.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

func NewLocks(timeout time.Duration) *Locks {
	return &Locks{entries: make(map[string]*entry), timeout: timeout}
}

// Acquire blocks until key is free, ctx is done or the configured timeout elapses.
// The returned func releases the lock and is safe to call more than once.
func (l *Locks) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.ref(key)
	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		l.unref(key, e)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTimeout
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(key, e)
		})
	}, nil
}

// WithLock runs fn while holding key.
func (l *Locks) WithLock(ctx context.Context, key string, fn func() error) error {
	release, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (l *Locks) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locks) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

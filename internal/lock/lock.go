// Package lock serializes processing runs per subject.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked is returned when a lock could not be acquired within the wait budget
var ErrLocked = errors.New("subject is locked by another run")

// Locker hands out exclusive locks by key. The returned unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MemoryLocker is an in-process keyed mutex
type MemoryLocker struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a locker that waits up to wait for a busy key. A zero wait fails
// immediately when the key is held.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		wait:  wait,
		locks: make(map[string]*entry),
	}
}

// Lock acquires the lock for key
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)

	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), nil
	default:
	}

	if l.wait <= 0 {
		l.releaseEntry(key, e)
		return nil, ErrLocked
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return l.unlocker(key, e), nil
	case <-timer.C:
		l.releaseEntry(key, e)
		return nil, ErrLocked
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) unlocker(key string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(key, e)
		})
	}
}

func (l *MemoryLocker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many keys currently have holders or waiters
func (l *MemoryLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

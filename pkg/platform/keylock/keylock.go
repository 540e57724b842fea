// Package keylock provides per-key mutual exclusion with a bounded wait.
//
// Every engine operation that reads-then-writes state identified by a key holds
// the key's lock for the duration of the read-modify-write. Operations touching
// two keys acquire both in ascending key order so concurrent opposite-direction
// operations cannot deadlock. A lock that cannot be acquired within the
// manager's wait budget surfaces as a contention error the caller may retry.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	derrors "civica/pkg/domain-errors"
)

var errHeld = errors.New("lock held")

const pollInterval = 5 * time.Millisecond

// Manager hands out refcounted per-key mutexes. Unrelated keys never contend.
type Manager struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New constructs a Manager with the given total wait budget per acquisition.
func New(wait time.Duration) *Manager {
	return &Manager{
		wait:  wait,
		locks: make(map[string]*entry),
	}
}

// Acquire takes the lock for key, waiting up to the manager's budget. The
// returned release function must be called exactly once.
func (m *Manager) Acquire(ctx context.Context, key string) (func(), error) {
	e := m.retain(key)

	backoff := retry.WithMaxDuration(m.wait, retry.NewConstant(pollInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if e.mu.TryLock() {
			return nil
		}
		return retry.RetryableError(errHeld)
	})
	if err != nil {
		m.release(key)
		return nil, derrors.Newf(derrors.CodeContention, "lock on %s is contended", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.release(key)
		})
	}, nil
}

// AcquirePair takes both locks in ascending key order. Passing the same key
// twice degrades to a single Acquire.
func (m *Manager) AcquirePair(ctx context.Context, a, b string) (func(), error) {
	if a == b {
		return m.Acquire(ctx, a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	releaseFirst, err := m.Acquire(ctx, first)
	if err != nil {
		return nil, err
	}
	releaseSecond, err := m.Acquire(ctx, second)
	if err != nil {
		releaseFirst()
		return nil, err
	}
	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}

func (m *Manager) retain(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.locks, key)
	}
}

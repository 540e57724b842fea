package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "civica/pkg/domain-errors"
)

func TestAcquireRelease(t *testing.T) {
	ctx := context.Background()
	m := New(100 * time.Millisecond)

	release, err := m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	release()

	// Key is fully released; reacquiring succeeds immediately.
	release, err = m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	release()

	// Double release is harmless.
	release()
}

func TestContendedKeyTimesOut(t *testing.T) {
	ctx := context.Background()
	m := New(30 * time.Millisecond)

	release, err := m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	defer release()

	_, err = m.Acquire(ctx, "citizen/a")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeContention))
}

func TestUnrelatedKeysDoNotContend(t *testing.T) {
	ctx := context.Background()
	m := New(30 * time.Millisecond)

	releaseA, err := m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := m.Acquire(ctx, "citizen/b")
	require.NoError(t, err)
	releaseB()
}

func TestAcquirePairOrdering(t *testing.T) {
	ctx := context.Background()
	m := New(500 * time.Millisecond)

	// Opposite-direction pair acquisitions must not deadlock: both goroutines
	// lock in ascending key order regardless of argument order.
	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range rounds {
			release, err := m.AcquirePair(ctx, "citizen/a", "citizen/b")
			require.NoError(t, err)
			release()
		}
	}()
	go func() {
		defer wg.Done()
		for range rounds {
			release, err := m.AcquirePair(ctx, "citizen/b", "citizen/a")
			require.NoError(t, err)
			release()
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pair acquisition deadlocked")
	}
}

func TestAcquirePairSameKey(t *testing.T) {
	ctx := context.Background()
	m := New(30 * time.Millisecond)

	release, err := m.AcquirePair(ctx, "citizen/a", "citizen/a")
	require.NoError(t, err)
	release()

	// Fully released after the degenerate pair.
	release, err = m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	release()
}

func TestAcquirePairRollsBackFirstLock(t *testing.T) {
	ctx := context.Background()
	m := New(30 * time.Millisecond)

	releaseB, err := m.Acquire(ctx, "citizen/b")
	require.NoError(t, err)
	defer releaseB()

	// Pair acquisition fails on the second key and must give back the first.
	_, err = m.AcquirePair(ctx, "citizen/a", "citizen/b")
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeContention))

	releaseA, err := m.Acquire(ctx, "citizen/a")
	require.NoError(t, err)
	releaseA()
}

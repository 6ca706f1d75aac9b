package negotiation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent read-lock holders; a writer acquires the full
// weight, excluding readers and other writers.
const maxReaders = 64

// timedLock is a reader/writer lock with bounded acquisition. A timed-out
// acquisition is a hard failure rather than a hang, so a deadlocked test run
// fails fast with a diagnosable error.
type timedLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newTimedLock(timeout time.Duration) *timedLock {
	return &timedLock{
		sem:     semaphore.NewWeighted(maxReaders),
		timeout: timeout,
	}
}

func (l *timedLock) withRead(work func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: acquiring read lock", ErrTimeout)
	}
	defer l.sem.Release(1)
	work()
	return nil
}

func (l *timedLock) withWrite(work func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := l.sem.Acquire(ctx, maxReaders); err != nil {
		return fmt.Errorf("%w: acquiring write lock", ErrTimeout)
	}
	defer l.sem.Release(maxReaders)
	return work()
}

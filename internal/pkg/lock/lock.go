// Package lock provides per-user locking so that ledger mutations of the
// same user are serialized inside one process.
package lock

import (
	"context"
	"sync"
	"time"
)

// UserLock hands out one single-slot semaphore per user ID.
type UserLock struct {
	slots sync.Map // map[int64]chan struct{}
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{}
}

func (ul *UserLock) slot(userID int64) chan struct{} {
	if v, ok := ul.slots.Load(userID); ok {
		return v.(chan struct{})
	}
	actual, _ := ul.slots.LoadOrStore(userID, make(chan struct{}, 1))
	return actual.(chan struct{})
}

// Lock blocks until the user's lock is held.
func (ul *UserLock) Lock(userID int64) {
	ul.slot(userID) <- struct{}{}
}

// Unlock releases the user's lock. Unlocking an unheld lock is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	select {
	case <-ul.slot(userID):
	default:
	}
}

// TryLock acquires the lock without blocking and reports success.
func (ul *UserLock) TryLock(userID int64) bool {
	select {
	case ul.slot(userID) <- struct{}{}:
		return true
	default:
		return false
	}
}

// LockWithTimeout waits at most timeout (or until ctx is done) for the lock.
func (ul *UserLock) LockWithTimeout(ctx context.Context, userID int64, timeout time.Duration) error {
	if ul.TryLock(userID) {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case ul.slot(userID) <- struct{}{}:
		return nil
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLockTimeout
	}
}

// WithLockContext executes fn while holding the user's lock, giving up with
// ErrLockTimeout when the lock is not acquired within timeout.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	if err := ul.LockWithTimeout(ctx, userID, timeout); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

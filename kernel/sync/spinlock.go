// Package sync provides the spinlock used to serialize access to kernel
// structures before a scheduler exists.
package sync

import "sync/atomic"

// spinsBeforeYield is the number of failed acquisition attempts after which
// a waiter invokes yieldFn.
const spinsBeforeYield = 64

var (
	// yieldFn is invoked by waiters that keep losing the race for a lock.
	// It stays nil on bare metal where only the boot core runs.
	yieldFn func()
)

// Spinlock is a lock where each task trying to acquire it busy-waits until
// the lock becomes available. The zero value is an unlocked Spinlock.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock is held by the caller. Re-acquiring a lock
// already held by the caller deadlocks.
func (l *Spinlock) Acquire() {
	acquireSpinlock(&l.state, spinsBeforeYield)
}

// TryToAcquire attempts to acquire the lock without blocking and reports
// whether it succeeded.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.state, 0, 1)
}

// Release relinquishes a held lock. Releasing a free lock has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

func acquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	for attempts := uint32(0); ; attempts++ {
		if atomic.LoadUint32(state) == 0 && atomic.CompareAndSwapUint32(state, 0, 1) {
			return
		}

		if attempts >= attemptsBeforeYielding {
			attempts = 0
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}

package lockstep

import (
	"sync/atomic"

	"github.com/lockstep-go/lockstep/internal/opt"
)

// SpinLock is a busy-wait mutual-exclusion lock built on a single
// atomic test-and-set flag.
//
// Unlike sync.Mutex, a contended Lock never parks the goroutine on a
// runtime semaphore; waiters spin (with adaptive backoff) until the
// holder releases. That makes it suitable only for very short critical
// sections touching a few fields.
//
// Trade-offs:
//   - Pros: No allocation, 4 bytes, zero-value usable, no scheduler
//     interaction on the uncontended path.
//   - Cons: No queueing and no fairness. Under contention any waiter may
//     win; starvation is possible and accepted. Long critical sections
//     burn CPU in every waiter.
//
// The zero value is an unlocked SpinLock. It must not be copied after
// first use.
type SpinLock struct {
	_ noCopy
	// state is 0 when free, 1 when held.
	state atomic.Uint32
}

// TryLock attempts to acquire the lock without blocking.
// It performs exactly one test-and-set; no two callers can both observe
// and flip the same free state.
//
//go:nosplit
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Lock acquires the lock, spinning until it is available.
func (l *SpinLock) Lock() {
	if l.state.CompareAndSwap(0, 1) {
		return
	}
	l.slowLock()
}

func (l *SpinLock) slowLock() {
	var spins int
	for !l.TryLock() {
		delay(&spins)
	}
}

// Unlock releases the lock.
//
// It must only be called by the current holder. Releasing a lock that is
// not held is a usage error; it is not detected in normal builds, but
// panics under the race detector.
func (l *SpinLock) Unlock() {
	if opt.Race_ {
		if l.state.Load() == 0 {
			panic("lockstep: Unlock of unlocked SpinLock")
		}
	}
	l.state.Store(0)
}

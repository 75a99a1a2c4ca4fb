package lockstep

import (
	"sync/atomic"
)

// TicketLock is a fair, FIFO (First-In-First-Out) spin lock.
//
// Unlike SpinLock, where under contention any waiter may win, TicketLock
// guarantees that goroutines acquire the lock in the exact order they
// called Lock().
//
// Implementation:
// The classic ticket algorithm.
//   - Lock(): takes a ticket number, spins (with the shared adaptive
//     backoff) until `serving` reaches it.
//   - Unlock(): increments `serving`, admitting the next ticket holder.
//
// Trade-offs:
//   - Pros: Strict fairness; no waiter can starve.
//   - Cons: A holder that is descheduled stalls the whole queue, so it
//     is only suitable for very short critical sections.
//
// TicketLock implements TryLocker, so it can be wrapped by NewRanked and
// used anywhere the ordered-acquisition protocol expects a lock.
type TicketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

// Lock acquires the lock, spinning until this caller's ticket is served.
func (m *TicketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for {
		if m.serving.Load() == my {
			return
		}
		delay(&spins)
	}
}

// TryLock attempts to acquire the lock without blocking.
// It succeeds only when no ticket is outstanding: taking the next ticket
// while it is already being served.
func (m *TicketLock) TryLock() bool {
	s := m.serving.Load()
	if m.next.Load() != s {
		return false
	}
	return m.next.CompareAndSwap(s, s+1)
}

// Unlock releases the lock, admitting the next waiter in FIFO order.
func (m *TicketLock) Unlock() {
	m.serving.Add(1)
}

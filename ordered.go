package lockstep

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

// TryLocker is a lock that supports a non-blocking acquisition attempt.
// SpinLock implements it, and so does sync.Mutex.
type TryLocker interface {
	sync.Locker
	TryLock() bool
}

// rankSeq hands out process-wide lock ranks. Creation order defines the
// one total order every multi-lock call site must follow.
var rankSeq atomic.Uint64

// RankedLock wraps an existing TryLocker with a rank from a global total
// order. It does not change the lock's exclusion semantics in any way;
// the rank only decides the acquisition sequence when several locks are
// taken together (see LockInOrder).
//
// Ranks are assigned once, at creation, from a monotonic sequence, so
// the order is total, deterministic, and stable for the lock's lifetime.
type RankedLock struct {
	_    noCopy
	l    TryLocker
	rank uint64
}

// NewRanked wraps l with the next rank in the global order.
func NewRanked(l TryLocker) *RankedLock {
	return &RankedLock{l: l, rank: rankSeq.Add(1)}
}

// NewRankedSpinLock creates a fresh SpinLock with the next rank in the
// global order.
func NewRankedSpinLock() *RankedLock {
	return NewRanked(new(SpinLock))
}

// Rank returns the lock's position in the global total order.
func (r *RankedLock) Rank() uint64 { return r.rank }

// Lock acquires the underlying lock.
func (r *RankedLock) Lock() { r.l.Lock() }

// TryLock attempts to acquire the underlying lock without blocking.
func (r *RankedLock) TryLock() bool { return r.l.TryLock() }

// Unlock releases the underlying lock.
func (r *RankedLock) Unlock() { r.l.Unlock() }

// LockSet is a guard handle over a set of held RankedLocks. It enforces
// the two disciplines that together make multi-lock acquisition
// deadlock-free:
//
//   - Ascending-rank acquisition (LockInOrder): every call site takes
//     its locks in the global rank order, whatever order the caller
//     listed them in. A wait-for cycle needs at least one edge that goes
//     against the total order, so order-respecting sites cannot form one.
//     Two goroutines locking the same pair in reversed argument order
//     both end up acquiring in the same rank order.
//
//   - Try-acquire with full rollback (TryReacquire): a path that wants a
//     lock it cannot take in rank order (typically one it released
//     earlier) must not block for it while holding others. It makes one
//     non-blocking attempt; on failure the handle releases everything it
//     holds before reporting, so the aborted path holds nothing and the
//     goroutine that does hold the contested lock can always make
//     progress. The caller restarts from the top (see RunOrdered).
//
// Releases are strictly LIFO: locks leave the set in the exact reverse
// of acquisition order. An out-of-order Unlock is a usage error and
// panics.
//
// A LockSet is owned by the goroutine that created it and must not be
// shared.
type LockSet struct {
	_ noCopy
	// held is in acquisition order; the tail is released first.
	held []*RankedLock
}

// LockInOrder acquires the given locks in ascending rank order,
// regardless of argument order, and returns the guard handle holding
// them. Duplicates are acquired once.
func LockInOrder(locks ...*RankedLock) *LockSet {
	sorted := slices.Clone(locks)
	slices.SortFunc(sorted, func(a, b *RankedLock) int {
		return cmp.Compare(a.rank, b.rank)
	})
	sorted = slices.Compact(sorted)

	s := &LockSet{held: make([]*RankedLock, 0, len(sorted))}
	for _, l := range sorted {
		l.Lock()
		s.held = append(s.held, l)
	}
	return s
}

// Held reports whether l is currently held by this set.
func (s *LockSet) Held(l *RankedLock) bool {
	return slices.Contains(s.held, l)
}

// Unlock releases l, which must be the most recently acquired lock still
// held by the set. Releasing any other lock violates the LIFO release
// discipline and panics.
func (s *LockSet) Unlock(l *RankedLock) {
	n := len(s.held)
	if n == 0 || s.held[n-1] != l {
		panic("lockstep: LockSet.Unlock out of reverse-acquisition order")
	}
	s.held = s.held[:n-1]
	l.Unlock()
}

// UnlockAll releases every held lock in exact reverse acquisition order.
// It is a no-op on an empty set, so it is safe to call after a
// TryReacquire rollback or a second time.
func (s *LockSet) UnlockAll() {
	for i := len(s.held) - 1; i >= 0; i-- {
		s.held[i].Unlock()
	}
	s.held = s.held[:0]
}

// TryReacquire makes one non-blocking attempt to take l, which the
// caller needs out of rank order. On success l joins the held set (as
// the newest lock) and TryReacquire returns true.
//
// On failure it rolls back completely: every lock the set holds is
// released, in reverse order, before it returns false. The caller must
// treat the whole operation as aborted and restart it from the top —
// never retry the attempt while still holding anything.
func (s *LockSet) TryReacquire(l *RankedLock) bool {
	if s.Held(l) {
		panic("lockstep: TryReacquire of a lock already held by the set")
	}
	if l.TryLock() {
		s.held = append(s.held, l)
		return true
	}
	s.UnlockAll()
	return false
}

// RetryPolicy decides what RunOrdered does after an operation is rolled
// back by a failed TryReacquire.
type RetryPolicy uint8

const (
	// NoRetry surfaces the rolled-back attempt to the caller.
	NoRetry RetryPolicy = iota
	// RetryFromTop restarts the whole operation, with backoff, until it
	// completes without a rollback.
	RetryFromTop
)

// RunOrdered acquires locks in rank order, runs op with the guard
// handle, and releases whatever op still holds in reverse order.
//
// op reports whether it completed; it returns false after a failed
// TryReacquire (at which point the handle is already empty). With
// RetryFromTop, RunOrdered then restarts op from the top after a
// backoff; with NoRetry the false is returned to the caller.
func RunOrdered(policy RetryPolicy, op func(*LockSet) bool, locks ...*RankedLock) bool {
	var spins int
	for {
		s := LockInOrder(locks...)
		done := op(s)
		s.UnlockAll()
		if done || policy == NoRetry {
			return done
		}
		delay(&spins)
	}
}

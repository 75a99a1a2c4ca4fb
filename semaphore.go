package lockstep

// Semaphore is a counting semaphore built from a SpinLock rather than a
// runtime semaphore: Acquire spins, it never parks the goroutine.
//
// Implementation:
// The permit count is an int64 guarded by the internal SpinLock. Acquire
// loops taking the guard, and only when it observes a strictly positive
// count does it decrement and return — the positivity check and the
// decrement happen under the same guard acquisition. The count is never
// negative when observed outside a guarded section.
//
// Anti-pattern (do not do this): spinning unguarded until the count looks
// positive and then taking the guard just for the decrement lets two
// waiters both observe the same positive count and drive it negative.
// The check must not be separated from the decrement.
//
// Trade-offs:
//   - Pros: No scheduler interaction; trivially small and predictable.
//   - Cons: Waiters burn CPU while the count is zero, and there is no
//     FIFO ordering among them. Use it where waits are expected short.
type Semaphore struct {
	_  noCopy
	mu SpinLock
	// count is the number of available permits, always >= 0.
	count int64
	// capacity caps count when > 0; 0 means unbounded.
	capacity int64
}

// NewSemaphore creates a Semaphore holding initial permits.
// It panics if initial is negative.
func NewSemaphore(initial int64) *Semaphore {
	if initial < 0 {
		panic("lockstep: NewSemaphore with negative initial count")
	}
	return &Semaphore{count: initial}
}

// NewBoundedSemaphore creates a Semaphore holding initial permits whose
// count never exceeds capacity: a Release beyond capacity is clamped,
// not an error. It panics if initial is negative, capacity is not
// positive, or initial exceeds capacity.
func NewBoundedSemaphore(initial, capacity int64) *Semaphore {
	if initial < 0 {
		panic("lockstep: NewBoundedSemaphore with negative initial count")
	}
	if capacity <= 0 || initial > capacity {
		panic("lockstep: NewBoundedSemaphore with invalid capacity")
	}
	return &Semaphore{count: initial, capacity: capacity}
}

// Acquire takes one permit, spinning until one is available.
func (s *Semaphore) Acquire() {
	var spins int
	for {
		s.mu.Lock()
		if s.count > 0 {
			s.count--
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		delay(&spins)
	}
}

// TryAcquire attempts to take one permit without spinning.
// Returns true on success.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	ok := s.count > 0
	if ok {
		s.count--
	}
	s.mu.Unlock()
	return ok
}

// Release returns one permit. On a bounded semaphore the count is
// clamped at capacity.
func (s *Semaphore) Release() {
	s.mu.Lock()
	s.count++
	if s.capacity > 0 && s.count > s.capacity {
		s.count = s.capacity
	}
	s.mu.Unlock()
}

// Available returns the current permit count. The snapshot is guarded,
// so it never observes an in-progress decrement and is never negative.
func (s *Semaphore) Available() int64 {
	s.mu.Lock()
	n := s.count
	s.mu.Unlock()
	return n
}

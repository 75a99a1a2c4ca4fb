package lockstep

// Counter is an integer whose every read-modify-write sequence runs
// under an embedded SpinLock.
//
// The guard lives inside the same struct as the value it protects, so
// "take the guard before touching the value" is enforced by ownership
// rather than by convention: callers never see the raw int64.
//
// Anti-pattern (do not do this): locking around the comparison and then
// separately locking around the increment reintroduces the check-then-act
// race, because another writer can run between the two guarded regions.
// Every Counter operation therefore holds the guard across the entire
// decision-and-mutation sequence.
//
// The zero value is a Counter at 0, ready for use. It must not be copied
// after first use.
type Counter struct {
	_     noCopy
	mu    SpinLock
	value int64
}

// ConditionalIncrement increments the counter by one only if its current
// value equals expected. The comparison and the increment happen under a
// single guard acquisition, so at most one of any number of concurrent
// callers with the same expected value can fire.
func (c *Counter) ConditionalIncrement(expected int64) {
	c.mu.Lock()
	if c.value == expected {
		c.value++
	}
	c.mu.Unlock()
}

// Add applies the compound update value += delta as one guarded unit.
func (c *Counter) Add(delta int64) {
	c.mu.Lock()
	c.value += delta
	c.mu.Unlock()
}

// Load returns the current value. The read is guarded as well: an
// observed value always reflects a fully completed operation, never an
// intermediate state.
func (c *Counter) Load() int64 {
	c.mu.Lock()
	v := c.value
	c.mu.Unlock()
	return v
}

package lockstep

// CountMap is a key → count map whose check-then-act sequences run under
// an embedded SpinLock.
//
// The correctness property is that "check the key's presence, then insert
// or increment" is one indivisible guarded unit. Splitting it into a
// guarded lookup followed by a separately guarded store lets two
// concurrent writers both observe the key as absent and lose one of the
// inserts; CountMap never releases the guard between the check and the
// mutation.
//
// The zero value is an empty map, ready for use. It must not be copied
// after first use.
type CountMap[K comparable] struct {
	_ noCopy
	mu SpinLock
	m  map[K]int64
}

// Upsert inserts key with count 1 if absent, or increments its count.
// Presence check and mutation happen under one guard acquisition.
func (c *CountMap[K]) Upsert(key K) {
	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[K]int64)
	}
	if n, ok := c.m[key]; ok {
		c.m[key] = n + 1
	} else {
		c.m[key] = 1
	}
	c.mu.Unlock()
}

// Get returns the count stored for key and whether the key is present.
func (c *CountMap[K]) Get(key K) (int64, bool) {
	c.mu.Lock()
	v, ok := c.m[key]
	c.mu.Unlock()
	return v, ok
}

// Len returns the number of keys present.
func (c *CountMap[K]) Len() int {
	c.mu.Lock()
	n := len(c.m)
	c.mu.Unlock()
	return n
}

package lockstep

import (
	"github.com/llxisdsh/pb"
)

// LockGroup provides per-key exclusive locks for arbitrary comparable
// keys (string, int, struct, ...) without pre-allocating a lock per key.
//
// Features:
//   - Infinite keys: locks materialize on first use.
//   - Auto-cleanup: an entry is removed when the last holder or waiter
//     for its key lets go, so idle keys cost no memory.
//   - Ordered multi-key acquisition: every per-key lock is a RankedLock,
//     so LockKeys can take several keys at once in global rank order and
//     stay deadlock-free against any other rank-ordered call site.
//
// Usage:
//
//	var group LockGroup[string]
//	group.Lock("user-123")
//	// critical section for user-123
//	group.Unlock("user-123")
//
// Implementation Note:
// Entries are reference-counted in a concurrent map; the count covers
// holders and waiters, and the entry is deleted when it drops to zero.
type LockGroup[K comparable] struct {
	_ noCopy
	m pb.MapOf[K, *groupEntry]
}

type groupEntry struct {
	lock *RankedLock
	ref  int32
}

// entryRef pins the entry for k, creating it if needed, and returns it.
func (g *LockGroup[K]) entryRef(k K) *groupEntry {
	var e *groupEntry
	g.m.ProcessEntry(k, func(l *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
		if l != nil {
			e = l.Value
			e.ref++
			return l, e, true
		}
		e = &groupEntry{lock: NewRankedSpinLock()}
		e.ref = 1
		return &pb.EntryOf[K, *groupEntry]{Value: e}, e, false
	})
	return e
}

// entryUnref drops one reference to the entry for k, deleting it when no
// holder or waiter remains.
func (g *LockGroup[K]) entryUnref(k K) {
	g.m.ProcessEntry(k, func(l *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
		if l == nil {
			return nil, nil, false
		}
		l.Value.ref--
		if l.Value.ref <= 0 {
			return nil, nil, true
		}
		return l, nil, false
	})
}

// Lock acquires the exclusive lock for k, spinning while another
// goroutine holds it.
func (g *LockGroup[K]) Lock(k K) {
	g.entryRef(k).lock.Lock()
}

// TryLock attempts to acquire the lock for k without blocking.
// Returns true on success.
func (g *LockGroup[K]) TryLock(k K) bool {
	e := g.entryRef(k)
	if e.lock.TryLock() {
		return true
	}
	g.entryUnref(k)
	return false
}

// Unlock releases the lock for k. It must only be called by the current
// holder.
func (g *LockGroup[K]) Unlock(k K) {
	v, ok := g.m.Load(k)
	if !ok {
		return
	}
	v.lock.Unlock()
	g.entryUnref(k)
}

// LockKeys acquires the locks for every given key in global rank order
// and returns the guard handle holding them. Release through the handle:
//
//	s := group.LockKeys("a", "b")
//	defer group.UnlockKeys(s, "a", "b")
//
// Because acquisition follows the same total order as every other
// LockInOrder call site, two goroutines locking overlapping key sets in
// reversed argument order cannot deadlock.
func (g *LockGroup[K]) LockKeys(keys ...K) *LockSet {
	locks := make([]*RankedLock, 0, len(keys))
	for _, k := range keys {
		locks = append(locks, g.entryRef(k).lock)
	}
	return LockInOrder(locks...)
}

// UnlockKeys releases a handle obtained from LockKeys and drops the key
// references, deleting entries that are no longer used. keys must be the
// same set passed to LockKeys.
func (g *LockGroup[K]) UnlockKeys(s *LockSet, keys ...K) {
	s.UnlockAll()
	for _, k := range keys {
		g.entryUnref(k)
	}
}

// Len returns the number of keys with live lock entries.
func (g *LockGroup[K]) Len() int {
	return g.m.Size()
}

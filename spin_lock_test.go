package lockstep

import (
	"sync"
	"testing"
)

func TestSpinLock(t *testing.T) {
	var m SpinLock
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	var counter int64
	for range n {
		go func() {
			defer wg.Done()
			m.Lock()
			counter++
			m.Unlock()
		}()
	}
	wg.Wait()
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}

func TestSpinLock_TryLock(t *testing.T) {
	var m SpinLock
	if !m.TryLock() {
		t.Fatal("TryLock on a free lock failed")
	}
	if m.TryLock() {
		t.Fatal("TryLock on a held lock succeeded")
	}
	m.Unlock()
	if !m.TryLock() {
		t.Fatal("TryLock after Unlock failed")
	}
	m.Unlock()
}

func TestSpinLock_TryLockConcurrent(t *testing.T) {
	var m SpinLock
	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	var winners int64
	for range n {
		go func() {
			defer wg.Done()
			if m.TryLock() {
				winners++
				m.Unlock()
			} else {
				m.Lock()
				winners++
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != n {
		t.Fatalf("winners = %d, want %d", winners, n)
	}
}

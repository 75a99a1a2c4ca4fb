package lockstep

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestSemaphore_Basic(t *testing.T) {
	s := NewSemaphore(1)
	if !s.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed with one permit")
	}
	if s.TryAcquire() {
		t.Fatal("expected TryAcquire to fail with no permits")
	}
	s.Release()
	if !s.TryAcquire() {
		t.Fatal("expected TryAcquire to succeed after Release")
	}
}

func TestSemaphore_NegativeInitialPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewSemaphore(-1) to panic")
		}
	}()
	NewSemaphore(-1)
}

func TestSemaphore_SecondAcquireBlocksUntilRelease(t *testing.T) {
	s := NewSemaphore(1)
	s.Acquire()

	done := make(chan struct{})
	go func() {
		s.Acquire()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Acquire returned before Release")
	case <-time.After(50 * time.Millisecond):
		// OK, still blocked.
	}
	if n := s.Available(); n != 0 {
		t.Fatalf("available = %d, want 0", n)
	}

	s.Release()
	select {
	case <-done:
		// OK
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not return after Release")
	}
	if n := s.Available(); n != 0 {
		t.Fatalf("available = %d while a permit is held, want 0", n)
	}
}

func TestSemaphore_NeverNegative(t *testing.T) {
	s := NewSemaphore(2)
	stop := make(chan struct{})
	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			for {
				select {
				case <-stop:
					return nil
				default:
				}
				s.Acquire()
				s.Release()
			}
		})
	}
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if n := s.Available(); n < 0 {
			close(stop)
			t.Fatalf("available = %d, want >= 0", n)
		}
	}
	close(stop)
	_ = g.Wait()
	if n := s.Available(); n != 2 {
		t.Fatalf("available = %d after quiescence, want 2", n)
	}
}

func TestSemaphore_LimitsConcurrency(t *testing.T) {
	const permits = 3
	const n = 30
	s := NewSemaphore(permits)
	var inside, peak int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			s.Acquire()
			cur := atomic.AddInt64(&inside, 1)
			mu.Lock()
			if cur > peak {
				peak = cur
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&inside, -1)
			s.Release()
		}()
	}
	wg.Wait()
	if peak > permits {
		t.Fatalf("peak concurrency = %d, want <= %d", peak, permits)
	}
	if n := s.Available(); n != permits {
		t.Fatalf("available = %d, want %d", n, permits)
	}
}

func TestBoundedSemaphore_ClampsAtCapacity(t *testing.T) {
	s := NewBoundedSemaphore(1, 2)
	s.Release()
	s.Release()
	s.Release()
	if n := s.Available(); n != 2 {
		t.Fatalf("available = %d, want capacity 2", n)
	}
}

func TestBoundedSemaphore_InvalidCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected NewBoundedSemaphore(3, 2) to panic")
		}
	}()
	NewBoundedSemaphore(3, 2)
}

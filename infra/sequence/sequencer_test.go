package sequence

import (
	"sync"
	"testing"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	for want := uint64(1); want <= 100; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if s.Current() != 100 {
		t.Errorf("expected Current 100, got %d", s.Current())
	}
}

func TestSequencerStartOffset(t *testing.T) {
	s := New(500)
	if got := s.Next(); got != 501 {
		t.Errorf("expected 501, got %d", got)
	}
}

func TestSequencerConcurrentUnique(t *testing.T) {
	s := New(0)
	const goroutines = 8
	const perGoroutine = 1000

	results := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids := make([]uint64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, s.Next())
			}
			results[g] = ids
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines*perGoroutine)
	for _, ids := range results {
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("duplicate sequence %d", id)
			}
			seen[id] = true
		}
	}
	if s.Current() != goroutines*perGoroutine {
		t.Errorf("expected Current %d, got %d", goroutines*perGoroutine, s.Current())
	}
}

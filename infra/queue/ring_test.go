package queue

import (
	"runtime"
	"testing"
)

func TestRingRejectsNonPositiveCapacity(t *testing.T) {
	if _, err := New[int](0); err == nil {
		t.Error("expected error for capacity 0")
	}
	if _, err := New[int](-5); err == nil {
		t.Error("expected error for negative capacity")
	}
}

func TestRingFillDrainCycle(t *testing.T) {
	r, err := New[int](3)
	if err != nil {
		t.Fatal(err)
	}
	if r.Cap() != 3 {
		t.Fatalf("expected Cap 3, got %d", r.Cap())
	}
	if !r.IsEmpty() {
		t.Fatal("new ring must be empty")
	}

	for i := 1; i <= 3; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d should succeed", i)
		}
	}
	if r.Push(4) {
		t.Fatal("push into full ring must fail")
	}
	if r.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", r.Len())
	}

	v, ok := r.Pop()
	if !ok || v != 1 {
		t.Fatalf("expected (1,true), got (%d,%v)", v, ok)
	}
	if !r.Push(4) {
		t.Fatal("push should succeed after a pop freed a slot")
	}

	for _, want := range []int{2, 3, 4} {
		v, ok := r.Pop()
		if !ok || v != want {
			t.Fatalf("expected (%d,true), got (%d,%v)", want, v, ok)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop from empty ring must fail")
	}
	if !r.IsEmpty() {
		t.Fatal("ring should be empty after draining")
	}
}

func TestRingEmptyPopReturnsZeroValue(t *testing.T) {
	r, _ := New[string](2)
	v, ok := r.Pop()
	if ok || v != "" {
		t.Fatalf("expected zero value on empty pop, got (%q,%v)", v, ok)
	}
}

func TestRingWrapAround(t *testing.T) {
	r, _ := New[int](2)
	// Cycle enough times to wrap the indices several times over.
	for i := 0; i < 20; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("cycle %d: expected (%d,true), got (%d,%v)", i, i, v, ok)
		}
	}
}

func TestRingPopClearsSlot(t *testing.T) {
	r, _ := New[*int](1)
	x := 7
	r.Push(&x)
	r.Pop()
	// The freed slot must not pin the popped pointer.
	if r.slots[0] != nil {
		t.Error("popped slot should be zeroed")
	}
}

func TestRingSPSCConcurrent(t *testing.T) {
	const n = 100000
	r, _ := New[uint64](64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var next uint64
		for next < n {
			v, ok := r.Pop()
			if !ok {
				runtime.Gosched()
				continue
			}
			if v != next {
				t.Errorf("expected %d, got %d", next, v)
				return
			}
			next++
		}
	}()

	for i := uint64(0); i < n; i++ {
		for !r.Push(i) {
			runtime.Gosched()
		}
	}
	<-done

	if !r.IsEmpty() {
		t.Error("ring should be empty after consumer caught up")
	}
}

func BenchmarkRingPushPop(b *testing.B) {
	r, _ := New[uint64](1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Push(uint64(i))
		r.Pop()
	}
}

package ir

import (
	"testing"

	"github.com/kr/pretty"
)

func TestStackAllocatorCoalescesAdjacentFreeRuns(t *testing.T) {
	a := NewStackAllocator()

	off1 := a.Alloc(8)
	off2 := a.Alloc(8)
	off3 := a.Alloc(8)

	a.Free(off1, 8)
	a.Free(off3, 8)
	a.Free(off2, 8) // closes the gap between the two outer runs

	want := []freeRun{{offset: 0, size: 24}}
	if diff := pretty.Diff(want, a.free); len(diff) > 0 {
		t.Fatalf("free list mismatch:\n%s", pretty.Sprint(diff))
	}
	if a.HighWater() != 24 {
		t.Fatalf("expected high-water mark 24, got %d", a.HighWater())
	}
}

func TestStackAllocatorReusesFirstFitRun(t *testing.T) {
	a := NewStackAllocator()

	off1 := a.Alloc(16)
	a.Alloc(16)
	a.Free(off1, 16)

	reused := a.Alloc(8)
	if reused != off1 {
		t.Fatalf("expected the freed run to be reused at offset %d, got %d", off1, reused)
	}
	if a.HighWater() != 32 {
		t.Fatalf("expected high-water mark to stay at 32, got %d", a.HighWater())
	}
}

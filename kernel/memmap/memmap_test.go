package memmap

import (
	"testing"
	"unsafe"
)

// newTestStore builds a Store backed by a plain Go slice so tests can
// exercise the unsafe-pointer-walking code on a normal host, the same way
// the teacher's cpu tests swap in fake function variables instead of
// touching real hardware state.
func newTestStore(t *testing.T, capacity uint64, descs []Descriptor) *Store {
	t.Helper()
	stride := naturalDescriptorSize
	buf := make([]byte, capacity*stride)
	base := uintptr(unsafe.Pointer(&buf[0]))

	s := &Store{basePtr: base, count: uint64(len(descs)), capacity: capacity, stride: stride}
	for i, d := range descs {
		s.setAt(uint64(i), d)
	}

	// Keep buf alive for the duration of the test; Go's GC has no reason
	// to move or collect it while s.basePtr still points inside it, but
	// pin it via a cleanup reference for clarity.
	t.Cleanup(func() { _ = buf })
	return s
}

func TestStoreAtAndForEach(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 10},
		{Kind: EfiReservedMemoryType, PhysicalBase: 10 * pageSizeBytes, PageCount: 5},
	})

	if s.Len() != 2 {
		t.Fatalf("expected 2 live descriptors; got %d", s.Len())
	}
	if got := s.At(0).Kind; got != EfiConventionalMemory {
		t.Errorf("expected slot 0 to be conventional; got %v", got)
	}

	var seen int
	s.ForEach(func(i int, d Descriptor) bool {
		seen++
		return true
	})
	if seen != 2 {
		t.Errorf("expected ForEach to visit 2 descriptors; got %d", seen)
	}
}

func TestFindByBaseAndContaining(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 4},
		{Kind: MallocPhysical, PhysicalBase: 4 * pageSizeBytes, PageCount: 1},
	})

	if idx, ok := s.FindByBase(4 * pageSizeBytes); !ok || idx != 1 {
		t.Fatalf("expected FindByBase to locate slot 1; got idx=%d ok=%v", idx, ok)
	}
	if _, ok := s.FindByBase(999); ok {
		t.Error("expected FindByBase to miss an unknown base")
	}
	if idx, ok := s.FindContaining(2 * pageSizeBytes); !ok || idx != 0 {
		t.Fatalf("expected FindContaining to locate slot 0; got idx=%d ok=%v", idx, ok)
	}
}

func TestChangeKindExact(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 4},
	})

	if err := s.ChangeKind(0, 4*pageSizeBytes, MallocPhysical); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("exact-match change should not grow the array; got len %d", s.Len())
	}
	if got := s.At(0).Kind; got != MallocPhysical {
		t.Errorf("expected slot 0 to become MallocPhysical; got %v", got)
	}
}

func TestChangeKindBase(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 10},
	})

	if err := s.ChangeKind(0, 4*pageSizeBytes, MallocPhysical); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected base-aligned split to produce 2 descriptors; got %d", s.Len())
	}
	if got := s.At(0); got.Kind != MallocPhysical || got.PageCount != 4 {
		t.Errorf("unexpected head descriptor: %+v", got)
	}
	if got := s.At(1); got.Kind != EfiConventionalMemory || got.PhysicalBase != 4*pageSizeBytes || got.PageCount != 6 {
		t.Errorf("unexpected tail descriptor: %+v", got)
	}
}

func TestChangeKindTail(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 10},
	})

	if err := s.ChangeKind(6*pageSizeBytes, 4*pageSizeBytes, MallocPhysical); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected tail-aligned split to produce 2 descriptors; got %d", s.Len())
	}
	if got := s.At(0); got.Kind != EfiConventionalMemory || got.PageCount != 6 {
		t.Errorf("unexpected head descriptor: %+v", got)
	}
	if got := s.At(1); got.Kind != MallocPhysical || got.PhysicalBase != 6*pageSizeBytes || got.PageCount != 4 {
		t.Errorf("unexpected tail descriptor: %+v", got)
	}
}

func TestChangeKindInterior(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 10},
	})

	if err := s.ChangeKind(2*pageSizeBytes, 4*pageSizeBytes, MallocPhysical); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected interior split to produce 3 descriptors; got %d", s.Len())
	}
	if got := s.At(0); got.Kind != EfiConventionalMemory || got.PageCount != 2 {
		t.Errorf("unexpected head descriptor: %+v", got)
	}
	if got := s.At(1); got.Kind != MallocPhysical || got.PhysicalBase != 2*pageSizeBytes || got.PageCount != 4 {
		t.Errorf("unexpected mid descriptor: %+v", got)
	}
	if got := s.At(2); got.Kind != EfiConventionalMemory || got.PhysicalBase != 6*pageSizeBytes || got.PageCount != 4 {
		t.Errorf("unexpected tail descriptor: %+v", got)
	}
}

func TestChangeKindRangeNotCovered(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 4},
	})

	if err := s.ChangeKind(3*pageSizeBytes, 4*pageSizeBytes, MallocPhysical); err == nil {
		t.Error("expected an error when the requested range spans past the descriptor's end")
	}
}

func TestChangeKindFailsWithoutSpareCapacity(t *testing.T) {
	s := newTestStore(t, 1, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 10},
	})

	if err := s.ChangeKind(2*pageSizeBytes, 4*pageSizeBytes, MallocPhysical); err == nil {
		t.Error("expected an interior split with no spare capacity to fail")
	}
}

func TestMergeConventionalCollapsesAdjacentRuns(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 2},
		{Kind: EfiConventionalMemory, PhysicalBase: 2 * pageSizeBytes, PageCount: 3},
		{Kind: MallocPhysical, PhysicalBase: 5 * pageSizeBytes, PageCount: 1},
		{Kind: EfiConventionalMemory, PhysicalBase: 6 * pageSizeBytes, PageCount: 4},
	})

	s.mergeConventional()

	if s.Len() != 3 {
		t.Fatalf("expected the two leading conventional runs to merge; got %d descriptors", s.Len())
	}
	if got := s.At(0); got.Kind != EfiConventionalMemory || got.PageCount != 5 {
		t.Errorf("unexpected merged descriptor: %+v", got)
	}
	if got := s.At(1); got.Kind != MallocPhysical {
		t.Errorf("expected malloc descriptor to survive the merge untouched; got %+v", got)
	}
	if got := s.At(2); got.Kind != EfiConventionalMemory || got.PageCount != 4 {
		t.Errorf("unexpected trailing descriptor: %+v", got)
	}
}

func TestFindFreeSpanAlignment(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 1 * pageSizeBytes, PageCount: 10},
	})

	base, ok := s.FindFreeSpan(2*pageSizeBytes, 2*pageSizeBytes)
	if !ok {
		t.Fatal("expected a free span to be found")
	}
	if base%(2*pageSizeBytes) != 0 {
		t.Errorf("expected base to satisfy the requested alignment; got %#x", base)
	}
}

func TestFindFreeSpanNoFit(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 1},
	})

	if _, ok := s.FindFreeSpan(10*pageSizeBytes, pageSizeBytes); ok {
		t.Error("expected no span to fit a request larger than the only region")
	}
}

func TestPrepareRelocatesWhenCapacityExhausted(t *testing.T) {
	// Prepare copies the array into the first conventional region it finds,
	// so that region's base points at a real buffer here.
	region := make([]byte, pageSizeBytes)
	base := uint64(uintptr(unsafe.Pointer(&region[0])))
	t.Cleanup(func() { _ = region })
	s := newTestStore(t, 2, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: base, PageCount: 4},
		{Kind: EfiConventionalMemory, PhysicalBase: base + 4*pageSizeBytes, PageCount: 4096},
	})

	if err := s.Prepare(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.capacity < 6 {
		t.Fatalf("expected capacity to grow to cover the request; got %d", s.capacity)
	}

	// The relocated map must still describe every region it did before,
	// plus a MemoryMapSelf record for wherever it landed.
	var sawSelf bool
	s.ForEach(func(_ int, d Descriptor) bool {
		if d.Kind == MemoryMapSelf {
			sawSelf = true
		}
		return true
	})
	if !sawSelf {
		t.Error("expected a MemoryMapSelf descriptor after relocation")
	}
}

func TestPrepareNoopWhenCapacitySuffices(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 4},
	})
	oldBase := s.basePtr

	if err := s.Prepare(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.basePtr != oldBase {
		t.Error("expected Prepare to leave the backing buffer untouched when capacity already suffices")
	}
}

func TestHighestAddressAndTotalPages(t *testing.T) {
	s := newTestStore(t, 8, []Descriptor{
		{Kind: EfiConventionalMemory, PhysicalBase: 0, PageCount: 4},
		{Kind: EfiConventionalMemory, PhysicalBase: 8 * pageSizeBytes, PageCount: 2},
	})

	if got := s.HighestAddress(); got != 10*pageSizeBytes {
		t.Errorf("expected highest address 10 pages in; got %#x", got)
	}
	if got := s.TotalPages(EfiConventionalMemory); got != 6 {
		t.Errorf("expected 6 total conventional pages; got %d", got)
	}
}

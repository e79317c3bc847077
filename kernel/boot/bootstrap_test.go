package boot

import (
	"testing"
	"unsafe"

	"corekernel/kernel/memmap"
)

// newTestStore builds a memmap.Store backed by a plain Go slice, the same
// pattern kernel/memmap's own tests use to exercise unsafe-pointer-walking
// code on a normal host rather than real firmware memory.
func newTestStore(t *testing.T, capacity uint64, descs []memmap.Descriptor) *memmap.Store {
	t.Helper()
	stride := memmap.NaturalDescriptorSize
	buf := make([]byte, capacity*stride)
	base := uintptr(unsafe.Pointer(&buf[0]))

	s := &memmap.Store{}
	s.LoadDescriptors(base, stride, capacity, descs)

	t.Cleanup(func() { _ = buf })
	return s
}

func TestReclaimBootMemoryConvertsAndMergesReclaimableKinds(t *testing.T) {
	s := newTestStore(t, 16, []memmap.Descriptor{
		{Kind: memmap.EfiLoaderCode, PhysicalBase: 0, PageCount: 4},
		{Kind: memmap.EfiLoaderData, PhysicalBase: 4 * 4096, PageCount: 2},
		{Kind: memmap.EfiBootServicesCode, PhysicalBase: 6 * 4096, PageCount: 3},
		{Kind: memmap.EfiBootServicesData, PhysicalBase: 9 * 4096, PageCount: 1},
		{Kind: memmap.EfiConventionalMemory, PhysicalBase: 10 * 4096, PageCount: 5},
		{Kind: memmap.EfiReservedMemoryType, PhysicalBase: 15 * 4096, PageCount: 2},
	})

	reclaimBootMemory(s)

	if s.Len() != 2 {
		t.Fatalf("expected reclaimable+conventional runs to merge into one span plus the reserved region; got %d descriptors", s.Len())
	}

	d0 := s.At(0)
	if d0.Kind != memmap.EfiConventionalMemory {
		t.Errorf("expected slot 0 to be conventional after reclaim; got %v", d0.Kind)
	}
	if d0.PhysicalBase != 0 || d0.PageCount != 15 {
		t.Errorf("expected merged span [0,15) pages; got base=%d pages=%d", d0.PhysicalBase, d0.PageCount)
	}

	d1 := s.At(1)
	if d1.Kind != memmap.EfiReservedMemoryType {
		t.Errorf("expected the reserved descriptor to survive untouched; got %v", d1.Kind)
	}
}

func TestReclaimBootMemoryLeavesUnrelatedKindsAlone(t *testing.T) {
	s := newTestStore(t, 8, []memmap.Descriptor{
		{Kind: memmap.EfiACPIReclaimMemory, PhysicalBase: 0, PageCount: 2},
		{Kind: memmap.EfiConventionalMemory, PhysicalBase: 2 * 4096, PageCount: 2},
	})

	reclaimBootMemory(s)

	if s.Len() != 2 {
		t.Fatalf("expected no merge across a non-adjacent-kind boundary; got %d descriptors", s.Len())
	}
	if s.At(0).Kind != memmap.EfiACPIReclaimMemory {
		t.Errorf("expected ACPI reclaim descriptor to be untouched; got %v", s.At(0).Kind)
	}
}

func TestFindFirstOfKindReturnsFalseWhenAbsent(t *testing.T) {
	s := newTestStore(t, 4, []memmap.Descriptor{
		{Kind: memmap.EfiConventionalMemory, PhysicalBase: 0, PageCount: 1},
	})

	if _, found := findFirstOfKind(s, memmap.EfiLoaderCode); found {
		t.Errorf("expected no EfiLoaderCode descriptor to be found")
	}
}

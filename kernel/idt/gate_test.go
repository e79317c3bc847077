package idt

import "testing"

func TestBuildInstallsAllGatesWithKernelSelector(t *testing.T) {
	defer func() { loadIDTFn = loadIDT }()

	var loadedPtr uintptr
	loadIDTFn = func(ptr uintptr) { loadedPtr = ptr }

	const codeSelector = uint16(0x08)
	Build(codeSelector)

	if loadedPtr == 0 {
		t.Fatal("expected LIDT to be called with a non-nil pointer")
	}

	for v := 0; v < gateCount; v++ {
		g := table[v]
		selector := uint16(g.raw[2]) | uint16(g.raw[3])<<8
		if selector != codeSelector {
			t.Fatalf("vector %d: expected selector %#x; got %#x", v, codeSelector, selector)
		}
		typeAttr := g.raw[5]
		if typeAttr != gatePresent|gateTypeInterrupt {
			t.Fatalf("vector %d: expected type/attr byte %#x; got %#x", v, gatePresent|gateTypeInterrupt, typeAttr)
		}
	}
}

func TestBuildAssignsISTIndicesToDedicatedVectors(t *testing.T) {
	defer func() { loadIDTFn = loadIDT }()
	loadIDTFn = func(ptr uintptr) {}

	Build(0x08)

	cases := map[int]uint8{
		int(NMI):         1,
		int(DoubleFault): 2,
		int(MachineCheck): 3,
		int(Breakpoint):  4,
		int(Debug):       4,
		int(Overflow):    0,
	}
	for v, want := range cases {
		if got := table[v].raw[4]; got != want {
			t.Errorf("vector %d: expected IST index %d; got %d", v, want, got)
		}
	}
}

func TestGateSetPacksOffsetAcrossAllThreeFields(t *testing.T) {
	var g gate
	addr := uintptr(0x1122334455667788)
	g.set(addr, 0x08, 0, gatePresent|gateTypeInterrupt)

	low := uint16(g.raw[0]) | uint16(g.raw[1])<<8
	mid := uint16(g.raw[6]) | uint16(g.raw[7])<<8
	high := uint32(g.raw[8]) | uint32(g.raw[9])<<8 | uint32(g.raw[10])<<16 | uint32(g.raw[11])<<24

	if low != uint16(addr) {
		t.Errorf("expected offset-low %#x; got %#x", uint16(addr), low)
	}
	if mid != uint16(addr>>16) {
		t.Errorf("expected offset-mid %#x; got %#x", uint16(addr>>16), mid)
	}
	if high != uint32(addr>>32) {
		t.Errorf("expected offset-high %#x; got %#x", uint32(addr>>32), high)
	}
}

package paging

import "testing"

func TestInstallRootLoadsCR3(t *testing.T) {
	defer func() { switchTranslationRootFn = nil }()

	var loaded uintptr
	switchTranslationRootFn = func(p uintptr) { loaded = p }

	tables := &Tables{rootPhys: 0x10000}
	tables.InstallRoot()

	if loaded != 0x10000 {
		t.Errorf("expected CR3 to be loaded with %#x; got %#x", 0x10000, loaded)
	}
}

func TestEnableGlobalPagesSetsPGEBit(t *testing.T) {
	defer func() {
		readCR4RootFn = nil
		writeCR4RootFn = nil
	}()

	var cr4 uint64
	readCR4RootFn = func() uint64 { return cr4 }
	writeCR4RootFn = func(v uint64) { cr4 = v }

	EnableGlobalPages()

	if cr4&cr4PageGlobalEnableBit == 0 {
		t.Error("expected CR4.PGE to be set")
	}
}

func TestDisableGlobalPagesClearsPGEBit(t *testing.T) {
	defer func() {
		readCR4RootFn = nil
		writeCR4RootFn = nil
	}()

	cr4 := cr4PageGlobalEnableBit
	readCR4RootFn = func() uint64 { return cr4 }
	writeCR4RootFn = func(v uint64) { cr4 = v }

	DisableGlobalPages()

	if cr4&cr4PageGlobalEnableBit != 0 {
		t.Error("expected CR4.PGE to be cleared")
	}
}

package cpu

import "testing"

func resetBringupFakes(t *testing.T) {
	t.Cleanup(func() {
		hasCPUIDFn = HasCPUID
		readCR0Fn = ReadCR0
		writeCR0Fn = WriteCR0
		readCR4Fn = ReadCR4
		writeCR4Fn = WriteCR4
		readXCR0Fn = ReadXCR0
		writeXCR0Fn = WriteXCR0
		readMSRFnBringup = ReadMSR
		writeMSRFn = WriteMSR
		detectFeaturesFn = DetectFeatures
		calibrateTSCFn = CalibrateTSC
	})
}

func TestInitNoCPUID(t *testing.T) {
	resetBringupFakes(t)

	writeCR0Fn = func(uint64) {}
	readCR0Fn = func() uint64 { return 0 }
	writeCR4Fn = func(uint64) {}
	readCR4Fn = func() uint64 { return 0 }
	hasCPUIDFn = func() bool { return false }

	_, err := Init()
	if err != errNoCPUID {
		t.Fatalf("expected errNoCPUID; got %v", err)
	}
}

func TestInitEnablesXSAVEAndAVX512(t *testing.T) {
	resetBringupFakes(t)

	var cr0, cr4, xcr0 uint64
	var msrWrites = map[uint32]uint64{}

	readCR0Fn = func() uint64 { return cr0 }
	writeCR0Fn = func(v uint64) { cr0 = v }
	readCR4Fn = func() uint64 { return cr4 }
	writeCR4Fn = func(v uint64) { cr4 = v }
	readXCR0Fn = func() uint64 { return xcr0 }
	writeXCR0Fn = func(v uint64) { xcr0 = v }
	readMSRFnBringup = func(msr uint32) uint64 { return msrWrites[msr] }
	writeMSRFn = func(msr uint32, v uint64) { msrWrites[msr] = v }
	hasCPUIDFn = func() bool { return true }
	detectFeaturesFn = func() Features {
		return Features{HasXSAVE: true, HasAVX512F: true, HasHWP: true, HasX2APIC: true}
	}
	calibrateTSCFn = func() {}

	info, err := Init()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr0&cr0NumericErrorBit == 0 {
		t.Error("expected CR0.NE to be set")
	}
	if cr4&cr4OSXMMEXCPTBit == 0 {
		t.Error("expected CR4.OSXMMEXCPT to be set")
	}
	if cr4&cr4OSXSAVEBit == 0 {
		t.Error("expected CR4.OSXSAVE to be set")
	}
	if xcr0 != uint64(LegacyMask|AVX512Mask) {
		t.Errorf("expected XCR0 to include AVX-512 components; got %#x", xcr0)
	}
	if info.XCR0Mask != xcr0 {
		t.Errorf("expected BootstrapInfo.XCR0Mask to reflect the read-back value; got %#x", info.XCR0Mask)
	}
	if msrWrites[MSRPMEnable]&pmEnableBit == 0 {
		t.Error("expected HWP to be enabled")
	}
	if msrWrites[MSRAPICBase]&apicBaseX2APICEnableBit == 0 {
		t.Error("expected x2APIC to be enabled")
	}
}

func TestInitSkipsXSAVEWhenUnsupported(t *testing.T) {
	resetBringupFakes(t)

	var cr4 uint64
	readCR0Fn = func() uint64 { return 0 }
	writeCR0Fn = func(uint64) {}
	readCR4Fn = func() uint64 { return cr4 }
	writeCR4Fn = func(v uint64) { cr4 = v }
	hasCPUIDFn = func() bool { return true }
	detectFeaturesFn = func() Features { return Features{} }
	calibrateTSCFn = func() {}

	if _, err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cr4&cr4OSXSAVEBit != 0 {
		t.Error("expected CR4.OSXSAVE to remain unset when XSAVE is unsupported")
	}
}

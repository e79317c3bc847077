package cpu

import "corekernel/kernel"

// CR0/CR4 bit positions touched by bring-up.
const (
	cr0NumericErrorBit = 1 << 5  // CR0.NE
	cr4OSFXSRBit       = 1 << 9  // CR4.OSFXSR
	cr4OSXMMEXCPTBit   = 1 << 10 // CR4.OSXMMEXCPT
	cr4OSXSAVEBit      = 1 << 18 // CR4.OSXSAVE
)

var (
	hasCPUIDFn       = HasCPUID
	readCR0Fn        = ReadCR0
	writeCR0Fn       = WriteCR0
	readCR4Fn        = ReadCR4
	writeCR4Fn       = WriteCR4
	readXCR0Fn       = ReadXCR0
	writeXCR0Fn      = WriteXCR0
	readMSRFnBringup = ReadMSR
	writeMSRFn       = WriteMSR
	detectFeaturesFn = DetectFeatures
	calibrateTSCFn   = CalibrateTSC
)

var (
	errNoCPUID = &kernel.Error{Module: "cpu", Message: "CPUID instruction not supported"}
)

// BootstrapInfo records what bring-up actually enabled, so later subsystems
// (the page-table builder's page-size choice, the dispatcher's XSAVE mask)
// can act on it without re-running CPUID probes of their own.
type BootstrapInfo struct {
	Features Features
	XCR0Mask uint64
}

// Init performs the once-only, bootstrap-processor bring-up sequence
// described in spec.md §4.G:
//
//  1. CR0.NE and CR4.OSXMMEXCPT (and CR4.OSFXSR, required for any SSE state
//     to be usable at all).
//  2. Confirm CPUID support by toggling EFLAGS.ID.
//  3. If XSAVE is present: CR4.OSXSAVE, XCR0 = x87|SSE|AVX, extended with
//     opmask|ZMM-hi|Hi16-ZMM if AVX-512 is advertised, read back to verify.
//  4. Enable HWP if available.
//  5. Enable x2APIC if available.
//  6. Calibrate the TSC.
//
// Init returns errNoCPUID, without probing further, on the one truly
// unrecoverable deviation: a CPU that does not support CPUID at all, since
// no further feature probing is possible from there. The caller decides
// whether to halt.
func Init() (BootstrapInfo, *kernel.Error) {
	writeCR0Fn(readCR0Fn() | cr0NumericErrorBit)
	writeCR4Fn(readCR4Fn() | cr4OSFXSRBit | cr4OSXMMEXCPTBit)

	if !hasCPUIDFn() {
		return BootstrapInfo{}, errNoCPUID
	}

	features := detectFeaturesFn()
	info := BootstrapInfo{Features: features}

	if features.HasXSAVE {
		writeCR4Fn(readCR4Fn() | cr4OSXSAVEBit)

		mask := uint64(LegacyMask)
		if features.HasAVX512F {
			mask |= uint64(AVX512Mask)
		}
		writeXCR0Fn(mask)
		info.XCR0Mask = readXCR0Fn() // read back to verify, per spec.md §4.G step 3
	}

	if features.HasHWP {
		writeMSRFn(MSRPMEnable, readMSRFnBringup(MSRPMEnable)|pmEnableBit)
	}

	if features.HasX2APIC {
		writeMSRFn(MSRAPICBase, readMSRFnBringup(MSRAPICBase)|apicBaseX2APICEnableBit)
	}

	calibrateTSCFn()

	return info, nil
}

package cpu

// Feature flags read out of CPUID leaves 1, 6 and 7 and extended leaf
// 0x8000_0001 that the bring-up and paging code need. Named for the CPUID
// leaf/register/bit they come from so the bring-up sequence in bringup.go
// reads as a direct transcription of spec.md §4.G.
const (
	// leaf 1, ECX
	cpuidLeaf1ECXXSAVE  = 1 << 26
	cpuidLeaf1ECXAVX    = 1 << 28
	cpuidLeaf1ECXHWP    = 0 // HWP is leaf 6, not leaf 1; kept absent intentionally.
	cpuidLeaf1ECXX2APIC = 1 << 21

	// leaf 6, EAX
	cpuidLeaf6EAXHWP = 1 << 7

	// leaf 7 subleaf 0, EBX
	cpuidLeaf7EBXAVX2   = 1 << 5
	cpuidLeaf7EBXAVX512F = 1 << 16

	// leaf 7 subleaf 0, ECX
	cpuidLeaf7ECX5LevelPaging = 1 << 16

	// leaf 0x80000001, EDX
	cpuidLeaf80000001EDX1GiBPages = 1 << 26
)

// Features summarizes every CPUID-gated capability this kernel core cares
// about. DetectFeatures populates it once during bring-up; everything
// downstream (paging's page-size fallback ladder, the XSAVE mask chosen by
// the dispatcher) reads from it rather than re-issuing CPUID.
type Features struct {
	HasXSAVE        bool
	HasAVX          bool
	HasAVX2         bool
	HasAVX512F      bool
	HasX2APIC       bool
	HasHWP          bool
	Has1GiBPages    bool
	Has5LevelPaging bool
}

// DetectFeatures runs the CPUID probes spec.md §4.D and §4.G require and
// returns the resulting feature set. It assumes HasCPUID() has already been
// confirmed true by the caller.
func DetectFeatures() Features {
	var f Features

	_, _, ecx1, _ := cpuidFn(1, 0)
	f.HasXSAVE = ecx1&cpuidLeaf1ECXXSAVE != 0
	f.HasAVX = ecx1&cpuidLeaf1ECXAVX != 0
	f.HasX2APIC = ecx1&cpuidLeaf1ECXX2APIC != 0

	eax6, _, _, _ := cpuidFn(6, 0)
	f.HasHWP = eax6&cpuidLeaf6EAXHWP != 0

	_, ebx7, ecx7, _ := cpuidFn(7, 0)
	f.HasAVX2 = ebx7&cpuidLeaf7EBXAVX2 != 0
	f.HasAVX512F = ebx7&cpuidLeaf7EBXAVX512F != 0
	f.Has5LevelPaging = ecx7&cpuidLeaf7ECX5LevelPaging != 0

	maxExtLeaf, _, _, _ := cpuidFn(0x80000000, 0)
	if maxExtLeaf >= 0x80000001 {
		_, _, _, edx81 := cpuidFn(0x80000001, 0)
		f.Has1GiBPages = edx81&cpuidLeaf80000001EDX1GiBPages != 0
	}

	return f
}

package irq

import "corekernel/kernel/cpu"

// Init derives the XSAVE component mask every Dispatch call uses from the
// features kernel/cpu detected during bring-up (spec.md §4.F step 1): the
// legacy x87/SSE/AVX components unconditionally, plus the three AVX-512
// components when the CPU advertises support for them.
func Init(features cpu.Features) {
	mask := cpu.LegacyMask
	if features.HasAVX512F {
		mask |= cpu.AVX512Mask
	}
	xsaveMask = uint64(mask)
}

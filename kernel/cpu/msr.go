package cpu

// Model-specific register numbers used during bring-up (spec.md §4.G) and
// TSC calibration (spec.md §8, Open Questions).
const (
	// MSRPlatformInfo's bits 15:8 give the maximum non-turbo bus ratio,
	// used to calibrate the TSC frequency.
	MSRPlatformInfo = 0x0ce

	// MSRPMEnable's bit 0 enables hardware P-states (HWP) once CPUID has
	// confirmed support.
	MSRPMEnable = 0x770

	// MSRAPICBase holds the local APIC base address; bit 10 enables
	// x2APIC mode.
	MSRAPICBase = 0x1b

	// MSRIA32TSC is the raw time-stamp counter, readable via RDMSR as a
	// fallback when RDTSCP is unavailable (not used on this target but
	// kept for completeness of the MSR map).
	MSRIA32TSC = 0x10
)

// APIC base MSR bit layout.
const (
	apicBaseX2APICEnableBit = 1 << 10
	apicBaseEnableBit       = 1 << 11
)

// platformInfoBusRatioShift / Mask extract the maximum non-turbo ratio from
// MSRPlatformInfo.
const (
	platformInfoBusRatioShift = 8
	platformInfoBusRatioMask  = 0xff
)

// pmEnableBit is bit 0 of MSRPMEnable.
const pmEnableBit = 1 << 0

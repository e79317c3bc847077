// Package cpu wires up the bootstrap processor: CPUID-gated feature
// enablement (CR0/CR4/XCR0, x2APIC, HWP), TSC calibration, and the raw
// register/MSR primitives the rest of the kernel core builds on. Every
// primitive that cannot be expressed in portable Go is declared here with
// no body and implemented in the matching _amd64.s file, following the
// teacher's split between architecture-neutral Go and the assembly that
// backs it.
package cpu

var (
	// cpuidFn is swapped out by tests; production code always goes
	// through ID.
	cpuidFn = ID
)

// EnableInterrupts sets the interrupt flag (STI).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (CLI).
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt (HLT). Callers
// that want an idle loop that never resumes (spec.md §7's
// halt-and-never-return error kind) wrap this in a `for { Halt() }` with
// interrupts disabled.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr (INVLPG).
func FlushTLBEntry(virtAddr uintptr)

// SwitchTranslationRoot installs physAddr as the root of the active paging
// hierarchy (MOV CR3) and flushes the TLB. This is the primitive the
// page-table builder uses to install the identity map it constructs.
func SwitchTranslationRoot(physAddr uintptr)

// ActiveTranslationRoot returns the physical address currently loaded in
// the translation root register (CR3, address bits only).
func ActiveTranslationRoot() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uint64

// ReadCR0 / WriteCR0 access the machine-state control register.
func ReadCR0() uint64
func WriteCR0(v uint64)

// ReadCR4 / WriteCR4 access the extended feature-control register.
func ReadCR4() uint64
func WriteCR4(v uint64)

// ReadXCR0 / WriteXCR0 access the XSAVE feature-enable bitmap (requires
// CR4.OSXSAVE to already be set).
func ReadXCR0() uint64
func WriteXCR0(v uint64)

// ReadMSR / WriteMSR read and write a model-specific register.
func ReadMSR(msr uint32) uint64
func WriteMSR(msr uint32, v uint64)

// ID executes CPUID with EAX=leaf, ECX=subleaf and returns the EAX/EBX/ECX/EDX
// results.
func ID(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)

// HasCPUID reports whether the CPU supports the CPUID instruction, detected
// by attempting to toggle EFLAGS.ID (bit 21) per spec.md §4.G step 2.
func HasCPUID() bool

// RDTSCP returns the current timestamp-counter value together with the
// value of IA32_TSC_AUX, serializing prior instructions.
func RDTSCP() (tsc uint64, aux uint32)

// xsave / xrstor are declared in xsave_amd64.go next to the XSaveArea type
// they operate on.

// IsIntel reports whether the CPU identifies itself as a GenuineIntel part.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0, 0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

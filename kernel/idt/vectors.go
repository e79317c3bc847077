// Package idt builds and installs the kernel's Interrupt Descriptor Table
// (spec.md §4.E, §9): 256 gate entries, one generated trampoline per
// vector (stubs_amd64.go/.s, produced by tools/genstubs), four of which
// run on a dedicated Interrupt Stack Table stack so a fault that corrupts
// the current stack can still be handled.
package idt

// Vector identifies one of the 256 interrupt/exception/trap slots.
type Vector uint8

// Architecturally defined exception vectors (Intel SDM vol. 3A §6.3).
const (
	DivideByZero               Vector = 0
	Debug                      Vector = 1
	NMI                        Vector = 2
	Breakpoint                 Vector = 3
	Overflow                   Vector = 4
	BoundRangeExceeded         Vector = 5
	InvalidOpcode              Vector = 6
	DeviceNotAvailable         Vector = 7
	DoubleFault                Vector = 8
	InvalidTSS                 Vector = 10
	SegmentNotPresent          Vector = 11
	StackSegmentFault          Vector = 12
	GeneralProtectionFault     Vector = 13
	PageFault                  Vector = 14
	FloatingPointException     Vector = 16
	AlignmentCheck             Vector = 17
	MachineCheck               Vector = 18
	SIMDFloatingPointException Vector = 19
	VirtualizationException    Vector = 20
	SecurityException          Vector = 30
)

// reservedVectors are architecturally reserved and never fire on real
// hardware; if one does (a hypervisor bug, a miscounted vector), they
// route to the same generic handler as an unassigned user vector rather
// than a dedicated one (spec.md §9: "15, 21-29 and 31 share a generic
// handler").
var reservedVectors = func() map[Vector]bool {
	m := map[Vector]bool{15: true, 31: true}
	for v := 21; v <= 29; v++ {
		m[Vector(v)] = true
	}
	return m
}()

// firstUserVector is the first of the 224 vectors (32-255) available for
// IRQ routing and inter-processor interrupts; below it, every slot has an
// architectural meaning.
const firstUserVector = Vector(32)

// spurious PIC vectors: when the legacy 8259 PICs are remapped to 32-47,
// IRQ7 and IRQ15 (the master and slave spurious-interrupt lines) land on
// 39 and 47. A spurious interrupt must not be acknowledged to the PIC
// that didn't actually raise it, so it gets dedicated handling instead of
// going through the generic dispatcher (spec.md §4.F).
const (
	SpuriousMaster Vector = 39
	SpuriousSlave  Vector = 47
)

// istForVector returns the Interrupt Stack Table index (1-4) this vector's
// gate entry should use, or 0 for "use the currently active stack"
// (spec.md §4.E's redesign: NMI, #DF and #MC always run on their own
// stack since the condition that raised them may have corrupted the
// current one; #BP and #DB share a fourth stack since both are used by
// debuggers stepping through arbitrary, potentially stack-corrupting,
// code).
func istForVector(v Vector) uint8 {
	switch v {
	case NMI:
		return 1
	case DoubleFault:
		return 2
	case MachineCheck:
		return 3
	case Breakpoint, Debug:
		return 4
	default:
		return 0
	}
}

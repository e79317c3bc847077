package irq

import "corekernel/kernel/cpu"

// Per-vector XSAVE areas (spec.md §3, §4.F): one per architectural
// exception so that one can nest inside another (notably an NMI
// interrupting an ordinary handler) without corrupting saved state, one
// shared by every user vector (32-255, which cannot nest since interrupt
// gates clear IF), and one for unhandled/reserved CPU vectors.
var (
	exceptionAreas [32]cpu.XSaveArea
	userArea       cpu.XSaveArea
	reservedArea   cpu.XSaveArea
)

// xsaveMask is the component mask passed to every XSAVE/XRSTOR pair,
// computed once during Init from the detected CPU features.
var xsaveMask = uint64(cpu.LegacyMask)

// xsaveAreaFor returns the save area this vector must use.
func xsaveAreaFor(v Vector) *cpu.XSaveArea {
	switch {
	case v < 32 && reservedVectors[v]:
		return &reservedArea
	case v < 32:
		return &exceptionAreas[v]
	default:
		return &userArea
	}
}

package idt

import (
	"unsafe"

	"corekernel/kernel/irq"
)

// stackFrame mirrors the exact byte layout commonStubEntry leaves on the
// stack before calling dispatchFromAsm: fifteen pushed general-purpose
// registers (in reverse push order, since each PUSHQ lowers the stack
// pointer before storing), the stub-pushed vector and error code, and the
// five-word frame the CPU itself pushed on interrupt entry. Every field
// is a uint64, so Go's layout rules place them with no padding and in
// declared order, making the overlay safe despite the cross-language
// struct-packing pitfalls the gdt package ran into with mixed-width
// fields.
type stackFrame struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	BP, DI, SI, DX, CX, BX, AX           uint64
	Vector, ErrorCode                    uint64
	RIP, CS, RFlags, RSP, SS             uint64
}

// dispatchFromAsm is commonStubEntry's sole Go-side call target. It
// reconstructs the register snapshot and exception frame irq.Dispatch
// expects, runs the dispatch, and relies on the fact that frame/regs are
// pointers directly into the interrupted context's saved state: any
// modification irq.Dispatch or a registered handler makes is visible to
// commonStubEntry's restore sequence and therefore to the resumed
// context.
func dispatchFromAsm(sp uintptr) {
	f := (*stackFrame)(unsafe.Pointer(sp))

	regs := irq.Regs{
		RAX: f.AX, RBX: f.BX, RCX: f.CX, RDX: f.DX,
		RSI: f.SI, RDI: f.DI, RBP: f.BP,
		R8: f.R8, R9: f.R9, R10: f.R10, R11: f.R11,
		R12: f.R12, R13: f.R13, R14: f.R14, R15: f.R15,
	}
	frame := irq.Frame{RIP: f.RIP, CS: f.CS, RFlags: f.RFlags, RSP: f.RSP, SS: f.SS}

	irq.Dispatch(irq.Vector(f.Vector), f.ErrorCode, &frame, &regs)

	f.AX, f.BX, f.CX, f.DX = regs.RAX, regs.RBX, regs.RCX, regs.RDX
	f.SI, f.DI, f.BP = regs.RSI, regs.RDI, regs.RBP
	f.R8, f.R9, f.R10, f.R11 = regs.R8, regs.R9, regs.R10, regs.R11
	f.R12, f.R13, f.R14, f.R15 = regs.R12, regs.R13, regs.R14, regs.R15
	f.RIP, f.CS, f.RFlags, f.RSP, f.SS = frame.RIP, frame.CS, frame.RFlags, frame.RSP, frame.SS
}

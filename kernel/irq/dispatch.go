package irq

import (
	"corekernel/kernel/acpi"
	"corekernel/kernel/cpu"
	"corekernel/kernel/kfmt"
)

// Spurious PIC vectors (spec.md §4.F): IRQ7/IRQ15 on the legacy dual-8259
// remap land here and must not be acknowledged to a PIC that didn't raise
// them. A handler claimed for them in the ACPI redirection table still
// runs; when none is claimed they are recognised and ignored rather than
// sent to the default panic.
const (
	spuriousMaster Vector = 39
	spuriousSlave  Vector = 47
)

// xsaveFn/xrestoreFn are mockable seams over the real XSAVE/XRSTOR
// primitives, the same pattern kernel/cpu itself uses for CPUID/RDMSR.
var (
	xsaveFn    = cpu.XSave
	xrestoreFn = cpu.XRestore
)

// Dispatch is kernel/idt's sole call target for every one of the 256
// vectors. It implements the save/restore contract every handler gets
// (spec.md §4.F): extended-state save into the vector's dedicated area,
// handler logic, extended-state restore, then return — at which point
// kernel/idt's commonStubEntry pops the general-purpose registers this
// function (or a handler it called) may have modified and executes IRETQ.
func Dispatch(vector Vector, errorCode uint64, frame *Frame, regs *Regs) {
	area := xsaveAreaFor(vector)
	xsaveFn(area.Ptr(), xsaveMask)

	switch {
	case vector < 32:
		dispatchException(vector, errorCode, frame, regs)
	default:
		dispatchUser(vector, frame, regs)
	}

	xrestoreFn(area.Ptr(), xsaveMask)
}

func dispatchException(vector Vector, errorCode uint64, frame *Frame, regs *Regs) {
	if reservedVectors[vector] {
		defaultPanic(vector, errorCode, frame, regs)
		return
	}

	if hasHardwareErrorCode[vector] {
		if h := exceptionHandlersWithCode[vector]; h != nil {
			h(errorCode, frame, regs)
			return
		}
	} else if h := exceptionHandlers[vector]; h != nil {
		h(frame, regs)
		return
	}

	defaultPanic(vector, errorCode, frame, regs)
}

func dispatchUser(vector Vector, frame *Frame, regs *Regs) {
	if handler, ctx, claimed := acpi.Lookup(uint8(vector)); claimed {
		handler(uint8(vector), ctx)
		return
	}

	if vector == spuriousMaster || vector == spuriousSlave {
		return
	}

	defaultPanic(vector, 0, frame, regs)
}

// defaultPanic is the dump-and-halt fallback spec.md §7 describes for
// interrupt handler errors: every unhandled vector lands here, prints its
// frame and registers, and halts. The page-fault and general-protection
// vectors are left as extension points (register a handler via
// HandleExceptionWithCode to replace this default with a case table keyed
// on the error code, per §9's Open Question); machine check and double
// fault are architecturally defined to never return regardless of what a
// registered handler does.
func defaultPanic(vector Vector, errorCode uint64, frame *Frame, regs *Regs) {
	kfmt.Printf("unhandled interrupt: vector=%d error=%x\n", uint8(vector), errorCode)
	regs.Print()
	frame.Print()
	kfmt.Panic("unhandled interrupt")
}

// Package irq dispatches the 256 IDT vectors kernel/idt installs: the
// save/restore contract around every handler (spec.md §4.F), the
// registration APIs for architectural exceptions, and the user dispatcher
// that consults kernel/acpi's redirection table for vectors 32-255.
package irq

import "corekernel/kernel/kfmt"

// Vector identifies one of the 256 interrupt/exception/trap slots, kept as
// its own type here (rather than importing kernel/idt's) since kernel/idt
// imports this package to reach Dispatch.
type Vector uint8

// Regs is a snapshot of the general-purpose registers at the moment an
// interrupt fired. It is filled in and written back by kernel/idt's
// dispatchFromAsm, so any field a handler modifies is restored into the
// interrupted context when the handler returns.
type Regs struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// Print dumps the register snapshot to the active console.
func (r *Regs) Print() {
	kfmt.Printf("RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Printf("RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Printf("RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Printf("RBP = %16x\n", r.RBP)
	kfmt.Printf("R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Printf("R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Printf("R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Printf("R14 = %16x R15 = %16x\n", r.R14, r.R15)
}

// Frame describes the exception frame the CPU pushes automatically on
// interrupt entry (Intel SDM vol. 3A §6.14.2).
type Frame struct {
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// Print dumps the exception frame to the active console.
func (f *Frame) Print() {
	kfmt.Printf("RIP = %16x CS  = %16x\n", f.RIP, f.CS)
	kfmt.Printf("RSP = %16x SS  = %16x\n", f.RSP, f.SS)
	kfmt.Printf("RFL = %16x\n", f.RFlags)
}

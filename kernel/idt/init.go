package idt

import (
	"corekernel/kernel"
	"corekernel/kernel/gdt"
)

var errUninitializedStack = &kernel.Error{Module: "idt", Message: "an IST stack referenced by the IDT has not been set up"}

// Init builds and installs the IDT. It must run after gdt.Build, since
// gate entries with a non-zero IST index reference TSS-described stacks
// that Init cross-checks are actually non-zero before installing them —
// a zero IST top here would mean the hardware switches to a stack at
// address 0 the moment a double fault or NMI fires.
func Init() *kernel.Error {
	for ist := uint8(1); ist <= 4; ist++ {
		if gdt.ISTStackTop(ist) == 0 {
			return errUninitializedStack
		}
	}
	Build(gdt.KernelCodeSelector)
	return nil
}

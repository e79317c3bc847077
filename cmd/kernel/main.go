// Command kernel is the ELF/PE entry point the bootloader jumps to after
// handoff (spec.md §6: "entry symbol is kernel_main"). It is intentionally
// the thinnest possible trampoline into kernel/boot.Bootstrap, the same
// division of labor as the teacher's own boot.go/stub.go trampolines into
// kernel.Kmain.
package main

import (
	"unsafe"

	"corekernel/kernel/boot"
)

// handoffRecordPtr is written by the bootloader's entry trampoline before
// it transfers control to kernel_main; it is a package-level variable
// (rather than a parameter main reads off a register) for the same reason
// the teacher keeps multibootInfoPtr at package scope — the rt0 assembly
// that sets it up runs before any Go calling convention is in effect.
var handoffRecordPtr uintptr

// kernel_main is the symbol name the bootloader's entry trampoline jumps
// to. main is kept as a thin, non-inlinable wrapper so the Go compiler
// cannot reason the real kernel code is unreachable and drop it from the
// generated object file.
//
//go:noinline
func main() {
	record := (*boot.HandoffRecord)(unsafe.Pointer(handoffRecordPtr))
	boot.Bootstrap(record)

	// Bootstrap does not return; if it somehow did, halt here rather than
	// falling off the end of main into whatever follows in the image.
	for {
	}
}

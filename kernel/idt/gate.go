package idt

import "unsafe"

// gateCount is the fixed size of the IDT (Intel SDM vol. 3A §6.10): one
// slot per possible vector, architectural and user alike.
const gateCount = 256

// gate is one 64-bit-mode IDT gate descriptor: offset split across three
// non-contiguous fields (low 16, mid 16, high 32), a selector, an IST
// index, and a type/attribute byte, totalling 16 bytes. A natural Go
// struct with fields in that order would be laid out correctly here since
// every field is already a power-of-two size with no implicit padding,
// but gdt's TSS and gdtPointer bugs make that the wrong thing to assume
// without checking, so this follows the same flat-byte-array-plus-
// accessor convention established there rather than trust a struct
// literal's memory layout.
type gate struct {
	raw [16]byte
}

const (
	gateTypeInterrupt = 0xE // 64-bit interrupt gate: clears IF on entry
	gatePresent       = 1 << 7
)

func (g *gate) set(handlerAddr uintptr, selector uint16, ist uint8, typeAttr uint8) {
	*(*uint16)(unsafe.Pointer(&g.raw[0])) = uint16(handlerAddr)
	*(*uint16)(unsafe.Pointer(&g.raw[2])) = selector
	g.raw[4] = ist & 0x7
	g.raw[5] = typeAttr
	*(*uint16)(unsafe.Pointer(&g.raw[6])) = uint16(handlerAddr >> 16)
	*(*uint32)(unsafe.Pointer(&g.raw[8])) = uint32(handlerAddr >> 32)
	*(*uint32)(unsafe.Pointer(&g.raw[12])) = 0
}

// table is the kernel's single IDT, built once by Build and never mutated
// afterward (handler registration is a kernel/irq-level concern layered
// on top of the fixed 256 gates that all funnel through commonStubEntry).
var table [gateCount]gate

// idtPointer is LIDT's operand: the same packed 10-byte limit+base shape
// as gdt's gdtPointer, and needs the same flat-array treatment for the
// same reason.
type idtPointer struct {
	raw [10]byte
}

func (p *idtPointer) set(limit uint16, base uint64) {
	*(*uint16)(unsafe.Pointer(&p.raw[0])) = limit
	*(*uint64)(unsafe.Pointer(&p.raw[2])) = base
}

var idtr idtPointer

// loadIDTFn is a mockable seam over the LIDT primitive, the same pattern
// kernel/gdt uses for LGDT.
var loadIDTFn = loadIDT

// loadIDT executes LIDT with the supplied descriptor table pointer.
func loadIDT(ptr uintptr)

// stubAddress recovers the machine code entry point of a bodyless
// assembly-backed Go function. A non-closure func value is itself a
// pointer to a single-word structure whose word is the function's code
// address, so dereferencing twice yields it; this is how Build turns
// isrStubs' entries into the addresses IDT gates need.
func stubAddress(fn isrStub) uintptr {
	return **(**uintptr)(unsafe.Pointer(&fn))
}

// Build populates all 256 gate entries and installs the table with LIDT.
// It must run after kernel/gdt.Build, since gate entries with a non-zero
// IST index reference stacks that only the installed TSS describes, and
// every gate's selector is the kernel code segment gdt.Build established.
func Build(codeSelector uint16) {
	for v := 0; v < gateCount; v++ {
		vec := Vector(v)
		attr := gatePresent | gateTypeInterrupt
		table[v].set(stubAddress(isrStubs[v]), codeSelector, istForVector(vec), uint8(attr))
	}

	idtr.set(uint16(unsafe.Sizeof(table)-1), uint64(uintptr(unsafe.Pointer(&table))))
	loadIDTFn(uintptr(unsafe.Pointer(&idtr)))
}

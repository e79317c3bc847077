// Package gdt builds the kernel's Global Descriptor Table and Task State
// Segment (spec.md §4.E): a minimal 64-bit GDT with one code and one data
// segment plus the TSS descriptor that carries the Interrupt Stack Table
// pointers kernel/idt's gate entries reference.
package gdt

import "unsafe"

// Selector values, fixed by the slot layout Build produces. Each entry is
// 8 bytes except the TSS descriptor, which occupies two slots in 64-bit
// mode (a 16-byte descriptor), giving this GDT 5 total 8-byte slots for 4
// usable selectors.
const (
	NullSelector       = uint16(0x00)
	KernelCodeSelector = uint16(0x08)
	KernelDataSelector = uint16(0x10)
	TSSSelector        = uint16(0x18)
)

// descriptor is one raw 8-byte GDT slot in the packed Intel format: limit
// low, base low (3 bytes), access byte, limit-high/flags nibble, base
// high.
type descriptor uint64

func makeDescriptor(base uint32, limit uint32, access uint8, flags uint8) descriptor {
	d := uint64(limit & 0xffff)
	d |= uint64(base&0xffffff) << 16
	d |= uint64(access) << 40
	d |= uint64((limit>>16)&0xf) << 48
	d |= uint64(flags&0xf) << 52
	d |= uint64((base>>24)&0xff) << 56
	return descriptor(d)
}

// Access byte bits shared by code/data/TSS descriptors.
const (
	accessPresent    = 1 << 7
	accessRing0      = 0 << 5
	accessCodeOrData = 1 << 4
	accessExecutable = 1 << 3
	accessRW         = 1 << 1

	// flagsLongMode marks a code segment as containing 64-bit code; the
	// CPU ignores the base/limit fields entirely for such segments.
	flagsLongMode = 1 << 1

	// tssTypeAvailable64 is the TSS descriptor's type field for an
	// available (not busy) 64-bit TSS.
	tssTypeAvailable64 = 0x9
)

// istStackSize is the size of each of the four fixed Interrupt Stack Table
// stacks (spec.md §4.E): one per NMI, #DF, #MC, and the shared #BP/#DB
// stack, sized generously since these handlers do minimal work before
// either recovering or halting.
const istStackSize = 4096

// tssSize is sizeof(a 64-bit TSS): reserved0(4) + rsp0-2(24) + reserved1(8)
// + ist1-7(56) + reserved2(8) + reserved3(2) + iomapBase(2).
const tssSize = 104

// TSS is the 64-bit Task State Segment (Intel SDM vol. 3A §8.7). Hardware
// reads this structure at fixed byte offsets that do not match Go's
// natural field alignment (a uint32 field followed by a uint64 array
// would get 4 bytes of compiler-inserted padding that isn't present in
// the real layout), so it is kept as a flat byte array and accessed
// through offset-computing methods instead of named fields.
type TSS struct {
	raw [tssSize]byte
}

func (t *TSS) setRSP(n int, addr uint64) {
	*(*uint64)(unsafe.Pointer(&t.raw[4+8*n])) = addr
}

// setIST sets IST slot n (1-7) to addr.
func (t *TSS) setIST(n int, addr uint64) {
	*(*uint64)(unsafe.Pointer(&t.raw[36+8*(n-1)])) = addr
}

func (t *TSS) ist(n int) uint64 {
	return *(*uint64)(unsafe.Pointer(&t.raw[36+8*(n-1)]))
}

func (t *TSS) setIOMapBase(v uint16) {
	*(*uint16)(unsafe.Pointer(&t.raw[102])) = v
}

// istStacks backs the four IST entries the IDT's gate entries select by
// index (1 through 4). They are fixed, statically sized arrays rather
// than heap allocations because the gdt package runs before
// kernel/memmap/alloc has anything to allocate from.
var istStacks [4][istStackSize]byte

// table holds the GDT's five 8-byte slots: null, kernel code, kernel
// data, and the two slots the 16-byte TSS descriptor occupies.
var table [5]descriptor

// tss is the kernel's single Task State Segment.
var tss TSS

// tssDescriptorLow/High split the 128-bit TSS system descriptor across
// the GDT's last two slots, since in 64-bit mode a system descriptor
// (unlike code/data descriptors) needs the full 64 bits of base address.
func tssDescriptorLow(base uint64, limit uint32) descriptor {
	return makeDescriptor(uint32(base), limit, accessPresent|tssTypeAvailable64, 0)
}

func tssDescriptorHigh(base uint64) descriptor {
	return descriptor(base >> 32)
}

// gdtPointer is the operand LGDT expects: a packed 16-bit limit
// immediately followed by a 64-bit linear base address, 10 bytes total
// with no padding. A natural Go struct of {uint16; uint64} would have the
// compiler insert 6 bytes of alignment padding before the uint64 field,
// which LGDT would then read as part of the base address, so this is
// kept as a flat byte array instead.
type gdtPointer struct {
	raw [10]byte
}

func (p *gdtPointer) set(limit uint16, base uint64) {
	*(*uint16)(unsafe.Pointer(&p.raw[0])) = limit
	*(*uint64)(unsafe.Pointer(&p.raw[2])) = base
}

var gdtr gdtPointer

// loadGDTFn and reloadSegmentsFn are mockable seams, the same pattern
// kernel/cpu uses for its own hardware-facing primitives.
var (
	loadGDTFn       = loadGDT
	reloadSegmentsFn = reloadSegments
	loadTSSFn       = loadTSS
)

// loadGDT executes LGDT with the supplied descriptor table pointer.
func loadGDT(ptr uintptr)

// reloadSegments reloads CS via a far return trampoline and reloads the
// data segment registers, both required after LGDT for the new selectors
// to take effect.
func reloadSegments(codeSelector, dataSelector uint16)

// loadTSS executes LTR with the TSS selector.
func loadTSS(selector uint16)

// Build populates the GDT and TSS and installs both (spec.md §4.E). It
// must run once, early in boot, after CPU bring-up and before paging and
// before the IDT is installed, since IDT gate entries with a non-zero IST
// index require the TSS to already describe those stacks.
func Build() {
	table[0] = 0 // null descriptor
	table[1] = makeDescriptor(0, 0, accessPresent|accessCodeOrData|accessExecutable|accessRW, flagsLongMode)
	table[2] = makeDescriptor(0, 0, accessPresent|accessCodeOrData|accessRW, 0)

	for i := range istStacks {
		// Stacks grow down; IST n holds the address one past the end of
		// stack n's backing array.
		top := uintptr(unsafe.Pointer(&istStacks[i])) + istStackSize
		tss.setIST(i+1, uint64(top))
	}
	tss.setIOMapBase(uint16(tssSize))

	tssBase := uint64(uintptr(unsafe.Pointer(&tss)))
	tssLimit := uint32(tssSize - 1)
	table[3] = tssDescriptorLow(tssBase, tssLimit)
	table[4] = tssDescriptorHigh(tssBase)

	gdtr.set(uint16(unsafe.Sizeof(table)-1), uint64(uintptr(unsafe.Pointer(&table))))

	loadGDTFn(uintptr(unsafe.Pointer(&gdtr)))
	reloadSegmentsFn(KernelCodeSelector, KernelDataSelector)
	loadTSSFn(TSSSelector)
}

// ISTStackTop returns the top-of-stack address for IST index 1-4, for
// kernel/idt to cross-check against the gate entries it installs.
func ISTStackTop(istIndex uint8) uint64 {
	if istIndex == 0 || int(istIndex) > len(istStacks) {
		return 0
	}
	return tss.ist(int(istIndex))
}

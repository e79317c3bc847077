package paging

import "unsafe"

// entry is one 8-byte page table / page directory / PDPT / PML4 / PML5
// slot. Like the teacher's pageTableEntry, it is a bare uintptr rather than
// a struct, so reads and writes are single machine words with no risk of
// the compiler reordering field stores.
type entry uintptr

func (e entry) hasFlags(flags EntryFlag) bool {
	return uintptr(e)&uintptr(flags) == uintptr(flags)
}

func (e *entry) setFlags(flags EntryFlag) {
	*e = entry(uintptr(*e) | uintptr(flags))
}

func (e *entry) clearFlags(flags EntryFlag) {
	*e = entry(uintptr(*e) &^ uintptr(flags))
}

// physAddr returns the physical address this entry points to, using the
// huge-page field width when huge is true.
func (e entry) physAddr(huge bool) uint64 {
	if huge {
		return uint64(uintptr(e) & entryHugePhysAddrMask)
	}
	return uint64(uintptr(e) & entryPhysAddrMask)
}

func (e *entry) setPhysAddr(addr uint64, huge bool) {
	mask := entryPhysAddrMask
	if huge {
		mask = entryHugePhysAddrMask
	}
	*e = entry((uintptr(*e) &^ mask) | (uintptr(addr) & mask))
}

// tableAt returns a pointer to entry index i within the table whose
// physical base address is tableBase. The builder runs before any paging
// is active, so physical and virtual addresses coincide and this pointer
// can be dereferenced directly — no temporary mapping dance is needed the
// way the teacher's recursively-mapped vmm package requires.
func tableAt(tableBase uint64, i uintptr) *entry {
	return (*entry)(unsafe.Pointer(uintptr(tableBase) + i*unsafe.Sizeof(entry(0))))
}

// indexForLevel extracts the table index a virtual address selects at the
// given level.
func indexForLevel(virtAddr uint64, l level) uintptr {
	return (uintptr(virtAddr) >> shiftForLevel(l)) & entryIndexMask
}

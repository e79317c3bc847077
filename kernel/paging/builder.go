// Package paging builds the identity-mapped page table hierarchy used for
// the kernel's initial address space (spec.md §4.D): physical address X is
// always reachable at virtual address X, mapped with the largest hardware
// page size the CPU supports and the region's size justifies.
package paging

import (
	"corekernel/kernel"
	"corekernel/kernel/cpu"
	"corekernel/kernel/mem"
	"corekernel/kernel/memmap"
	"corekernel/kernel/memmap/alloc"
)

var errNoRAM = &kernel.Error{Module: "paging", Message: "memory map reports no usable RAM to map"}
var errAllocFailed = &kernel.Error{Module: "paging", Message: "failed to allocate backing storage for page tables"}

// Tables describes a built identity-mapped page table hierarchy: enough
// information for InstallRoot to load it into CR3 and for GetPage/
// SetRegionHWPages to walk it.
type Tables struct {
	rootPhys   uint64
	rootLevel  level
	leafLevel  level
	pageSize   uint64
	use5Level  bool
}

// RootPhysAddr returns the physical address of the top-most table, the
// value InstallRoot loads into CR3.
func (t *Tables) RootPhysAddr() uint64 { return t.rootPhys }

// PageSize returns the hardware page size chosen for leaf mappings.
func (t *Tables) PageSize() uint64 { return t.pageSize }

// choosePageSize implements the 1 GiB -> 2 MiB -> 4 KiB fallback ladder
// (spec.md §4.D): the largest page size is used only when the CPU
// supports it AND the mapped range is large enough that a single huge
// page is actually worth the coarser granularity.
func choosePageSize(features cpu.Features, maxAddr uint64) (uint64, level) {
	switch {
	case features.Has1GiBPages && maxAddr >= uint64(mem.PageSize1GiB):
		return uint64(mem.PageSize1GiB), levelPDPT
	case maxAddr >= uint64(mem.PageSize2MiB):
		return uint64(mem.PageSize2MiB), levelPD
	default:
		return uint64(mem.PageSize4KiB), levelPT
	}
}

func ceilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}

// tableCounts returns, for each level from rootLevel to leafLevel
// inclusive, the number of tables that level needs to address every leaf
// entry below it.
func tableCounts(rootLevel, leafLevel level, leafEntries uint64) map[level]uint64 {
	counts := make(map[level]uint64)
	n := ceilDiv(leafEntries, entriesPerTable)
	if n == 0 {
		n = 1
	}
	for l := leafLevel; ; l-- {
		counts[l] = n
		if l == rootLevel {
			break
		}
		n = ceilDiv(n, entriesPerTable)
		if n == 0 {
			n = 1
		}
	}
	return counts
}

// Build scans store for the highest reported physical address, picks a
// leaf page size and level count, allocates every table the hierarchy
// needs in one aligned request, and fills the tables top-down so that
// every physical byte address below that ceiling identity-maps to the
// same virtual address (spec.md §4.D).
func Build(store *memmap.Store, features cpu.Features) (*Tables, *kernel.Error) {
	maxAddr := store.HighestAddress()
	if maxAddr == 0 {
		return nil, errNoRAM
	}

	pageSize, leafLevel := choosePageSize(features, maxAddr)
	rootLevel := levelPML4
	use5Level := features.Has5LevelPaging
	if use5Level {
		rootLevel = levelPML5
	}

	leafEntries := ceilDiv(maxAddr, pageSize)
	counts := tableCounts(rootLevel, leafLevel, leafEntries)

	var totalTables uint64
	for l := rootLevel; l <= leafLevel; l++ {
		totalTables += counts[l]
	}

	tableBytes := totalTables * uint64(mem.PageSize4KiB)
	base := alloc.Alloc4KiB(tableBytes)
	if alloc.IsError(base) {
		return nil, errAllocFailed
	}
	kernel.Memset(uintptr(base), 0, uintptr(tableBytes))

	t := &Tables{rootLevel: rootLevel, leafLevel: leafLevel, pageSize: pageSize, use5Level: use5Level}

	// Carve the single allocation into per-level table arenas, highest
	// level first, and track a running cursor for "next free table" at
	// each level so the top-down fill below can bump-allocate child
	// tables as it walks down.
	arenaBase := make(map[level]uint64)
	cursor := make(map[level]uint64)
	offset := uint64(0)
	for l := rootLevel; l <= leafLevel; l++ {
		arenaBase[l] = base + offset
		cursor[l] = arenaBase[l]
		offset += counts[l] * uint64(mem.PageSize4KiB)
	}

	t.rootPhys = arenaBase[rootLevel]

	nextTable := func(l level) uint64 {
		addr := cursor[l]
		cursor[l] += uint64(mem.PageSize4KiB)
		return addr
	}

	// fillLevel populates every entry of the table at tableAddr for
	// levels above leafLevel with a pointer to a freshly bump-allocated
	// child table (allocating child tables lazily, only as needed to
	// cover [startAddr, maxAddr)), recursing until leafLevel is reached,
	// where entries become huge-page (or 4 KiB) leaves pointing directly
	// at physical memory.
	var fill func(l level, tableAddr uint64, startAddr uint64)
	fill = func(l level, tableAddr uint64, startAddr uint64) {
		span := uint64(1) << shiftForLevel(l)
		for i := uintptr(0); i < entriesPerTable; i++ {
			entryStart := startAddr + uint64(i)*span
			if entryStart >= maxAddr {
				break
			}
			e := tableAt(tableAddr, i)

			if l == leafLevel {
				e.setFlags(FlagPresent | FlagRW | FlagGlobal)
				if l != levelPT {
					e.setFlags(FlagHugePage)
				}
				e.setPhysAddr(entryStart, l != levelPT)
				continue
			}

			child := nextTable(l + 1)
			e.setFlags(FlagPresent | FlagRW)
			e.setPhysAddr(child, false)
			fill(l+1, child, entryStart)
		}
	}

	fill(rootLevel, t.rootPhys, 0)

	return t, nil
}

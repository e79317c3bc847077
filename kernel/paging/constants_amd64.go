package paging

// EntryFlag describes a flag that can be set on a page table entry. The bit
// layout matches the amd64 architecture's page table entry format exactly
// (Intel SDM vol. 3A, table 4-19 and friends).
type EntryFlag uintptr

const (
	// FlagPresent marks a table or page as present in memory.
	FlagPresent EntryFlag = 1 << iota

	// FlagRW allows writes through this mapping; cleared means read-only.
	FlagRW

	// FlagUserAccessible allows CPL3 access through this mapping.
	FlagUserAccessible

	// FlagWriteThrough selects write-through caching instead of write-back.
	FlagWriteThrough

	// FlagCacheDisable disables caching for this mapping.
	FlagCacheDisable

	// FlagAccessed is set by the CPU on first access; never set by the
	// builder itself.
	FlagAccessed

	// FlagDirty is set by the CPU on first write to a leaf page; never set
	// by the builder itself.
	FlagDirty

	// FlagHugePage marks a PDPT or PD entry as a leaf mapping a 1 GiB or
	// 2 MiB page directly, instead of pointing at the next table level.
	FlagHugePage

	// FlagGlobal exempts this translation from TLB invalidation on a CR3
	// reload, provided CR4.PGE is also set.
	FlagGlobal
)

// FlagNoExecute occupies the top bit of the entry (bit 63) and is only
// honored when EFER.NXE is set, which kernel/cpu's bring-up sequence does
// not itself enable — callers that set it are relying on firmware having
// already turned NXE on, consistent with every UEFI implementation in
// practice.
const FlagNoExecute = EntryFlag(1) << 63

// entryPhysAddrMask extracts bits 12-51, the physical address field shared
// by every non-huge entry and by 4 KiB leaf entries.
const entryPhysAddrMask = uintptr(0x000ffffffffff000)

// entryHugePhysAddrMask extracts the physical address field of a 2 MiB or
// 1 GiB huge-page leaf entry, which reserves more low bits for address
// alignment than a 4 KiB entry's field does.
const entryHugePhysAddrMask = uintptr(0x000fffffffe00000)

// level identifies a page-table depth, 0 being the root table nearest CR3.
type level uint8

const (
	levelPML5 level = iota
	levelPML4
	levelPDPT
	levelPD
	levelPT
	maxLevels
)

// shiftForLevel returns the virtual-address bit shift used to compute this
// level's index (Intel SDM vol. 3A §4.5).
func shiftForLevel(l level) uint8 {
	return [maxLevels]uint8{48, 39, 30, 21, 12}[l]
}

// entryBits is the number of virtual address bits consumed by a single
// table level's index: 9 bits -> 512 entries per table, on every level.
const entryBits = 9
const entriesPerTable = 1 << entryBits
const entryIndexMask = uintptr(entriesPerTable - 1)

package paging

import (
	"corekernel/kernel"
	"corekernel/kernel/kfmt"
	"corekernel/kernel/mem"
	"corekernel/kernel/memmap"
)

var (
	errNotMapped       = &kernel.Error{Module: "paging", Message: "virtual address has no mapping"}
	errMisalignedQuery = &kernel.Error{Module: "paging", Message: "address is not 4 KiB aligned"}
	errNotPageBase     = &kernel.Error{Module: "paging", Message: "address is not the base of its enclosing hardware page"}
)

// PageInfo describes the outcome of a single-page query (spec.md §4.D:
// "{raw_entry, page_size, whole_page_in_region, owning_descriptor_snapshot}").
// Region and WholeInRegion are only meaningful when the queried address
// falls inside some live memmap descriptor; a page mapped outside every
// descriptor (shouldn't happen for an identity map built from the same
// store, but GetPage takes the store as a parameter rather than assuming
// it) leaves WholeInRegion false and Region zeroed.
type PageInfo struct {
	PhysicalBase  uint64
	PageSize      uint64
	RawEntry      uintptr
	Flags         EntryFlag
	WholeInRegion bool
	Region        memmap.Descriptor
}

// walkToLeaf descends from t's root to the leaf entry that covers
// virtAddr, returning the entry's level, a pointer to it, and the base
// address of the span it covers. Because this builder only ever produces
// identity mappings, the physical address of every intermediate table
// equals its virtual address, so no translation step is needed to
// dereference table pointers while walking.
//
// virtAddr must be 4 KiB aligned and must be the actual base of whatever
// hardware page (4 KiB, 2 MiB or 1 GiB) ends up covering it — querying an
// address in the middle of a huge page is rejected rather than silently
// answered with that page's base, since a caller asking "what page is at
// X" almost always means X itself is a page boundary.
func (t *Tables) walkToLeaf(virtAddr uint64) (level, *entry, uint64, *kernel.Error) {
	if virtAddr%uint64(mem.PageSize4KiB) != 0 {
		kfmt.Printf("paging: query address %x is not 4 KiB aligned\n", virtAddr)
		return 0, nil, 0, errMisalignedQuery
	}

	tableAddr := t.rootPhys
	for l := t.rootLevel; ; l++ {
		idx := indexForLevel(virtAddr, l)
		e := tableAt(tableAddr, idx)
		if !e.hasFlags(FlagPresent) {
			return 0, nil, 0, errNotMapped
		}
		if l == t.leafLevel {
			span := uint64(1) << shiftForLevel(l)
			base := (virtAddr / span) * span
			if base != virtAddr {
				kfmt.Printf("paging: address %x is not the base of its enclosing %x-byte page\n", virtAddr, span)
				return 0, nil, 0, errNotPageBase
			}
			return l, e, base, nil
		}
		tableAddr = e.physAddr(false)
	}
}

// GetPage returns the physical base, page size, raw entry word and flags
// of the mapping covering virtAddr, plus whether the memmap descriptor
// owning that physical address fully contains the hardware page and a
// snapshot of that descriptor (spec.md §4.D's per-page query operation;
// testable property 7: "whole_page_in_region is true iff the descriptor at
// the queried base fully contains the hardware page"). store is the live
// memmap.Store to cross-reference against — callers pass kernel/memmap's
// process-wide singleton in practice, but GetPage takes it explicitly so
// tests can exercise the cross-reference against a scratch store.
func (t *Tables) GetPage(store *memmap.Store, virtAddr uint64) (PageInfo, *kernel.Error) {
	l, e, _, err := t.walkToLeaf(virtAddr)
	if err != nil {
		return PageInfo{}, err
	}
	huge := l != levelPT
	phys := e.physAddr(huge)
	pageSize := uint64(1) << shiftForLevel(l)

	info := PageInfo{
		PhysicalBase: phys,
		PageSize:     pageSize,
		RawEntry:     uintptr(*e),
		Flags:        entryFlags(*e),
	}

	if idx, ok := store.FindContaining(phys); ok {
		d := store.At(idx)
		info.Region = d
		info.WholeInRegion = d.PhysicalBase <= phys && phys+pageSize <= d.PhysicalBase+d.SizeBytes()
	}

	return info, nil
}

// VGetPage is GetPage's virtual-address-space counterpart: since this
// builder only ever produces an identity map, a page's physical and
// virtual addresses are the same value, and this is just a documented
// alias making that equivalence explicit at call sites that are
// conceptually reasoning about virtual addresses (e.g. the page-fault
// handler decoding %cr2).
func (t *Tables) VGetPage(store *memmap.Store, virtAddr uint64) (PageInfo, *kernel.Error) {
	return t.GetPage(store, virtAddr)
}

// entryFlags extracts the subset of an entry's bits that represent
// caller-meaningful flags (everything except the physical address field).
func entryFlags(e entry) EntryFlag {
	return EntryFlag(uintptr(e) &^ (entryPhysAddrMask | entryHugePhysAddrMask))
}

package paging

import (
	"corekernel/kernel"
	"corekernel/kernel/memmap"
)

var (
	errMisaligned     = &kernel.Error{Module: "paging", Message: "region is not aligned to the table's leaf page size"}
	errRegionNotFound = &kernel.Error{Module: "paging", Message: "base does not match any memory-map descriptor's physical_base"}
)

// SetRegionHWPages updates the flags of every leaf entry covering
// [base, base+size) to set and clear, and records attr as the owning
// memmap descriptor's attribute word (spec.md §4.D's per-region modify
// operation). base must be exactly the physical_base of a live descriptor
// in store — this rejects an arbitrary mid-region address the way free()
// in kernel/memmap/alloc rejects a mid-allocation address, since a region
// modify is meant to apply to a whole bookkept span, not a caller-chosen
// slice of one. base and size must also both be multiples of t.PageSize();
// this builder does not split a huge leaf to change the flags of part of
// it, since every caller in this kernel (toggling NX on a loaded module,
// marking a region read-only after relocation fixups) operates on whole
// regions that were themselves allocated at leaf granularity.
func (t *Tables) SetRegionHWPages(store *memmap.Store, base, size uint64, set, clear EntryFlag, attr uint64) *kernel.Error {
	if base%t.pageSize != 0 || size%t.pageSize != 0 {
		return errMisaligned
	}
	if _, ok := store.FindByBase(base); !ok {
		return errRegionNotFound
	}

	for addr := base; addr < base+size; addr += t.pageSize {
		_, e, _, err := t.walkToLeaf(addr)
		if err != nil {
			return err
		}
		e.clearFlags(clear)
		e.setFlags(set)
	}

	return store.SetAttributes(base, attr)
}

// VSetRegionHWPages is SetRegionHWPages's virtual-address counterpart: it
// translates virtBase to its backing descriptor's physical_base first, via
// the same store, before delegating. Since this builder only ever
// produces identity maps, that translation is a lookup rather than an
// arithmetic shift, but it keeps the physical and virtual bookkeeping
// namespaces independent the way kernel/memmap/alloc's virtual allocator
// does.
func (t *Tables) VSetRegionHWPages(store *memmap.Store, virtBase, size uint64, set, clear EntryFlag, attr uint64) *kernel.Error {
	idx, ok := store.FindByVirtualBase(virtBase)
	if !ok {
		return errRegionNotFound
	}
	physBase := store.At(idx).PhysicalBase
	return t.SetRegionHWPages(store, physBase, size, set, clear, attr)
}

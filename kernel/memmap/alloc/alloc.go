// Package alloc implements the physical and virtual allocators that sit on
// top of kernel/memmap's descriptor array (spec.md §4.C). There is no heap
// here in the Go runtime sense — every allocation is a carve-out of a live
// memmap.Descriptor, recorded by turning a slice of EfiConventionalMemory
// into a MallocPhysical or MallocVirtual descriptor.
package alloc

import (
	"corekernel/kernel"
	"corekernel/kernel/mem"
	"corekernel/kernel/memmap"
)

// ErrorBit marks a returned address as a failure sentinel rather than a
// usable address (spec.md §4.C: "allocation failure is signaled by setting
// the address's top bit, since bit 63 can never be set in a canonical,
// currently-mapped user- or kernel-space address"). Callers test with
// IsError before using a returned address.
const ErrorBit = uint64(1) << 63

// IsError reports whether addr is a failure sentinel.
func IsError(addr uint64) bool { return addr&ErrorBit != 0 }

var (
	errNoSpace = &kernel.Error{Module: "alloc", Message: "no conventional region large enough for the request"}
	errNotMine = &kernel.Error{Module: "alloc", Message: "address does not belong to a live allocation"}
)

// classAlignment returns the alignment a request of this size most likely
// wants (spec.md §4.C's literal table: "≤2MiB→4KiB, ≤1GiB→2MiB,
// ≤512GiB→1GiB, ≤256TiB→512GiB, else 256TiB"). A request only earns a
// bigger alignment once it's actually big enough to plausibly be mapped
// with the next hardware page size up; nothing above 256 TiB gets coarser
// than the 256 TiB class, since that's the largest one the ladder names.
func classAlignment(bytes uint64) uint64 {
	switch {
	case bytes > uint64(mem.PageSize256TiB):
		return uint64(mem.PageSize256TiB)
	case bytes > uint64(mem.PageSize512GiB):
		return uint64(mem.PageSize512GiB)
	case bytes > uint64(mem.PageSize1GiB):
		return uint64(mem.PageSize1GiB)
	case bytes > uint64(mem.PageSize2MiB):
		return uint64(mem.PageSize2MiB)
	default:
		return uint64(mem.PageSize4KiB)
	}
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	if rem := v % align; rem != 0 {
		return v + (align - rem)
	}
	return v
}

// allocWithAlignment carves size bytes out of the first conventional
// region of at least that size, aligned to align, and marks it with kind.
// It reserves two spare descriptor slots first since a carve-out in the
// interior of a conventional region needs a three-way split.
func allocWithAlignment(store *memmap.Store, size, align uint64, kind memmap.Kind) (uint64, *kernel.Error) {
	size = alignUp(size, align)
	base, ok := store.FindFreeSpan(size, align)
	if !ok {
		return ErrorBit, errNoSpace
	}
	if err := store.Prepare(2); err != nil {
		return ErrorBit, err
	}
	if err := store.ChangeKind(base, size, kind); err != nil {
		return ErrorBit, err
	}
	return base, nil
}

// Alloc carves out a physical region at least bytes long, at the
// alignment its size class implies, and marks it MallocPhysical. It
// returns a failure sentinel (test with IsError) if no region fits.
func Alloc(bytes uint64) uint64 {
	addr, err := allocWithAlignment(memmap.Default(), bytes, classAlignment(bytes), memmap.MallocPhysical)
	if err != nil {
		return ErrorBit
	}
	return addr
}

// Alloc4KiB forces 4 KiB alignment regardless of the request's natural
// size class — used for page-table-level allocations (spec.md §4.D).
func Alloc4KiB(bytes uint64) uint64 { return alloc(bytes, uint64(mem.PageSize4KiB)) }

// Alloc2MiB forces 2 MiB alignment — used for allocations the page-table
// builder intends to map with 2 MiB hardware pages.
func Alloc2MiB(bytes uint64) uint64 { return alloc(bytes, uint64(mem.PageSize2MiB)) }

// Alloc1GiB forces 1 GiB alignment — used for allocations intended to be
// mapped with 1 GiB hardware pages when the CPU supports them.
func Alloc1GiB(bytes uint64) uint64 { return alloc(bytes, uint64(mem.PageSize1GiB)) }

// Alloc512GiB forces 512 GiB alignment.
func Alloc512GiB(bytes uint64) uint64 { return alloc(bytes, uint64(mem.PageSize512GiB)) }

// Alloc256TiB forces 256 TiB alignment.
func Alloc256TiB(bytes uint64) uint64 { return alloc(bytes, uint64(mem.PageSize256TiB)) }

func alloc(bytes, align uint64) uint64 {
	addr, err := allocWithAlignment(memmap.Default(), bytes, align, memmap.MallocPhysical)
	if err != nil {
		return ErrorBit
	}
	return addr
}

// Free releases a region previously returned by Alloc* back to
// EfiConventionalMemory and folds it into any adjacent free regions
// (spec.md §4.C: "free() looks up the Malloc* descriptor by base address,
// restores it to conventional, and merges"). It is an error to free an
// address that is not exactly the base of a live Malloc* descriptor.
func Free(addr uint64) *kernel.Error {
	store := memmap.Default()
	idx, ok := store.FindByBase(addr)
	if !ok {
		return errNotMine
	}
	d := store.At(idx)
	if !d.Kind.IsMalloc() {
		return errNotMine
	}
	if err := store.ChangeKind(d.PhysicalBase, d.SizeBytes(), memmap.EfiConventionalMemory); err != nil {
		return err
	}
	store.MergeFree()
	return nil
}

// Realloc resizes the allocation at addr to newBytes, preserving its
// contents up to the smaller of the old and new sizes (spec.md §4.C).
// Shrinking releases the tail back to conventional memory in place.
// Growing first tries to extend into an immediately adjacent conventional
// region; if that fails it falls back to a fresh Alloc, copies the old
// contents, and frees the old region. newBytes == 0 behaves like Free and
// returns the zero sentinel address... except the sentinel collides with a
// legitimate high address, so Realloc instead returns (0, nil) for that
// case and callers must treat a zero-length reallocation as "freed".
func Realloc(addr uint64, newBytes uint64) (uint64, *kernel.Error) {
	store := memmap.Default()
	idx, ok := store.FindByBase(addr)
	if !ok {
		return ErrorBit, errNotMine
	}
	d := store.At(idx)
	if !d.Kind.IsMalloc() {
		return ErrorBit, errNotMine
	}

	if newBytes == 0 {
		if err := Free(addr); err != nil {
			return ErrorBit, err
		}
		return 0, nil
	}

	align := classAlignment(newBytes)
	newSize := alignUp(newBytes, align)
	oldSize := d.SizeBytes()

	if newSize == oldSize {
		return addr, nil
	}

	if newSize < oldSize {
		shrinkBy := oldSize - newSize
		// spec.md §4.C: shrinking degrades gracefully rather than failing
		// outright when there's no spare descriptor slot for the split —
		// the allocation just keeps its old, larger size for now.
		if err := store.Prepare(2); err == nil {
			if cErr := store.ChangeKind(addr+newSize, shrinkBy, memmap.EfiConventionalMemory); cErr == nil {
				store.MergeFree()
			}
		}
		return addr, nil
	}

	// Growing: try to extend in place if the immediately following region
	// is conventional and big enough, otherwise relocate.
	if nextIdx, ok := store.FindByBase(addr + oldSize); ok {
		next := store.At(nextIdx)
		grow := newSize - oldSize
		if next.Kind == memmap.EfiConventionalMemory && next.SizeBytes() >= grow {
			if err := store.Prepare(2); err == nil {
				if cErr := store.ChangeKind(addr+oldSize, grow, d.Kind); cErr == nil {
					// ChangeKind only flipped the absorbed neighbour's
					// kind in place; fold it back into the original
					// descriptor so the allocation is one slot again.
					if origIdx, ok := store.FindByBase(addr); ok {
						store.CoalesceWithNext(origIdx)
					}
					return addr, nil
				}
			}
			// Prepare or ChangeKind failed; fall through to relocation.
		}
	}

	fresh, err := allocWithAlignment(store, newSize, align, d.Kind)
	if err != nil {
		return ErrorBit, err
	}
	kernel.Memcopy(uintptr(addr), uintptr(fresh), uintptr(oldSize))
	if err := Free(addr); err != nil {
		return ErrorBit, err
	}
	return fresh, nil
}

// AllocVirtual is Alloc's virtual-address counterpart (spec.md §4.C:
// "Virtual-address variants are functionally identical but match on
// virtual_base... the two subspaces are bookkept independently"): the same
// first-fit, alignment-classed scan over conventional memory, marked
// MallocVirtual instead of MallocPhysical. This kernel's page-table
// builder only ever produces identity mappings (spec.md §1 excludes
// non-identity virtual-memory mapping from scope), so the carved region's
// virtual base is the same address as its physical base — but it is still
// recorded in, and matched on via, VirtualBase rather than PhysicalBase,
// keeping the physical and virtual allocation pools independent
// namespaces even though they draw from the same conventional memory.
func AllocVirtual(bytes uint64) uint64 {
	store := memmap.Default()
	addr, err := allocWithAlignment(store, bytes, classAlignment(bytes), memmap.MallocVirtual)
	if err != nil {
		return ErrorBit
	}
	if err := store.SetVirtualBase(addr, addr); err != nil {
		return ErrorBit
	}
	return addr
}

// FreeVirtual releases a region previously returned by AllocVirtual, the
// virtual-address counterpart to Free: it resolves virtualBase through the
// descriptor's virtual_base field, then shares Free's restore-and-merge
// logic.
func FreeVirtual(virtualBase uint64) *kernel.Error {
	store := memmap.Default()
	idx, ok := store.FindByVirtualBase(virtualBase)
	if !ok {
		return errNotMine
	}
	d := store.At(idx)
	if d.Kind != memmap.MallocVirtual {
		return errNotMine
	}
	return Free(d.PhysicalBase)
}

// ReallocVirtual is Realloc's virtual-address counterpart: it resolves
// virtualBase to its backing descriptor through virtual_base, delegates to
// Realloc's resize logic, and re-stamps the (possibly relocated)
// descriptor's virtual_base afterward.
func ReallocVirtual(virtualBase uint64, newBytes uint64) (uint64, *kernel.Error) {
	store := memmap.Default()
	idx, ok := store.FindByVirtualBase(virtualBase)
	if !ok {
		return ErrorBit, errNotMine
	}
	d := store.At(idx)
	if d.Kind != memmap.MallocVirtual {
		return ErrorBit, errNotMine
	}

	newAddr, err := Realloc(d.PhysicalBase, newBytes)
	if err != nil {
		return ErrorBit, err
	}
	if newAddr == 0 {
		return 0, nil
	}
	if err := store.SetVirtualBase(newAddr, newAddr); err != nil {
		return ErrorBit, err
	}
	return newAddr, nil
}

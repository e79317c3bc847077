package memmap

import (
	"corekernel/kernel"
	"unsafe"
)

// rawDescriptor mirrors the natural, firmware-defined layout of a memory
// descriptor record (spec.md §4.A invariant: "stride is firmware-reported
// and must never be assumed equal to the natural record size; it may be
// larger to leave room for fields a newer firmware revision defines").
// Store never indexes this type directly as an array element — every
// access goes through ptrAt, which honors store.stride instead of
// unsafe.Sizeof(rawDescriptor{}).
type rawDescriptor struct {
	kind         uint32
	_            uint32
	physicalBase uint64
	virtualBase  uint64
	pageCount    uint64
	attributes   uint64
}

// naturalDescriptorSize is sizeof(rawDescriptor): the smallest stride a
// conformant firmware map can use (spec.md §4.A: "Stride >= 48 bytes").
const naturalDescriptorSize = uint64(unsafe.Sizeof(rawDescriptor{}))

// NaturalDescriptorSize exposes naturalDescriptorSize for callers (boot
// handoff, tests) that need to size a backing buffer before a stride is
// known from firmware.
const NaturalDescriptorSize = naturalDescriptorSize

// Store is the single process-wide record of the firmware memory map
// (spec.md §4.A: "held in a single process-wide record; there is exactly
// one map"). It owns a backing byte buffer addressed by basePtr, walked in
// units of stride rather than sizeof(Descriptor) — see rawDescriptor.
//
// Store's exported surface (Len/At/ForEach/FindByBase) is safe for any
// package to call. The mutating operations in mutator.go are meant to be
// driven only by the map-prep (component B) and page-table-builder
// (component D) stages of boot; nothing structurally prevents other
// callers, but the boot sequence never needs to call them after handoff
// completes.
type Store struct {
	basePtr       uintptr
	count         uint64 // number of live descriptor slots
	capacity      uint64 // number of slots the backing allocation can hold
	stride        uint64
	firmwareMajor uint32
	firmwareMinor uint32
}

// global is the one memory map record for the life of the kernel.
var global Store

// Default returns the process-wide memory map singleton.
func Default() *Store { return &global }

// Load initializes the store from a firmware-supplied descriptor array:
// basePtr/count/stride describe the array exactly as handed off at boot
// (spec.md §2, §4.A), with no copy. version identifies the firmware's
// memory-map format revision for diagnostics only.
func (s *Store) Load(basePtr uintptr, count uint64, stride uint64, version uint32) {
	s.basePtr = basePtr
	s.count = count
	s.capacity = count
	s.stride = stride
	s.firmwareMajor = version
	s.firmwareMinor = 0
}

// LoadDescriptors points the store at basePtr (a buffer of at least
// capacity*stride bytes) and writes descs into its leading slots. It is the
// bulk counterpart to Load+individual writes, used by boot-time tests and
// by kernel/boot when firmware hands off a map that needs normalizing into
// a fresh, larger backing buffer before use.
func (s *Store) LoadDescriptors(basePtr uintptr, stride uint64, capacity uint64, descs []Descriptor) {
	s.basePtr = basePtr
	s.stride = stride
	s.capacity = capacity
	s.count = uint64(len(descs))
	for i, d := range descs {
		s.setAt(uint64(i), d)
	}
}

// Len returns the number of live descriptor slots.
func (s *Store) Len() int { return int(s.count) }

// Stride returns the firmware-reported descriptor stride in bytes.
func (s *Store) Stride() uint64 { return s.stride }

// addPtr computes base+off as a *rawDescriptor without going through a
// Store, for use during relocation when two backing buffers are live at
// once (mutator.go's Prepare).
func addPtr(base uintptr, off uint64) unsafe.Pointer {
	return unsafe.Pointer(base + uintptr(off))
}

// ptrAt returns the raw descriptor pointer for slot i. Callers must ensure
// 0 <= i < s.capacity; this mirrors the teacher's own unchecked
// unsafe.Pointer arithmetic in pmm/allocator and is only ever reached
// through bounds-checked exported methods.
func (s *Store) ptrAt(i uint64) *rawDescriptor {
	return (*rawDescriptor)(unsafe.Pointer(s.basePtr + uintptr(i*s.stride)))
}

// At decodes and returns the descriptor stored in slot i.
func (s *Store) At(i int) Descriptor {
	if i < 0 || uint64(i) >= s.count {
		return Descriptor{}
	}
	r := s.ptrAt(uint64(i))
	return Descriptor{
		Kind:         Kind(r.kind),
		PhysicalBase: r.physicalBase,
		VirtualBase:  r.virtualBase,
		PageCount:    r.pageCount,
		Attributes:   r.attributes,
	}
}

// setAt encodes d into slot i, overwriting whatever was there. It never
// touches bytes beyond naturalDescriptorSize, so any firmware-reserved
// padding within a wider stride survives untouched.
func (s *Store) setAt(i uint64, d Descriptor) {
	r := s.ptrAt(i)
	r.kind = uint32(d.Kind)
	r.physicalBase = d.PhysicalBase
	r.virtualBase = d.VirtualBase
	r.pageCount = d.PageCount
	r.attributes = d.Attributes
}

// ForEach calls visit once per live descriptor, in array order. visit
// returning false stops the iteration early.
func (s *Store) ForEach(visit func(i int, d Descriptor) bool) {
	for i := 0; i < s.Len(); i++ {
		if !visit(i, s.At(i)) {
			return
		}
	}
}

// FindByBase returns the index of the descriptor whose PhysicalBase equals
// base, and true, or (0, false) if no such descriptor exists. Used by
// free() (spec.md §4.C) to locate the Malloc* descriptor being released.
func (s *Store) FindByBase(base uint64) (int, bool) {
	idx := -1
	s.ForEach(func(i int, d Descriptor) bool {
		if d.PhysicalBase == base {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// FindByVirtualBase returns the index of the descriptor whose VirtualBase
// equals base, and true, or (0, false) if no such descriptor exists. The
// virtual-address allocator variants (kernel/memmap/alloc) key off this
// instead of FindByBase's physical_base match, keeping the physical and
// virtual bookkeeping namespaces independent (spec.md §4.C) even when, as
// in this identity-mapping-only kernel, the two addresses coincide.
func (s *Store) FindByVirtualBase(base uint64) (int, bool) {
	idx := -1
	s.ForEach(func(i int, d Descriptor) bool {
		if d.VirtualBase == base {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// SetVirtualBase records virtBase as the descriptor's virtual_base field.
// The descriptor is located by its physical_base, which must match
// physBase exactly. Used by the virtual allocator to mirror a freshly
// carved identity-mapped region's address into its own virtual-address
// bookkeeping field, independent of the kind-only updates ChangeKind makes.
func (s *Store) SetVirtualBase(physBase uint64, virtBase uint64) *kernel.Error {
	idx, ok := s.FindByBase(physBase)
	if !ok {
		return errRangeNotFound
	}
	d := s.At(idx)
	d.VirtualBase = virtBase
	s.setAt(uint64(idx), d)
	return nil
}

// SetAttributes writes attr into the descriptor whose physical_base equals
// physBase exactly. Used by kernel/paging's SetRegionHWPages (spec.md
// §4.D: "Also updates the descriptor's attribute word") to keep a region's
// memmap bookkeeping in step with the hardware page-table flags a modify
// call just changed.
func (s *Store) SetAttributes(physBase uint64, attr uint64) *kernel.Error {
	idx, ok := s.FindByBase(physBase)
	if !ok {
		return errRangeNotFound
	}
	d := s.At(idx)
	d.Attributes = attr
	s.setAt(uint64(idx), d)
	return nil
}

// FindContaining returns the index of the descriptor whose range contains
// the physical byte address addr, and true, or (0, false) if none does.
func (s *Store) FindContaining(addr uint64) (int, bool) {
	idx := -1
	s.ForEach(func(i int, d Descriptor) bool {
		if d.Contains(addr) {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// TotalPages sums PageCount across every live descriptor of the given
// kind. Used by kernel/paging to size the identity map.
func (s *Store) TotalPages(k Kind) uint64 {
	var total uint64
	s.ForEach(func(_ int, d Descriptor) bool {
		if d.Kind == k {
			total += d.PageCount
		}
		return true
	})
	return total
}

// FindFreeSpan performs a first-fit scan (spec.md §4.C: "the allocator
// walks the map in order and takes the first conventional descriptor large
// enough to satisfy the request") for a conventional descriptor at least
// sizeBytes long whose base is aligned to alignBytes. It returns the
// chosen base address and true, or (0, false) if none fits.
func (s *Store) FindFreeSpan(sizeBytes, alignBytes uint64) (uint64, bool) {
	var base uint64
	found := false
	s.ForEach(func(_ int, d Descriptor) bool {
		if d.Kind != EfiConventionalMemory {
			return true
		}
		aligned := alignUp(d.PhysicalBase, alignBytes)
		pad := aligned - d.PhysicalBase
		if d.SizeBytes() < pad+sizeBytes {
			return true
		}
		base = aligned
		found = true
		return false
	})
	return base, found
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// HighestAddress returns the highest physical byte address one past the
// end of any live descriptor (spec.md §4.D: page-table builder needs "the
// highest physical address reported across the whole map").
func (s *Store) HighestAddress() uint64 {
	var top uint64
	s.ForEach(func(_ int, d Descriptor) bool {
		if end := d.PhysicalBase + d.SizeBytes(); end > top {
			top = end
		}
		return true
	})
	return top
}

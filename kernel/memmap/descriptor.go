// Package memmap owns the authoritative array of memory descriptors handed
// off by firmware (spec.md §3 §4.A) and the mutator that inserts, splits,
// merges and relocates that array in place (spec.md §4.B). Every allocator
// in kernel/memmap/alloc and the page-table builder in kernel/paging build
// on top of this package; nothing outside memmap ever touches the backing
// array directly.
package memmap

// Kind classifies a memory descriptor. The first block of values mirrors
// the firmware-defined EFI memory types verbatim (spec.md §3: "kind is one
// of the firmware-defined categories"); the four kernel-local kinds that
// follow extend that enumeration rather than replacing it, so a descriptor
// handed back unmodified from firmware round-trips through this type with
// no translation step.
type Kind uint32

// Firmware-defined memory types, in UEFI's canonical order.
const (
	EfiReservedMemoryType Kind = iota
	EfiLoaderCode
	EfiLoaderData
	EfiBootServicesCode
	EfiBootServicesData
	EfiRuntimeServicesCode
	EfiRuntimeServicesData
	EfiConventionalMemory
	EfiUnusableMemory
	EfiACPIReclaimMemory
	EfiACPIMemoryNVS
	EfiMemoryMappedIO
	EfiMemoryMappedIOPortSpace
	EfiPalCode
	EfiPersistentMemory

	efiKindBoundary // marks the end of the firmware-defined range
)

// Kernel-local kinds (spec.md §3): regions claimed by this kernel's own
// allocators and structures, never produced by firmware.
const (
	// MallocPhysical marks a region handed out by the physical allocator.
	MallocPhysical Kind = efiKindBoundary + iota
	// MallocVirtual marks a region handed out by the virtual allocator.
	MallocVirtual
	// MemoryMapSelf marks the page(s) backing the memory map itself.
	MemoryMapSelf
	// PageTables marks the pages holding the identity page-table
	// hierarchy built by kernel/paging.
	PageTables
)

// String renders a human-readable name for diagnostics (boot log dumps,
// panic messages).
func (k Kind) String() string {
	switch k {
	case EfiReservedMemoryType:
		return "Reserved"
	case EfiLoaderCode:
		return "LoaderCode"
	case EfiLoaderData:
		return "LoaderData"
	case EfiBootServicesCode:
		return "BootServicesCode"
	case EfiBootServicesData:
		return "BootServicesData"
	case EfiRuntimeServicesCode:
		return "RuntimeServicesCode"
	case EfiRuntimeServicesData:
		return "RuntimeServicesData"
	case EfiConventionalMemory:
		return "Conventional"
	case EfiUnusableMemory:
		return "Unusable"
	case EfiACPIReclaimMemory:
		return "ACPIReclaim"
	case EfiACPIMemoryNVS:
		return "ACPINvs"
	case EfiMemoryMappedIO:
		return "MMIO"
	case EfiMemoryMappedIOPortSpace:
		return "MMIOPortSpace"
	case EfiPalCode:
		return "PalCode"
	case EfiPersistentMemory:
		return "Persistent"
	case MallocPhysical:
		return "MallocPhysical"
	case MallocVirtual:
		return "MallocVirtual"
	case MemoryMapSelf:
		return "MemoryMapSelf"
	case PageTables:
		return "PageTables"
	default:
		return "Unknown"
	}
}

// IsMalloc reports whether k is one of the kernel's own live-allocation
// kinds (spec.md §4.C: free() "looks up the Malloc* descriptor by base
// address").
func (k Kind) IsMalloc() bool {
	return k == MallocPhysical || k == MallocVirtual
}

// Descriptor is the decoded, in-memory view of one memory map record
// (spec.md §3): a physical/virtual range, its kind, and its attribute word.
// PageCount is always expressed in fixed 4 KiB pages regardless of which
// hardware page size kernel/paging ultimately maps the range with.
type Descriptor struct {
	Kind         Kind
	PhysicalBase uint64
	VirtualBase  uint64
	PageCount    uint64
	Attributes   uint64
}

// SizeBytes returns the descriptor's extent in bytes (PageCount * 4 KiB).
func (d Descriptor) SizeBytes() uint64 {
	return d.PageCount * pageSizeBytes
}

// Contains reports whether the physical byte address addr falls inside
// this descriptor's range.
func (d Descriptor) Contains(addr uint64) bool {
	return addr >= d.PhysicalBase && addr < d.PhysicalBase+d.SizeBytes()
}

// pageSizeBytes is the fixed 4 KiB quantum spec.md §3 defines PageCount in.
// It is duplicated here (rather than imported from kernel/mem) so that this
// package has no compile-time dependency on the mem package's full
// architecture-constant surface — only the one constant it actually needs.
const pageSizeBytes = 4096

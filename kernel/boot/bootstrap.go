package boot

import (
	"corekernel/kernel"
	"corekernel/kernel/cpu"
	"corekernel/kernel/gdt"
	"corekernel/kernel/idt"
	"corekernel/kernel/irq"
	"corekernel/kernel/kfmt"
	"corekernel/kernel/memmap"
	"corekernel/kernel/paging"
)

var errKmainReturned = &kernel.Error{Module: "boot", Message: "Bootstrap returned"}

// reclaimableKinds are the firmware memory kinds that exist only to serve
// the boot process; once the kernel core is in control of its own page
// tables, they're ordinary usable RAM (spec.md §2: "reclaim boot-services/
// loader memory" is the step between the page-table build and finishing
// bring-up).
var reclaimableKinds = []memmap.Kind{
	memmap.EfiBootServicesCode,
	memmap.EfiBootServicesData,
	memmap.EfiLoaderCode,
	memmap.EfiLoaderData,
}

// Bootstrap runs the G→E→B→D control flow spec.md §2 describes, in order:
//
//	G  CPU bring-up (feature enablement, XSAVE/XCR0, TSC calibration)
//	E  descriptor tables (GDT+TSS, then the IDT, which requires the TSS's
//	   IST stacks to already be installed)
//	   interrupt dispatcher XSAVE masks, derived from the same CPU
//	   features G detected
//	B  memory-map preparation (load the firmware map)
//	D  the identity-mapping page-table build and install
//
// followed by reclaiming boot-services/loader memory back into
// conventional RAM. Before any of this, Panic's halt function is set to an
// interrupt-disabled HLT loop.
//
// Bootstrap does not return on success; the caller (cmd/kernel) is not
// expected to do anything after it but loop, matching the teacher's own
// Kmain contract.
func Bootstrap(record *HandoffRecord) {
	kfmt.SetHaltFunc(func() {
		cpu.DisableInterrupts()
		for {
			cpu.Halt()
		}
	})

	info, err := cpu.Init()
	if err != nil {
		kfmt.Panic(err)
	}

	gdt.Build()
	if err := idt.Init(); err != nil {
		kfmt.Panic(err)
	}
	irq.Init(info.Features)

	descriptorCount := record.MemoryMapSize / record.MemoryMapDescriptorStride
	store := memmap.Default()
	store.Load(record.MemoryMapBase, descriptorCount, record.MemoryMapDescriptorStride, record.MemoryMapDescriptorVersion)

	paging.DisableGlobalPages()
	tables, err := paging.Build(store, info.Features)
	if err != nil {
		kfmt.Panic(err)
	}
	tables.InstallRoot()
	paging.EnableGlobalPages()

	reclaimBootMemory(store)

	kfmt.Panic(errKmainReturned)
}

// reclaimBootMemory converts every boot-services/loader descriptor back to
// conventional memory and merges adjacent runs, so the allocator sees the
// full extent of usable RAM rather than artificially carved-out boot-only
// regions.
func reclaimBootMemory(store *memmap.Store) {
	for _, kind := range reclaimableKinds {
		reclaimKind(store, kind)
	}
	store.MergeFree()
}

// reclaimKind repeatedly finds and converts the first remaining descriptor
// of kind, restarting the scan after each mutation since ChangeKind may
// shift later slots (kernel/memmap's mutator documents this "triple-write"
// reordering contract).
func reclaimKind(store *memmap.Store, kind memmap.Kind) {
	for {
		idx, found := findFirstOfKind(store, kind)
		if !found {
			return
		}
		d := store.At(idx)
		if err := store.ChangeKind(d.PhysicalBase, d.SizeBytes(), memmap.EfiConventionalMemory); err != nil {
			kfmt.Panic(err)
		}
	}
}

func findFirstOfKind(store *memmap.Store, kind memmap.Kind) (int, bool) {
	found := -1
	store.ForEach(func(i int, d memmap.Descriptor) bool {
		if d.Kind == kind {
			found = i
			return false
		}
		return true
	})
	return found, found >= 0
}

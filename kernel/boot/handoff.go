// Package boot defines the bootloader-to-kernel handoff record (spec.md
// §6) and the G→E→B→D control-flow orchestration that turns it into a
// running kernel core: CPU bring-up, descriptor tables, memory-map
// preparation, and the identity page-table build.
package boot

import "corekernel/kernel/acpi"

// GraphicsMode describes the framebuffer the firmware's graphics-output
// protocol handed off, carried through for the console/graphics driver
// this core treats as an external collaborator (spec.md §1).
type GraphicsMode struct {
	FramebufferBase   uint64
	FramebufferSize   uint64
	PixelFormat       uint32
	HorizontalRes     uint32
	VerticalRes       uint32
	PixelsPerScanline uint32
}

// HandoffRecord is the single structure the bootloader passes to
// kernel_main (spec.md §6): the firmware memory map (pointer, byte size,
// descriptor stride, and descriptor format version — stride must never be
// assumed to equal a natural Go struct size, per kernel/memmap), the
// runtime-services table pointer, the UEFI configuration-table array, and
// the graphics-output mode.
type HandoffRecord struct {
	MemoryMapBase              uintptr
	MemoryMapSize              uint64
	MemoryMapDescriptorStride  uint64
	MemoryMapDescriptorVersion uint32

	RuntimeServicesTable uintptr

	ConfigTableBase  uintptr
	ConfigTableCount uint64

	Graphics GraphicsMode
}

// ConfigTable reinterprets the handoff record's configuration-table array
// as acpi.ConfigTableEntry values, the same flat-array-over-a-pointer
// pattern kernel/memmap's Store uses for the firmware memory map.
func (h *HandoffRecord) ConfigTable() []acpi.ConfigTableEntry {
	if h.ConfigTableBase == 0 || h.ConfigTableCount == 0 {
		return nil
	}
	return unsafeConfigTableSlice(h.ConfigTableBase, h.ConfigTableCount)
}

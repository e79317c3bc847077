package boot

import (
	"unsafe"

	"corekernel/kernel/acpi"
)

// unsafeConfigTableSlice builds a slice view over the UEFI configuration
// table array living at base, count entries long. acpi.ConfigTableEntry's
// two fields (a 16-byte GUID array and a uintptr) are already laid out
// exactly as EFI_CONFIGURATION_TABLE packs them, so no stride correction
// is needed here the way kernel/memmap needs one for firmware memory
// descriptors.
func unsafeConfigTableSlice(base uintptr, count uint64) []acpi.ConfigTableEntry {
	return unsafe.Slice((*acpi.ConfigTableEntry)(unsafe.Pointer(base)), int(count))
}

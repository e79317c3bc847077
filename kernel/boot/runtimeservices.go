package boot

import "unsafe"

// Byte offsets of the two EFI_RUNTIME_SERVICES table entries this kernel
// core consumes (UEFI spec): a 24-byte EFI_TABLE_HEADER followed by
// 8-byte function pointers in a fixed order. SetVirtualAddressMap is the
// fifth pointer, ResetSystem the eleventh; every intervening pointer
// (GetTime, SetTime, GetWakeupTime, SetWakeupTime, ConvertPointer, the
// variable-service calls, GetNextHighMonotonicCount) is left untouched
// since this core never calls them.
const (
	offSetVirtualAddressMap = 56
	offResetSystem          = 104
)

// ResetType selects the kind of system reset ResetSystem requests
// (spec.md §6).
type ResetType uint32

const (
	ResetCold     ResetType = 0
	ResetWarm     ResetType = 1
	ResetShutdown ResetType = 2
)

// callEFI4 is a hand-written assembly trampoline (runtimeservices_amd64.s)
// that loads its four 64-bit arguments into the Microsoft x64 calling
// convention's RCX/RDX/R8/R9 and calls fnPtr, reserving the 32-byte shadow
// space that convention requires beneath the return address — the
// firmware's runtime-services functions use that ABI, not Go's internal
// one, so a plain Go function value cannot call them directly.
func callEFI4(fnPtr uintptr, a1, a2, a3, a4 uint64) uint64

// RuntimeServices is a thin accessor over the firmware's runtime-services
// table (spec.md §6): "optional, used only for reset and virtual-address-
// map install" per spec.md §1, so no other entry of the table is modeled.
type RuntimeServices struct {
	base uintptr
}

// NewRuntimeServices wraps the table pointer the handoff record carries.
func NewRuntimeServices(tableBase uintptr) RuntimeServices {
	return RuntimeServices{base: tableBase}
}

func (rs RuntimeServices) functionAt(offset uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(rs.base + offset))
}

// SetVirtualAddressMap asks the firmware to switch to the supplied virtual
// memory map; mapSize is the total byte size of the map and descriptorSize
// its per-entry stride (spec.md §6: "called once with an identity
// mapping"). A non-zero return is an EFI_STATUS failure code; the caller
// is responsible for rolling the map back to the firmware-supplied
// pointer, per spec.md §6.
func (rs RuntimeServices) SetVirtualAddressMap(mapSize, descriptorSize uint64, descriptorVersion uint32, virtualMap uintptr) uint64 {
	fn := rs.functionAt(offSetVirtualAddressMap)
	return callEFI4(fn, mapSize, descriptorSize, uint64(descriptorVersion), uint64(virtualMap))
}

// ResetSystem requests a system reset of the given kind. It does not
// return on success.
func (rs RuntimeServices) ResetSystem(kind ResetType, resetStatus uint64, dataSize uint64, resetData uintptr) {
	fn := rs.functionAt(offResetSystem)
	callEFI4(fn, uint64(kind), resetStatus, dataSize, uint64(resetData))
}

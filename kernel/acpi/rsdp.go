// Package acpi exposes the narrow ACPI surface this kernel core consumes:
// locating the Root System Description Pointer from the UEFI
// configuration-table array the bootloader hands off (spec.md §6), and the
// fixed-size redirection table kernel/irq's user dispatcher reads to route
// vectors 32-255 to ACPI-registered handlers. It does not parse AML or walk
// the RSDT/XSDT payload; that interpreter is an explicit Non-goal.
package acpi

import (
	"unsafe"

	"corekernel/kernel"
)

// ConfigTableEntry is one slot of the UEFI configuration-table array
// (EFI_CONFIGURATION_TABLE): a vendor GUID paired with a pointer to the
// vendor-specific table it identifies.
type ConfigTableEntry struct {
	GUID        [16]byte
	VendorTable uintptr
}

// Vendor GUIDs recognised in the configuration table (spec.md §6), encoded
// in the mixed-endian byte order the UEFI specification defines for
// EFI_GUID: Data1/Data2/Data3 little-endian, Data4 verbatim.
var (
	guidACPI20  = [16]byte{0x71, 0xe8, 0x68, 0x88, 0xf1, 0xe4, 0xd3, 0x11, 0xbc, 0x22, 0x00, 0x80, 0xc7, 0x3c, 0x88, 0x81}
	guidACPI10  = [16]byte{0x30, 0x2d, 0x9d, 0xeb, 0x88, 0x2d, 0xd3, 0x11, 0x9a, 0x16, 0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d}
	guidSMBIOS  = [16]byte{0x31, 0x2d, 0x9d, 0xeb, 0x88, 0x2d, 0xd3, 0x11, 0x9a, 0x16, 0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d}
	guidSMBIOS3 = [16]byte{0x44, 0x15, 0xfd, 0xf2, 0x94, 0x97, 0x2c, 0x4a, 0x99, 0x2e, 0xe5, 0xbb, 0xcf, 0x20, 0xe3, 0x94}
	guidMPS     = [16]byte{0x2f, 0x2d, 0x9d, 0xeb, 0x88, 0x2d, 0xd3, 0x11, 0x9a, 0x16, 0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d}
	guidSAL     = [16]byte{0x32, 0x2d, 0x9d, 0xeb, 0x88, 0x2d, 0xd3, 0x11, 0x9a, 0x16, 0x00, 0x90, 0x27, 0x3f, 0xc1, 0x4d}
)

// RSDP is the Root System Description Pointer, covering both the 20-byte
// ACPI 1.0 layout and the 2.0+ extension fields. Unlike gdt's TSS and
// gdtPointer, every field here already falls on its natural Go alignment
// boundary in declaration order (the uint32 fields start at offsets 16 and
// 20, the uint64 at offset 24), so a plain struct reproduces the packed
// firmware layout without the flat-byte-array workaround.
type RSDP struct {
	Signature        [8]byte
	Checksum         uint8
	OEMID            [6]byte
	Revision         uint8
	RSDTAddress      uint32
	Length           uint32
	XSDTAddress      uint64
	ExtendedChecksum uint8
	_                [3]byte
}

var errNoRSDP = &kernel.Error{Module: "acpi", Message: "no ACPI 2.0 or 1.0 RSDP entry found in the configuration table"}

// FindRSDP walks the UEFI configuration-table array looking for an ACPI
// RSDP, preferring the 2.0 GUID and falling back to 1.0 (spec.md §6); if
// neither is present the caller is expected to halt the kernel, since
// nothing past this point (the interrupt dispatcher's redirection table,
// any future device enumeration) has a way to find its tables otherwise.
func FindRSDP(configTable []ConfigTableEntry) (*RSDP, *kernel.Error) {
	var v1 *RSDP
	for i := range configTable {
		switch configTable[i].GUID {
		case guidACPI20:
			return (*RSDP)(unsafe.Pointer(configTable[i].VendorTable)), nil
		case guidACPI10:
			if v1 == nil {
				v1 = (*RSDP)(unsafe.Pointer(configTable[i].VendorTable))
			}
		}
	}
	if v1 != nil {
		return v1, nil
	}
	return nil, errNoRSDP
}

// IsSMBIOS reports whether guid identifies either SMBIOS table format,
// exposed for callers that want to locate installed-RAM reporting data
// without re-deriving the raw GUID bytes.
func IsSMBIOS(guid [16]byte) bool {
	return guid == guidSMBIOS || guid == guidSMBIOS3
}

// IsMPS reports whether guid identifies the legacy MultiProcessor
// Specification table.
func IsMPS(guid [16]byte) bool { return guid == guidMPS }

// IsSAL reports whether guid identifies the Itanium SAL system table GUID,
// recognised for completeness even though this kernel targets x86-64 only.
func IsSAL(guid [16]byte) bool { return guid == guidSAL }

package boot

import (
	"testing"
	"unsafe"

	"corekernel/kernel/acpi"
)

func TestConfigTableReinterpretsBackingArray(t *testing.T) {
	entries := []acpi.ConfigTableEntry{
		{GUID: [16]byte{0x01}, VendorTable: 0xAAAA},
		{GUID: [16]byte{0x02}, VendorTable: 0xBBBB},
	}
	buf := make([]acpi.ConfigTableEntry, len(entries))
	copy(buf, entries)

	h := &HandoffRecord{
		ConfigTableBase:  uintptr(unsafe.Pointer(&buf[0])),
		ConfigTableCount: uint64(len(buf)),
	}

	got := h.ConfigTable()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries; got %d", len(got))
	}
	if got[0].VendorTable != 0xAAAA || got[1].VendorTable != 0xBBBB {
		t.Errorf("unexpected vendor table pointers: %+v", got)
	}
}

func TestConfigTableEmptyWhenAbsent(t *testing.T) {
	h := &HandoffRecord{}
	if got := h.ConfigTable(); got != nil {
		t.Errorf("expected nil config table when base/count are zero; got %+v", got)
	}
}

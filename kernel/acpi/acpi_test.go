package acpi

import (
	"testing"
	"unsafe"
)

func TestFindRSDPPrefersACPI20(t *testing.T) {
	var v1, v2 RSDP
	v1.Revision = 0
	v2.Revision = 2

	table := []ConfigTableEntry{
		{GUID: guidACPI10, VendorTable: uintptr(unsafe.Pointer(&v1))},
		{GUID: guidMPS, VendorTable: 0xbad},
		{GUID: guidACPI20, VendorTable: uintptr(unsafe.Pointer(&v2))},
	}

	got, err := FindRSDP(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != &v2 {
		t.Error("expected FindRSDP to prefer the ACPI 2.0 entry over ACPI 1.0")
	}
}

func TestFindRSDPFallsBackToACPI10(t *testing.T) {
	var v1 RSDP
	v1.Revision = 0

	table := []ConfigTableEntry{
		{GUID: guidSMBIOS, VendorTable: 0xbad},
		{GUID: guidACPI10, VendorTable: uintptr(unsafe.Pointer(&v1))},
	}

	got, err := FindRSDP(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != &v1 {
		t.Error("expected FindRSDP to fall back to the ACPI 1.0 entry")
	}
}

func TestFindRSDPReturnsErrorWhenAbsent(t *testing.T) {
	table := []ConfigTableEntry{
		{GUID: guidSMBIOS3, VendorTable: 0xbad},
		{GUID: guidSAL, VendorTable: 0xbad},
	}

	if _, err := FindRSDP(table); err == nil {
		t.Error("expected an error when no ACPI GUID is present")
	}
}

func TestClaimAndLookup(t *testing.T) {
	defer Unclaim(50)

	var gotVector uint8
	var gotCtx uintptr
	Claim(50, func(vector uint8, ctx uintptr) { gotVector, gotCtx = vector, ctx }, 0xcafe)

	handler, ctx, claimed := Lookup(50)
	if !claimed {
		t.Fatal("expected vector 50 to be claimed")
	}
	if ctx != 0xcafe {
		t.Errorf("expected context 0xcafe; got %#x", ctx)
	}
	handler(50, ctx)
	if gotVector != 50 || gotCtx != 0xcafe {
		t.Error("expected the registered handler to run with the claimed context")
	}
}

func TestUnclaimRevertsToDefault(t *testing.T) {
	Claim(51, func(uint8, uintptr) {}, 1)
	Unclaim(51)

	if _, _, claimed := Lookup(51); claimed {
		t.Error("expected vector 51 to be unclaimed after Unclaim")
	}
}

func TestIsSMBIOSAndIsMPSAndIsSAL(t *testing.T) {
	if !IsSMBIOS(guidSMBIOS) || !IsSMBIOS(guidSMBIOS3) {
		t.Error("expected both SMBIOS GUIDs to be recognised")
	}
	if IsSMBIOS(guidACPI20) {
		t.Error("did not expect the ACPI 2.0 GUID to be recognised as SMBIOS")
	}
	if !IsMPS(guidMPS) {
		t.Error("expected the MPS GUID to be recognised")
	}
	if !IsSAL(guidSAL) {
		t.Error("expected the SAL GUID to be recognised")
	}
}

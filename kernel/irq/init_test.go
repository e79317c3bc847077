package irq

import (
	"testing"

	"corekernel/kernel/cpu"
)

func TestInitSetsLegacyMaskWithoutAVX512(t *testing.T) {
	defer func() { xsaveMask = uint64(cpu.LegacyMask) }()

	Init(cpu.Features{HasXSAVE: true})

	if xsaveMask != uint64(cpu.LegacyMask) {
		t.Errorf("expected legacy mask only; got %x", xsaveMask)
	}
}

func TestInitAddsAVX512MaskWhenSupported(t *testing.T) {
	defer func() { xsaveMask = uint64(cpu.LegacyMask) }()

	Init(cpu.Features{HasXSAVE: true, HasAVX512F: true})

	want := uint64(cpu.LegacyMask | cpu.AVX512Mask)
	if xsaveMask != want {
		t.Errorf("expected legacy+AVX512 mask %x; got %x", want, xsaveMask)
	}
}

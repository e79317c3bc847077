package irq

import (
	"testing"

	"corekernel/kernel/acpi"
	"corekernel/kernel/kfmt"
)

func resetDispatchSeams(t *testing.T) {
	t.Helper()
	origXSave, origXRestore := xsaveFn, xrestoreFn
	origMask := xsaveMask
	for v := range exceptionHandlers {
		exceptionHandlers[v] = nil
		exceptionHandlersWithCode[v] = nil
	}
	t.Cleanup(func() {
		xsaveFn, xrestoreFn = origXSave, origXRestore
		xsaveMask = origMask
		for v := range exceptionHandlers {
			exceptionHandlers[v] = nil
			exceptionHandlersWithCode[v] = nil
		}
	})

	xsaveFn = func(ptr uintptr, mask uint64) {}
	xrestoreFn = func(ptr uintptr, mask uint64) {}
}

func TestDispatchRoutesExceptionWithoutErrorCode(t *testing.T) {
	resetDispatchSeams(t)

	var got *Regs
	HandleException(Breakpoint, func(frame *Frame, regs *Regs) { got = regs })

	regs := &Regs{RAX: 42}
	Dispatch(Breakpoint, 0, &Frame{}, regs)

	if got != regs {
		t.Fatal("expected the registered breakpoint handler to run")
	}
}

func TestDispatchRoutesExceptionWithErrorCode(t *testing.T) {
	resetDispatchSeams(t)

	var gotCode uint64
	HandleExceptionWithCode(GeneralProtectionFault, func(code uint64, frame *Frame, regs *Regs) { gotCode = code })

	Dispatch(GeneralProtectionFault, 0xdead, &Frame{}, &Regs{})

	if gotCode != 0xdead {
		t.Errorf("expected error code 0xdead to reach the handler; got %x", gotCode)
	}
}

func TestDispatchReservedVectorPanics(t *testing.T) {
	resetDispatchSeams(t)
	defer kfmt.SetHaltFunc(nil)

	halted := false
	kfmt.SetHaltFunc(func() { halted = true })

	Dispatch(Vector(15), 0, &Frame{}, &Regs{})

	if !halted {
		t.Error("expected a reserved vector to fall through to the default panic")
	}
}

func TestDispatchUserVectorConsultsACPIRedirection(t *testing.T) {
	resetDispatchSeams(t)
	defer acpi.Unclaim(50)

	var gotCtx uintptr
	acpi.Claim(50, func(vector uint8, ctx uintptr) { gotCtx = ctx }, 0x1234)

	Dispatch(Vector(50), 0, &Frame{}, &Regs{})

	if gotCtx != 0x1234 {
		t.Error("expected the ACPI-claimed handler to run with its registered context")
	}
}

func TestDispatchSpuriousVectorsDoNothing(t *testing.T) {
	resetDispatchSeams(t)
	defer kfmt.SetHaltFunc(nil)

	halted := false
	kfmt.SetHaltFunc(func() { halted = true })

	Dispatch(spuriousMaster, 0, &Frame{}, &Regs{})
	Dispatch(spuriousSlave, 0, &Frame{}, &Regs{})

	if halted {
		t.Error("did not expect a spurious vector to reach the default panic")
	}
}

func TestDispatchUnclaimedUserVectorPanics(t *testing.T) {
	resetDispatchSeams(t)
	defer kfmt.SetHaltFunc(nil)

	halted := false
	kfmt.SetHaltFunc(func() { halted = true })

	Dispatch(Vector(200), 0, &Frame{}, &Regs{})

	if !halted {
		t.Error("expected an unclaimed user vector to fall through to the default panic")
	}
}

func TestXsaveAreaForSelectsDistinctAreas(t *testing.T) {
	if xsaveAreaFor(NMI) == xsaveAreaFor(Breakpoint) {
		t.Error("expected distinct architectural vectors to use distinct XSAVE areas")
	}
	if xsaveAreaFor(Vector(32)) != xsaveAreaFor(Vector(100)) {
		t.Error("expected all user vectors to share one XSAVE area")
	}
	if xsaveAreaFor(Vector(15)) != &reservedArea {
		t.Error("expected a reserved vector to use the shared reserved-vector area")
	}
}

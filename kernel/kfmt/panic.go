package kfmt

import "corekernel/kernel"

var (
	// haltFn is the CPU halt primitive invoked after Panic finishes
	// printing. It is a function variable so tests can observe that
	// Panic was reached without actually halting the test binary.
	haltFn func()

	errUnknownPanicCause = &kernel.Error{Module: "kfmt", Message: "unknown cause"}
)

// SetHaltFunc registers the CPU halt primitive used by Panic. kernel/boot's
// Bootstrap wires this to an interrupt-disabled cpu.Halt loop before
// bring-up starts; tests wire in a no-op.
func SetHaltFunc(fn func()) {
	haltFn = fn
}

// Panic prints e (if non-nil) to the active output sink and halts the CPU.
// This is the single halt-and-report path used by every unrecoverable-error
// branch described in spec.md §7: bad CPU features, a missing RSDP, and
// allocator starvation while relocating the memory map all funnel here.
// Panic returns only if no halt function is registered or the registered
// one returns, as the test doubles do.
func Panic(e interface{}) {
	var err *kernel.Error

	switch v := e.(type) {
	case *kernel.Error:
		err = v
	case string:
		err = &kernel.Error{Module: "panic", Message: v}
	case error:
		err = &kernel.Error{Module: "panic", Message: v.Error()}
	case nil:
		err = nil
	default:
		err = errUnknownPanicCause
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***\n")
	Printf("-----------------------------------\n")

	if haltFn != nil {
		haltFn()
	}
}

package paging

import "corekernel/kernel/cpu"

// cr4PageGlobalEnableBit is CR4.PGE: when set, entries carrying
// FlagGlobal survive a CR3 reload instead of being flushed from the TLB.
const cr4PageGlobalEnableBit = uint64(1) << 7

// switchTranslationRootFn and readCR4Fn/writeCR4Fn are mockable seams so
// InstallRoot and EnableGlobalPages can be exercised without touching real
// control registers, the same pattern kernel/cpu uses for its own
// hardware-facing functions.
var (
	switchTranslationRootFn = cpu.SwitchTranslationRoot
	readCR4RootFn           = cpu.ReadCR4
	writeCR4RootFn          = cpu.WriteCR4
)

// InstallRoot loads t's root table physical address into CR3, making it
// the CPU's active translation (spec.md §4.D: "the final step installs
// the freshly built hierarchy as the active translation root").
func (t *Tables) InstallRoot() {
	switchTranslationRootFn(uintptr(t.rootPhys))
}

// EnableGlobalPages sets CR4.PGE so that leaf entries marked FlagGlobal
// (every leaf this builder produces) are not flushed from the TLB across
// a future CR3 reload. It is independent of which Tables is active, so it
// is a package-level function rather than a Tables method.
func EnableGlobalPages() {
	writeCR4RootFn(readCR4RootFn() | cr4PageGlobalEnableBit)
}

// DisableGlobalPages clears CR4.PGE. spec.md §4.D step 1 requires this
// before a page-table build starts: building and installing a new root
// while PGE is still set risks a stale global leaf from the outgoing
// hierarchy surviving the CR3 reload. EnableGlobalPages re-sets the bit
// once the new root is installed (step 6).
func DisableGlobalPages() {
	writeCR4RootFn(readCR4RootFn() &^ cr4PageGlobalEnableBit)
}

package mem

// PointerShift is log2(unsafe.Sizeof(uintptr(0))); the pointer size on this
// architecture is (1 << PointerShift) bytes.
const PointerShift = 3

// PageShift is log2(PageSize); used to convert between a physical/virtual
// address and the page/frame index that contains it.
const PageShift = 12

// PageSize is the fixed 4 KiB quantum that every descriptor's page_count
// field is expressed in (spec.md §3), regardless of the hardware page size
// actually mapped for a given range.
const PageSize = Size(1 << PageShift)

// Hardware page sizes selectable by the page-table builder (spec.md §4.D),
// largest first so the fallback ladder can walk the slice in order.
const (
	PageSize4KiB   = Size(4 * KiB)
	PageSize2MiB   = Size(2 * MiB)
	PageSize1GiB   = Size(1 * GiB)
	PageSize512GiB = Size(512 * GiB)
	PageSize256TiB = Size(256 * TiB)
)

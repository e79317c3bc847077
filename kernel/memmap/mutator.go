package memmap

import "corekernel/kernel"

var (
	errMapFull       = &kernel.Error{Module: "memmap", Message: "descriptor array has no free capacity"}
	errNoFreeRegion  = &kernel.Error{Module: "memmap", Message: "no conventional region large enough to hold a relocated map"}
	errRangeNotFound = &kernel.Error{Module: "memmap", Message: "no descriptor covers the requested range"}
)

// Prepare ensures the backing array has room for at least extra additional
// live slots beyond the current count (spec.md §4.B: "before mutating the
// map, the caller reserves enough spare slots that the worst-case split
// cannot overflow the backing allocation"). A single ChangeKind call can at
// most turn one descriptor into three, i.e. it needs two spare slots; a
// caller doing a batch of k changes should Prepare(2*k).
//
// If the current backing allocation cannot hold count+extra slots, Prepare
// relocates the whole array into a new, larger one found by scanning for a
// conventional region big enough to hold it, merges adjacent conventional
// descriptors first to maximize the chance of finding one, and marks the
// new location (and unmarks the old one, folding it back to conventional)
// with the MemoryMapSelf kind.
func (s *Store) Prepare(extra int) *kernel.Error {
	need := s.count + uint64(extra)
	if need <= s.capacity {
		return nil
	}

	s.mergeConventional()

	newCapacity := need * 2
	if newCapacity < 16 {
		newCapacity = 16
	}
	newBytes := newCapacity * s.stride

	newBase, ferr := s.findFreeRegion(newBytes)
	if ferr != nil {
		return ferr
	}

	oldBase := s.basePtr
	oldCount := s.count
	oldStride := s.stride
	oldSelfIdx, hadSelf := s.FindByBase(uint64(oldBase))

	newStore := Store{basePtr: newBase, count: oldCount, capacity: newCapacity, stride: oldStride}
	for i := uint64(0); i < oldCount; i++ {
		src := (*rawDescriptor)(addPtr(oldBase, i*oldStride))
		d := Descriptor{
			Kind:         Kind(src.kind),
			PhysicalBase: src.physicalBase,
			VirtualBase:  src.virtualBase,
			PageCount:    src.pageCount,
			Attributes:   src.attributes,
		}
		newStore.setAt(i, d)
	}

	*s = newStore

	if hadSelf {
		s.setAt(uint64(oldSelfIdx), Descriptor{Kind: EfiConventionalMemory, PhysicalBase: uint64(oldBase), PageCount: (oldCount * oldStride) / pageSizeBytes})
		s.mergeConventional()
	}

	selfIdx, ok := s.FindByBase(uint64(newBase))
	if ok {
		d := s.At(selfIdx)
		d.Kind = MemoryMapSelf
		s.setAt(uint64(selfIdx), d)
	}

	return nil
}

// findFreeRegion scans for a conventional descriptor at least sizeBytes
// long and returns its base address.
func (s *Store) findFreeRegion(sizeBytes uint64) (uintptr, *kernel.Error) {
	var found uintptr
	ok := false
	s.ForEach(func(_ int, d Descriptor) bool {
		if d.Kind == EfiConventionalMemory && d.SizeBytes() >= sizeBytes {
			found = uintptr(d.PhysicalBase)
			ok = true
			return false
		}
		return true
	})
	if !ok {
		return 0, errNoFreeRegion
	}
	return found, nil
}

// ChangeKind reassigns the kind (and, for kernel-local kinds, the
// attributes) of the sub-range [physBase, physBase+sizeBytes) to newKind.
// The range must be fully contained within one existing descriptor; the
// four cases below (spec.md §4.B) are distinguished by how much of that
// descriptor the requested range covers:
//
//  1. exact    — the range is the whole descriptor: kind changes in place,
//     no split, no extra slots consumed.
//  2. base     — the range starts at the descriptor's base but ends before
//     it: one split, producing [newKind][oldKind tail].
//  3. tail     — the range ends at the descriptor's end but starts after
//     its base: one split, producing [oldKind head][newKind].
//  4. interior — the range is strictly inside the descriptor: two splits,
//     producing [oldKind head][newKind][oldKind tail].
//
// The caller must have reserved enough spare capacity via Prepare first;
// ChangeKind itself never relocates the array.
func (s *Store) ChangeKind(physBase, sizeBytes uint64, newKind Kind) *kernel.Error {
	idx, ok := s.FindContaining(physBase)
	if !ok {
		return errRangeNotFound
	}
	orig := s.At(idx)
	rangeEnd := physBase + sizeBytes
	origEnd := orig.PhysicalBase + orig.SizeBytes()
	if rangeEnd > origEnd {
		return errRangeNotFound
	}

	atBase := physBase == orig.PhysicalBase
	atEnd := rangeEnd == origEnd

	switch {
	case atBase && atEnd:
		// Case 1: exact. In-place kind swap, no shift needed.
		orig.Kind = newKind
		s.setAt(uint64(idx), orig)

	case atBase && !atEnd:
		// Case 2: base. Split into [newKind][tail], in slots idx, idx+1.
		tail := Descriptor{
			Kind:         orig.Kind,
			PhysicalBase: rangeEnd,
			VirtualBase:  orig.VirtualBase + sizeBytes,
			PageCount:    (origEnd - rangeEnd) / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		head := Descriptor{
			Kind:         newKind,
			PhysicalBase: physBase,
			VirtualBase:  orig.VirtualBase,
			PageCount:    sizeBytes / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		if err := s.shiftRight(idx, 1); err != nil {
			return err
		}
		// Triple-write ordering: write the far slot (tail) first, then the
		// near slot (head), so an overlapping shiftRight copy is never
		// read back after being partially overwritten.
		s.setAt(uint64(idx+1), tail)
		s.setAt(uint64(idx), head)

	case !atBase && atEnd:
		// Case 3: tail. Split into [head][newKind], in slots idx, idx+1.
		head := Descriptor{
			Kind:         orig.Kind,
			PhysicalBase: orig.PhysicalBase,
			VirtualBase:  orig.VirtualBase,
			PageCount:    (physBase - orig.PhysicalBase) / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		tail := Descriptor{
			Kind:         newKind,
			PhysicalBase: physBase,
			VirtualBase:  orig.VirtualBase + (physBase - orig.PhysicalBase),
			PageCount:    sizeBytes / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		if err := s.shiftRight(idx, 1); err != nil {
			return err
		}
		s.setAt(uint64(idx+1), tail)
		s.setAt(uint64(idx), head)

	default:
		// Case 4: interior. Split into [head][newKind][tail], slots idx..idx+2.
		head := Descriptor{
			Kind:         orig.Kind,
			PhysicalBase: orig.PhysicalBase,
			VirtualBase:  orig.VirtualBase,
			PageCount:    (physBase - orig.PhysicalBase) / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		mid := Descriptor{
			Kind:         newKind,
			PhysicalBase: physBase,
			VirtualBase:  orig.VirtualBase + (physBase - orig.PhysicalBase),
			PageCount:    sizeBytes / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		tail := Descriptor{
			Kind:         orig.Kind,
			PhysicalBase: rangeEnd,
			VirtualBase:  orig.VirtualBase + (rangeEnd - orig.PhysicalBase),
			PageCount:    (origEnd - rangeEnd) / pageSizeBytes,
			Attributes:   orig.Attributes,
		}
		if err := s.shiftRight(idx, 2); err != nil {
			return err
		}
		// Triple write, strictly far-to-near: tail, then mid, then head.
		s.setAt(uint64(idx+2), tail)
		s.setAt(uint64(idx+1), mid)
		s.setAt(uint64(idx), head)
	}

	return nil
}

// shiftRight moves the live slots [at, count) up by n slots, growing count
// by n, to open a gap at [at, at+n) for a split's new records. The copy
// proceeds from the highest index down to at so that overlapping source
// and destination ranges never clobber an unread source slot.
func (s *Store) shiftRight(at int, n int) *kernel.Error {
	if s.count+uint64(n) > s.capacity {
		return errMapFull
	}
	for i := s.count; i > uint64(at); i-- {
		src := i - 1
		dst := src + uint64(n)
		d := s.At(int(src))
		s.setAt(dst, d)
	}
	s.count += uint64(n)
	return nil
}

// MergeFree runs the full merge pass: adjacent-conventional coalescing,
// then a check for whether the map's own backing region can give back any
// now-unused tail (spec.md §4.B). Callers that have just changed a
// descriptor's kind back to EfiConventionalMemory (Free, Realloc) call
// this afterward so neighboring free regions recombine immediately rather
// than fragmenting the map over time.
func (s *Store) MergeFree() {
	s.mergeConventional()
	s.shrinkSelf()
}

// shrinkSelf checks whether the MemoryMapSelf descriptor backing this
// store's own array reserves more pages than the array's current capacity
// actually needs, and if so splits the unused tail back to conventional
// memory (spec.md §4.B: the map's own backing allocation can shrink back
// down, not just grow via Prepare). It only ever gives back whole pages
// past the array's committed capacity, never a page still holding live
// descriptor slots, and skips the split entirely when no spare descriptor
// slot is available rather than forcing a Prepare-driven relocation in the
// middle of a merge pass; a later MergeFree call picks it up once a slot
// frees up.
func (s *Store) shrinkSelf() {
	idx, ok := s.FindByBase(uint64(s.basePtr))
	if !ok {
		return
	}
	self := s.At(idx)
	if self.Kind != MemoryMapSelf {
		return
	}

	usedBytes := s.capacity * s.stride
	usedPages := (usedBytes + pageSizeBytes - 1) / pageSizeBytes
	if usedPages >= self.PageCount {
		return
	}
	if s.count >= s.capacity {
		return
	}

	freeBase := self.PhysicalBase + usedPages*pageSizeBytes
	freeSize := (self.PageCount - usedPages) * pageSizeBytes
	if err := s.ChangeKind(freeBase, freeSize, EfiConventionalMemory); err != nil {
		return
	}
	s.mergeConventional()
}

// CoalesceWithNext merges the live descriptor at idx into its immediate
// successor when the two are physically adjacent and share a kind,
// extending idx's PageCount by the successor's and removing the
// successor's slot. It reports whether a merge happened; used after a
// Realloc grow-in-place ChangeKind call, which only flips the absorbed
// neighbour's kind in place and would otherwise leave one logical
// allocation split across two adjacent Malloc* descriptors (spec.md §4.C:
// "absorb it and reclaim the descriptor slot").
func (s *Store) CoalesceWithNext(idx int) bool {
	if idx < 0 || idx+1 >= s.Len() {
		return false
	}
	cur := s.At(idx)
	next := s.At(idx + 1)
	if cur.Kind != next.Kind || cur.PhysicalBase+cur.SizeBytes() != next.PhysicalBase {
		return false
	}
	cur.PageCount += next.PageCount
	s.setAt(uint64(idx), cur)
	s.shiftLeft(idx + 1)
	return true
}

// shiftLeft removes the live slot at idx, moving every later slot down by
// one and shrinking count — the mirror image of shiftRight's array growth.
func (s *Store) shiftLeft(idx int) {
	for i := idx; i < int(s.count)-1; i++ {
		s.setAt(uint64(i), s.At(i+1))
	}
	s.count--
}

// Insert appends a brand-new descriptor not derived from splitting an
// existing one (spec.md §4.C's virtual-allocator variant: a reservation
// that has no backing physical conventional region to carve from). The
// caller must have reserved a spare slot via Prepare first.
func (s *Store) Insert(d Descriptor) *kernel.Error {
	if s.count >= s.capacity {
		return errMapFull
	}
	s.setAt(s.count, d)
	s.count++
	return nil
}

// mergeConventional collapses runs of adjacent EfiConventionalMemory
// descriptors into one (spec.md §4.B: "a pass over the array folds any
// conventional descriptor into its immediate successor when their ranges
// are contiguous"), compacting the array in place and shrinking count.
// Running this before a relocation search maximizes the odds of finding a
// single region large enough to hold the (possibly larger) relocated map.
func (s *Store) mergeConventional() {
	if s.count == 0 {
		return
	}
	write := uint64(0)
	for read := uint64(0); read < s.count; read++ {
		cur := s.At(int(read))
		if write > 0 {
			prev := s.At(int(write - 1))
			if prev.Kind == EfiConventionalMemory && cur.Kind == EfiConventionalMemory &&
				prev.PhysicalBase+prev.SizeBytes() == cur.PhysicalBase {
				prev.PageCount += cur.PageCount
				s.setAt(write-1, prev)
				continue
			}
		}
		if write != read {
			s.setAt(write, cur)
		}
		write++
	}
	s.count = write
}

package mmu

import (
	"pikern/kernel"
	"pikern/kernel/mm"
)

var (
	// ErrMappingConflict is returned when a mapping would replace a
	// different, already valid descriptor.
	ErrMappingConflict = &kernel.Error{Module: "mmu", Message: "virtual range overlaps an existing mapping"}

	// ErrOutOfRange is returned for virtual addresses beyond MaxVirtAddr.
	ErrOutOfRange = &kernel.Error{Module: "mmu", Message: "virtual address beyond the translated range"}

	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = &kernel.Error{Module: "mmu", Message: "virtual range ends before it starts"}
)

// Map maps the virtual range [virtStart, virtEnd) to the physical memory
// starting at physStart in the kernel tables.
func Map(physStart, virtStart, virtEnd uintptr, flags Flags) *kernel.Error {
	err := WithPageTables(func(pt *PageTables) *kernel.Error {
		return MapMemory(pt, physStart, virtStart, virtEnd, flags)
	})

	// Make the new descriptors visible to the table walker.
	dataSyncBarrierFn()
	instructionSyncBarrierFn()

	return err
}

// MapMemory maps the virtual range [virtStart, virtEnd) to the physical
// memory starting at physStart. Both starts are rounded down and the end is
// rounded up to a page boundary.
//
// The range is covered left to right, using a 2 MiB Middle block whenever at
// least 2 MiB remain and both cursors are 2 MiB aligned, and a 4 KiB Bottom
// page otherwise. Missing Middle and Bottom tables are allocated from pt.
//
// A slot is only written if it is empty or already holds the descriptor about
// to be written, so remapping a range with the same target and flags is a
// no-op. Any other overlap fails with ErrMappingConflict; slots written before
// the conflict stay mapped.
func MapMemory(pt *PageTables, physStart, virtStart, virtEnd uintptr, flags Flags) *kernel.Error {
	switch {
	case virtEnd < virtStart:
		return ErrInvalidRange
	case uint64(virtEnd) > MaxVirtAddr:
		return ErrOutOfRange
	}

	var (
		phys = mm.AlignDown(physStart, mm.PageSize)
		virt = mm.AlignDown(virtStart, mm.PageSize)
		end  = mm.AlignUp(virtEnd, mm.PageSize)
	)

	for virt < end {
		step, err := mapNext(pt, phys, virt, end-virt, flags)
		if err != nil {
			return err
		}

		phys += step
		virt += step
	}

	return nil
}

// mapNext maps the largest block that fits at virt and returns its size.
func mapNext(pt *PageTables, phys, virt, remaining uintptr, flags Flags) (uintptr, *kernel.Error) {
	middle, err := ensureTable(pt.Global.Entry(IndexFor[Global](virt)), pt.NewMiddle)
	if err != nil {
		return 0, err
	}

	if remaining >= MiddleBlockSize && mm.IsAligned(virt, MiddleBlockSize) && mm.IsAligned(phys, MiddleBlockSize) {
		slot := middle.Entry(IndexFor[Middle](virt))
		return MiddleBlockSize, writeSlot(slot, NewBlockDescriptor[Middle](phys, flags))
	}

	bottom, err := ensureTable(middle.Entry(IndexFor[Middle](virt)), pt.NewBottom)
	if err != nil {
		return 0, err
	}

	slot := bottom.Entry(IndexFor[Bottom](virt))
	return mm.PageSize, writeSlot(slot, NewBlockDescriptor[Bottom](phys, flags))
}

// ensureTable returns the child table referenced by slot, allocating it with
// alloc and pointing slot at it if slot is empty.
func ensureTable[C Level, P Branch](slot *Descriptor[P], alloc func() (*Table[C], *kernel.Error)) (*Table[C], *kernel.Error) {
	switch slot.Kind() {
	case KindTable:
		return tableAt[C](slot.Address()), nil
	case KindInvalid:
		child, err := alloc()
		if err != nil {
			return nil, err
		}
		*slot = NewTableDescriptor[P](child.Address(), 0)
		return child, nil
	default:
		return nil, ErrMappingConflict
	}
}

func writeSlot[L Level](slot *Descriptor[L], d Descriptor[L]) *kernel.Error {
	if !slot.IsEmpty() && *slot != d {
		return ErrMappingConflict
	}
	*slot = d
	return nil
}

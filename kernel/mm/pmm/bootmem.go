// Package pmm provides the physical frame allocators available while the
// kernel boots.
package pmm

import (
	"pikern/kernel"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
)

var (
	errBootAllocOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}

	// memsetFn is mocked by tests.
	memsetFn = kernel.Memset
)

// BootMemAllocator hands out consecutive frames from a single physical
// region. Frames can never be freed; the allocator only needs to last until
// the boot page tables are built.
type BootMemAllocator struct {
	startFrame, endFrame mm.Frame

	// nextFrame is the next frame to hand out.
	nextFrame mm.Frame
}

// Init sets up the allocator to serve frames from [start, end). The start is
// rounded up and the end rounded down to a frame boundary.
func (alloc *BootMemAllocator) Init(start, end uintptr) {
	alloc.startFrame = mm.FrameFromAddress(mm.AlignUp(start, mm.PageSize))
	alloc.endFrame = mm.FrameFromAddress(end)
	if alloc.endFrame < alloc.startFrame {
		alloc.endFrame = alloc.startFrame
	}
	alloc.nextFrame = alloc.startFrame
}

// AllocFrame reserves the next free frame and zeroes it. It returns an error
// once the region is exhausted.
func (alloc *BootMemAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	if alloc.nextFrame >= alloc.endFrame {
		return mm.InvalidFrame, errBootAllocOutOfMemory
	}

	frame := alloc.nextFrame
	alloc.nextFrame++
	memsetFn(frame.Address(), 0, mm.PageSize)
	return frame, nil
}

// Allocated returns the number of frames handed out so far.
func (alloc *BootMemAllocator) Allocated() uint64 {
	return uint64(alloc.nextFrame - alloc.startFrame)
}

// Free returns the number of frames that can still be allocated.
func (alloc *BootMemAllocator) Free() uint64 {
	return uint64(alloc.endFrame - alloc.nextFrame)
}

// PrintRegion logs the managed region and its free frame count.
func (alloc *BootMemAllocator) PrintRegion() {
	kfmt.Printf("[boot_mem_alloc] region: [0x%010x - 0x%010x], free frames: %d\n",
		alloc.startFrame.Address(),
		alloc.endFrame.Address(),
		alloc.Free(),
	)
}

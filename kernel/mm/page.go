// Package mm defines the physical frame type shared by the memory-management
// packages and the hook through which they obtain frames.
package mm

import (
	"math"

	"pikern/kernel"
)

const (
	// PageShift is log2(PageSize).
	PageShift = uintptr(12)

	// PageSize is the translation granule used by the kernel.
	PageSize = uintptr(1 << PageShift)

	KiB = uintptr(1) << 10
	MiB = uintptr(1) << 20
	GiB = uintptr(1) << 30
)

// Frame is a physical page index.
type Frame uintptr

// InvalidFrame is returned by frame allocators that cannot satisfy a request.
const InvalidFrame = Frame(math.MaxUint64 >> PageShift)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the first byte in the frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns the Frame containing physAddr.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame(AlignDown(physAddr, PageSize) >> PageShift)
}

// AlignDown rounds addr down to a multiple of align, which must be a power
// of 2.
func AlignDown(addr, align uintptr) uintptr {
	return addr &^ (align - 1)
}

// AlignUp rounds addr up to a multiple of align, which must be a power of 2.
func AlignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

// IsAligned reports whether addr is a multiple of align.
func IsAligned(addr, align uintptr) bool {
	return addr&(align-1) == 0
}

// FrameAllocatorFn returns a zeroed physical frame.
type FrameAllocatorFn func() (Frame, *kernel.Error)

var (
	frameAllocator FrameAllocatorFn

	errNoFrameAllocator = &kernel.Error{Module: "mm", Message: "no frame allocator registered"}
)

// SetFrameAllocator registers the function used by AllocFrame.
func SetFrameAllocator(allocFn FrameAllocatorFn) { frameAllocator = allocFn }

// HasFrameAllocator reports whether a frame allocator has been registered.
func HasFrameAllocator() bool { return frameAllocator != nil }

// AllocFrame allocates a physical frame using the registered allocator.
func AllocFrame() (Frame, *kernel.Error) {
	if frameAllocator == nil {
		return InvalidFrame, errNoFrameAllocator
	}
	return frameAllocator()
}

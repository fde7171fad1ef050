// Package boot brings up virtual memory on the boot core.
package boot

import (
	"pikern/kernel"
	"pikern/kernel/mm"
)

var errInvalidLayout = &kernel.Error{Module: "boot", Message: "invalid memory layout"}

// Layout describes the physical memory map the boot sequence works with.
// All addresses are physical; the boot tables map them to identical virtual
// addresses.
type Layout struct {
	// ImageStart and ImageEnd delimit the loaded kernel image.
	ImageStart uintptr
	ImageEnd   uintptr

	// BSSStart and BSSEnd delimit the kernel .bss segment.
	BSSStart uintptr
	BSSEnd   uintptr

	// VectorBase is the address of the exception vector table.
	VectorBase uintptr

	// MemoryEnd is the end of the RAM available to the ARM cores.
	MemoryEnd uintptr

	// PeripheralBase is the start of the memory mapped peripherals. Memory
	// below it is mapped as normal memory and memory above as device memory.
	PeripheralBase uintptr

	// DeviceEnd is the end of the device window.
	DeviceEnd uintptr

	// SelfVerify enables translation probes of well-known addresses after
	// the MMU is enabled.
	SelfVerify bool
}

// DefaultLayout returns the layout of a Raspberry Pi 3: the firmware loads
// the image at 0x80000, the BCM2837 peripherals start at 0x3F000000 and the
// device window extends to the last 2 MiB block below 4 GiB.
func DefaultLayout() Layout {
	return Layout{
		ImageStart:     0x80000,
		ImageEnd:       0x80000,
		MemoryEnd:      mm.GiB,
		PeripheralBase: 0x3f000000,
		DeviceEnd:      4*mm.GiB - 2*mm.MiB,
		SelfVerify:     true,
	}
}

// Validate checks that the regions of l are ordered and page aligned where
// the mapper requires it.
func (l Layout) Validate() *kernel.Error {
	switch {
	case l.ImageEnd < l.ImageStart,
		l.BSSEnd < l.BSSStart,
		l.PeripheralBase <= l.ImageStart,
		l.ImageEnd > l.PeripheralBase,
		l.DeviceEnd <= l.PeripheralBase,
		!mm.IsAligned(l.PeripheralBase, mm.PageSize),
		!mm.IsAligned(l.DeviceEnd, mm.PageSize):
		return errInvalidLayout
	}
	return nil
}

// freeMemory returns the physical range available to the boot frame
// allocator: from the end of the image to the end of RAM or the start of the
// peripherals, whichever comes first.
func (l Layout) freeMemory() (uintptr, uintptr) {
	end := l.MemoryEnd
	if l.PeripheralBase < end {
		end = l.PeripheralBase
	}
	return mm.AlignUp(l.ImageEnd, mm.PageSize), end
}

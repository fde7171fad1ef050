//go:build !rpi3

package pmm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"pikern/kernel/mm"
)

// HostRegion is a block of anonymous host memory standing in for physical
// RAM. The kernel addresses physical memory through identity mapped
// pointers, so frames handed out by a HostRegion are host addresses that the
// page table code can dereference directly.
type HostRegion struct {
	BootMemAllocator

	mem []byte
}

// NewHostRegion maps size bytes of zeroed, page-aligned host memory and sets
// up a frame allocator over it.
func NewHostRegion(size uintptr) (*HostRegion, error) {
	size = mm.AlignUp(size, mm.PageSize)
	if size == 0 {
		return nil, fmt.Errorf("pmm: empty host region")
	}

	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("pmm: mmap %d bytes: %w", size, err)
	}

	r := &HostRegion{mem: mem}
	r.Init(r.Base(), r.Base()+size)
	return r, nil
}

// Base returns the address of the first byte of the region.
func (r *HostRegion) Base() uintptr {
	return uintptr(unsafe.Pointer(&r.mem[0]))
}

// Size returns the size of the region in bytes.
func (r *HostRegion) Size() uintptr {
	return uintptr(len(r.mem))
}

// Contains reports whether addr falls inside the region.
func (r *HostRegion) Contains(addr uintptr) bool {
	return addr >= r.Base() && addr < r.Base()+r.Size()
}

// Close unmaps the region. Frames handed out by it must not be used
// afterwards.
func (r *HostRegion) Close() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}

package kernel

import "unsafe"

// Memset sets size bytes at the given address to the supplied value. Instead
// of a byte loop it seeds the first byte and then doubles the initialized
// prefix with copy, so zeroing a 4K table takes 12 copies.
//
// addr must point to memory that is not managed by the Go allocator (a
// physical frame, a linker-defined segment or an mmap'd region).
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

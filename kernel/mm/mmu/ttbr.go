package mmu

import (
	"pikern/kernel"
	"pikern/kernel/kfmt"
)

// ErrMisalignedRoot is returned when a table address cannot be encoded in a
// translation table base register.
var ErrMisalignedRoot = &kernel.Error{Module: "mmu", Message: "root table is not 128-byte aligned or does not fit BADDR"}

// Half selects one of the two translation table base registers.
type Half uint8

const (
	// TTBR0 translates the lower virtual address range.
	TTBR0 Half = iota

	// TTBR1 translates the upper virtual address range.
	TTBR1
)

const (
	// ttbrAlignMask covers the address bits that must be clear in a root
	// table address.
	ttbrAlignMask = uint64(0x7f)

	// ttbrBaddrMask selects BADDR[47:1].
	ttbrBaddrMask = uint64(0x0000_FFFF_FFFF_FFFE)

	ttbrIRGNMask = uint64(1<<6 | 1<<0)
	ttbrRGNMask  = uint64(0b11 << 3)

	// Bit 1 selects shareable walks and bit 5 whether they are inner (1)
	// or outer (0) shareable.
	ttbrShareMask = uint64(1<<5 | 1<<1)
)

// TTBR is a translation table base register value holding the root table
// address and the cacheability and shareability of table walks. It does not
// depend on which half it is installed to.
type TTBR uint64

// NewTTBR returns a TTBR pointing to the table at tableAddr.
func NewTTBR(tableAddr uintptr) (TTBR, *kernel.Error) {
	addr := uint64(tableAddr)
	if addr&ttbrAlignMask != 0 || addr&^ttbrBaddrMask != 0 {
		return 0, ErrMisalignedRoot
	}
	return TTBR(addr), nil
}

// WithInnerRegion returns t with the inner cacheability set to irgn.
// IRGN[0] lives in bit 6 and IRGN[1] in bit 0.
func (t TTBR) WithInnerRegion(irgn uint8) TTBR {
	v := uint64(t)&^ttbrIRGNMask | uint64(irgn>>1)&1 | (uint64(irgn)&1)<<6
	return TTBR(v)
}

// WithOuterRegion returns t with the outer cacheability RGN[4:3] set to rgn.
func (t TTBR) WithOuterRegion(rgn uint8) TTBR {
	v := uint64(t)&^ttbrRGNMask | (uint64(rgn)&0b11)<<3
	return TTBR(v)
}

// NotShareable returns t with non-shareable table walks.
func (t TTBR) NotShareable() TTBR {
	return TTBR(uint64(t) &^ ttbrShareMask)
}

// InnerShareable returns t with inner shareable table walks.
func (t TTBR) InnerShareable() TTBR {
	return TTBR(uint64(t)&^ttbrShareMask | 1<<5 | 1<<1)
}

// OuterShareable returns t with outer shareable table walks.
func (t TTBR) OuterShareable() TTBR {
	return TTBR(uint64(t)&^ttbrShareMask | 1<<1)
}

// BaseAddress returns the root table address held in t.
func (t TTBR) BaseAddress() uintptr {
	return uintptr(uint64(t) & ttbrBaddrMask &^ ttbrAlignMask)
}

// Install writes t to the selected TTBR. Callers must hold the page table
// arena so the root cannot change underneath the walker.
func (t TTBR) Install(half Half) {
	kfmt.Printf("[mmu] installing TTBR%d_EL1 with value 0x%016x\n", uint8(half), uint64(t))
	switch half {
	case TTBR0:
		writeTTBR0Fn(uint64(t))
	case TTBR1:
		writeTTBR1Fn(uint64(t))
	}
}

// LoadTTBR returns the current value of the selected TTBR.
func LoadTTBR(half Half) TTBR {
	if half == TTBR1 {
		return TTBR(readTTBR1Fn())
	}
	return TTBR(readTTBR0Fn())
}

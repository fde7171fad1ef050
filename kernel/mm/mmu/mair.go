package mmu

import "pikern/kernel/kfmt"

// MAIR_EL1 attribute slots referenced by descriptor AttrIndx fields.
const (
	AttrIndexDevice   = 0
	AttrIndexNormalNC = 1
)

// Memory attribute encodings.
const (
	// MemDeviceNGnRnE is device memory with no gathering, no reordering and
	// no early write acknowledgement.
	MemDeviceNGnRnE = uint8(0x00)

	// MemNormalNC is normal memory, inner and outer non-cacheable.
	MemNormalNC = uint8(0x44)
)

// MAIR is a MAIR_EL1 value: eight one-byte memory attribute slots.
type MAIR uint64

// BootMAIR is the attribute layout used by the kernel.
var BootMAIR = MAIR(0).
	WithAttr(AttrIndexDevice, MemDeviceNGnRnE).
	WithAttr(AttrIndexNormalNC, MemNormalNC)

// WithAttr returns m with slot index set to attr.
func (m MAIR) WithAttr(index uint8, attr uint8) MAIR {
	shift := 8 * uint(index&0b111)
	return m&^(MAIR(0xff)<<shift) | MAIR(attr)<<shift
}

// Attr returns the encoding stored in slot index.
func (m MAIR) Attr(index uint8) uint8 {
	return uint8(m >> (8 * uint(index&0b111)))
}

// Install writes m to MAIR_EL1.
func (m MAIR) Install() {
	kfmt.Printf("[mmu] installing MAIR_EL1 with value 0x%016x\n", uint64(m))
	writeMAIRFn(uint64(m))
}

// LoadMAIR returns the current value of MAIR_EL1.
func LoadMAIR() MAIR {
	return MAIR(readMAIRFn())
}

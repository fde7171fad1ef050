package mmu

import "pikern/kernel/mm"

const (
	// EntryCount is the number of descriptors in a translation table.
	EntryCount = 512

	tableShift = 9
)

// Level is the sealed set of translation table levels used by the kernel.
// With a 32-bit input address range and a 4 KiB granule the walk starts at
// lookup level 1: Global resolves bits [31:30], Middle bits [29:21] and
// Bottom bits [20:12].
type Level interface {
	Global | Middle | Bottom

	// Shift returns the number of address bits resolved below this level.
	Shift() uint

	// CanTerminate reports whether a descriptor at this level may map memory
	// directly instead of pointing to another table.
	CanTerminate() bool

	// HasNext reports whether a descriptor at this level may point to a
	// table of the next level.
	HasNext() bool

	// Number returns the ARM lookup level (1 to 3).
	Number() uint8

	// leafBits returns the kind bits of a descriptor mapping memory at this
	// level.
	leafBits() Flags
}

// Branch is satisfied by levels whose descriptors can point to a child table.
type Branch interface {
	Level
	Global | Middle
}

// Terminal is satisfied by levels whose descriptors can map memory.
type Terminal interface {
	Level
	Middle | Bottom
}

// Global is the root level. Its descriptors only point to Middle tables.
type Global struct{}

func (Global) Shift() uint        { return uint(mm.PageShift) + 2*tableShift }
func (Global) CanTerminate() bool { return false }
func (Global) HasNext() bool      { return true }
func (Global) Number() uint8      { return 1 }
func (Global) leafBits() Flags    { return 0 }

// Middle descriptors either map a 2 MiB block or point to a Bottom table.
type Middle struct{}

func (Middle) Shift() uint        { return uint(mm.PageShift) + tableShift }
func (Middle) CanTerminate() bool { return true }
func (Middle) HasNext() bool      { return true }
func (Middle) Number() uint8      { return 2 }
func (Middle) leafBits() Flags    { return 0 }

// Bottom descriptors always map a single 4 KiB page. The architecture
// requires bit 1 to be set on page descriptors.
type Bottom struct{}

func (Bottom) Shift() uint        { return uint(mm.PageShift) }
func (Bottom) CanTerminate() bool { return true }
func (Bottom) HasNext() bool      { return false }
func (Bottom) Number() uint8      { return 3 }
func (Bottom) leafBits() Flags    { return FlagTable }

// ShiftOf returns the shift of level L.
func ShiftOf[L Level]() uint {
	var l L
	return l.Shift()
}

// BlockSize returns the number of bytes mapped by a single descriptor at
// level L.
func BlockSize[L Level]() uintptr {
	return uintptr(1) << ShiftOf[L]()
}

const (
	// MiddleBlockSize is the size of a block mapped by a Middle descriptor.
	MiddleBlockSize = uintptr(1) << (mm.PageShift + tableShift)

	// InputAddrBits is the size of the input address range of each
	// translation regime half (TCR_EL1.T0SZ = T1SZ = 64 - InputAddrBits).
	// Only the first four Global slots are reachable.
	InputAddrBits = 32

	// MaxVirtAddr is the end of the translated virtual range. Walks of
	// higher addresses fault at level 0.
	MaxVirtAddr = uint64(1) << InputAddrBits
)

package mmu

// Flags holds the non-address bits of a descriptor.
type Flags uint64

const (
	FlagValid Flags = 1 << 0

	// FlagTable marks a table pointer at Global and Middle and is required
	// on page descriptors at Bottom.
	FlagTable Flags = 1 << 1

	FlagNonSecure Flags = 1 << 5

	// Access permissions, AP[7:6].
	FlagEL1RWEL0None Flags = 0b00 << 6
	FlagEL1RWEL0RW   Flags = 0b01 << 6
	FlagEL1ROEL0None Flags = 0b10 << 6
	FlagEL1ROEL0RO   Flags = 0b11 << 6

	// Shareability, SH[9:8].
	FlagNonShareable   Flags = 0b00 << 8
	FlagOuterShareable Flags = 0b10 << 8
	FlagInnerShareable Flags = 0b11 << 8

	// FlagAccess must be set on every leaf; the kernel does not handle
	// access flag faults.
	FlagAccess Flags = 1 << 10

	FlagNotGlobal        Flags = 1 << 11
	FlagPrivExecuteNever Flags = 1 << 53
	FlagExecuteNever     Flags = 1 << 54

	// FlagDevice and FlagNormalNC select the MAIR_EL1 attribute slots
	// programmed by BootMAIR.
	FlagDevice   = Flags(AttrIndexDevice) << attrIndexShift
	FlagNormalNC = Flags(AttrIndexNormalNC) << attrIndexShift

	NormalFlags = FlagValid | FlagNormalNC | FlagAccess
	DeviceFlags = FlagValid | FlagDevice | FlagAccess
)

const (
	attrIndexShift = 2
	apShift        = 6
	shShift        = 8

	// addressMask selects output address bits [47:12].
	addressMask = uint64(0x0000_FFFF_FFFF_F000)
)

// AttrIndex returns the MAIR_EL1 attribute slot selected by f.
func (f Flags) AttrIndex() uint8 { return uint8(f>>attrIndexShift) & 0b111 }

// AccessPermissions returns the AP[7:6] field.
func (f Flags) AccessPermissions() uint8 { return uint8(f>>apShift) & 0b11 }

// Shareability returns the SH[9:8] field.
func (f Flags) Shareability() uint8 { return uint8(f>>shShift) & 0b11 }

// Has reports whether all bits in mask are set in f.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func bit(f, mask Flags) uint8 {
	if f&mask != 0 {
		return 1
	}
	return 0
}

// Package cpu wraps the AArch64 EL1 system registers and instructions used by
// the memory-management code. With the rpi3 build tag every function is a
// thin assembly stub executing the real instruction; without it, the package
// emulates the register file so the boot path can run in a host process.
package cpu

var (
	readMMFR0Fn = ReadMMFR0
)

// CPACR_EL1.FPEN (bits 21:20). 0b11 disables FP/SIMD trapping at EL0 and EL1.
const cpacrFPEN = uint64(3) << 20

// SCTLR_EL1.M enables stage 1 translation for EL1&0.
const SCTLRMMUEnable = uint64(1) << 0

// parangeBits maps ID_AA64MMFR0_EL1.PARange to a physical address width.
var parangeBits = [...]uint8{32, 36, 40, 42, 44, 48, 52}

// PhysAddrBits returns the number of physical address bits supported by the
// CPU as reported by ID_AA64MMFR0_EL1.PARange. Unknown encodings are
// reported as the smallest width.
func PhysAddrBits() uint8 {
	parange := readMMFR0Fn() & 0xf
	if parange >= uint64(len(parangeBits)) {
		return parangeBits[0]
	}
	return parangeBits[parange]
}

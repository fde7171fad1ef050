package mmu

import "pikern/kernel/kfmt"

// TCR is a TCR_EL1 value.
type TCR uint64

const (
	TCRT0SZ32 TCR = (64 - InputAddrBits) << 0
	TCRT1SZ32 TCR = (64 - InputAddrBits) << 16

	TCRSH0NonShareable   TCR = 0b00 << 8
	TCRSH0OuterShareable TCR = 0b10 << 8
	TCRSH0InnerShareable TCR = 0b11 << 8

	TCRSH1NonShareable   TCR = 0b00 << 28
	TCRSH1OuterShareable TCR = 0b10 << 28
	TCRSH1InnerShareable TCR = 0b11 << 28

	TCRTG04K  TCR = 0b00 << 14
	TCRTG016K TCR = 0b10 << 14
	TCRTG064K TCR = 0b01 << 14

	TCRTG116K TCR = 0b01 << 30
	TCRTG14K  TCR = 0b10 << 30
	TCRTG164K TCR = 0b11 << 30

	// TCREPD1 disables table walks through TTBR1_EL1.
	TCREPD1 TCR = 1 << 23

	TCRIPS4GB   TCR = 0b000 << 32
	TCRIPS64GB  TCR = 0b001 << 32
	TCRIPS1TB   TCR = 0b010 << 32
	TCRIPS4TB   TCR = 0b011 << 32
	TCRIPS16TB  TCR = 0b100 << 32
	TCRIPS256TB TCR = 0b101 << 32
	TCRIPS4PB   TCR = 0b110 << 32

	tcrIPSMask TCR = 0b111 << 32
)

// ipsBits lists the physical address width of each IPS encoding.
var ipsBits = [...]uint8{32, 36, 40, 42, 44, 48, 52}

// BootTCR configures both halves for a 4 GiB input range with 4 KiB granules
// and inner shareable walks, with TTBR1 walks disabled. The intermediate
// physical address size is 1 TiB unless the CPU supports less.
func BootTCR(physAddrBits uint8) TCR {
	tcr := TCRT0SZ32 | TCRT1SZ32 |
		TCRTG04K | TCRTG14K |
		TCRSH0InnerShareable | TCRSH1InnerShareable |
		TCREPD1

	return tcr.WithIPS(physAddrBits)
}

// WithIPS returns t with the largest IPS encoding not exceeding 1 TiB and
// physAddrBits.
func (t TCR) WithIPS(physAddrBits uint8) TCR {
	ips := TCRIPS4GB
	for enc := TCR(0); enc<<32 <= TCRIPS1TB && ipsBits[enc] <= physAddrBits; enc++ {
		ips = enc << 32
	}
	return t&^tcrIPSMask | ips
}

// IPSBits returns the physical address width selected by t.
func (t TCR) IPSBits() uint8 {
	enc := int((t & tcrIPSMask) >> 32)
	if enc >= len(ipsBits) {
		return ipsBits[len(ipsBits)-1]
	}
	return ipsBits[enc]
}

// Install writes t to TCR_EL1.
func (t TCR) Install() {
	kfmt.Printf("[mmu] installing TCR_EL1 with value 0x%016x\n", uint64(t))
	writeTCRFn(uint64(t))
}

// LoadTCR returns the current value of TCR_EL1.
func LoadTCR() TCR {
	return TCR(readTCRFn())
}

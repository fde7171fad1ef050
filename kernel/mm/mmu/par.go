package mmu

import (
	"io"

	"pikern/kernel/kfmt"
)

// PAR is a PAR_EL1 value produced by an address translation instruction.
type PAR uint64

const (
	parFailed = PAR(1) << 0
	parPTW    = PAR(1) << 8
	parStage  = PAR(1) << 9
	parNS     = PAR(1) << 9

	parFSTShift = 1
	parSHShift  = 7

	parAddressMask = PAR(addressMask)
)

// Fault status codes reported in PAR_EL1.FST.
const (
	FaultTranslationL0 = uint8(0b000100)
	FaultTranslationL1 = uint8(0b000101)
	FaultTranslationL2 = uint8(0b000110)
	FaultTranslationL3 = uint8(0b000111)
)

// Probe translates virtAddr as an EL1 read (AT S1E1R) and returns the
// resulting PAR_EL1.
func Probe(virtAddr uintptr) PAR {
	return PAR(translateAddressFn(virtAddr))
}

// Failed returns true if the translation aborted.
func (p PAR) Failed() bool { return p&parFailed != 0 }

// Stage returns the translation stage (1 or 2) that caused a failure.
func (p PAR) Stage() uint8 {
	if p&parStage != 0 {
		return 2
	}
	return 1
}

// PTW returns true if a failed translation faulted on a stage 2 walk of a
// stage 1 table.
func (p PAR) PTW() bool { return p&parPTW != 0 }

// FaultStatus returns the fault status code of a failed translation.
func (p PAR) FaultStatus() uint8 { return uint8(p>>parFSTShift) & 0b111111 }

// PhysAddr returns the output address of a successful translation.
func (p PAR) PhysAddr() uintptr { return uintptr(p & parAddressMask) }

// Shareability returns the SH attribute of a successful translation.
func (p PAR) Shareability() uint8 { return uint8(p>>parSHShift) & 0b11 }

// NonSecure returns the NS attribute of a successful translation.
func (p PAR) NonSecure() bool { return p&parNS != 0 }

// Fprint writes the decoded result of translating virtAddr to w.
func (p PAR) Fprint(w io.Writer, label string, virtAddr uintptr) {
	if p.Failed() {
		kfmt.Fprintf(w, "%30s | failed to translate 0x%016x (stage: %d, PTW: %t, fault status: 0b%06b)\n",
			label, virtAddr, p.Stage(), p.PTW(), p.FaultStatus())
		return
	}

	kfmt.Fprintf(w, "%30s | translated 0x%016x to 0x%016x (SH: 0b%02b, NS: %t)\n",
		label, virtAddr, p.PhysAddr()|virtAddr&0xfff, p.Shareability(), p.NonSecure())
}

// WalkPAR performs the stage 1 walk the MMU would perform for virtAddr using
// the tables installed in TTBR0_EL1 and returns the PAR_EL1 value that
// AT S1E1R would produce. It lets hosted builds answer translation probes.
func WalkPAR(virtAddr uintptr) uint64 {
	root := LoadTTBR(TTBR0).BaseAddress()
	if root == 0 || uint64(virtAddr) >= MaxVirtAddr {
		return uint64(parFailed | PAR(FaultTranslationL0)<<parFSTShift)
	}

	l, err := lookup(tableAt[Global](root), virtAddr)
	if err != nil {
		return uint64(parFailed | PAR(l.faultStatus())<<parFSTShift)
	}

	par := PAR(l.physAddr) & parAddressMask
	par |= PAR(l.flags.Shareability()) << parSHShift
	if l.flags&FlagNonSecure != 0 {
		par |= parNS
	}
	return uint64(par)
}

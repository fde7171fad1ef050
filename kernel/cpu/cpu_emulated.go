//go:build !rpi3

package cpu

import "sync"

// Registers is a snapshot of the emulated EL1 register file.
type Registers struct {
	CPACR uint64
	VBAR  uint64
	TTBR0 uint64
	TTBR1 uint64
	TCR   uint64
	MAIR  uint64
	SCTLR uint64
	MMFR0 uint64

	// Barriers counts DSB/ISB instructions; TLBFlushes counts TLBI.
	Barriers   int
	TLBFlushes int
}

// cortexA53MMFR0 reports a 40-bit PARange like the BCM2837 cores.
const cortexA53MMFR0 = 0x2

var (
	regMu sync.Mutex
	regs  = Registers{MMFR0: cortexA53MMFR0}

	haltFn  = func() { select {} }
	probeFn func(virtAddr uintptr) uint64
)

// Reset restores the emulated register file to its power-on state.
func Reset() {
	regMu.Lock()
	regs = Registers{MMFR0: cortexA53MMFR0}
	regMu.Unlock()
}

// Snapshot returns a copy of the emulated register file.
func Snapshot() Registers {
	regMu.Lock()
	defer regMu.Unlock()
	return regs
}

// SetHaltHandler replaces the action taken by Halt. The default blocks the
// calling goroutine forever.
func SetHaltHandler(fn func()) { haltFn = fn }

// SetTranslationProbe registers the function that emulates AT S1E1R. It
// receives a virtual address and returns a PAR_EL1 image.
func SetTranslationProbe(fn func(virtAddr uintptr) uint64) { probeFn = fn }

// Halt invokes the registered halt handler.
func Halt() { haltFn() }

// EnableFPU sets CPACR_EL1.FPEN.
func EnableFPU() {
	regMu.Lock()
	regs.CPACR |= cpacrFPEN
	regMu.Unlock()
}

// WriteVBAR installs the exception vector base address.
func WriteVBAR(addr uintptr) { write(&regs.VBAR, uint64(addr)) }

// ReadTTBR0 returns the value of TTBR0_EL1.
func ReadTTBR0() uint64 { return read(&regs.TTBR0) }

// WriteTTBR0 writes TTBR0_EL1.
func WriteTTBR0(val uint64) { write(&regs.TTBR0, val) }

// ReadTTBR1 returns the value of TTBR1_EL1.
func ReadTTBR1() uint64 { return read(&regs.TTBR1) }

// WriteTTBR1 writes TTBR1_EL1.
func WriteTTBR1(val uint64) { write(&regs.TTBR1, val) }

// ReadTCR returns the value of TCR_EL1.
func ReadTCR() uint64 { return read(&regs.TCR) }

// WriteTCR writes TCR_EL1.
func WriteTCR(val uint64) { write(&regs.TCR, val) }

// ReadMAIR returns the value of MAIR_EL1.
func ReadMAIR() uint64 { return read(&regs.MAIR) }

// WriteMAIR writes MAIR_EL1.
func WriteMAIR(val uint64) { write(&regs.MAIR, val) }

// ReadSCTLR returns the value of SCTLR_EL1.
func ReadSCTLR() uint64 { return read(&regs.SCTLR) }

// WriteSCTLR writes SCTLR_EL1.
func WriteSCTLR(val uint64) { write(&regs.SCTLR, val) }

// ReadMMFR0 returns the value of ID_AA64MMFR0_EL1.
func ReadMMFR0() uint64 { return read(&regs.MMFR0) }

// DataSyncBarrier issues a DSB SY.
func DataSyncBarrier() { barrier() }

// InstructionSyncBarrier issues an ISB.
func InstructionSyncBarrier() { barrier() }

// FlushTLB invalidates all stage 1 EL1&0 TLB entries on this core.
func FlushTLB() {
	regMu.Lock()
	regs.TLBFlushes++
	regMu.Unlock()
}

// TranslateAddress emulates an AT S1E1R probe. Without a registered probe
// every address reports a translation fault (PAR_EL1.F set).
func TranslateAddress(virtAddr uintptr) uint64 {
	if probeFn == nil {
		return 1
	}
	return probeFn(virtAddr)
}

func read(reg *uint64) uint64 {
	regMu.Lock()
	defer regMu.Unlock()
	return *reg
}

func write(reg *uint64, val uint64) {
	regMu.Lock()
	*reg = val
	regMu.Unlock()
}

func barrier() {
	regMu.Lock()
	regs.Barriers++
	regMu.Unlock()
}

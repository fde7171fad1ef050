//go:build rpi3 && arm64

package cpu

// Halt parks the core in a WFE loop. It never returns.
func Halt()

// EnableFPU sets CPACR_EL1.FPEN so FP/SIMD instructions no longer trap.
func EnableFPU()

// WriteVBAR installs the exception vector base address.
func WriteVBAR(addr uintptr)

// ReadTTBR0 returns the value of TTBR0_EL1.
func ReadTTBR0() uint64

// WriteTTBR0 writes TTBR0_EL1.
func WriteTTBR0(val uint64)

// ReadTTBR1 returns the value of TTBR1_EL1.
func ReadTTBR1() uint64

// WriteTTBR1 writes TTBR1_EL1.
func WriteTTBR1(val uint64)

// ReadTCR returns the value of TCR_EL1.
func ReadTCR() uint64

// WriteTCR writes TCR_EL1.
func WriteTCR(val uint64)

// ReadMAIR returns the value of MAIR_EL1.
func ReadMAIR() uint64

// WriteMAIR writes MAIR_EL1.
func WriteMAIR(val uint64)

// ReadSCTLR returns the value of SCTLR_EL1.
func ReadSCTLR() uint64

// WriteSCTLR writes SCTLR_EL1 followed by an ISB.
func WriteSCTLR(val uint64)

// ReadMMFR0 returns the value of ID_AA64MMFR0_EL1.
func ReadMMFR0() uint64

// DataSyncBarrier issues a DSB SY.
func DataSyncBarrier()

// InstructionSyncBarrier issues an ISB.
func InstructionSyncBarrier()

// FlushTLB invalidates all stage 1 EL1&0 TLB entries on this core.
func FlushTLB()

// TranslateAddress runs an AT S1E1R probe for virtAddr and returns PAR_EL1.
func TranslateAddress(virtAddr uintptr) uint64

// Package mmu builds the stage 1 translation tables for the EL1&0 regime and
// programs the registers that activate them.
//
// The kernel uses a 4 KiB granule with 32-bit input address ranges, so each
// table hierarchy has three levels: Global (1 GiB per slot), Middle (2 MiB
// blocks) and Bottom (4 KiB pages). Tables are kept in a single arena that is
// only reachable through WithPageTables.
package mmu

import (
	"pikern/kernel/cpu"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
)

var (
	// The following functions are mocked by tests.
	allocFrameFn             = mm.AllocFrame
	panicFn                  = kfmt.Panic
	readTTBR0Fn              = cpu.ReadTTBR0
	writeTTBR0Fn             = cpu.WriteTTBR0
	readTTBR1Fn              = cpu.ReadTTBR1
	writeTTBR1Fn             = cpu.WriteTTBR1
	readTCRFn                = cpu.ReadTCR
	writeTCRFn               = cpu.WriteTCR
	readMAIRFn               = cpu.ReadMAIR
	writeMAIRFn              = cpu.WriteMAIR
	readSCTLRFn              = cpu.ReadSCTLR
	writeSCTLRFn             = cpu.WriteSCTLR
	dataSyncBarrierFn        = cpu.DataSyncBarrier
	instructionSyncBarrierFn = cpu.InstructionSyncBarrier
	flushTLBFn               = cpu.FlushTLB
	translateAddressFn       = cpu.TranslateAddress
)

// EnableTranslation turns on stage 1 translation once the translation
// registers have been programmed. Table writes are completed and TLB entries
// left by the firmware are discarded before SCTLR_EL1 is updated; the new
// translation regime is in effect when it returns.
func EnableTranslation() {
	dataSyncBarrierFn()
	flushTLBFn()
	instructionSyncBarrierFn()

	sctlr := readSCTLRFn() | cpu.SCTLRMMUEnable
	writeSCTLRFn(sctlr)
	instructionSyncBarrierFn()

	kfmt.Printf("[mmu] SCTLR_EL1: 0x%016x\n", readSCTLRFn())
}

// TranslationEnabled reports whether SCTLR_EL1.M is set.
func TranslationEnabled() bool {
	return readSCTLRFn()&cpu.SCTLRMMUEnable != 0
}

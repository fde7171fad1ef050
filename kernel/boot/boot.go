package boot

import (
	"pikern/kernel"
	"pikern/kernel/cpu"
	"pikern/kernel/irq"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
	"pikern/kernel/mm/mmu"
	"pikern/kernel/mm/pmm"
)

var errTranslationDisabled = &kernel.Error{Module: "boot", Message: "SCTLR_EL1.M did not latch"}

const (
	// ImageFlags map the memory below the peripherals, kernel image
	// included, as normal non-cacheable memory that only EL1 can access.
	ImageFlags = mmu.FlagNormalNC | mmu.FlagEL1RWEL0None | mmu.FlagNonSecure | mmu.FlagAccess

	// DeviceFlags map the peripherals as device-nGnRnE memory that only EL1
	// can access.
	DeviceFlags = mmu.FlagDevice | mmu.FlagEL1RWEL0None | mmu.FlagNonSecure | mmu.FlagAccess
)

var (
	bootMemAllocator pmm.BootMemAllocator

	// The following functions are mocked by tests.
	enableFPUFn         = cpu.EnableFPU
	installVectorsFn    = irq.InstallVectors
	memsetFn            = kernel.Memset
	kernelArenaFn       = mmu.KernelArena
	physAddrBitsFn      = cpu.PhysAddrBits
	enableTranslationFn = mmu.EnableTranslation
	probeFn             = mmu.Probe
)

// MemoryInit runs the one-shot sequence that enables the MMU on the boot
// core:
//
//  1. enable FP/SIMD at EL1 and EL0
//  2. install the exception vectors
//  3. zero the .bss segment
//  4. build the boot tables and publish them in TTBR0_EL1 and TTBR1_EL1
//  5. program TCR_EL1 and MAIR_EL1
//  6. enable stage 1 translation and check that SCTLR_EL1.M is set
//
// If no frame allocator has been registered, a boot allocator serving the
// memory between the image and the peripherals is registered before the
// tables are built. Any error leaves the MMU disabled; callers are expected
// to treat it as fatal.
func MemoryInit(l Layout) *kernel.Error {
	if err := l.Validate(); err != nil {
		return err
	}

	enableFPUFn()

	irq.SetVectorBase(l.VectorBase)
	if err := installVectorsFn(); err != nil {
		return err
	}

	if l.BSSEnd > l.BSSStart {
		memsetFn(l.BSSStart, 0, l.BSSEnd-l.BSSStart)
	}

	if !mm.HasFrameAllocator() {
		registerBootAllocator(l)
	}

	if err := mmu.With(kernelArenaFn(), func(pt *mmu.PageTables) *kernel.Error {
		return createPageTables(pt, l)
	}); err != nil {
		return err
	}

	mmu.BootTCR(physAddrBitsFn()).Install()
	mmu.BootMAIR.Install()
	enableTranslationFn()
	if !mmu.TranslationEnabled() {
		return errTranslationDisabled
	}

	if l.SelfVerify {
		verifyTranslation(l)
	}

	return nil
}

func registerBootAllocator(l Layout) {
	start, end := l.freeMemory()
	bootMemAllocator.Init(start, end)
	bootMemAllocator.PrintRegion()
	mm.SetFrameAllocator(bootMemAllocator.AllocFrame)
}

// createPageTables identity maps RAM from physical address 0 up to the
// peripherals and the device window, and installs the resulting hierarchy in
// both translation table base registers. The firmware spin tables and the
// rt0 stack live below ImageStart.
func createPageTables(pt *mmu.PageTables, l Layout) *kernel.Error {
	pt.Reset()

	if err := mmu.MapMemory(pt, 0, 0, l.PeripheralBase, ImageFlags); err != nil {
		return err
	}

	if err := mmu.MapMemory(pt, l.PeripheralBase, l.PeripheralBase, l.DeviceEnd, DeviceFlags); err != nil {
		return err
	}

	ttbr, err := mmu.NewTTBR(pt.Global.Address())
	if err != nil {
		return err
	}
	ttbr = ttbr.OuterShareable().WithInnerRegion(0).WithOuterRegion(0)

	ttbr.Install(mmu.TTBR1)
	ttbr.Install(mmu.TTBR0)

	kfmt.Printf("[boot] TTBR0_EL1: 0x%016x, TTBR1_EL1: 0x%016x\n",
		uint64(mmu.LoadTTBR(mmu.TTBR0)),
		uint64(mmu.LoadTTBR(mmu.TTBR1)),
	)

	stats := mmu.CollectStats(pt)
	kfmt.Printf("[boot] page tables: %d middle, %d bottom, %d blocks, %d pages\n",
		stats.MiddleTables, stats.BottomTables, stats.Blocks, stats.Pages,
	)

	return nil
}

// verifyTranslation probes a few addresses that the boot tables must map
// and one they must not, and logs the results.
func verifyTranslation(l Layout) {
	probes := []struct {
		label  string
		addr   uintptr
		mapped bool
	}{
		{"low memory", 0, true},
		{"image start", l.ImageStart, true},
		{"last image page", l.PeripheralBase - mm.PageSize, true},
		{"peripheral base", l.PeripheralBase, true},
		{"device window end", l.DeviceEnd, false},
	}

	var mismatches int
	for _, probe := range probes {
		par := probeFn(probe.addr)
		par.Fprint(kfmt.Output, probe.label, probe.addr)

		if par.Failed() == probe.mapped || (!par.Failed() && par.PhysAddr() != mm.AlignDown(probe.addr, mm.PageSize)) {
			mismatches++
		}
	}

	if mismatches != 0 {
		kfmt.Printf("[boot] warning: %d translation probe(s) returned unexpected results\n", mismatches)
	}
}

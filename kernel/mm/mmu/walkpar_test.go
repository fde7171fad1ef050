//go:build !rpi3

package mmu

import (
	"testing"

	"pikern/kernel/cpu"
)

func TestWalkPAR(t *testing.T) {
	defer func() {
		readTTBR0Fn = cpu.ReadTTBR0
	}()

	readTTBR0Fn = func() uint64 { return 0 }
	if par := PAR(WalkPAR(0x80000)); !par.Failed() || par.FaultStatus() != FaultTranslationL0 {
		t.Fatalf("expected a level 0 fault without a root table; got PAR 0x%x", uint64(par))
	}

	withTables(t, 8, func(pt *PageTables) {
		imageFlags := NormalFlags | FlagNonSecure | FlagInnerShareable
		if err := MapMemory(pt, 0x80000, 0x80000, 0x400000, imageFlags); err != nil {
			t.Fatal(err)
		}

		ttbr, err := NewTTBR(pt.Global.Address())
		if err != nil {
			t.Fatal(err)
		}
		readTTBR0Fn = func() uint64 { return uint64(ttbr.OuterShareable()) }

		specs := []struct {
			virt      uintptr
			expFailed bool
			expPhys   uintptr
			expFault  uint8
		}{
			{0x80000, false, 0x80000, 0},
			{0x80abc, false, 0x80000, 0},
			{0x3ff123, false, 0x3ff000, 0},
			{0x400000, true, 0, FaultTranslationL2},
			{0x1000, true, 0, FaultTranslationL3},
			{0x40000000, true, 0, FaultTranslationL1},
			// Beyond the 4 GiB input range set by BootTCR.
			{uintptr(MaxVirtAddr), true, 0, FaultTranslationL0},
			{0x8000000000 - 0x1000, true, 0, FaultTranslationL0},
		}

		for specIndex, spec := range specs {
			par := PAR(WalkPAR(spec.virt))
			if par.Failed() != spec.expFailed {
				t.Errorf("[spec %d] expected Failed() to be %t for 0x%x", specIndex, spec.expFailed, spec.virt)
				continue
			}

			if spec.expFailed {
				if par.FaultStatus() != spec.expFault {
					t.Errorf("[spec %d] expected fault status 0b%b; got 0b%b", specIndex, spec.expFault, par.FaultStatus())
				}
				continue
			}

			if par.PhysAddr() != spec.expPhys || !par.NonSecure() || par.Shareability() != 0b11 {
				t.Errorf("[spec %d] expected PA 0x%x with NS and inner shareable; got PAR 0x%x", specIndex, spec.expPhys, uint64(par))
			}
		}
	})
}

package mmu

import (
	"testing"

	"pikern/kernel/cpu"
)

func TestBootTCR(t *testing.T) {
	tcr := BootTCR(40)

	exp := TCR(32) | TCR(32)<<16 |
		TCR(0b11)<<8 | TCR(0b11)<<28 |
		TCR(0b10)<<30 |
		TCR(1)<<23 |
		TCR(0b010)<<32

	if tcr != exp {
		t.Fatalf("expected boot TCR 0x%x; got 0x%x", uint64(exp), uint64(tcr))
	}

	if tcr&(0b11<<14) != TCRTG04K {
		t.Fatal("expected a 4 KiB TTBR0 granule")
	}
}

func TestTCRWithIPS(t *testing.T) {
	specs := []struct {
		physAddrBits uint8
		expIPS       TCR
		expBits      uint8
	}{
		{32, TCRIPS4GB, 32},
		{36, TCRIPS64GB, 36},
		{39, TCRIPS64GB, 36},
		{40, TCRIPS1TB, 40},
		{48, TCRIPS1TB, 40},
		{52, TCRIPS1TB, 40},
		{0, TCRIPS4GB, 32},
	}

	for specIndex, spec := range specs {
		tcr := (TCRT0SZ32 | TCRIPS4PB).WithIPS(spec.physAddrBits)
		if got := tcr & tcrIPSMask; got != spec.expIPS {
			t.Errorf("[spec %d] expected IPS 0x%x for %d bits; got 0x%x", specIndex, uint64(spec.expIPS), spec.physAddrBits, uint64(got))
		}
		if got := tcr.IPSBits(); got != spec.expBits {
			t.Errorf("[spec %d] expected IPSBits %d; got %d", specIndex, spec.expBits, got)
		}
		if tcr&^tcrIPSMask != TCRT0SZ32 {
			t.Errorf("[spec %d] expected the remaining fields to be preserved", specIndex)
		}
	}
}

func TestTCRInstall(t *testing.T) {
	defer func() {
		writeTCRFn, readTCRFn = cpu.WriteTCR, cpu.ReadTCR
	}()

	var reg uint64
	writeTCRFn = func(v uint64) { reg = v }
	readTCRFn = func() uint64 { return reg }

	BootTCR(40).Install()

	if LoadTCR() != BootTCR(40) {
		t.Fatalf("expected LoadTCR to return the installed value; got 0x%x", reg)
	}
}

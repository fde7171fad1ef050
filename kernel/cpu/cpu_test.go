package cpu

import "testing"

func TestPhysAddrBits(t *testing.T) {
	defer func() {
		readMMFR0Fn = ReadMMFR0
	}()

	specs := []struct {
		mmfr0 uint64
		exp   uint8
	}{
		{0x0, 32},
		{0x1, 36},
		// Cortex-A53 (BCM2837)
		{0x1122, 40},
		{0x5, 48},
		{0x6, 52},
		// reserved encodings fall back to 32 bits
		{0xf, 32},
	}

	for specIndex, spec := range specs {
		readMMFR0Fn = func() uint64 { return spec.mmfr0 }

		if got := PhysAddrBits(); got != spec.exp {
			t.Errorf("[spec %d] expected PhysAddrBits to return %d; got %d", specIndex, spec.exp, got)
		}
	}
}

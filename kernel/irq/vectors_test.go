package irq

import (
	"testing"

	"pikern/kernel"
	"pikern/kernel/cpu"
)

func TestInstallVectors(t *testing.T) {
	defer func() {
		writeVBARFn = cpu.WriteVBAR
		SetVectorBase(0)
	}()

	var vbar uintptr
	writeVBARFn = func(addr uintptr) { vbar = addr }

	specs := []struct {
		base   uintptr
		expErr *kernel.Error
	}{
		{0, errNoVectorTable},
		{0x80400, errMisalignedVectorBase},
		{0x80800, nil},
	}

	for specIndex, spec := range specs {
		vbar = 0
		SetVectorBase(spec.base)

		if err := InstallVectors(); err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}

		exp := spec.base
		if spec.expErr != nil {
			exp = 0
		}
		if vbar != exp {
			t.Errorf("[spec %d] expected VBAR_EL1 to be 0x%x; got 0x%x", specIndex, exp, vbar)
		}
	}
}

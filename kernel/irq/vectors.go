// Package irq installs the EL1 exception vector table.
package irq

import (
	"pikern/kernel"
	"pikern/kernel/cpu"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
)

// VectorTableAlign is the alignment VBAR_EL1 requires.
const VectorTableAlign = 2 * mm.KiB

var (
	// writeVBARFn is mocked by tests.
	writeVBARFn = cpu.WriteVBAR

	vectorBase uintptr

	errNoVectorTable        = &kernel.Error{Module: "irq", Message: "no exception vector table registered"}
	errMisalignedVectorBase = &kernel.Error{Module: "irq", Message: "exception vector table is not 2 KiB aligned"}
)

// SetVectorBase registers the address of the exception vector table that
// InstallVectors will point VBAR_EL1 to.
func SetVectorBase(addr uintptr) {
	vectorBase = addr
}

// InstallVectors points VBAR_EL1 at the registered vector table.
func InstallVectors() *kernel.Error {
	switch {
	case vectorBase == 0:
		return errNoVectorTable
	case !mm.IsAligned(vectorBase, VectorTableAlign):
		return errMisalignedVectorBase
	}

	kfmt.Printf("[irq] installing exception vectors at 0x%x\n", vectorBase)
	writeVBARFn(vectorBase)
	return nil
}

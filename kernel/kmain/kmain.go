package kmain

import (
	"pikern/kernel"
	"pikern/kernel/boot"
	"pikern/kernel/kfmt"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// The following functions are mocked by tests.
	memoryInitFn = boot.MemoryInit
	panicFn      = kfmt.Panic
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. It is invoked by the rt0 assembly code on the boot
// core after it has set up a stack, parked the secondary cores and dropped
// to EL1.
//
// The rt0 code passes the physical addresses of the kernel image, its .bss
// segment and the exception vector table, as resolved by the linker.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(imageStart, imageEnd, bssStart, bssEnd, vectorBase uintptr) {
	layout := boot.DefaultLayout()
	layout.ImageStart, layout.ImageEnd = imageStart, imageEnd
	layout.BSSStart, layout.BSSEnd = bssStart, bssEnd
	layout.VectorBase = vectorBase

	if err := memoryInitFn(layout); err != nil {
		panicFn(err)
		return
	}

	kfmt.Printf("[kmain] virtual memory enabled\n")

	// Use panicFn instead of panic to prevent the compiler from treating
	// kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

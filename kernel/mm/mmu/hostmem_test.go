//go:build !rpi3

package mmu

import (
	"testing"

	"pikern/kernel/mm"
	"pikern/kernel/mm/pmm"
)

// useHostFrames backs table allocations with a host region of the given
// number of frames for the duration of the test.
func useHostFrames(t *testing.T, frames int) *pmm.HostRegion {
	t.Helper()

	region, err := pmm.NewHostRegion(uintptr(frames) * mm.PageSize)
	if err != nil {
		t.Fatal(err)
	}

	allocFrameFn = region.AllocFrame
	t.Cleanup(func() {
		allocFrameFn = mm.AllocFrame
		region.Close()
	})

	return region
}

// withTables runs fn against a fresh arena backed by a host region.
func withTables(t *testing.T, frames int, fn func(*PageTables)) {
	t.Helper()
	useHostFrames(t, frames)

	var a Arena
	With(&a, func(pt *PageTables) struct{} {
		fn(pt)
		return struct{}{}
	})
}

//go:build !rpi3

package mmu

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWalkStopsEarly(t *testing.T) {
	withTables(t, 4, func(pt *PageTables) {
		if err := MapMemory(pt, 0x0, 0x0, 0x400000, NormalFlags); err != nil {
			t.Fatal(err)
		}
		if err := MapMemory(pt, 0x0, 0x40000000, 0x40001000, NormalFlags); err != nil {
			t.Fatal(err)
		}

		var visited int
		Walk(pt, func(Mapping) bool {
			visited++
			return false
		})

		if visited != 1 {
			t.Fatalf("expected Walk to stop after the first mapping; visited %d", visited)
		}
	})
}

func TestLookupFaultLevel(t *testing.T) {
	withTables(t, 8, func(pt *PageTables) {
		if err := MapMemory(pt, 0x0, 0x0, 0x1000, NormalFlags); err != nil {
			t.Fatal(err)
		}

		specs := []struct {
			virt     uintptr
			expLevel uint8
		}{
			// Global slot 1 is empty
			{0x40000000, 1},
			// Middle slot 1 is empty
			{0x200000, 2},
			// Bottom slot 1 is empty
			{0x1000, 3},
			{uintptr(MaxVirtAddr), 0},
		}

		for specIndex, spec := range specs {
			l, err := lookup(pt.Global, spec.virt)
			if err != ErrInvalidMapping {
				t.Errorf("[spec %d] expected ErrInvalidMapping; got %v", specIndex, err)
			}
			if l.level != spec.expLevel {
				t.Errorf("[spec %d] expected the walk for 0x%x to stop at level %d; got %d", specIndex, spec.virt, spec.expLevel, l.level)
			}
		}
	})
}

func TestDump(t *testing.T) {
	withTables(t, 8, func(pt *PageTables) {
		if err := MapMemory(pt, 0x0, 0x80000000, 0x80001000, NormalFlags); err != nil {
			t.Fatal(err)
		}
		if err := MapMemory(pt, 0x40000000, 0x40000000, 0x40200000, DeviceFlags|FlagNonSecure); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		Dump(pt, &buf)

		// Global[1] was populated second and points to the second Middle table.
		exp := fmt.Sprintf(`global table 0x%012x
L1[001] table 0x%012x
  L2[000] block 0x000040000000 attr=0 ns=1 ap=0 sh=0 af=1 ng=0 pxn=0 uxn=0
L1[002] table 0x%012x
  L2[000] table 0x%012x
    L3[000] page 0x000000000000 attr=1 ns=0 ap=0 sh=0 af=1 ng=0 pxn=0 uxn=0
`,
			pt.Global.Address(),
			pt.Middle[1].Address(),
			pt.Middle[0].Address(),
			pt.Bottom[0].Address(),
		)

		if diff := cmp.Diff(exp, buf.String()); diff != "" {
			t.Fatalf("unexpected dump (-want +got):\n%s", diff)
		}
	})
}

//go:build !rpi3

package mmu

import (
	"testing"

	"pikern/kernel"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
)

func TestArenaLazyInit(t *testing.T) {
	region := useHostFrames(t, 4)

	var (
		a        Arena
		firstGlb *Table[Global]
	)

	With(&a, func(pt *PageTables) int {
		firstGlb = pt.Global
		if !region.Contains(pt.Global.Address()) {
			t.Errorf("expected Global table at 0x%x to be allocated from the frame allocator", pt.Global.Address())
		}
		if !pt.Global.IsUnused() {
			t.Error("expected a zeroed Global table")
		}
		if cap(pt.Middle) < reservedMiddleTables || cap(pt.Bottom) < reservedBottomTables {
			t.Errorf("expected reserved capacity for %d Middle and %d Bottom tables; got %d and %d",
				reservedMiddleTables, reservedBottomTables, cap(pt.Middle), cap(pt.Bottom))
		}
		return 0
	})

	got := With(&a, func(pt *PageTables) *Table[Global] { return pt.Global })
	if got != firstGlb {
		t.Fatal("expected subsequent calls to reuse the same Global table")
	}

	if region.Allocated() != 1 {
		t.Fatalf("expected a single frame to be allocated; got %d", region.Allocated())
	}
}

func TestArenaAllocationsBeyondReserve(t *testing.T) {
	const count = reservedBottomTables + 4

	withTables(t, count+1, func(pt *PageTables) {
		seen := make(map[uintptr]bool)
		for i := 0; i < count; i++ {
			table, err := pt.NewBottom()
			if err != nil {
				t.Fatalf("[table %d] unexpected error: %v", i, err)
			}

			addr := table.Address()
			if !mm.IsAligned(addr, mm.PageSize) {
				t.Errorf("[table %d] expected a page aligned table; got 0x%x", i, addr)
			}
			if seen[addr] {
				t.Errorf("[table %d] table at 0x%x handed out twice", i, addr)
			}
			seen[addr] = true
		}

		if len(pt.Bottom) != count {
			t.Fatalf("expected the arena to own %d Bottom tables; got %d", count, len(pt.Bottom))
		}

		if _, err := pt.NewMiddle(); err != ErrArenaExhausted {
			t.Fatalf("expected ErrArenaExhausted once frames run out; got %v", err)
		}
	})
}

func TestArenaReset(t *testing.T) {
	region := useHostFrames(t, 8)

	var a Arena
	With(&a, func(pt *PageTables) int {
		if err := MapMemory(pt, 0, 0, 0x1000, NormalFlags); err != nil {
			t.Fatal(err)
		}

		middle, bottom := pt.Middle[0], pt.Bottom[0]
		pt.Reset()

		if !pt.Global.IsUnused() || !middle.IsUnused() || !bottom.IsUnused() {
			t.Fatal("expected Reset to zero every table")
		}
		if len(pt.Middle) != 0 || len(pt.Bottom) != 0 {
			t.Fatalf("expected no reachable child tables after Reset; got %d Middle and %d Bottom", len(pt.Middle), len(pt.Bottom))
		}

		if err := MapMemory(pt, 0, 0, 0x1000, NormalFlags); err != nil {
			t.Fatal(err)
		}
		if pt.Middle[0] != middle || pt.Bottom[0] != bottom {
			t.Fatal("expected tables released by Reset to be reused")
		}
		return 0
	})

	if exp := uint64(3); region.Allocated() != exp {
		t.Fatalf("expected %d frames to be allocated; got %d", exp, region.Allocated())
	}
}

func TestArenaReleasesLockOnPanic(t *testing.T) {
	useHostFrames(t, 1)

	var a Arena
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the closure panic to propagate")
			}
		}()

		With(&a, func(*PageTables) int {
			panic("closure failed")
		})
	}()

	if !a.lock.TryToAcquire() {
		t.Fatal("expected the arena lock to be released after a panic")
	}
	a.lock.Release()
}

func TestArenaGlobalAllocFailure(t *testing.T) {
	defer func() {
		allocFrameFn = mm.AllocFrame
		panicFn = kfmt.Panic
	}()

	expErr := &kernel.Error{Module: "test", Message: "no frames"}
	allocFrameFn = func() (mm.Frame, *kernel.Error) { return mm.InvalidFrame, expErr }

	var panicErr interface{}
	panicFn = func(e interface{}) { panicErr = e }

	var a Arena
	called := With(&a, func(*PageTables) bool { return true })

	if called {
		t.Fatal("expected the closure not to run without a Global table")
	}
	if panicErr != ErrArenaExhausted {
		t.Fatalf("expected a kernel panic with ErrArenaExhausted; got %v", panicErr)
	}
}

func TestWithPageTablesUsesKernelArena(t *testing.T) {
	useHostFrames(t, 1)
	defer func() { kernelArena = Arena{} }()

	global := WithPageTables(func(pt *PageTables) *Table[Global] { return pt.Global })

	if KernelArena().tables.Global != global {
		t.Fatal("expected WithPageTables to operate on the kernel arena")
	}
}

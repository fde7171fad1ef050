package mm

import (
	"testing"

	"pikern/kernel"
)

func TestFrameMethods(t *testing.T) {
	for frameIndex := uint64(0); frameIndex < 128; frameIndex++ {
		frame := Frame(frameIndex)

		if !frame.Valid() {
			t.Errorf("expected frame %d to be valid", frameIndex)
		}

		if exp, got := uintptr(frameIndex<<PageShift), frame.Address(); got != exp {
			t.Errorf("expected frame (%d, index: %d) call to Address() to return %x; got %x", frame, frameIndex, exp, got)
		}
	}

	invalidFrame := InvalidFrame
	if invalidFrame.Valid() {
		t.Error("expected InvalidFrame.Valid() to return false")
	}
}

func TestFrameFromAddress(t *testing.T) {
	specs := []struct {
		input    uintptr
		expFrame Frame
	}{
		{0, Frame(0)},
		{4095, Frame(0)},
		{4096, Frame(1)},
		{4123, Frame(1)},
		{0x3f000000, Frame(0x3f000)},
	}

	for specIndex, spec := range specs {
		if got := FrameFromAddress(spec.input); got != spec.expFrame {
			t.Errorf("[spec %d] expected returned frame to be %v; got %v", specIndex, spec.expFrame, got)
		}
	}
}

func TestAlignment(t *testing.T) {
	specs := []struct {
		addr, align       uintptr
		expDown, expUp    uintptr
		expAlreadyAligned bool
	}{
		{0, PageSize, 0, 0, true},
		{1, PageSize, 0, PageSize, false},
		{0x80000, PageSize, 0x80000, 0x80000, true},
		{0x80001, PageSize, 0x80000, 0x81000, false},
		{0x1ff000, 2 * MiB, 0, 2 * MiB, false},
		{0x200000, 2 * MiB, 0x200000, 0x200000, true},
	}

	for specIndex, spec := range specs {
		if got := AlignDown(spec.addr, spec.align); got != spec.expDown {
			t.Errorf("[spec %d] expected AlignDown to return 0x%x; got 0x%x", specIndex, spec.expDown, got)
		}
		if got := AlignUp(spec.addr, spec.align); got != spec.expUp {
			t.Errorf("[spec %d] expected AlignUp to return 0x%x; got 0x%x", specIndex, spec.expUp, got)
		}
		if got := IsAligned(spec.addr, spec.align); got != spec.expAlreadyAligned {
			t.Errorf("[spec %d] expected IsAligned to return %t; got %t", specIndex, spec.expAlreadyAligned, got)
		}
	}
}

func TestFrameAllocator(t *testing.T) {
	defer SetFrameAllocator(nil)

	SetFrameAllocator(nil)
	if HasFrameAllocator() {
		t.Fatal("expected HasFrameAllocator to return false")
	}
	if _, err := AllocFrame(); err != errNoFrameAllocator {
		t.Fatalf("expected errNoFrameAllocator; got %v", err)
	}

	var allocCalled bool
	SetFrameAllocator(func() (Frame, *kernel.Error) {
		allocCalled = true
		return FrameFromAddress(0xbadf00), nil
	})

	frame, err := AllocFrame()
	if err != nil {
		t.Fatal(err)
	}

	if !allocCalled {
		t.Fatal("expected custom allocator to be invoked after a call to AllocFrame")
	}

	if exp := Frame(0xbad); frame != exp {
		t.Fatalf("expected frame %d; got %d", exp, frame)
	}
}

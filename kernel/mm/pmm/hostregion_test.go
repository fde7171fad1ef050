//go:build !rpi3

package pmm

import (
	"testing"
	"unsafe"

	"pikern/kernel/mm"
)

func TestHostRegion(t *testing.T) {
	r, err := NewHostRegion(16*mm.PageSize + 1)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if exp := 17 * mm.PageSize; r.Size() != exp {
		t.Fatalf("expected region size to be rounded up to %d; got %d", exp, r.Size())
	}

	if !mm.IsAligned(r.Base(), mm.PageSize) {
		t.Fatalf("expected region base 0x%x to be page aligned", r.Base())
	}

	if r.Free() != 17 {
		t.Fatalf("expected 17 free frames; got %d", r.Free())
	}

	frame, kErr := r.AllocFrame()
	if kErr != nil {
		t.Fatal(kErr)
	}

	if !r.Contains(frame.Address()) {
		t.Fatalf("expected frame at 0x%x to lie inside the region", frame.Address())
	}

	// Frames must be writable through their physical address.
	page := (*[mm.PageSize]byte)(unsafe.Pointer(frame.Address()))
	page[0], page[mm.PageSize-1] = 0xaa, 0x55

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("expected a second Close to be a no-op; got %v", err)
	}
}

func TestHostRegionEmpty(t *testing.T) {
	if _, err := NewHostRegion(0); err == nil {
		t.Fatal("expected an error when requesting an empty region")
	}
}

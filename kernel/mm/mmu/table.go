package mmu

import (
	"unsafe"

	"pikern/kernel"
	"pikern/kernel/mm"
)

var errIndexOutOfRange = &kernel.Error{Module: "mmu", Message: "table index out of range"}

// Index is a validated slot number inside a table.
type Index uint16

// NewIndex returns i as an Index. It panics if i is not below EntryCount.
func NewIndex(i uint) Index {
	if i >= EntryCount {
		panic(errIndexOutOfRange)
	}
	return Index(i)
}

// IndexFor returns the slot that translates virtAddr in a table of level L.
func IndexFor[L Level](virtAddr uintptr) Index {
	return Index((virtAddr >> ShiftOf[L]()) & (EntryCount - 1))
}

// Table is a page-sized array of descriptors of level L. Tables always live
// in page frames obtained from the frame allocator; their physical address is
// their address.
type Table[L Level] struct {
	entries [EntryCount]Descriptor[L]
}

// tableAt returns the table stored in the frame at physAddr.
func tableAt[L Level](physAddr uintptr) *Table[L] {
	return (*Table[L])(unsafe.Pointer(physAddr))
}

// Address returns the physical address of the table.
func (t *Table[L]) Address() uintptr {
	return uintptr(unsafe.Pointer(t))
}

// Zero marks every slot as empty.
func (t *Table[L]) Zero() {
	kernel.Memset(t.Address(), 0, mm.PageSize)
}

// IsUnused returns true if every slot is empty.
func (t *Table[L]) IsUnused() bool {
	for _, d := range t.entries {
		if !d.IsEmpty() {
			return false
		}
	}
	return true
}

// At returns the descriptor in slot i.
func (t *Table[L]) At(i Index) Descriptor[L] {
	return t.entries[i]
}

// Set stores d in slot i.
func (t *Table[L]) Set(i Index, d Descriptor[L]) {
	t.entries[i] = d
}

// Entry returns a pointer to slot i.
func (t *Table[L]) Entry(i Index) *Descriptor[L] {
	return &t.entries[i]
}

// Visit invokes fn for every non-empty slot in ascending order until fn
// returns false.
func (t *Table[L]) Visit(fn func(Index, Descriptor[L]) bool) bool {
	for i, d := range t.entries {
		if d.IsEmpty() {
			continue
		}
		if !fn(Index(i), d) {
			return false
		}
	}
	return true
}

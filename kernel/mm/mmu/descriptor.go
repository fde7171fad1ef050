package mmu

import (
	"io"
	"strings"

	"pikern/kernel"
	"pikern/kernel/kfmt"
)

var (
	// ErrReservedEncoding is reported for a Bottom descriptor with bits[1:0]
	// set to 0b01.
	ErrReservedEncoding = &kernel.Error{Module: "mmu", Message: "reserved descriptor encoding"}

	// ErrUnsupportedBlock is reported for a block descriptor at a level that
	// cannot map memory directly.
	ErrUnsupportedBlock = &kernel.Error{Module: "mmu", Message: "block descriptor not supported at this level"}
)

// Kind classifies a descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindTable
	KindBlock
	KindPage
	KindReserved
)

var kindNames = [...]string{"invalid", "table", "block", "page", "reserved"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Descriptor is a translation table entry residing in a table of level L.
// The zero value is an empty (invalid) descriptor.
type Descriptor[L Level] uint64

// NewTableDescriptor returns a descriptor pointing to the child table at
// physical address childAddr.
func NewTableDescriptor[L Branch](childAddr uintptr, flags Flags) Descriptor[L] {
	return Descriptor[L](uint64(childAddr)&addressMask | uint64(flags)&^addressMask | uint64(FlagTable|FlagValid))
}

// NewBlockDescriptor returns a descriptor mapping the block of memory that
// starts at physAddr. Middle descriptors map 2 MiB blocks and carry no kind
// bit; Bottom descriptors map 4 KiB pages and always carry it.
func NewBlockDescriptor[L Terminal](physAddr uintptr, flags Flags) Descriptor[L] {
	var l L
	attrs := (flags &^ FlagTable) | l.leafBits() | FlagValid
	return Descriptor[L](uint64(physAddr)&addressMask | uint64(attrs)&^addressMask)
}

// IsEmpty returns true if the valid bit is clear.
func (d Descriptor[L]) IsEmpty() bool {
	return Flags(d)&FlagValid == 0
}

// IsTable returns true if d points to a child table.
func (d Descriptor[L]) IsTable() bool {
	return d.Kind() == KindTable
}

// IsBlock returns true if d maps a block or a page.
func (d Descriptor[L]) IsBlock() bool {
	k := d.Kind()
	return k == KindBlock || k == KindPage
}

// Address returns the output address held in bits [47:12]: the child table
// for table descriptors or the mapped memory for blocks and pages.
func (d Descriptor[L]) Address() uintptr {
	return uintptr(uint64(d) & addressMask)
}

// Flags returns every bit of d outside the address field.
func (d Descriptor[L]) Flags() Flags {
	return Flags(uint64(d) &^ addressMask)
}

// Kind returns the classification of d at level L.
func (d Descriptor[L]) Kind() Kind {
	k, _ := d.Decode()
	return k
}

// Decode classifies d and reports encodings that are invalid at level L.
func (d Descriptor[L]) Decode() (Kind, *kernel.Error) {
	var l L
	f := Flags(d)

	switch {
	case f&FlagValid == 0:
		return KindInvalid, nil
	case !l.HasNext():
		if f&FlagTable == 0 {
			return KindReserved, ErrReservedEncoding
		}
		return KindPage, nil
	case f&FlagTable != 0:
		return KindTable, nil
	case !l.CanTerminate():
		return KindReserved, ErrUnsupportedBlock
	default:
		return KindBlock, nil
	}
}

// Fprint writes a one-line description of d to w.
func (d Descriptor[L]) Fprint(w io.Writer) {
	f := d.Flags()

	switch kind := d.Kind(); kind {
	case KindInvalid:
		kfmt.Fprintf(w, "unused 0x%016x", uint64(d))
	case KindTable:
		kfmt.Fprintf(w, "table 0x%012x", d.Address())
	case KindReserved:
		kfmt.Fprintf(w, "reserved 0x%016x", uint64(d))
	default:
		kfmt.Fprintf(w, "%s 0x%012x attr=%d ns=%d ap=%d sh=%d af=%d ng=%d pxn=%d uxn=%d",
			kindNames[kind],
			d.Address(),
			f.AttrIndex(),
			bit(f, FlagNonSecure),
			f.AccessPermissions(),
			f.Shareability(),
			bit(f, FlagAccess),
			bit(f, FlagNotGlobal),
			bit(f, FlagPrivExecuteNever),
			bit(f, FlagExecuteNever),
		)
	}
}

// String returns the description written by Fprint. Unlike Fprint it
// allocates.
func (d Descriptor[L]) String() string {
	var sb strings.Builder
	d.Fprint(&sb)
	return sb.String()
}

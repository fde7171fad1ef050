package mmu

import (
	"io"

	"pikern/kernel"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
)

// ErrInvalidMapping is returned when a virtual address is not mapped.
var ErrInvalidMapping = &kernel.Error{Module: "mmu", Message: "virtual address does not point to a mapped physical page"}

// leaf is the result of a software table walk.
type leaf struct {
	// level is the lookup level at which the walk stopped.
	level    uint8
	physAddr uintptr
	flags    Flags
}

func (l leaf) faultStatus() uint8 {
	return FaultTranslationL0 | l.level
}

// lookup walks the hierarchy rooted at global for virtAddr.
func lookup(global *Table[Global], virtAddr uintptr) (leaf, *kernel.Error) {
	if uint64(virtAddr) >= MaxVirtAddr {
		return leaf{level: 0}, ErrInvalidMapping
	}

	gd := global.At(IndexFor[Global](virtAddr))
	if !gd.IsTable() {
		return leaf{level: 1}, ErrInvalidMapping
	}

	md := tableAt[Middle](gd.Address()).At(IndexFor[Middle](virtAddr))
	switch md.Kind() {
	case KindBlock:
		return leaf{
			level:    2,
			physAddr: md.Address() + virtAddr&(MiddleBlockSize-1),
			flags:    md.Flags(),
		}, nil
	case KindTable:
	default:
		return leaf{level: 2}, ErrInvalidMapping
	}

	bd := tableAt[Bottom](md.Address()).At(IndexFor[Bottom](virtAddr))
	if !bd.IsBlock() {
		return leaf{level: 3}, ErrInvalidMapping
	}

	return leaf{
		level:    3,
		physAddr: bd.Address() + virtAddr&(mm.PageSize-1),
		flags:    bd.Flags(),
	}, nil
}

// Translate returns the physical address that virtAddr maps to and the
// flags of the descriptor mapping it.
func Translate(pt *PageTables, virtAddr uintptr) (uintptr, Flags, *kernel.Error) {
	l, err := lookup(pt.Global, virtAddr)
	if err != nil {
		return 0, 0, err
	}
	return l.physAddr, l.flags, nil
}

// Mapping describes a block or page descriptor found by Walk.
type Mapping struct {
	VirtAddr uintptr
	PhysAddr uintptr
	Size     uintptr

	// Level is the lookup level (2 for blocks, 3 for pages).
	Level uint8
	Flags Flags
}

// Walk invokes fn for every block and page mapped by pt in ascending virtual
// address order until fn returns false.
func Walk(pt *PageTables, fn func(Mapping) bool) {
	pt.Global.Visit(func(gi Index, gd Descriptor[Global]) bool {
		if !gd.IsTable() {
			return true
		}
		globalBase := uintptr(gi) << ShiftOf[Global]()

		return tableAt[Middle](gd.Address()).Visit(func(mi Index, md Descriptor[Middle]) bool {
			middleBase := globalBase | uintptr(mi)<<ShiftOf[Middle]()

			switch md.Kind() {
			case KindBlock:
				return fn(Mapping{
					VirtAddr: middleBase,
					PhysAddr: md.Address(),
					Size:     MiddleBlockSize,
					Level:    2,
					Flags:    md.Flags(),
				})
			case KindTable:
				return tableAt[Bottom](md.Address()).Visit(func(bi Index, bd Descriptor[Bottom]) bool {
					if !bd.IsBlock() {
						return true
					}
					return fn(Mapping{
						VirtAddr: middleBase | uintptr(bi)<<ShiftOf[Bottom](),
						PhysAddr: bd.Address(),
						Size:     mm.PageSize,
						Level:    3,
						Flags:    bd.Flags(),
					})
				})
			}
			return true
		})
	})
}

// Stats summarizes the contents of a table hierarchy.
type Stats struct {
	MiddleTables int
	BottomTables int
	Blocks       int
	Pages        int
	MappedBytes  uint64
}

// CollectStats returns the table counts of pt and the number of blocks and
// pages it maps.
func CollectStats(pt *PageTables) Stats {
	s := Stats{
		MiddleTables: len(pt.Middle),
		BottomTables: len(pt.Bottom),
	}

	Walk(pt, func(m Mapping) bool {
		if m.Level == 2 {
			s.Blocks++
		} else {
			s.Pages++
		}
		s.MappedBytes += uint64(m.Size)
		return true
	})

	return s
}

// Dump writes every valid descriptor of the hierarchy to w, indenting each
// level below its parent.
func Dump(pt *PageTables, w io.Writer) {
	kfmt.Fprintf(w, "global table 0x%012x\n", pt.Global.Address())

	middleW := &kfmt.PrefixWriter{Sink: w, Prefix: []byte("  ")}
	bottomW := &kfmt.PrefixWriter{Sink: middleW, Prefix: []byte("  ")}

	pt.Global.Visit(func(gi Index, gd Descriptor[Global]) bool {
		dumpEntry(w, gi, gd)
		if !gd.IsTable() {
			return true
		}

		tableAt[Middle](gd.Address()).Visit(func(mi Index, md Descriptor[Middle]) bool {
			dumpEntry(middleW, mi, md)
			if md.IsTable() {
				tableAt[Bottom](md.Address()).Visit(func(bi Index, bd Descriptor[Bottom]) bool {
					dumpEntry(bottomW, bi, bd)
					return true
				})
			}
			return true
		})
		return true
	})
}

func dumpEntry[L Level](w io.Writer, i Index, d Descriptor[L]) {
	var l L
	kfmt.Fprintf(w, "L%d[%03d] ", l.Number(), uint16(i))
	d.Fprint(w)
	kfmt.Fprintf(w, "\n")
}

package mmu

import (
	"pikern/kernel"
	"pikern/kernel/sync"
)

// ErrArenaExhausted is returned when the frame allocator cannot provide a
// frame for a new table.
var ErrArenaExhausted = &kernel.Error{Module: "mmu", Message: "out of memory for page tables"}

const (
	reservedMiddleTables = 4
	reservedBottomTables = 16
)

// PageTables is the table hierarchy owned by an Arena. It must only be used
// inside the closure passed to With or WithPageTables.
type PageTables struct {
	Global *Table[Global]
	Middle []*Table[Middle]
	Bottom []*Table[Bottom]

	// spare tables were zeroed by Reset and are handed out again before
	// new frames are allocated.
	spareMiddle []*Table[Middle]
	spareBottom []*Table[Bottom]
}

// NewMiddle returns a zeroed Middle table owned by pt.
func (pt *PageTables) NewMiddle() (*Table[Middle], *kernel.Error) {
	t, err := takeTable(&pt.spareMiddle)
	if err != nil {
		return nil, err
	}
	pt.Middle = append(pt.Middle, t)
	return t, nil
}

// NewBottom returns a zeroed Bottom table owned by pt.
func (pt *PageTables) NewBottom() (*Table[Bottom], *kernel.Error) {
	t, err := takeTable(&pt.spareBottom)
	if err != nil {
		return nil, err
	}
	pt.Bottom = append(pt.Bottom, t)
	return t, nil
}

// Reset zeroes every table. Middle and Bottom tables become unreachable
// from Global and are kept for reuse by later allocations.
func (pt *PageTables) Reset() {
	pt.Global.Zero()

	for _, t := range pt.Middle {
		t.Zero()
	}
	pt.spareMiddle = append(pt.spareMiddle, pt.Middle...)
	pt.Middle = pt.Middle[:0]

	for _, t := range pt.Bottom {
		t.Zero()
	}
	pt.spareBottom = append(pt.spareBottom, pt.Bottom...)
	pt.Bottom = pt.Bottom[:0]
}

// takeTable pops a spare table or allocates a zeroed one from a new frame.
func takeTable[L Level](spare *[]*Table[L]) (*Table[L], *kernel.Error) {
	if n := len(*spare); n != 0 {
		t := (*spare)[n-1]
		*spare = (*spare)[:n-1]
		return t, nil
	}
	return allocTable[L]()
}

// allocTable returns a zeroed table stored in a new frame.
func allocTable[L Level]() (*Table[L], *kernel.Error) {
	frame, err := allocFrameFn()
	if err != nil || !frame.Valid() {
		return nil, ErrArenaExhausted
	}

	t := tableAt[L](frame.Address())
	t.Zero()
	return t, nil
}

// Arena owns a table hierarchy and serializes access to it. The zero value
// is ready to use; the Global table is allocated on first access.
type Arena struct {
	lock   sync.Spinlock
	tables PageTables
}

var kernelArena Arena

// KernelArena returns the arena holding the kernel's translation tables.
func KernelArena() *Arena {
	return &kernelArena
}

// With runs fn with exclusive access to the tables owned by a and returns
// its result. The arena lock is released when fn returns or panics. If the
// Global table cannot be allocated the kernel panics.
func With[T any](a *Arena, fn func(*PageTables) T) T {
	a.lock.Acquire()
	defer a.lock.Release()

	if a.tables.Global == nil {
		if err := a.init(); err != nil {
			panicFn(err)
			var zero T
			return zero
		}
	}

	return fn(&a.tables)
}

// WithPageTables runs fn with exclusive access to the kernel tables.
func WithPageTables[T any](fn func(*PageTables) T) T {
	return With(&kernelArena, fn)
}

func (a *Arena) init() *kernel.Error {
	global, err := allocTable[Global]()
	if err != nil {
		return err
	}

	a.tables = PageTables{
		Global: global,
		Middle: make([]*Table[Middle], 0, reservedMiddleTables),
		Bottom: make([]*Table[Bottom], 0, reservedBottomTables),
	}
	return nil
}

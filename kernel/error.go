package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values so that reporting one never needs the Go
// allocator; this matters for code that runs before the heap is usable (the
// page-table setup in particular). Two errors are equal iff they are the same
// pointer.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

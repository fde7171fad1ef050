package kfmt

import "io"

// ringBufferSize must be a power of 2.
const ringBufferSize = 4096

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Once
// full, each write discards the oldest byte.
type ringBuffer struct {
	buffer [ringBufferSize]byte
	start  int
	length int
}

// Write appends p to the buffer. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.start+rb.length)&(ringBufferSize-1)] = b
		if rb.length == ringBufferSize {
			rb.start = (rb.start + 1) & (ringBufferSize - 1)
			continue
		}
		rb.length++
	}

	return len(p), nil
}

// Read drains up to len(p) bytes into p, returning io.EOF once the buffer is
// empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.length == 0 {
		return 0, io.EOF
	}

	// Copy the contiguous run starting at start; a wrapped tail is left for
	// the next call.
	n := ringBufferSize - rb.start
	if n > rb.length {
		n = rb.length
	}
	n = copy(p, rb.buffer[rb.start:rb.start+n])

	rb.start = (rb.start + n) & (ringBufferSize - 1)
	rb.length -= n
	return n, nil
}

// Package kfmt implements the kernel's formatted output. Everything in this
// package runs before the Go allocator is available so none of it may
// allocate memory.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize fits a 64-bit value printed in base 2 plus its sign.
const numBufSize = 72

const digits = "0123456789abcdef"

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numBuf     [numBufSize]byte
	singleByte = []byte{0}

	// earlyBuffer captures output produced before an output sink is set.
	earlyBuffer ringBuffer

	// outputSink receives the output of Printf. While nil, output goes to
	// earlyBuffer.
	outputSink io.Writer
)

// Output is an io.Writer that forwards to the destination used by Printf.
var Output io.Writer = printfWriter{}

type printfWriter struct{}

func (printfWriter) Write(p []byte) (int, error) {
	doWrite(outputSink, p)
	return len(p), nil
}

// SetOutputSink directs the output of Printf to w and drains any output
// buffered so far into it. Passing nil reverts to buffering.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuffer)
	}
}

// Printf is an allocation-free subset of fmt.Printf. It supports:
//
//	%b %o %d %x  integers in base 2, 8, 10 and 16
//	%s           strings and byte slices
//	%t           booleans
//	%%           a literal percent sign
//
// An optional decimal width may precede the verb. Values shorter than the
// width are left-padded with spaces, or with zeroes if the width starts with
// a 0 (integers only).
//
// Arguments are never checked for fmt.Stringer; pointers (%p) would require
// reflect, whose use makes the compiler emit allocating conversions for the
// argument slice.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		zeroPad  bool
		ch       byte
		n        = len(format)
	)

	for i := 0; i < n; i++ {
		if ch = format[i]; ch != '%' {
			writeByte(w, ch)
			continue
		}

		width, zeroPad = 0, false
		if i+1 < n && format[i+1] == '0' {
			zeroPad = true
			i++
		}
		for i+1 < n && format[i+1] >= '0' && format[i+1] <= '9' {
			i++
			width = width*10 + int(format[i]-'0')
		}

		if i+1 >= n {
			doWrite(w, errNoVerb)
			break
		}

		i++
		switch ch = format[i]; ch {
		case '%':
			writeByte(w, '%')
			continue
		case 'b', 'o', 'd', 'x', 's', 't':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch ch {
		case 'b':
			fmtInt(w, args[argIndex], 2, width, zeroPad)
		case 'o':
			fmtInt(w, args[argIndex], 8, width, zeroPad)
		case 'd':
			fmtInt(w, args[argIndex], 10, width, zeroPad)
		case 'x':
			fmtInt(w, args[argIndex], 16, width, zeroPad)
		case 's':
			fmtString(w, args[argIndex], width)
		case 't':
			fmtBool(w, args[argIndex])
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		writeRepeat(w, ' ', width-len(s))
		// slicing the string into a []byte allocates.
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		writeRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtInt prints v, which must be one of the built-in integer types, in the
// requested base.
func fmtInt(w io.Writer, v interface{}, base uint64, width int, zeroPad bool) {
	var (
		mag uint64
		neg bool
	)

	switch t := v.(type) {
	case uint8:
		mag = uint64(t)
	case uint16:
		mag = uint64(t)
	case uint32:
		mag = uint64(t)
	case uint64:
		mag = t
	case uint:
		mag = uint64(t)
	case uintptr:
		mag = uint64(t)
	case int8:
		mag, neg = signed(int64(t))
	case int16:
		mag, neg = signed(int64(t))
	case int32:
		mag, neg = signed(int64(t))
	case int64:
		mag, neg = signed(t)
	case int:
		mag, neg = signed(int64(t))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if width > numBufSize {
		width = numBufSize
	}

	pos := numBufSize
	for {
		pos--
		numBuf[pos] = digits[mag%base]
		if mag /= base; mag == 0 {
			break
		}
	}

	if zeroPad {
		signLen := 0
		if neg {
			signLen = 1
		}
		for numBufSize-pos+signLen < width && pos > signLen {
			pos--
			numBuf[pos] = '0'
		}
	}

	if neg {
		pos--
		numBuf[pos] = '-'
	}

	for numBufSize-pos < width && pos > 0 {
		pos--
		numBuf[pos] = ' '
	}

	doWrite(w, numBuf[pos:])
}

func signed(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func writeRepeat(w io.Writer, b byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, b)
	}
}

// doWrite hides p from escape analysis. The call through the io.Writer
// interface otherwise marks p as escaping, turning every Printf call site
// into a heap allocation.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w == nil {
		earlyBuffer.Write(p)
		return
	}
	w.Write(p)
}

// noEscape is runtime.noescape.
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

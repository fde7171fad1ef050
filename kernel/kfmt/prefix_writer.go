package kfmt

import "io"

// PrefixWriter wraps an io.Writer and injects Prefix at the start of every
// line written through it.
type PrefixWriter struct {
	// Sink receives all output.
	Sink io.Writer

	// Prefix is written before the first byte of each line.
	Prefix []byte

	midLine bool
}

// Write forwards p to Sink, injecting Prefix at each line start. The returned
// count excludes injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		end := len(p)
		for i, b := range p {
			if b == '\n' {
				end = i + 1
				break
			}
		}

		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
		}

		n, err := w.Sink.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}

		w.midLine = p[end-1] != '\n'
		p = p[end:]
	}

	return written, nil
}

package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		input string
		exp   string
	}{
		{
			"",
			"",
		},
		{
			"\n",
			"mmu: \n",
		},
		{
			"no line break anywhere",
			"mmu: no line break anywhere",
		},
		{
			"line feed at the end\n",
			"mmu: line feed at the end\n",
		},
		{
			"\nL1[000] table\nL2[001] block\nL2[002] block",
			"mmu: \nmmu: L1[000] table\nmmu: L2[001] block\nmmu: L2[002] block",
		},
	}

	var buf bytes.Buffer

	for specIndex, spec := range specs {
		buf.Reset()
		w := PrefixWriter{Sink: &buf, Prefix: []byte("mmu: ")}

		wrote, err := w.Write([]byte(spec.input))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		}

		if expLen := len(spec.input); expLen != wrote {
			t.Errorf("[spec %d] expected writer to write %d bytes; wrote %d", specIndex, expLen, wrote)
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterAcrossWrites(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf, Prefix: []byte("> ")}
	)

	Fprintf(&w, "map 0x%x", uint32(0x80000))
	Fprintf(&w, " -> 0x%x\n", uint32(0x80000))
	Fprintf(&w, "done\n")

	exp := "> map 0x80000 -> 0x80000\n> done\n"
	if got := buf.String(); got != exp {
		t.Fatalf("expected output:\n%q\ngot:\n%q", exp, got)
	}
}

func TestPrefixWriterErrors(t *testing.T) {
	specs := []string{
		"no line break anywhere",
		"\nthe big brown\nfog jumped\nover the lazy\ndog",
	}

	expErr := errors.New("write failed")

	for specIndex, spec := range specs {
		w := PrefixWriter{
			Sink:   writerThatAlwaysErrors{expErr},
			Prefix: []byte("prefix: "),
		}
		_, err := w.Write([]byte(spec))
		if err != expErr {
			t.Errorf("[spec %d] expected error: %v; got %v", specIndex, expErr, err)
		}
	}
}

type writerThatAlwaysErrors struct {
	err error
}

func (w writerThatAlwaysErrors) Write(_ []byte) (int, error) {
	return 0, w.err
}

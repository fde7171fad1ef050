//go:build !rpi3

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"pikern/kernel/mm/mmu"
)

// stdout is replaced by tests.
var stdout io.Writer = os.Stdout

// Map implements subcommands.Command for the "map" command.
type Map struct {
	flat bool
}

// Name implements subcommands.Command.Name.
func (*Map) Name() string {
	return "map"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Map) Synopsis() string {
	return "Boot the simulated kernel and print its translation tables."
}

// Usage implements subcommands.Command.Usage.
func (*Map) Usage() string {
	return `map [options] - Run the boot memory sequence and dump the resulting page tables.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (m *Map) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.flat, "flat", false, "print one line per mapped range instead of the table tree")
}

// Execute implements subcommands.Command.Execute.
func (m *Map) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := args[0].(*environment)

	s, err := newSimulator(env.cfg, env.log)
	if err != nil {
		env.log.WithError(err).Error("cannot set up host memory")
		return subcommands.ExitFailure
	}
	defer s.close()

	if kerr := s.boot(); kerr != nil {
		env.log.WithError(kerr).Error("boot failed")
		return subcommands.ExitFailure
	}

	mmu.WithPageTables(func(pt *mmu.PageTables) struct{} {
		if m.flat {
			printMappings(stdout, pt)
		} else {
			mmu.Dump(pt, stdout)
		}
		return struct{}{}
	})

	return subcommands.ExitSuccess
}

// printMappings writes a line per contiguous leaf, merging neighbours that
// share their flags.
func printMappings(w io.Writer, pt *mmu.PageTables) {
	var (
		cur   mmu.Mapping
		valid bool
	)

	flush := func() {
		if valid {
			fmt.Fprintf(w, "0x%012x-0x%012x -> 0x%012x %s\n",
				cur.VirtAddr, cur.VirtAddr+cur.Size, cur.PhysAddr, describeFlags(cur.Flags))
		}
	}

	mmu.Walk(pt, func(m mmu.Mapping) bool {
		if valid && cur.VirtAddr+cur.Size == m.VirtAddr && cur.PhysAddr+cur.Size == m.PhysAddr && leafAttrs(cur.Flags) == leafAttrs(m.Flags) {
			cur.Size += m.Size
			return true
		}
		flush()
		cur, valid = m, true
		return true
	})
	flush()
}

// leafAttrs drops the bit that tells Bottom pages from Middle blocks.
func leafAttrs(f mmu.Flags) mmu.Flags {
	return f &^ mmu.FlagTable
}

func describeFlags(f mmu.Flags) string {
	mem := "normal-nc"
	if f.AttrIndex() == mmu.AttrIndexDevice {
		mem = "device"
	}

	ap := [...]string{"el1-rw", "el1-rw,el0-rw", "el1-ro", "el1-ro,el0-ro"}[f.AccessPermissions()]

	out := mem + " " + ap
	if f.Has(mmu.FlagPrivExecuteNever) {
		out += " pxn"
	}
	if f.Has(mmu.FlagExecuteNever) {
		out += " xn"
	}
	if f.Has(mmu.FlagNonSecure) {
		out += " ns"
	}
	return out
}

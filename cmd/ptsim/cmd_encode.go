//go:build !rpi3

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/google/subcommands"

	"pikern/kernel"
	"pikern/kernel/mm/mmu"
)

// Encode implements subcommands.Command for the "encode" command.
type Encode struct {
	level  int
	table  bool
	device bool
	ro     bool
	noExec bool
	decode bool
}

// Name implements subcommands.Command.Name.
func (*Encode) Name() string {
	return "encode"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Encode) Synopsis() string {
	return "Encode or decode a single translation table descriptor."
}

// Usage implements subcommands.Command.Usage.
func (*Encode) Usage() string {
	return `encode [options] <addr> - Print the descriptor mapping addr at the selected level.
encode -decode [options] <value> - Print the fields of a raw descriptor.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (e *Encode) SetFlags(f *flag.FlagSet) {
	f.IntVar(&e.level, "level", 3, "table level (1: Global, 2: Middle, 3: Bottom)")
	f.BoolVar(&e.table, "table", false, "encode a table descriptor pointing at addr")
	f.BoolVar(&e.device, "device", false, "use device-nGnRnE memory attributes")
	f.BoolVar(&e.ro, "ro", false, "make the mapping read-only")
	f.BoolVar(&e.noExec, "xn", false, "forbid execution at EL1 and EL0")
	f.BoolVar(&e.decode, "decode", false, "treat the argument as a raw descriptor")
}

// Execute implements subcommands.Command.Execute.
func (e *Encode) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := args[0].(*environment)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	v, err := strconv.ParseUint(f.Arg(0), 0, 64)
	if err != nil {
		env.log.WithError(err).Errorf("invalid value %q", f.Arg(0))
		return subcommands.ExitUsageError
	}

	if err := e.run(stdout, v); err != nil {
		env.log.WithError(err).Error("encode failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (e *Encode) run(w io.Writer, v uint64) error {
	if e.decode {
		return decodeAt(w, e.level, v)
	}

	flags := mappingConfig{Device: e.device, ReadOnly: e.ro, NoExec: e.noExec}.flags()
	addr := uintptr(v)

	switch {
	case e.table && e.level == 1:
		return printDescriptor(w, mmu.NewTableDescriptor[mmu.Global](addr, mmu.FlagValid))
	case e.table && e.level == 2:
		return printDescriptor(w, mmu.NewTableDescriptor[mmu.Middle](addr, mmu.FlagValid))
	case !e.table && e.level == 2:
		return printDescriptor(w, mmu.NewBlockDescriptor[mmu.Middle](addr, flags))
	case !e.table && e.level == 3:
		return printDescriptor(w, mmu.NewBlockDescriptor[mmu.Bottom](addr, flags))
	case e.table:
		return fmt.Errorf("level %d cannot hold a table descriptor", e.level)
	default:
		return fmt.Errorf("level %d cannot hold a block descriptor", e.level)
	}
}

func decodeAt(w io.Writer, level int, v uint64) error {
	switch level {
	case 1:
		return printDescriptor(w, mmu.Descriptor[mmu.Global](v))
	case 2:
		return printDescriptor(w, mmu.Descriptor[mmu.Middle](v))
	case 3:
		return printDescriptor(w, mmu.Descriptor[mmu.Bottom](v))
	default:
		return fmt.Errorf("unknown level %d", level)
	}
}

type descriptor interface {
	Decode() (mmu.Kind, *kernel.Error)
	Fprint(io.Writer)
}

func printDescriptor(w io.Writer, d descriptor) error {
	if _, err := d.Decode(); err != nil {
		return err
	}
	d.Fprint(w)
	fmt.Fprintln(w)
	return nil
}

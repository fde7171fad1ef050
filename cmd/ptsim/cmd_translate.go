//go:build !rpi3

package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"pikern/kernel/mm/mmu"
)

// Translate implements subcommands.Command for the "translate" command.
type Translate struct{}

// Name implements subcommands.Command.Name.
func (*Translate) Name() string {
	return "translate"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Translate) Synopsis() string {
	return "Boot the simulated kernel and probe virtual addresses."
}

// Usage implements subcommands.Command.Usage.
func (*Translate) Usage() string {
	return `translate <vaddr>... - Run the boot memory sequence and report the PAR_EL1
value of an AT S1E1R probe for each address.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Translate) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Translate) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := args[0].(*environment)
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	addrs := make([]uintptr, 0, f.NArg())
	for _, arg := range f.Args() {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			env.log.WithError(err).Errorf("invalid address %q", arg)
			return subcommands.ExitUsageError
		}
		addrs = append(addrs, uintptr(v))
	}

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

	status := subcommands.ExitSuccess
	for _, addr := range addrs {
		par := mmu.Probe(addr)
		par.Fprint(stdout, fmt.Sprintf("0x%x", addr), addr)
		if par.Failed() {
			status = subcommands.ExitFailure
		}
	}
	return status
}

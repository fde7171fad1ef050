//go:build !rpi3

// Command ptsim runs the kernel boot memory sequence against an emulated
// EL1 register file and inspects the page tables it builds.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "", "path to a TOML file describing the board layout and extra mappings")
	debug      = flag.Bool("debug", false, "log kernel output and individual mappings")
)

// environment is passed to every command.
type environment struct {
	cfg *config
	log *logrus.Entry
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(new(Map), "")
	subcommands.Register(new(Translate), "")
	subcommands.Register(new(Encode), "")

	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	log := logrus.NewEntry(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("cannot load configuration")
	}

	os.Exit(int(subcommands.Execute(context.Background(), &environment{cfg: cfg, log: log})))
}

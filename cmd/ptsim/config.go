//go:build !rpi3

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"pikern/kernel/boot"
	"pikern/kernel/mm/mmu"
)

// config describes the board the simulator boots and the extra ranges it
// maps once translation is enabled.
type config struct {
	Layout   layoutConfig    `toml:"layout"`
	Mappings []mappingConfig `toml:"mapping"`
}

// layoutConfig mirrors boot.Layout. Missing keys keep their Raspberry Pi 3
// defaults.
type layoutConfig struct {
	ImageStart     uint64 `toml:"image_start"`
	ImageEnd       uint64 `toml:"image_end"`
	VectorBase     uint64 `toml:"vector_base"`
	MemoryEnd      uint64 `toml:"memory_end"`
	PeripheralBase uint64 `toml:"peripheral_base"`
	DeviceEnd      uint64 `toml:"device_end"`
	SelfVerify     bool   `toml:"self_verify"`
}

// mappingConfig is a range passed to mmu.Map after boot.
type mappingConfig struct {
	Phys      uint64 `toml:"phys"`
	VirtStart uint64 `toml:"virt_start"`
	VirtEnd   uint64 `toml:"virt_end"`
	Device    bool   `toml:"device"`
	ReadOnly  bool   `toml:"read_only"`
	NoExec    bool   `toml:"no_exec"`
}

func defaultConfig() *config {
	l := boot.DefaultLayout()
	return &config{
		Layout: layoutConfig{
			ImageStart:     uint64(l.ImageStart),
			ImageEnd:       uint64(l.ImageStart) + 0x100000,
			VectorBase:     uint64(l.ImageStart) + 0x800,
			MemoryEnd:      uint64(l.MemoryEnd),
			PeripheralBase: uint64(l.PeripheralBase),
			DeviceEnd:      uint64(l.DeviceEnd),
			SelfVerify:     l.SelfVerify,
		},
	}
}

// loadConfig reads the simulator configuration from path. An empty path
// yields the default configuration.
func loadConfig(path string) (*config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return c, nil
}

func (c *config) layout() boot.Layout {
	return boot.Layout{
		ImageStart:     uintptr(c.Layout.ImageStart),
		ImageEnd:       uintptr(c.Layout.ImageEnd),
		VectorBase:     uintptr(c.Layout.VectorBase),
		MemoryEnd:      uintptr(c.Layout.MemoryEnd),
		PeripheralBase: uintptr(c.Layout.PeripheralBase),
		DeviceEnd:      uintptr(c.Layout.DeviceEnd),
		SelfVerify:     c.Layout.SelfVerify,
	}
}

func (m mappingConfig) flags() mmu.Flags {
	flags := mmu.NormalFlags | mmu.FlagNonSecure
	if m.Device {
		flags = mmu.DeviceFlags | mmu.FlagNonSecure
	}
	if m.ReadOnly {
		flags = flags&^mmu.FlagEL1ROEL0RO | mmu.FlagEL1ROEL0None
	}
	if m.NoExec {
		flags |= mmu.FlagPrivExecuteNever | mmu.FlagExecuteNever
	}
	return flags
}

//go:build !rpi3

package main

import (
	"io"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"pikern/kernel"
	"pikern/kernel/boot"
	"pikern/kernel/cpu"
	"pikern/kernel/kfmt"
	"pikern/kernel/mm"
	"pikern/kernel/mm/mmu"
	"pikern/kernel/mm/pmm"
)

// simFrames is the size of the host memory backing the simulated page
// tables. The boot layout of a Raspberry Pi 3 needs five tables.
const simFrames = 256

var (
	hostMemOnce sync.Once
	hostMem     *pmm.HostRegion
	hostMemErr  error
)

// hostMemory returns the region backing table allocations. It is mapped
// once and shared by every boot in the process: the kernel arena keeps
// pointers into it and recycles its tables on each boot.
func hostMemory() (*pmm.HostRegion, error) {
	hostMemOnce.Do(func() {
		hostMem, hostMemErr = pmm.NewHostRegion(simFrames * mm.PageSize)
	})
	return hostMem, hostMemErr
}

// simulator boots the kernel memory sequence against the emulated CPU.
type simulator struct {
	log *logrus.Entry
	cfg *config

	kernelLog io.WriteCloser
}

func newSimulator(cfg *config, log *logrus.Entry) (*simulator, error) {
	region, err := hostMemory()
	if err != nil {
		return nil, err
	}

	s := &simulator{
		log:       log,
		cfg:       cfg,
		kernelLog: log.WithField("src", "kernel").WriterLevel(logrus.DebugLevel),
	}

	cpu.Reset()
	cpu.SetTranslationProbe(mmu.WalkPAR)
	cpu.SetHaltHandler(func() { s.log.Error("kernel halted") })
	mm.SetFrameAllocator(region.AllocFrame)
	kfmt.SetOutputSink(s.kernelLog)

	return s, nil
}

// boot runs boot.MemoryInit and then maps the extra ranges of the
// configuration.
func (s *simulator) boot() *kernel.Error {
	l := s.cfg.layout()
	s.log.WithFields(logrus.Fields{
		"image":  rangeField(l.ImageStart, l.ImageEnd),
		"device": rangeField(l.PeripheralBase, l.DeviceEnd),
	}).Info("booting")

	if err := boot.MemoryInit(l); err != nil {
		return err
	}

	for _, m := range s.cfg.Mappings {
		s.log.WithFields(logrus.Fields{
			"phys":  rangeField(uintptr(m.Phys), uintptr(m.Phys+m.VirtEnd-m.VirtStart)),
			"virt":  rangeField(uintptr(m.VirtStart), uintptr(m.VirtEnd)),
			"flags": hexField(uint64(m.flags())),
		}).Debug("mapping range")

		if err := mmu.Map(uintptr(m.Phys), uintptr(m.VirtStart), uintptr(m.VirtEnd), m.flags()); err != nil {
			return err
		}
	}

	stats := mmu.WithPageTables(mmu.CollectStats)
	s.log.WithFields(logrus.Fields{
		"middle": stats.MiddleTables,
		"bottom": stats.BottomTables,
		"blocks": stats.Blocks,
		"pages":  stats.Pages,
		"mapped": stats.MappedBytes,
	}).Info("page tables ready")

	return nil
}

// close detaches the simulator from the kernel output.
func (s *simulator) close() {
	kfmt.SetOutputSink(nil)
	mm.SetFrameAllocator(nil)
	cpu.SetTranslationProbe(nil)
	s.kernelLog.Close()
}

func rangeField(start, end uintptr) string {
	return hexField(uint64(start)) + "-" + hexField(uint64(end))
}

func hexField(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}

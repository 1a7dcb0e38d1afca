package core

import (
	"io"

	"github.com/sarchlab/rv32sim/bus"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// IOBase is the lowest address of the IO-mapped region under the
// default IO bit.
const IOBase = 1 << bus.DefaultIOBit

// Conventional device addresses on a default Machine.
const (
	// ConsoleAddr is the console output register.
	ConsoleAddr = IOBase + bus.ConsoleWindow
	// HaltAddr is the machine-halt register.
	HaltAddr = IOBase + bus.HaltWindow
)

// MachineOption is a functional option for configuring the Machine.
type MachineOption func(*Machine)

// WithTimingConfig sets the bus wait-state configuration.
func WithTimingConfig(config *latency.Config) MachineOption {
	return func(m *Machine) {
		m.timingConfig = config
	}
}

// WithConsoleWriter routes console device output to w.
func WithConsoleWriter(w io.Writer) MachineOption {
	return func(m *Machine) {
		m.consoleWriter = w
	}
}

// WithCache fronts RAM with an L1 cache model of the given
// configuration, backed by the machine's own memory. The cache's
// access latency feeds the bus wait states.
func WithCache(config cache.Config) MachineOption {
	return func(m *Machine) {
		m.cacheConfig = &config
	}
}

// WithRetireHook registers a per-retired-instruction callback on the
// core.
func WithRetireHook(hook func(RetireInfo)) MachineOption {
	return func(m *Machine) {
		m.retireHook = hook
	}
}

// Machine wires a complete system: sparse memory behind the bus
// adapter, the datapath collaborators, the console and halt devices,
// and the execution core. It owns the tick fan-out ordering.
type Machine struct {
	RegFile *emu.RegFile
	Memory  *emu.Memory
	Bus     *bus.Bus
	ALU     *emu.ALU
	Core    *Core

	halt    *bus.Halt
	console *bus.Console

	timingConfig  *latency.Config
	consoleWriter io.Writer
	cacheConfig   *cache.Config
	retireHook    func(RetireInfo)
}

// NewMachine builds a machine with default devices mapped: a console at
// ConsoleAddr and a halt register at HaltAddr.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		timingConfig: latency.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.Memory = emu.NewMemory()
	m.RegFile = &emu.RegFile{}
	m.ALU = emu.NewALU()

	busOpts := []bus.Option{bus.WithConfig(m.timingConfig)}
	if m.cacheConfig != nil {
		l1 := cache.New(*m.cacheConfig, m.Memory)
		busOpts = append(busOpts, bus.WithCache(l1))
	}
	m.Bus = bus.New(m.Memory, busOpts...)

	m.console = bus.NewConsole(m.consoleWriter)
	m.halt = bus.NewHalt()
	m.Bus.Map(ConsoleAddr, 4, m.console)
	m.Bus.Map(HaltAddr, 4, m.halt)

	var coreOpts []Option
	if m.retireHook != nil {
		coreOpts = append(coreOpts, WithCoreRetireHook(m.retireHook))
	}
	m.Core = NewCore(m.RegFile, m.ALU, m.Bus, coreOpts...)

	return m
}

// LoadProgram copies a raw little-endian program image into memory at
// the given address and points the core at it.
func (m *Machine) LoadProgram(addr uint32, image []byte) {
	m.Memory.LoadBytes(addr, image)
	m.Core.SetPC(addr)
}

// Tick advances the whole machine by one tick. Collaborators are
// clocked before the core so the core observes this tick's busy
// signals and the read ports latched from last tick's ids.
func (m *Machine) Tick() {
	m.Bus.Tick()
	m.ALU.Tick()
	m.RegFile.Tick()
	m.Core.Tick()
}

// Halted reports whether a store to the halt register has been seen.
func (m *Machine) Halted() bool {
	return m.halt.Halted()
}

// ExitCode returns the value stored to the halt register.
func (m *Machine) ExitCode() uint32 {
	return m.halt.ExitCode()
}

// Run ticks the machine until it halts or maxTicks elapse (0 means no
// limit). It returns the exit code and whether the machine halted.
func (m *Machine) Run(maxTicks uint64) (uint32, bool) {
	for ticks := uint64(0); !m.halt.Halted(); ticks++ {
		if maxTicks > 0 && ticks >= maxTicks {
			return 0, false
		}
		m.Tick()
	}
	return m.halt.ExitCode(), true
}

// RunTicks advances the machine by exactly n ticks.
func (m *Machine) RunTicks(n uint64) {
	for i := uint64(0); i < n; i++ {
		m.Tick()
	}
}

// Stats returns the core performance counters.
func (m *Machine) Stats() Statistics {
	return m.Core.Stats()
}

// Reset returns every component except memory contents to its initial
// configuration.
func (m *Machine) Reset() {
	m.Core.Reset()
	m.ALU.Reset()
	m.RegFile.Reset()
	m.Bus.Reset()
	m.halt.Reset()
}

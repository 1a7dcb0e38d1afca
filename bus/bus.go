// Package bus models the asynchronous memory bus the core talks to.
//
// The bus samples an address together with a read strobe or write
// strobe/mask, and delivers data (or write completion) no earlier than
// the following tick. A busy signal, polled by the core every tick,
// stretches a transaction by an arbitrary number of wait states.
// Addresses whose designated IO bit is set are dispatched to mapped
// devices instead of RAM.
package bus

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// DefaultIOBit is the address bit that selects the IO-mapped region.
const DefaultIOBit = 22

// DefaultAddrBits is the number of low address bits actually driven on
// the bus. Upper bits of the 32-bit address register are architecturally
// zero.
const DefaultAddrBits = 24

// Port is the bus as seen by the core. The core drives the address and
// strobe signals through Read/Write and polls the busy signals every
// tick; data is sampled no earlier than the tick after the strobe.
type Port interface {
	// Read drives the address and the read strobe for this tick.
	Read(addr uint32)
	// Write drives the address, write data, and per-byte-lane write
	// mask for this tick.
	Write(addr uint32, data uint32, mask uint8)
	// ReadData returns the data word for the last read. It is held
	// stable and is valid once ReadBusy has cleared.
	ReadData() uint32
	// ReadBusy reports whether the last read is still in flight.
	ReadBusy() bool
	// WriteBusy reports whether the last write is still in flight.
	WriteBusy() bool
}

// Device is a peripheral mapped into the IO region. Offsets are
// relative to the device's mapped address.
type Device interface {
	// Read32 returns the device word at the given offset.
	Read32(offset uint32) uint32
	// Write32 writes the masked byte lanes of a word at the offset.
	Write32(offset uint32, value uint32, mask uint8)
}

// mapping binds a device to a word-aligned window in the IO region.
type mapping struct {
	base uint32
	size uint32
	dev  Device
}

// Option is a functional option for configuring the Bus.
type Option func(*Bus)

// WithConfig sets the wait-state configuration.
func WithConfig(config *latency.Config) Option {
	return func(b *Bus) {
		b.config = config
	}
}

// WithIOBit sets the address bit that selects the IO region.
func WithIOBit(bit uint) Option {
	return func(b *Bus) {
		b.ioBit = bit
	}
}

// WithAddrBits sets how many low address bits the bus decodes.
func WithAddrBits(bits uint) Option {
	return func(b *Bus) {
		b.addrBits = bits
	}
}

// WithCache routes RAM reads and writes through an L1 cache model whose
// hit/miss latency is converted into read wait states.
func WithCache(cache CacheModel) Option {
	return func(b *Bus) {
		b.cache = cache
	}
}

// CacheModel is the cache interface the bus can front RAM with. It
// reports the access latency in ticks; a latency of one tick maps to
// zero bus wait states.
type CacheModel interface {
	ReadWord(addr uint32) (value uint32, ticks uint64)
	WriteWord(addr uint32, value uint32, mask uint8) (ticks uint64)
}

// Bus is the memory bus adapter: sparse RAM, IO-mapped devices, and
// configurable wait states. It implements Port.
type Bus struct {
	mem      *emu.Memory
	config   *latency.Config
	cache    CacheModel
	ioBit    uint
	addrBits uint

	devices []mapping

	now uint64 // local tick counter

	// Read transaction state.
	readData    uint32
	readReadyAt uint64

	// Write transaction state.
	writeReadyAt uint64
}

// New creates a bus over the given memory with default wait states,
// IO bit, and address width.
func New(mem *emu.Memory, opts ...Option) *Bus {
	b := &Bus{
		mem:      mem,
		config:   latency.DefaultConfig(),
		ioBit:    DefaultIOBit,
		addrBits: DefaultAddrBits,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Map binds a device to a word-aligned window of the given size in
// bytes, based at the given address within the IO region.
func (b *Bus) Map(base uint32, size uint32, dev Device) {
	b.devices = append(b.devices, mapping{base: base, size: size, dev: dev})
}

// Tick advances the bus by one tick.
func (b *Bus) Tick() {
	b.now++
}

// IsIO reports whether an address falls in the IO-mapped region.
func (b *Bus) IsIO(addr uint32) bool {
	return b.mask(addr)&(1<<b.ioBit) != 0
}

// mask keeps only the decoded low address bits.
func (b *Bus) mask(addr uint32) uint32 {
	return addr & (1<<b.addrBits - 1)
}

// lookup finds the device window covering an IO address, if any.
func (b *Bus) lookup(addr uint32) (Device, uint32, bool) {
	for _, m := range b.devices {
		if addr >= m.base && addr < m.base+m.size {
			return m.dev, addr - m.base, true
		}
	}
	return nil, 0, false
}

// Read drives the address and read strobe. The data word is latched
// internally and becomes valid once ReadBusy clears, no earlier than
// the next tick.
func (b *Bus) Read(addr uint32) {
	addr = b.mask(addr)
	wordAddr := addr &^ 3

	wait := b.config.ReadWait(b.IsIO(addr))

	switch {
	case b.IsIO(addr):
		if dev, offset, ok := b.lookup(wordAddr); ok {
			b.readData = dev.Read32(offset)
		} else {
			b.readData = b.mem.Read32(wordAddr)
		}
	case b.cache != nil:
		value, ticks := b.cache.ReadWord(wordAddr)
		b.readData = value
		if ticks > 0 {
			wait = ticks - 1
		}
	default:
		b.readData = b.mem.Read32(wordAddr)
	}

	b.readReadyAt = b.now + 1 + wait
}

// ReadData returns the latched read data word.
func (b *Bus) ReadData() uint32 {
	return b.readData
}

// ReadBusy reports whether the read in flight has not yet delivered.
func (b *Bus) ReadBusy() bool {
	return b.now < b.readReadyAt
}

// Write drives the address, data, and write mask. The write takes
// effect on the target immediately in simulation time; WriteBusy models
// the completion delay the core must honor for IO stores.
func (b *Bus) Write(addr uint32, data uint32, mask uint8) {
	addr = b.mask(addr)
	wordAddr := addr &^ 3

	wait := b.config.WriteWait(b.IsIO(addr))

	switch {
	case b.IsIO(addr):
		if dev, offset, ok := b.lookup(wordAddr); ok {
			dev.Write32(offset, data, mask)
		} else {
			b.mem.Write32Masked(wordAddr, data, mask)
		}
	case b.cache != nil:
		ticks := b.cache.WriteWord(wordAddr, data, mask)
		if ticks > 0 {
			wait = ticks - 1
		}
	default:
		b.mem.Write32Masked(wordAddr, data, mask)
	}

	b.writeReadyAt = b.now + 1 + wait
}

// WriteBusy reports whether the write in flight has not yet completed.
func (b *Bus) WriteBusy() bool {
	return b.now < b.writeReadyAt
}

// Reset clears all in-flight transaction state. Memory contents are
// left untouched, matching a bus reset line that does not clear RAM.
func (b *Bus) Reset() {
	b.now = 0
	b.readData = 0
	b.readReadyAt = 0
	b.writeReadyAt = 0
}

// Package cache provides an optional L1 model for the memory bus,
// built on Akita cache directory components. Access latency is
// reported in ticks so the bus adapter can stretch its busy signal to
// match: a one-tick hit adds no wait states, a miss holds the core in
// its wait state for the remainder.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv32sim/emu"
)

// Config holds cache geometry and timing parameters.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes (cache line size).
	BlockSize int
	// HitTicks is the access latency on a hit.
	HitTicks uint64
	// MissTicks is the access latency on a miss, including the fill
	// from backing memory.
	MissTicks uint64
}

// DefaultConfig returns a small direct-feeling L1 suited to the
// multi-cycle core: 4KB, 2-way, 16-byte lines, single-tick hits.
func DefaultConfig() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 2,
		BlockSize:     16,
		HitTicks:      1,
		MissTicks:     8,
	}
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a write-allocate, write-back L1 model over sparse memory.
// Tag and replacement state live in an Akita cache directory; line data
// is held locally.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl

	// Line data indexed by setID*associativity + wayID.
	lines [][]byte

	backing *emu.Memory
	stats   Statistics
}

// New creates a cache over the given backing memory.
func New(config Config, backing *emu.Memory) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalLines := numSets * config.Associativity

	lines := make([][]byte, totalLines)
	for i := range lines {
		lines[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		lines:   lines,
		backing: backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache performance counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// lineIndex computes the index into the line store for a block.
func (c *Cache) lineIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// blockAddr aligns an address down to its cache line.
func (c *Cache) blockAddr(addr uint32) uint64 {
	return uint64(addr) / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}

// ReadWord returns the aligned 32-bit word at addr and the access
// latency in ticks. It implements the bus CacheModel contract.
func (c *Cache) ReadWord(addr uint32) (uint32, uint64) {
	c.stats.Reads++

	line, ticks := c.access(addr, false)
	offset := uint32(uint64(addr) - c.blockAddr(addr))
	word := uint32(line[offset]) |
		uint32(line[offset+1])<<8 |
		uint32(line[offset+2])<<16 |
		uint32(line[offset+3])<<24

	return word, ticks
}

// WriteWord writes the masked byte lanes of the aligned word at addr
// and returns the access latency in ticks. Write-allocate: a miss
// fills the line first.
func (c *Cache) WriteWord(addr uint32, value uint32, mask uint8) uint64 {
	c.stats.Writes++

	line, ticks := c.access(addr, true)
	offset := uint32(uint64(addr) - c.blockAddr(addr))
	for lane := uint32(0); lane < 4; lane++ {
		if mask&(1<<lane) != 0 {
			line[offset+lane] = byte(value >> (lane * 8))
		}
	}

	return ticks
}

// access finds or fills the line covering addr and returns its data
// together with the access latency.
func (c *Cache) access(addr uint32, dirty bool) ([]byte, uint64) {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if dirty {
			block.IsDirty = true
		}
		return c.lines[c.lineIndex(block)], c.config.HitTicks
	}

	c.stats.Misses++
	return c.fill(blockAddr, dirty), c.config.MissTicks
}

// fill evicts a victim line if needed and fetches the requested line
// from backing memory.
func (c *Cache) fill(blockAddr uint64, dirty bool) []byte {
	victim := c.directory.FindVictim(blockAddr)
	line := c.lines[c.lineIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
			c.writeBackLine(victim.Tag, line)
		}
	}

	for i := range line {
		line[i] = c.backing.Read8(uint32(blockAddr) + uint32(i))
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = dirty
	c.directory.Visit(victim)

	return line
}

// writeBackLine copies a dirty line back to backing memory. The tag
// holds the line-aligned address.
func (c *Cache) writeBackLine(tag uint64, line []byte) {
	for i, b := range line {
		c.backing.Write8(uint32(tag)+uint32(i), b)
	}
}

// Flush writes back all dirty lines and invalidates everything.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
				c.writeBackLine(block.Tag, c.lines[c.lineIndex(block)])
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all lines without write-back and clears the
// counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

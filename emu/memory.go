package emu

// pageSize is the granularity of sparse memory allocation.
const pageSize = 4096

// Memory is a sparse byte-addressable memory. Pages are allocated on
// first touch, so a full 32-bit address space can be modeled without
// preallocating it. Unwritten locations read as zero.
//
// Memory is little-endian, matching RV32I.
type Memory struct {
	pages map[uint32][]byte
}

// NewMemory creates a new empty sparse memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32][]byte)}
}

// page returns the page containing addr, allocating it if needed.
func (m *Memory) page(addr uint32, allocate bool) []byte {
	base := addr &^ (pageSize - 1)
	p, ok := m.pages[base]
	if !ok && allocate {
		p = make([]byte, pageSize)
		m.pages[base] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.page(addr, true)[addr%pageSize] = value
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr)) | uint32(m.Read16(addr+2))<<16
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write16(addr, uint16(value))
	m.Write16(addr+2, uint16(value>>16))
}

// Write32Masked writes the byte lanes of a word selected by mask, one
// mask bit per byte lane. Lanes with a clear mask bit are untouched.
func (m *Memory) Write32Masked(addr uint32, value uint32, mask uint8) {
	base := addr &^ 3
	for lane := uint32(0); lane < 4; lane++ {
		if mask&(1<<lane) != 0 {
			m.Write8(base+lane, uint8(value>>(lane*8)))
		}
	}
}

// LoadBytes copies a byte slice into memory starting at addr.
func (m *Memory) LoadBytes(addr uint32, data []byte) {
	for i, b := range data {
		m.Write8(addr+uint32(i), b)
	}
}

// Reset drops all allocated pages.
func (m *Memory) Reset() {
	m.pages = make(map[uint32][]byte)
}

// Package emu provides the datapath collaborators of the RV32I core:
// register file, ALU, load/store alignment, branch predicate, and the
// sparse memory backing store.
package emu

// RegFile represents the RV32I integer register file.
//
// It models a synchronous two-port read array: register ids are
// presented with Present, and the corresponding values appear on the
// output ports only after the next Tick. The write port takes effect
// immediately within the tick it is driven, matching a clocked write
// that is visible to reads latched on a later tick.
type RegFile struct {
	// X holds the general-purpose registers x0-x31. x0 is hardwired
	// to zero: writes to it are dropped.
	X [32]uint32

	// Presented read ids, sampled on the next Tick.
	rs1 uint8
	rs2 uint8

	// Latched read port outputs.
	out1 uint32
	out2 uint32
}

// Present drives the two read port ids. The values become visible on
// Value1/Value2 after the next Tick.
func (r *RegFile) Present(rs1, rs2 uint8) {
	r.rs1 = rs1
	r.rs2 = rs2
}

// Tick latches the values of the presented registers onto the read
// port outputs.
func (r *RegFile) Tick() {
	r.out1 = r.Read(r.rs1)
	r.out2 = r.Read(r.rs2)
}

// Value1 returns the first read port output as of the last Tick.
func (r *RegFile) Value1() uint32 {
	return r.out1
}

// Value2 returns the second read port output as of the last Tick.
func (r *RegFile) Value2() uint32 {
	return r.out2
}

// Read returns the current value of a register. x0 reads as zero.
func (r *RegFile) Read(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// Write commits a value to a register. Writes to x0 are ignored.
func (r *RegFile) Write(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}

// Reset clears all registers and the latched read ports.
func (r *RegFile) Reset() {
	*r = RegFile{}
}

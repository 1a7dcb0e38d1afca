package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU implements the RV32I arithmetic/logic unit.
//
// Most operations are combinational: the result is valid in the same
// tick the start strobe latches the operands. The shift class runs on a
// serial shifter that moves one bit position per tick, so its busy
// signal is asserted starting the tick after the start strobe and
// clears exactly when the result becomes valid.
//
// Independent of the selected operation, the ALU exposes a side address
// adder that always produces operand1 + operand2. The core uses it for
// effective addresses and branch/jump targets.
type ALU struct {
	now uint64 // local tick counter

	// Operands and function latched by the start strobe.
	op1       uint32
	op2       uint32
	funct3    uint8
	qualifier bool

	busyUntil uint64
}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Tick advances the ALU by one tick.
func (a *ALU) Tick() {
	a.now++
}

// Start latches the operands and function selector (the start strobe).
// For shift operations the unit goes busy for one tick per shifted bit
// position, beginning the tick after the strobe.
func (a *ALU) Start(op1, op2 uint32, funct3 uint8, qualifier bool) {
	a.op1 = op1
	a.op2 = op2
	a.funct3 = funct3
	a.qualifier = qualifier
	a.busyUntil = 0

	if funct3 == insts.FnSLL || funct3 == insts.FnSRLSRA {
		a.busyUntil = a.now + 1 + uint64(op2&31)
	}
}

// Busy reports whether the unit is still working on the latched
// operation. The result is valid only once Busy returns false.
func (a *ALU) Busy() bool {
	return a.now < a.busyUntil
}

// Result returns the value of the latched operation. For shift
// operations the value is only meaningful once Busy has cleared.
func (a *ALU) Result() uint32 {
	switch a.funct3 {
	case insts.FnAddSub:
		if a.qualifier {
			return a.op1 - a.op2
		}
		return a.op1 + a.op2
	case insts.FnSLL:
		return a.op1 << (a.op2 & 31)
	case insts.FnSLT:
		if int32(a.op1) < int32(a.op2) {
			return 1
		}
		return 0
	case insts.FnSLTU:
		if a.op1 < a.op2 {
			return 1
		}
		return 0
	case insts.FnXOR:
		return a.op1 ^ a.op2
	case insts.FnSRLSRA:
		if a.qualifier {
			return uint32(int32(a.op1) >> (a.op2 & 31))
		}
		return a.op1 >> (a.op2 & 31)
	case insts.FnOR:
		return a.op1 | a.op2
	case insts.FnAND:
		return a.op1 & a.op2
	default:
		return 0
	}
}

// AddResult returns the side address adder output: operand1 + operand2,
// regardless of the selected operation.
func (a *ALU) AddResult() uint32 {
	return a.op1 + a.op2
}

// Reset clears all latched state and the tick counter.
func (a *ALU) Reset() {
	*a = ALU{}
}

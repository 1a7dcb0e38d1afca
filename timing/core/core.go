// Package core provides the multi-cycle RV32I execution state machine.
//
// The core owns the program counter, the latched instruction word, the
// pending bus address register, and the staged store data register, and
// sequences the datapath collaborators (decoder, register file, ALU,
// alignment units, branch predicate) and the memory bus across ticks to
// realize fetch, decode, operand read, execute, memory access, and
// write-back. Exactly one instruction is in flight at a time;
// multi-cycle latency only occurs within one instruction (fetch wait,
// ALU wait, data wait, IO-store wait).
package core

import (
	"github.com/sarchlab/rv32sim/bus"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// State identifies the current phase of the instruction cycle.
type State uint8

// Execution states.
const (
	// StateInitial is the post-reset state.
	StateInitial State = iota
	// StateFetchInstr drives the fetch address and read strobe.
	StateFetchInstr
	// StateWaitInstr polls read-busy and latches the instruction word.
	StateWaitInstr
	// StateFetchRegs lets the register file read ports settle.
	StateFetchRegs
	// StateExecute dispatches on the decoded instruction class.
	StateExecute
	// StateLoad issues the read strobe for the effective address.
	StateLoad
	// StateWaitALUOrData is the shared wait for multi-cycle ALU results
	// and load data; write-back fires when both busy signals clear.
	StateWaitALUOrData
	// StateStore issues the write strobe and mask.
	StateStore
	// StateWaitIOStore waits out the extra settle time of IO stores.
	StateWaitIOStore
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateFetchInstr:
		return "FetchInstr"
	case StateWaitInstr:
		return "WaitInstr"
	case StateFetchRegs:
		return "FetchRegs"
	case StateExecute:
		return "Execute"
	case StateLoad:
		return "Load"
	case StateWaitALUOrData:
		return "WaitALUOrData"
	case StateStore:
		return "Store"
	case StateWaitIOStore:
		return "WaitIOStore"
	default:
		return "Unknown"
	}
}

// ALU is the arithmetic unit contract the core drives. Operands and the
// function selector are latched by the start strobe; Busy is asserted
// from the tick after the strobe for operations needing more than one
// tick and clears exactly when Result becomes valid. AddResult is the
// side address adder, always operand1 + operand2.
type ALU interface {
	Start(op1, op2 uint32, funct3 uint8, qualifier bool)
	Busy() bool
	Result() uint32
	AddResult() uint32
}

// Statistics holds core performance counters.
type Statistics struct {
	// Ticks is the total number of ticks the core has been clocked.
	Ticks uint64
	// Instructions is the number of instructions completed.
	Instructions uint64
	// FetchWaitTicks counts ticks stalled waiting for instruction data.
	FetchWaitTicks uint64
	// DataWaitTicks counts ticks stalled on load data or ALU results.
	DataWaitTicks uint64
	// IOWaitTicks counts ticks stalled on IO store completion.
	IOWaitTicks uint64
}

// CPI returns the ticks per completed instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Ticks) / float64(s.Instructions)
}

// RetireInfo describes one completed instruction, delivered to the
// retire hook at the tick the instruction leaves the machine.
type RetireInfo struct {
	// Tick is the core tick count at retirement.
	Tick uint64
	// PC is the address the instruction was fetched from.
	PC uint32
	// Instr is the raw instruction word.
	Instr uint32
	// RdWrite reports whether a register write-back fired.
	RdWrite bool
	// Rd is the write-back target register.
	Rd uint8
	// RdValue is the committed value.
	RdValue uint32
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithIOBit sets the address bit that marks stores as IO-mapped,
// requiring the extra settle wait state.
func WithIOBit(bit uint) Option {
	return func(c *Core) {
		c.ioBit = bit
	}
}

// WithCoreRetireHook registers a callback invoked once per completed
// instruction.
func WithCoreRetireHook(hook func(RetireInfo)) Option {
	return func(c *Core) {
		c.retireHook = hook
	}
}

// Core is the execution state machine.
type Core struct {
	// Architectural state registers.
	state    State
	pc       uint32 // address of the next instruction to fetch
	addrReg  uint32 // address driven onto the bus this tick
	instr    uint32 // latched instruction word
	wdataReg uint32 // staged, lane-aligned store data

	// Control vector decoded from instr; recomputed when instr latches.
	ctrl insts.Control

	// instrPC tracks the fetch address of the in-flight instruction.
	// It is simulation bookkeeping for retirement reporting, not an
	// architectural register.
	instrPC uint32

	// Collaborators.
	decoder *insts.Decoder
	regFile *emu.RegFile
	alu     ALU
	bus     bus.Port

	ioBit       uint
	resetActive bool

	retireHook func(RetireInfo)
	stats      Statistics
}

// NewCore creates a core wired to the given collaborators, in the
// Initial state with PC and the address register at zero.
func NewCore(regFile *emu.RegFile, alu ALU, port bus.Port, opts ...Option) *Core {
	c := &Core{
		decoder: insts.NewDecoder(),
		regFile: regFile,
		alu:     alu,
		bus:     port,
		ioBit:   bus.DefaultIOBit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the current execution state.
func (c *Core) State() State {
	return c.state
}

// PC returns the address of the next instruction to fetch.
func (c *Core) PC() uint32 {
	return c.pc
}

// AddrReg returns the value driven onto the bus address lines.
func (c *Core) AddrReg() uint32 {
	return c.addrReg
}

// Instr returns the latched instruction word.
func (c *Core) Instr() uint32 {
	return c.instr
}

// SetPC presets the fetch address. Meaningful only before the first
// fetch, i.e. while the core sits in Initial.
func (c *Core) SetPC(pc uint32) {
	c.pc = pc
	c.addrReg = pc
}

// SetReset drives the external reset input. While asserted, every tick
// forces the machine back to Initial with PC and the address register
// at zero; no in-flight instruction completes and no write-back fires.
func (c *Core) SetReset(active bool) {
	c.resetActive = active
}

// Stats returns the core performance counters.
func (c *Core) Stats() Statistics {
	return c.stats
}

// Tick advances the state machine by one tick: it evaluates this tick's
// combinational outputs from the current state and collaborator
// signals, drives the bus, and computes the next state and register
// values.
func (c *Core) Tick() {
	c.stats.Ticks++

	if c.resetActive {
		c.state = StateInitial
		c.pc = 0
		c.addrReg = 0
		return
	}

	switch c.state {
	case StateInitial:
		c.state = StateFetchInstr

	case StateFetchInstr:
		// The fetch address was pre-loaded by the previous
		// instruction's tail state (or by reset/SetPC).
		c.instrPC = c.addrReg
		c.bus.Read(c.addrReg)
		c.state = StateWaitInstr

	case StateWaitInstr:
		if c.bus.ReadBusy() {
			c.stats.FetchWaitTicks++
			return
		}
		c.instr = c.bus.ReadData()
		c.ctrl = c.decoder.Decode(c.instr)
		c.regFile.Present(c.ctrl.Rs1, c.ctrl.Rs2)
		c.state = StateFetchRegs

	case StateFetchRegs:
		// One tick for the register file read ports to settle on the
		// ids presented in WaitInstr.
		c.state = StateExecute

	case StateExecute:
		c.execute()

	case StateLoad:
		// The effective address went out at the end of Execute; this
		// tick issues the read strobe for it.
		c.bus.Read(c.addrReg)
		c.state = StateWaitALUOrData

	case StateWaitALUOrData:
		if c.alu.Busy() || c.bus.ReadBusy() {
			c.stats.DataWaitTicks++
			return
		}
		c.completeDeferred()

	case StateStore:
		c.store()

	case StateWaitIOStore:
		c.addrReg = c.pc
		if c.bus.WriteBusy() {
			c.stats.IOWaitTicks++
			return
		}
		c.state = StateFetchInstr
	}
}

// execute is the decisive tick: it latches the effective address,
// advances PC speculatively, dispatches on the decoded class, and fires
// same-tick write-back for single-cycle instructions.
func (c *Core) execute() {
	rs1 := c.regFile.Value1()
	rs2 := c.regFile.Value2()

	op1 := rs1
	if c.ctrl.ALUSrc1PC {
		op1 = c.pc
	}
	op2 := rs2
	if c.ctrl.ALUSrc2Imm {
		op2 = c.ctrl.Imm
	}

	// Start strobe: latches operands for the main operation and the
	// side address adder alike. Funct3 selects the ALU function only
	// for the ALU class; for loads, stores, branches, and jumps it
	// carries width or condition bits, and the ALU just adds.
	fn := c.ctrl.Funct3
	if !c.ctrl.IsALU {
		fn = insts.FnAddSub
	}
	c.alu.Start(op1, op2, fn, c.ctrl.Qualifier)

	target := c.alu.AddResult()
	linkPC := c.pc + 4

	// Pre-load the bus address for a following load/store, and advance
	// PC speculatively; taken branches and jumps overwrite it below.
	c.addrReg = target
	c.pc = linkPC

	switch {
	case c.ctrl.IsLoad:
		c.state = StateLoad

	case c.ctrl.IsStore:
		c.wdataReg, _ = emu.AlignStore(rs2, target&3, c.ctrl.Width())
		c.state = StateStore

	case c.ctrl.IsALU && c.ctrl.MultiCycle:
		c.state = StateWaitALUOrData

	case c.ctrl.IsJump || (c.ctrl.IsBranch && emu.Predicate(rs1, rs2, c.ctrl.Funct3)):
		c.pc = target
		c.state = StateFetchInstr

	default:
		c.addrReg = linkPC
		c.state = StateFetchInstr
	}

	// Single-cycle write-back fires this same tick. Loads and
	// multi-cycle ALU results defer to the shared wait state, keeping
	// the write enable asserted on exactly one tick per instruction.
	var wbValue uint32
	fired := c.ctrl.RdWrite && !c.ctrl.IsLoad && !c.ctrl.MultiCycle
	if fired {
		wbValue = c.selectWriteback(linkPC, target)
		c.regFile.Write(c.ctrl.Rd, wbValue)
	}

	if c.state == StateFetchInstr {
		c.retire(fired, wbValue)
	}
}

// selectWriteback picks the committed value per the decoder's
// write-back source selector. Load data is selected separately in the
// wait state once it has arrived.
func (c *Core) selectWriteback(linkPC, target uint32) uint32 {
	switch c.ctrl.WbSel {
	case insts.WbAddr:
		return target
	case insts.WbPCPlus4:
		return linkPC
	default:
		return c.alu.Result()
	}
}

// completeDeferred finishes a load or a multi-cycle ALU operation:
// both busy signals have cleared, so write-back fires and the fetch
// address is restored to PC.
func (c *Core) completeDeferred() {
	var wbValue uint32
	if c.ctrl.RdWrite {
		if c.ctrl.WbSel == insts.WbLoad {
			wbValue = emu.AlignLoad(
				c.bus.ReadData(), c.addrReg&3,
				c.ctrl.Width(), c.ctrl.LoadUnsigned())
		} else {
			wbValue = c.alu.Result()
		}
		c.regFile.Write(c.ctrl.Rd, wbValue)
	}

	c.addrReg = c.pc
	c.state = StateFetchInstr
	c.retire(c.ctrl.RdWrite, wbValue)
}

// store issues the write strobe with the staged data and the
// recomputed lane mask. Stores into the IO region take the extra
// settle wait state; ordinary memory stores complete within the tick.
func (c *Core) store() {
	_, mask := emu.AlignStore(c.regFile.Value2(), c.addrReg&3, c.ctrl.Width())
	c.bus.Write(c.addrReg, c.wdataReg, mask)

	ioStore := c.addrReg&(1<<c.ioBit) != 0
	c.addrReg = c.pc
	c.retire(false, 0)

	if ioStore {
		c.state = StateWaitIOStore
	} else {
		c.state = StateFetchInstr
	}
}

// retire counts a completed instruction and reports it to the hook.
func (c *Core) retire(rdWrite bool, rdValue uint32) {
	c.stats.Instructions++
	if c.retireHook == nil {
		return
	}
	c.retireHook(RetireInfo{
		Tick:    c.stats.Ticks,
		PC:      c.instrPC,
		Instr:   c.instr,
		RdWrite: rdWrite,
		Rd:      c.ctrl.Rd,
		RdValue: rdValue,
	})
}

// Reset returns the core to its post-construction configuration and
// clears the statistics. This is the simulation-level full reset; the
// external reset line is modeled by SetReset.
func (c *Core) Reset() {
	c.state = StateInitial
	c.pc = 0
	c.addrReg = 0
	c.instr = 0
	c.wdataReg = 0
	c.instrPC = 0
	c.ctrl = insts.Control{}
	c.stats = Statistics{}
}

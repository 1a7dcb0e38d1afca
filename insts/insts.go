// Package insts provides RV32I instruction decoding into control signals.
//
// The decoder is a pure function from a 32-bit instruction word to the
// full control vector consumed by the execution state machine: register
// ids, write-back selection, ALU operand selection, function selector,
// immediate, and instruction-class flags. It holds no state and latches
// nothing between calls.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	ctrl := decoder.Decode(0x00A08093) // ADDI x1, x1, 10
//	fmt.Printf("rd: %d, imm: %d\n", ctrl.Rd, int32(ctrl.Imm))
package insts

// RV32I major opcodes (bits [6:0] of the instruction word).
const (
	OpcodeLUI    = 0x37
	OpcodeAUIPC  = 0x17
	OpcodeJAL    = 0x6F
	OpcodeJALR   = 0x67
	OpcodeBranch = 0x63
	OpcodeLoad   = 0x03
	OpcodeStore  = 0x23
	OpcodeALUImm = 0x13
	OpcodeALUReg = 0x33
)

// WbSource selects the value committed to the register file when an
// instruction writes back. Exactly one source is meaningful per
// instruction; the selection is a don't-care when RdWrite is false.
type WbSource uint8

// Write-back sources.
const (
	// WbALU selects the main ALU result (register-register and
	// register-immediate operations, including LUI).
	WbALU WbSource = iota
	// WbAddr selects the ALU's side address-adder output (AUIPC).
	WbAddr
	// WbPCPlus4 selects the link value for JAL and JALR.
	WbPCPlus4
	// WbLoad selects aligned, sign- or zero-extended load data.
	WbLoad
)

// Branch condition selectors (funct3 values of the branch opcode).
const (
	CondEQ  = 0b000 // BEQ
	CondNE  = 0b001 // BNE
	CondLT  = 0b100 // BLT (signed)
	CondGE  = 0b101 // BGE (signed)
	CondLTU = 0b110 // BLTU
	CondGEU = 0b111 // BGEU
)

// ALU function selectors (funct3 values shared by the ALU-immediate and
// ALU-register opcodes). The Qualifier bit distinguishes ADD/SUB and
// SRL/SRA.
const (
	FnAddSub = 0b000
	FnSLL    = 0b001
	FnSLT    = 0b010
	FnSLTU   = 0b011
	FnXOR    = 0b100
	FnSRLSRA = 0b101
	FnOR     = 0b110
	FnAND    = 0b111
)

// Memory access width selectors (funct3 low two bits of loads/stores).
const (
	WidthByte = 0b00
	WidthHalf = 0b01
	WidthWord = 0b10
)

// Control is the decoded control vector for one instruction word.
//
// For any valid RV32I encoding the class flags are mutually exclusive by
// construction. An undecodable word yields the zero Control value: all
// flags false, which the state machine executes as a no-op.
type Control struct {
	// Instruction-class flags.
	IsALU    bool // register-write arithmetic/logic class (incl. LUI, AUIPC)
	IsLoad   bool
	IsStore  bool
	IsBranch bool
	IsJump   bool // JAL or JALR

	// Register ids. Rs1/Rs2 are presented to the register file read
	// ports; Rd is the write-back target.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Write-back control.
	RdWrite bool
	WbSel   WbSource

	// ALU operand selection.
	ALUSrc1PC  bool // operand 1 is PC instead of the rs1 value
	ALUSrc2Imm bool // operand 2 is Imm instead of the rs2 value

	// Funct3 is the 3-bit function selector: ALU operation, branch
	// condition, or load/store width and signedness.
	Funct3 uint8

	// Qualifier is funct7 bit 5: selects SUB over ADD and SRA over SRL.
	Qualifier bool

	// MultiCycle marks operations whose ALU result is not available in
	// the Execute tick (the shift class on the serial shifter). The
	// state machine defers write-back to the shared wait state.
	MultiCycle bool

	// Imm is the decoded immediate, already sign-extended per the
	// instruction format.
	Imm uint32
}

// LoadUnsigned reports whether a load zero-extends (LBU, LHU) rather
// than sign-extends.
func (c Control) LoadUnsigned() bool {
	return c.Funct3&0b100 != 0
}

// Width returns the memory access width selector for loads and stores.
func (c Control) Width() uint8 {
	return c.Funct3 & 0b011
}

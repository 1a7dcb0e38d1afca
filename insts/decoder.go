package insts

// Decoder decodes RV32I machine code into control vectors.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word into its control
// vector. Words that do not match a supported opcode (including FENCE
// and SYSTEM encodings) decode to the zero vector, which executes as a
// no-op; decode failures are never reported as errors.
func (d *Decoder) Decode(word uint32) Control {
	ctrl := Control{
		Rd:     uint8((word >> 7) & 0x1F),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
	}

	switch word & 0x7F {
	case OpcodeLUI:
		d.decodeLUI(word, &ctrl)
	case OpcodeAUIPC:
		d.decodeAUIPC(word, &ctrl)
	case OpcodeJAL:
		d.decodeJAL(word, &ctrl)
	case OpcodeJALR:
		d.decodeJALR(word, &ctrl)
	case OpcodeBranch:
		d.decodeBranch(word, &ctrl)
	case OpcodeLoad:
		d.decodeLoad(word, &ctrl)
	case OpcodeStore:
		d.decodeStore(word, &ctrl)
	case OpcodeALUImm:
		d.decodeALUImm(word, &ctrl)
	case OpcodeALUReg:
		d.decodeALUReg(word, &ctrl)
	default:
		// Undecodable: all-false control vector (no-op).
		return Control{}
	}

	return ctrl
}

// decodeLUI handles LUI rd, imm20. The upper immediate passes through
// the ALU as x0 + immU, so LUI needs no dedicated write-back source.
func (d *Decoder) decodeLUI(word uint32, ctrl *Control) {
	ctrl.IsALU = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbALU
	ctrl.ALUSrc2Imm = true
	// Bits [19:15] belong to the immediate in the U format, not rs1.
	ctrl.Rs1 = 0
	ctrl.Rs2 = 0
	ctrl.Funct3 = FnAddSub
	ctrl.Imm = immU(word)
}

// decodeAUIPC handles AUIPC rd, imm20. The result comes from the side
// address adder (PC + immU), leaving the main ALU untouched.
func (d *Decoder) decodeAUIPC(word uint32, ctrl *Control) {
	ctrl.IsALU = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbAddr
	ctrl.ALUSrc1PC = true
	ctrl.ALUSrc2Imm = true
	ctrl.Rs1 = 0
	ctrl.Rs2 = 0
	ctrl.Funct3 = FnAddSub
	ctrl.Imm = immU(word)
}

// decodeJAL handles JAL rd, offset. Target = PC + immJ via the address
// adder; the link value PC+4 is written back.
func (d *Decoder) decodeJAL(word uint32, ctrl *Control) {
	ctrl.IsJump = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbPCPlus4
	ctrl.ALUSrc1PC = true
	ctrl.ALUSrc2Imm = true
	ctrl.Rs1 = 0
	ctrl.Rs2 = 0
	ctrl.Imm = immJ(word)
}

// decodeJALR handles JALR rd, rs1, offset. Target = rs1 + immI.
func (d *Decoder) decodeJALR(word uint32, ctrl *Control) {
	ctrl.IsJump = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbPCPlus4
	ctrl.ALUSrc2Imm = true
	ctrl.Imm = immI(word)
}

// decodeBranch handles BEQ/BNE/BLT/BGE/BLTU/BGEU. The predicate unit
// consumes the rs1/rs2 values directly; the address adder computes the
// target from PC + immB.
func (d *Decoder) decodeBranch(word uint32, ctrl *Control) {
	ctrl.IsBranch = true
	ctrl.ALUSrc1PC = true
	ctrl.ALUSrc2Imm = true
	ctrl.Imm = immB(word)
}

// decodeLoad handles LB/LH/LW/LBU/LHU. Effective address = rs1 + immI.
func (d *Decoder) decodeLoad(word uint32, ctrl *Control) {
	ctrl.IsLoad = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbLoad
	ctrl.ALUSrc2Imm = true
	ctrl.Imm = immI(word)
}

// decodeStore handles SB/SH/SW. Effective address = rs1 + immS; the
// store data comes from the rs2 read port.
func (d *Decoder) decodeStore(word uint32, ctrl *Control) {
	ctrl.IsStore = true
	ctrl.ALUSrc2Imm = true
	ctrl.Imm = immS(word)
}

// decodeALUImm handles ADDI/SLTI/SLTIU/XORI/ORI/ANDI/SLLI/SRLI/SRAI.
func (d *Decoder) decodeALUImm(word uint32, ctrl *Control) {
	ctrl.IsALU = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbALU
	ctrl.ALUSrc2Imm = true
	ctrl.Imm = immI(word)

	// Shifts run on the serial shifter and only consume the shamt field;
	// SRAI is distinguished by funct7 bit 5.
	if ctrl.Funct3 == FnSLL || ctrl.Funct3 == FnSRLSRA {
		ctrl.MultiCycle = true
		ctrl.Qualifier = word&(1<<30) != 0
	}
}

// decodeALUReg handles ADD/SUB/SLL/SLT/SLTU/XOR/SRL/SRA/OR/AND.
func (d *Decoder) decodeALUReg(word uint32, ctrl *Control) {
	ctrl.IsALU = true
	ctrl.RdWrite = true
	ctrl.WbSel = WbALU

	if ctrl.Funct3 == FnSLL || ctrl.Funct3 == FnSRLSRA {
		ctrl.MultiCycle = true
	}
	// The qualifier matters for ADD/SUB and SRL/SRA only.
	if ctrl.Funct3 == FnAddSub || ctrl.Funct3 == FnSRLSRA {
		ctrl.Qualifier = word&(1<<30) != 0
	}
}

// immI extracts the sign-extended I-format immediate (bits [31:20]).
func immI(word uint32) uint32 {
	return uint32(int32(word) >> 20)
}

// immS extracts the sign-extended S-format immediate
// (bits [31:25] and [11:7]).
func immS(word uint32) uint32 {
	return uint32(int32(word)>>25<<5) | ((word >> 7) & 0x1F)
}

// immB extracts the sign-extended B-format immediate
// (bits [31], [7], [30:25], [11:8], scaled by 2).
func immB(word uint32) uint32 {
	imm := uint32(int32(word)>>31) << 12
	imm |= ((word >> 7) & 0x1) << 11
	imm |= ((word >> 25) & 0x3F) << 5
	imm |= ((word >> 8) & 0xF) << 1
	return imm
}

// immU extracts the U-format immediate (bits [31:12], low bits zero).
func immU(word uint32) uint32 {
	return word & 0xFFFFF000
}

// immJ extracts the sign-extended J-format immediate
// (bits [31], [19:12], [20], [30:21], scaled by 2).
func immJ(word uint32) uint32 {
	imm := uint32(int32(word)>>31) << 20
	imm |= word & 0xFF000
	imm |= ((word >> 20) & 0x1) << 11
	imm |= ((word >> 21) & 0x3FF) << 1
	return imm
}

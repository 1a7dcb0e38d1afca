package emu

import "github.com/sarchlab/rv32sim/insts"

// Predicate evaluates a branch condition over two operands. It is the
// pure branch predicate unit: a function of the operand values and the
// funct3 condition selector, with no state. Unknown selectors evaluate
// to false (the branch falls through).
func Predicate(op1, op2 uint32, funct3 uint8) bool {
	switch funct3 {
	case insts.CondEQ:
		return op1 == op2
	case insts.CondNE:
		return op1 != op2
	case insts.CondLT:
		return int32(op1) < int32(op2)
	case insts.CondGE:
		return int32(op1) >= int32(op2)
	case insts.CondLTU:
		return op1 < op2
	case insts.CondGEU:
		return op1 >= op2
	default:
		return false
	}
}

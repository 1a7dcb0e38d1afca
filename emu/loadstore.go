package emu

import "github.com/sarchlab/rv32sim/insts"

// AlignLoad selects the addressed byte lanes out of a raw bus word and
// sign- or zero-extends them to 32 bits. addrLow carries the two low
// bits of the effective address; width is a load/store width selector.
//
// The function is pure: it is re-evaluated from the latched bus word
// each tick and holds no state.
func AlignLoad(raw uint32, addrLow uint32, width uint8, unsigned bool) uint32 {
	switch width {
	case insts.WidthByte:
		b := uint8(raw >> ((addrLow & 3) * 8))
		if unsigned {
			return uint32(b)
		}
		return uint32(int32(int8(b)))
	case insts.WidthHalf:
		h := uint16(raw >> ((addrLow & 2) * 8))
		if unsigned {
			return uint32(h)
		}
		return uint32(int32(int16(h)))
	default:
		return raw
	}
}

// AlignStore replicates a register value onto the byte lanes addressed
// by the two low address bits and produces the matching write mask, one
// bit per byte lane.
func AlignStore(value uint32, addrLow uint32, width uint8) (data uint32, mask uint8) {
	switch width {
	case insts.WidthByte:
		shift := (addrLow & 3) * 8
		return (value & 0xFF) << shift, 1 << (addrLow & 3)
	case insts.WidthHalf:
		shift := (addrLow & 2) * 8
		return (value & 0xFFFF) << shift, 0b0011 << (addrLow & 2)
	default:
		return value, 0b1111
	}
}

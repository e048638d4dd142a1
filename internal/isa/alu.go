package isa

// Compute evaluates the non-branch, non-memory opcodes. It is a pure
// function of the two source operands and the current value of the
// destination register; unrecognized opcodes leave rdOld unchanged.
func Compute(op Opcode, rs, rt, rdOld int32) int32 {
	switch op {
	case OpADD:
		return rs + rt
	case OpSUB:
		return rs - rt
	case OpAND:
		return rs & rt
	case OpOR:
		return rs | rt
	case OpXOR:
		return rs ^ rt
	case OpMUL:
		return rs * rt
	case OpSLL:
		return rs << uint32(rt&0x1F)
	case OpSRA:
		return rs >> uint32(rt&0x1F)
	case OpSRL:
		return int32(uint32(rs) >> uint32(rt&0x1F))
	default:
		return rdOld
	}
}

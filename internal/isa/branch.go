package isa

import "github.com/dshearer/mesisim/internal/constants"

// EvalBranch evaluates BEQ..JAL. rd is read as a source here — the jump
// target register, not a destination: branches compare rs/rt, JAL is
// unconditional, and on a taken branch the target is rd masked to 9 bits
// despite a 10-bit PC. That mask is kept exactly as specified.
func EvalBranch(op Opcode, rs, rt, rd int32) (taken bool, target uint32) {
	switch op {
	case OpBEQ:
		taken = rs == rt
	case OpBNE:
		taken = rs != rt
	case OpBLT:
		taken = rs < rt
	case OpBGT:
		taken = rs > rt
	case OpBLE:
		taken = rs <= rt
	case OpBGE:
		taken = rs >= rt
	case OpJAL:
		taken = true
	default:
		return false, 0
	}
	if !taken {
		return false, 0
	}
	return true, uint32(rd) & constants.BranchTargetMask
}

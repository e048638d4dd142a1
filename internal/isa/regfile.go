package isa

// RegFile is a single core's 16-word register file. R0 always reads as
// zero and R1 always reads as the sign-extended immediate of whichever
// instruction is currently being evaluated; neither is a stored register
// in the ordinary sense, but both are backed by the same array, because
// WRITE_BACK does not special-case the destination register (see Write).
type RegFile struct {
	regs [16]int32
}

// Read returns the value of register n as seen by an instruction whose
// immediate is imm. n is expected in [0,15].
func (f *RegFile) Read(n int, imm int32) int32 {
	switch n {
	case 0:
		return 0
	case 1:
		return imm
	default:
		return f.regs[n]
	}
}

// Write stores v into register n unconditionally. This does not guard n
// against 0 or 1: WRITE_BACK writes whatever destination register an
// instruction names, relying on Read's R0/R1 special cases to make those
// writes unobservable rather than rejecting them outright.
func (f *RegFile) Write(n int, v int32) {
	f.regs[n] = v
}

// Snapshot returns R2..R15 in order, the slice regoutN.txt and the core
// trace dump both report.
func (f *RegFile) Snapshot() [14]int32 {
	var out [14]int32
	copy(out[:], f.regs[2:16])
	return out
}

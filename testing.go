package mesisim

import "github.com/dshearer/mesisim/internal/isa"

// NewFixedProgram assembles a sequence of instructions into the word slice
// Simulation's instruction-memory loaders expect, for tests that want to
// build a small program without writing out an imemN.txt fixture file.
func NewFixedProgram(instructions ...isa.Instruction) []uint32 {
	words := make([]uint32, len(instructions))
	for i, inst := range instructions {
		words[i] = isa.Encode(inst.Opcode, inst.Rd, inst.Rs, inst.Rt, inst.Imm)
	}
	return words
}

// NewFixedWords returns a copy of vals as a main-memory image, for tests
// that want a predictable memin.txt without writing a fixture file.
func NewFixedWords(vals ...uint32) []uint32 {
	words := make([]uint32, len(vals))
	copy(words, vals)
	return words
}

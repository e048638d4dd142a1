// Package memory implements shared main memory: a flat word array plus
// the single-in-flight block-transfer state machine the bus arbiter
// drives. Single-owner, unlocked: the simulation is single-threaded per
// cycle, and the bus already serializes every access to memory through
// its one active transaction, so no internal locking is needed here.
package memory

import (
	"github.com/dshearer/mesisim/internal/constants"
	"github.com/dshearer/mesisim/internal/interfaces"
)

// Memory is the 2^20-word flat main memory array.
type Memory struct {
	words [constants.MemWords]uint32

	busy    bool
	counter int
	// supplying latches, at the start of a transfer, whether memory is
	// producing the block (BusRd/BusRdX) rather than absorbing a Flush;
	// after the first word, tx.Cmd already reads Flush either way.
	supplying bool
}

// New returns a zero-filled memory.
func New() *Memory {
	return &Memory{}
}

// Load copies words into memory starting at address 0. Any remainder
// beyond len(words) stays zero.
func (m *Memory) Load(words []uint32) {
	copy(m.words[:], words)
}

// Word returns the raw contents at a word address, for dump output.
func (m *Memory) Word(addr uint32) uint32 {
	return m.words[addr&(constants.MemWords-1)]
}

// Words returns the backing array directly; callers (the dumper) decide
// how much of it is significant.
func (m *Memory) Words() *[constants.MemWords]uint32 {
	return &m.words
}

// Service implements interfaces.MemoryResponder. It models a nominal
// 16-cycle access latency followed by a 4-cycle, one-word-per-cycle
// transfer (20 cycles total) when memory itself produces the data; when
// direct is true (a cache is already supplying the block), the latency is
// skipped and only the 4-cycle transfer remains.
func (m *Memory) Service(tx *interfaces.Transaction, direct bool) bool {
	if tx.Cmd == interfaces.CmdNone {
		return false
	}

	if !m.busy {
		m.busy = true
		m.supplying = tx.Cmd == interfaces.CmdBusRd || tx.Cmd == interfaces.CmdBusRdX
		if direct {
			m.counter = constants.MemoryLatencyCycles
		} else {
			m.counter = 0
		}
	} else {
		m.counter++
	}

	if m.counter < constants.MemoryLatencyCycles {
		return false
	}

	word := uint32(tx.Addr)
	if m.supplying {
		tx.OrigID = interfaces.MemoryOrigin
		tx.Cmd = interfaces.CmdFlush
		tx.Data = m.words[word&(constants.MemWords-1)]
	} else {
		m.words[word&(constants.MemWords-1)] = tx.Data
	}

	if m.counter >= constants.MemoryLatencyCycles+constants.MemoryTransferCycles-1 {
		m.busy = false
	}
	return true
}

// Package stats holds the per-core counters the statsN.txt dump
// requires: a struct of counters with recording methods and a line
// formatter. Plain int fields rather than atomic.Uint64, since this
// simulator is single-threaded per cycle (bus, then cores 0..3, in
// order) with nothing concurrent to race against.
package stats

import "strconv"

// Stats is one core's run counters.
type Stats struct {
	Cycles       int
	Instructions int
	ReadHit      int
	WriteHit     int
	ReadMiss     int
	WriteMiss    int
	DecodeStall  int
	MemStall     int
}

func (s *Stats) RecordReadHit()   { s.ReadHit++ }
func (s *Stats) RecordWriteHit()  { s.WriteHit++ }
func (s *Stats) RecordReadMiss()  { s.ReadMiss++ }
func (s *Stats) RecordWriteMiss() { s.WriteMiss++ }

// RecordCycle advances the cycle counter and, when instructionRetired is
// true, the instruction counter. Called once per core per orchestrator
// cycle regardless of stall state.
func (s *Stats) RecordCycle(instructionRetired bool) {
	s.Cycles++
	if instructionRetired {
		s.Instructions++
	}
}

func (s *Stats) RecordDecodeStall() { s.DecodeStall++ }
func (s *Stats) RecordMemStall()    { s.MemStall++ }

// Lines returns the statsN.txt body. cycles is reported as Cycles+1 and
// instructions as Instructions-1, an off-by-one quirk kept deliberately
// rather than corrected.
func (s *Stats) Lines() []string {
	return []string{
		formatLine("cycles", s.Cycles+1),
		formatLine("instructions", s.Instructions-1),
		formatLine("read_hit", s.ReadHit),
		formatLine("write_hit", s.WriteHit),
		formatLine("read_miss", s.ReadMiss),
		formatLine("write_miss", s.WriteMiss),
		formatLine("decode_stall", s.DecodeStall),
		formatLine("mem_stall", s.MemStall),
	}
}

func formatLine(name string, v int) string {
	return name + " " + strconv.Itoa(v)
}

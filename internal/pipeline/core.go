// Package pipeline implements the five-stage in-order pipeline controller
// driven once per cycle by the orchestrator: no forwarding, branches
// resolved at DECODE rather than squashed, and an unguarded R0
// write-back kept as a deliberate quirk rather than patched away. It
// issues LW/SW into its core's cache and stalls on misses and
// read-after-write hazards: compute this cycle's hazards, then advance
// stage registers synchronously.
package pipeline

import (
	"io"

	"github.com/dshearer/mesisim/internal/cache"
	"github.com/dshearer/mesisim/internal/constants"
	"github.com/dshearer/mesisim/internal/isa"
	"github.com/dshearer/mesisim/internal/logging"
	"github.com/dshearer/mesisim/internal/memaddr"
	"github.com/dshearer/mesisim/internal/stats"
	"github.com/dshearer/mesisim/internal/trace"
)

// Stage names a pipeline slot.
type Stage int

const (
	Fetch Stage = iota
	Decode
	Execute
	Mem
	WriteBack
)

// BubblePC is the stage-record sentinel marking a bubble; -1 is never a
// legal PC.
const BubblePC int32 = -1

// Record is one pipeline stage's contents.
type Record struct {
	PC          int32
	Instruction uint32
	Result      int32
	Dest        int // destination register; -1 means "writes nothing"
}

func bubble() Record { return Record{PC: BubblePC, Dest: -1} }

// Core is one processor core: its fetch/decode/execute/mem/writeback
// pipeline, register file, and the cache it issues loads and stores into.
type Core struct {
	id     int
	imem   [1 << constants.PCBits]uint32
	regs   isa.RegFile
	cache  *cache.Cache
	stats  *stats.Stats
	traceW io.Writer

	pc       int32
	stages   [5]Record
	isHalted bool
	memStall bool
}

// New builds a core with program loaded into instruction memory (any
// remainder beyond len(program) stays zero). A core with no instructions
// starts halted.
func New(id int, program []uint32, c *cache.Cache, s *stats.Stats, coreTraceW io.Writer) *Core {
	core := &Core{id: id, cache: c, stats: s, traceW: coreTraceW}
	copy(core.imem[:], program)
	for i := range core.stages {
		core.stages[i] = bubble()
	}
	core.stages[Fetch] = Record{PC: 0, Instruction: core.imem[0], Dest: -1}
	core.pc = 1
	if len(program) == 0 {
		core.isHalted = true
	}
	return core
}

// Halted reports whether this core is fully drained: isHalted and every
// stage is a bubble.
func (c *Core) Halted() bool {
	if !c.isHalted {
		return false
	}
	for _, rec := range c.stages {
		if rec.PC != BubblePC {
			return false
		}
	}
	return true
}

// Snapshot returns the five stage PCs and R2..R15 as they stand before
// this cycle's Step, for the core trace line.
func (c *Core) Snapshot() (trace.CorePCs, [14]int32) {
	var pcs trace.CorePCs
	for i, rec := range c.stages {
		pcs[i] = rec.PC
	}
	return pcs, c.regs.Snapshot()
}

// Step advances this core by one cycle.
func (c *Core) Step() {
	decodeRec := c.stages[Decode]
	dataStall := false
	if decodeRec.PC != BubblePC {
		inst := isa.Decode(decodeRec.Instruction)
		srcs := []int{inst.Rs, inst.Rt}
		if inst.Opcode.IsBranch() || inst.Opcode == isa.OpSW {
			srcs = append(srcs, inst.Rd)
		}
		for _, st := range []Stage{Execute, Mem, WriteBack} {
			rec := c.stages[st]
			if rec.PC == BubblePC || rec.Dest < 0 {
				continue
			}
			for _, s := range srcs {
				if s > 1 && s == rec.Dest {
					dataStall = true
				}
			}
		}
	}

	// MEM runs first, so a miss it reports stalls this very cycle: the
	// instruction stays in MEM and nothing behind it fetches or advances.
	if rec := &c.stages[Mem]; rec.PC != BubblePC {
		c.run(Mem, rec)
	}
	memStall := c.memStall

	var start Stage
	switch {
	case memStall:
		start = WriteBack
	case dataStall:
		start = Execute
	default:
		start = Decode
	}

	var fetched Record
	haveFetch := false
	if !memStall {
		word := c.imem[uint32(c.pc)&((1<<constants.PCBits)-1)]
		fetched = Record{PC: c.pc, Instruction: word, Dest: -1}
		haveFetch = true
		if !dataStall {
			c.pc++
		}
	}

	retired := c.stages[WriteBack].PC != BubblePC

	for st := start; st <= WriteBack; st++ {
		rec := &c.stages[st]
		if st == Mem || rec.PC == BubblePC {
			continue
		}
		c.run(st, rec)
	}

	if dataStall && !memStall {
		c.stats.RecordDecodeStall()
		logging.Debug("decode stall", "core", c.id, "cycle", c.stats.Cycles, "reason", "raw_hazard")
	}
	if memStall {
		c.stats.RecordMemStall()
		logging.Debug("mem stall", "core", c.id, "cycle", c.stats.Cycles, "reason", "cache_miss")
	}
	c.stats.RecordCycle(retired)

	if memStall {
		c.stages[WriteBack] = bubble()
	} else {
		c.stages[WriteBack] = c.stages[Mem]
		c.stages[Mem] = c.stages[Execute]
		if dataStall {
			c.stages[Execute] = bubble()
		} else {
			c.stages[Execute] = c.stages[Decode]
			c.stages[Decode] = c.stages[Fetch]
		}
		if haveFetch && !dataStall {
			c.stages[Fetch] = fetched
		}
	}

	if c.isHalted {
		c.stages[Fetch] = bubble()
		c.stages[Decode] = bubble()
	}
}

func (c *Core) run(st Stage, rec *Record) {
	inst := isa.Decode(rec.Instruction)
	switch st {
	case Decode:
		c.runDecode(rec, inst)
	case Execute:
		c.runExecute(rec, inst)
	case Mem:
		c.runMem(rec, inst)
	case WriteBack:
		c.runWriteBack(rec, inst)
	}
}

// runDecode resolves branches and JAL immediately. The two instructions
// already fetched behind a taken branch are not squashed; they drain
// harmlessly unless they happen to alias a live register.
func (c *Core) runDecode(rec *Record, inst isa.Instruction) {
	rec.Dest = -1
	switch {
	case inst.Opcode == isa.OpHALT:
		c.isHalted = true
	case inst.Opcode.IsBranch():
		rs := c.regs.Read(inst.Rs, inst.Imm)
		rt := c.regs.Read(inst.Rt, inst.Imm)
		rd := c.regs.Read(inst.Rd, inst.Imm)
		taken, target := isa.EvalBranch(inst.Opcode, rs, rt, rd)
		if taken {
			c.pc = int32(target)
		}
		if inst.Opcode == isa.OpJAL {
			rec.Dest = 15
			rec.Result = rec.PC + 1
		}
	case inst.Opcode == isa.OpSW:
		// no destination register
	default:
		rec.Dest = inst.Rd
	}
}

func (c *Core) runExecute(rec *Record, inst isa.Instruction) {
	if inst.Opcode.IsBranch() || inst.Opcode.IsMemory() || inst.Opcode == isa.OpHALT {
		return
	}
	rs := c.regs.Read(inst.Rs, inst.Imm)
	rt := c.regs.Read(inst.Rt, inst.Imm)
	rdOld := c.regs.Read(inst.Rd, inst.Imm)
	rec.Result = isa.Compute(inst.Opcode, rs, rt, rdOld)
}

// runMem issues LW/SW into the cache. SW's stored value is read from rd
// (a source here, like a branch's rd): rs and rt are already spent
// computing the address.
func (c *Core) runMem(rec *Record, inst isa.Instruction) {
	if !inst.Opcode.IsMemory() {
		return
	}
	rs := c.regs.Read(inst.Rs, inst.Imm)
	rt := c.regs.Read(inst.Rt, inst.Imm)
	addr := memaddr.Addr(uint32(rs + rt))

	switch inst.Opcode {
	case isa.OpLW:
		done, data := c.cache.Read(addr)
		c.memStall = !done
		if done {
			rec.Result = int32(data)
		}
	case isa.OpSW:
		value := uint32(c.regs.Read(inst.Rd, inst.Imm))
		done := c.cache.Write(addr, value)
		c.memStall = !done
	}
}

func (c *Core) runWriteBack(rec *Record, _ isa.Instruction) {
	if rec.Dest < 0 {
		return
	}
	c.regs.Write(rec.Dest, rec.Result)
}

package mesisim

import (
	"io"

	"github.com/dshearer/mesisim/internal/bus"
	"github.com/dshearer/mesisim/internal/cache"
	"github.com/dshearer/mesisim/internal/interfaces"
	"github.com/dshearer/mesisim/internal/memory"
	"github.com/dshearer/mesisim/internal/pipeline"
	"github.com/dshearer/mesisim/internal/stats"
	"github.com/dshearer/mesisim/internal/trace"
)

// Config is the set of output sinks a Simulation streams its per-cycle
// traces to. The bus and core traces are the only ones needed while the
// machine is running; the end-of-run dumps (regout/memout/dsram/tsram/
// stats) are read back from the Simulation after Run returns rather than
// streamed as they're produced.
type Config struct {
	BusTrace  io.Writer
	CoreTrace [4]io.Writer
}

// Simulation owns the four cores, their caches, the shared bus, and main
// memory, and drives them to completion: built from already-open
// resources, run to completion, then inspected for its final state.
type Simulation struct {
	mem    *memory.Memory
	busArb *bus.Arbiter
	caches [4]*cache.Cache
	cores  [4]*pipeline.Core
	counts [4]*stats.Stats
	cfg    Config
	cycle  int
}

// NewSimulation builds a Simulation from loaded instruction memories, a
// loaded main-memory image, and the trace sinks to stream to. programs[i]
// is core i's imemN.txt contents; memWords is memin.txt's contents.
func NewSimulation(programs [4][]uint32, memWords []uint32, cfg Config) *Simulation {
	mem := memory.New()
	mem.Load(memWords)

	busArb := bus.New(mem, cfg.BusTrace)

	var counts [4]*stats.Stats
	var caches [4]*cache.Cache
	var snoopers [4]interfaces.Snooper
	for i := 0; i < 4; i++ {
		counts[i] = &stats.Stats{}
		caches[i] = cache.New(i, busArb, counts[i])
		snoopers[i] = caches[i]
	}
	busArb.SetSnoopers(snoopers)

	var cores [4]*pipeline.Core
	for i := 0; i < 4; i++ {
		cores[i] = pipeline.New(i, programs[i], caches[i], counts[i], cfg.CoreTrace[i])
	}

	return &Simulation{
		mem:    mem,
		busArb: busArb,
		caches: caches,
		cores:  cores,
		counts: counts,
		cfg:    cfg,
	}
}

// Run drives bus.Tick() and each non-halted core's Step() once per cycle
// until all four cores report halted. It does not force a final flush of
// dirty lines to memory: a core's own last dirty write may still be
// sitting in its cache when the last core halts, so memout can lag the
// caches' final contents. This is deliberate, not an oversight.
func (s *Simulation) Run() {
	for !s.allHalted() {
		for i := range s.cores {
			pcs, regs := s.cores[i].Snapshot()
			trace.WriteCoreLine(s.cfg.CoreTrace[i], s.cycle, pcs, regs)
		}
		s.busArb.Tick()
		for i := range s.cores {
			if !s.cores[i].Halted() {
				s.cores[i].Step()
			}
		}
		s.cycle++
	}
}

func (s *Simulation) allHalted() bool {
	for _, c := range s.cores {
		if !c.Halted() {
			return false
		}
	}
	return true
}

// MemWords returns main memory's final contents.
func (s *Simulation) MemWords() []uint32 {
	words := s.mem.Words()
	out := make([]uint32, len(words))
	copy(out, words[:])
	return out
}

// RegSnapshot returns core i's R2..R15 as they stand now.
func (s *Simulation) RegSnapshot(core int) [14]int32 {
	_, regs := s.cores[core].Snapshot()
	return regs
}

// DSRAMWords returns core i's cache data array.
func (s *Simulation) DSRAMWords(core int) []uint32 {
	return s.caches[core].DSRAMWords()
}

// TSRAMWords returns core i's cache tag/state array.
func (s *Simulation) TSRAMWords(core int) []uint32 {
	return s.caches[core].TSRAMWords()
}

// Stats returns core i's run counters.
func (s *Simulation) Stats(core int) *Stats {
	return s.counts[core]
}

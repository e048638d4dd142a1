// Package cache implements the per-core MESI cache coherence engine:
// direct-mapped TSRAM/DSRAM storage, the CPU-facing Read/Write pair the
// pipeline's MEM stage calls, and the bus-facing SharedQuery/Snoop/Response
// trio the bus arbiter drives once per cycle. A stalling, resumable
// access is reported through a boolean "done" return rather than a
// blocking call, so the pipeline can poll it across stalled cycles.
package cache

import (
	"github.com/dshearer/mesisim/internal/constants"
	"github.com/dshearer/mesisim/internal/interfaces"
	"github.com/dshearer/mesisim/internal/memaddr"
	"github.com/dshearer/mesisim/internal/stats"
)

// State is a TSRAM line's MESI state.
type State int

const (
	StateI State = iota
	StateS
	StateE
	StateM
)

func (s State) String() string {
	switch s {
	case StateI:
		return "I"
	case StateS:
		return "S"
	case StateE:
		return "E"
	case StateM:
		return "M"
	default:
		return "?"
	}
}

// Line is one TSRAM entry.
type Line struct {
	Tag  uint32
	MESI State
}

// Cache is one core's direct-mapped data cache and coherence engine.
type Cache struct {
	id    int
	tsram [constants.CacheLines]Line
	dsram [constants.DSRAMWords]uint32

	bus   interfaces.Enqueuer
	stats *stats.Stats

	// missInProgress is a per-cache field rather than a function-local
	// flag, so the "completion of a miss is not a hit" rule survives
	// across calls cleanly.
	missInProgress bool
}

// New returns a cache for the given core id, all lines invalid.
func New(id int, bus interfaces.Enqueuer, s *stats.Stats) *Cache {
	return &Cache{id: id, bus: bus, stats: s}
}

// DSRAMWords returns the raw 256-word data array, for dsramN.txt.
func (c *Cache) DSRAMWords() []uint32 {
	out := make([]uint32, len(c.dsram))
	copy(out, c.dsram[:])
	return out
}

// TSRAMWords returns each line encoded as (mesi<<12)|tag, for tsramN.txt.
func (c *Cache) TSRAMWords() []uint32 {
	out := make([]uint32, len(c.tsram))
	for i, line := range c.tsram {
		out[i] = uint32(line.MESI)<<12 | line.Tag
	}
	return out
}

// ID implements interfaces.Snooper.
func (c *Cache) ID() int { return c.id }

func (c *Cache) dsramIndex(a memaddr.Addr) uint32 {
	return a.Index()*constants.WordsPerBlock + a.Offset()
}

// Read implements the CPU-side read request from the pipeline's MEM
// stage. done is false while a miss is still being serviced.
func (c *Cache) Read(addr memaddr.Addr) (done bool, data uint32) {
	if c.bus.InTransaction(c.id) || c.bus.Awaiting(c.id) {
		return false, 0
	}

	line := &c.tsram[addr.Index()]
	if line.MESI != StateI && line.Tag == addr.Tag() {
		data = c.dsram[c.dsramIndex(addr)]
		if !c.missInProgress {
			c.stats.RecordReadHit()
		}
		c.missInProgress = false
		return true, data
	}

	c.missInProgress = true
	c.stats.RecordReadMiss()
	c.evictIfDirty(addr, line)
	c.bus.Enqueue(&interfaces.Transaction{
		OriginalCaller: c.id,
		OrigID:         c.id,
		Cmd:            interfaces.CmdBusRd,
		Addr:           addr.Base(),
	})
	return false, 0
}

// Write implements the CPU-side write request from the pipeline's MEM
// stage. done is false while a miss (or an S-state upgrade) is still
// being serviced.
func (c *Cache) Write(addr memaddr.Addr, data uint32) (done bool) {
	if c.bus.InTransaction(c.id) || c.bus.Awaiting(c.id) {
		return false
	}

	line := &c.tsram[addr.Index()]
	if line.MESI != StateI && line.Tag == addr.Tag() {
		switch line.MESI {
		case StateM, StateE:
			c.dsram[c.dsramIndex(addr)] = data
			line.MESI = StateM
			if !c.missInProgress {
				c.stats.RecordWriteHit()
			}
			c.missInProgress = false
			return true
		case StateS:
			c.missInProgress = true
			c.stats.RecordWriteMiss()
			c.bus.Enqueue(&interfaces.Transaction{
				OriginalCaller: c.id,
				OrigID:         c.id,
				Cmd:            interfaces.CmdBusRdX,
				Addr:           addr.Base(),
			})
			c.bus.Enqueue(&interfaces.Transaction{
				OriginalCaller: interfaces.Invalid,
				OrigID:         interfaces.Invalid,
				Cmd:            interfaces.CmdNone,
				Addr:           addr.Base(),
			})
			return false
		}
	}

	c.missInProgress = true
	c.stats.RecordWriteMiss()
	c.evictIfDirty(addr, line)
	c.bus.Enqueue(&interfaces.Transaction{
		OriginalCaller: c.id,
		OrigID:         c.id,
		Cmd:            interfaces.CmdBusRdX,
		Addr:           addr.Base(),
	})
	return false
}

// evictIfDirty enqueues a write-back of the line currently occupying
// addr's index if that line is Modified and does not already hold the
// address we're about to bring in.
func (c *Cache) evictIfDirty(addr memaddr.Addr, line *Line) {
	if line.MESI != StateM || (line.Tag == addr.Tag()) {
		return
	}
	evicted := memaddr.Build(line.Tag, addr.Index())
	c.bus.Enqueue(&interfaces.Transaction{
		OriginalCaller: c.id,
		OrigID:         c.id,
		Cmd:            interfaces.CmdFlush,
		Addr:           evicted,
		Data:           c.dsram[c.dsramIndex(evicted)],
	})
}

// SharedQuery implements interfaces.Snooper.
func (c *Cache) SharedQuery(tx *interfaces.Transaction) (hit, modified bool) {
	if c.id == tx.OrigID {
		return false, false
	}
	line := &c.tsram[tx.Addr.Index()]
	hit = line.MESI != StateI && line.Tag == tx.Addr.Tag()
	modified = hit && line.MESI == StateM
	return hit, modified
}

var mesiTransition = [4][3]State{
	StateI: {StateI, StateI, StateI},
	StateS: {StateS, StateI, StateS},
	StateE: {StateS, StateI, StateE},
	StateM: {StateS, StateI, StateM},
}

func cmdIndex(cmd interfaces.Cmd) int {
	switch cmd {
	case interfaces.CmdBusRd:
		return 0
	case interfaces.CmdBusRdX:
		return 1
	default:
		return 2
	}
}

// Snoop implements interfaces.Snooper. A cache whose line is Modified for
// this block rewrites the in-flight transaction to hand its data directly
// to the requester (and to memory), deferring its own state transition
// until the flush finishes.
func (c *Cache) Snoop(tx *interfaces.Transaction) {
	if c.id == tx.OriginalCaller && tx.Cmd != interfaces.CmdFlush {
		return
	}
	line := &c.tsram[tx.Addr.Index()]
	if line.MESI == StateI || line.Tag != tx.Addr.Tag() {
		return
	}

	if line.MESI == StateM {
		if tx.Cmd != interfaces.CmdFlush {
			tx.OrigID = interfaces.MemoryOrigin
			tx.Cmd = interfaces.CmdFlush
		}
		// Re-derive tx.Data every cycle of the transfer, not just the
		// first: each of the four offsets carries a different word out
		// of this cache's own DSRAM.
		tx.Data = c.dsram[c.dsramIndex(tx.Addr)]
	}

	next := mesiTransition[line.MESI][cmdIndex(tx.Cmd)]
	if tx.Addr.Offset() == constants.WordsPerBlock-1 || line.MESI != StateM {
		line.MESI = next
	}
}

// Response implements interfaces.Snooper. It is only ever invoked on the
// transaction's original caller's cache.
func (c *Cache) Response(tx *interfaces.Transaction, offset *uint32) bool {
	if c.id == tx.OrigID && tx.Cmd != interfaces.CmdFlush {
		return false
	}
	if c.id == tx.OrigID && tx.Cmd == interfaces.CmdFlush {
		if *offset == constants.WordsPerBlock-1 {
			return true
		}
		*offset++
		return false
	}

	addr := tx.Addr.Base().WithOffset(*offset)
	c.dsram[c.dsramIndex(addr)] = tx.Data
	line := &c.tsram[addr.Index()]
	line.Tag = addr.Tag()

	if *offset == constants.WordsPerBlock-1 {
		if tx.Shared {
			line.MESI = StateS
		} else {
			line.MESI = StateE
		}
		return true
	}
	*offset++
	return false
}

// Package bus implements the snoopy shared bus: the FIFO transaction
// queue, the per-core transaction state machine, and the per-cycle Tick
// that drives shared_query/snoop/memory/response across every cache and
// main memory.
//
// TxState is a small state machine threaded per core; the per-core values
// are kept in a plain array indexed by core id. Snooper/MemoryResponder
// are narrowly-scoped interfaces passed in at construction instead of
// relying on global state.
package bus

import (
	"io"

	"github.com/dshearer/mesisim/internal/interfaces"
	"github.com/dshearer/mesisim/internal/logging"
	"github.com/dshearer/mesisim/internal/trace"
)

// TxState is a core's transaction-state-machine position.
type TxState int

const (
	Idle TxState = iota
	WaitCmd
	Operation
	Finally
)

// Arbiter is the bus: a FIFO of pending transactions plus the state
// machine for whichever transaction is currently moving data.
type Arbiter struct {
	fifo      []*interfaces.Transaction
	coreState [4]TxState

	active       *interfaces.Transaction
	busActive    bool
	offset       uint32
	modifiedSeen bool
	iter         uint64

	snoopers [4]interfaces.Snooper
	mem      interfaces.MemoryResponder
	traceW   io.Writer
}

// New builds a bus arbiter wired to main memory and the writer
// bustrace.txt is streamed to. The four caches are wired in afterward via
// SetSnoopers, since each cache is itself constructed with this arbiter as
// its Enqueuer.
func New(mem interfaces.MemoryResponder, traceW io.Writer) *Arbiter {
	return &Arbiter{
		active: vacantTransaction(),
		mem:    mem,
		traceW: traceW,
	}
}

// SetSnoopers wires the four per-core caches in, breaking the
// construction cycle between the bus and its caches.
func (a *Arbiter) SetSnoopers(snoopers [4]interfaces.Snooper) {
	a.snoopers = snoopers
}

func vacantTransaction() *interfaces.Transaction {
	return &interfaces.Transaction{OrigID: interfaces.Invalid, OriginalCaller: interfaces.Invalid}
}

// Enqueue implements interfaces.Enqueuer: append to the FIFO, and, unless
// this is a delay-slot transaction, move that core's state to waitCmd.
func (a *Arbiter) Enqueue(tx *interfaces.Transaction) {
	a.fifo = append(a.fifo, tx)
	if tx.OrigID != interfaces.Invalid {
		a.coreState[tx.OrigID] = WaitCmd
	}
}

// InTransaction implements interfaces.Enqueuer.
func (a *Arbiter) InTransaction(core int) bool { return a.coreState[core] != Idle }

// Awaiting implements interfaces.Enqueuer.
func (a *Arbiter) Awaiting(core int) bool { return a.coreState[core] == WaitCmd }

// Tick advances the bus by one cycle.
func (a *Arbiter) Tick() {
	a.iter++

	if a.active.OriginalCaller != interfaces.Invalid && a.coreState[a.active.OriginalCaller] == Finally {
		a.coreState[a.active.OriginalCaller] = Idle
		a.active = vacantTransaction()
	}

	if len(a.fifo) == 0 && !a.busActive {
		a.active.OrigID = interfaces.Invalid
		return
	}

	if !a.busActive {
		tx := a.fifo[0]
		a.fifo = a.fifo[1:]
		if tx.OrigID == interfaces.Invalid {
			return // delay slot: consume the cycle, no transaction starts
		}
		tx.OriginalCaller = tx.OrigID
		a.coreState[tx.OrigID] = Operation
		a.offset = 0
		a.modifiedSeen = false
		a.busActive = true
		a.active = tx
		trace.WriteBusLine(a.traceW, a.iter, tx.OrigID, int(tx.Cmd), uint32(tx.Addr), tx.Data, tx.Shared)
	}

	tx := a.active
	tx.Addr = tx.Addr.WithOffset(a.offset)

	shared, modified := false, false
	for _, s := range a.snoopers {
		hit, mod := s.SharedQuery(tx)
		shared = shared || hit
		modified = modified || mod
	}
	tx.Shared = shared

	if modified && !a.modifiedSeen {
		a.modifiedSeen = true
		logging.Debug("modified owner detour", "core", tx.OriginalCaller, "cycle", a.iter, "cmd", int(tx.Cmd))
		return
	}

	for _, s := range a.snoopers {
		s.Snoop(tx)
	}

	direct := tx.Cmd == interfaces.CmdFlush
	if !a.mem.Service(tx, direct) {
		return
	}
	trace.WriteBusLine(a.traceW, a.iter, tx.OrigID, int(tx.Cmd), uint32(tx.Addr), tx.Data, tx.Shared)

	originator := a.snoopers[tx.OriginalCaller]
	if originator.Response(tx, &a.offset) {
		a.coreState[tx.OriginalCaller] = Finally
		a.busActive = false
	}
}

// Package interfaces provides the narrow, construction-passed contracts
// that let the bus arbiter, the per-core caches, and main memory talk to
// each other without any of them importing one another directly.
package interfaces

import "github.com/dshearer/mesisim/internal/memaddr"

// Cmd is a bus transaction's coherence command.
type Cmd int

const (
	CmdNone Cmd = iota
	CmdBusRd
	CmdBusRdX
	CmdFlush
)

func (c Cmd) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdBusRd:
		return "BusRd"
	case CmdBusRdX:
		return "BusRdX"
	case CmdFlush:
		return "Flush"
	default:
		return "?"
	}
}

// MemoryOrigin is the OrigID sentinel written in place of a requesting
// core's id once main memory (or a flushing owner) starts answering.
const MemoryOrigin = -2

// Invalid is the OrigID/OriginalCaller sentinel for a transaction with no
// real requester, e.g. the delay-slot transaction a cache enqueues between
// its BusRdX and the eventual grant.
const Invalid = -1

// Transaction is the unit of work the bus arbiter carries between caches
// and main memory.
type Transaction struct {
	OriginalCaller int
	OrigID         int
	Cmd            Cmd
	Addr           memaddr.Addr
	Data           uint32
	Shared         bool
}

// Snooper is implemented by each core's cache coherence engine and driven
// by the bus arbiter once per cycle for whatever transaction is active.
// Snoop and SharedQuery read the current word offset off tx.Addr, which
// the bus keeps pointed at the word in play for this cycle; Response
// additionally owns the mutable offset counter that drives it, since
// advancing that counter is how a multi-cycle transfer decides it is done.
type Snooper interface {
	ID() int
	SharedQuery(tx *Transaction) (hit, modified bool)
	Snoop(tx *Transaction)
	Response(tx *Transaction, offset *uint32) bool
}

// MemoryResponder is implemented by main memory.
type MemoryResponder interface {
	Service(tx *Transaction, direct bool) bool
}

// Enqueuer is the seam a cache uses to push a transaction onto the bus and
// to check its own core's transaction state, without importing the bus
// package back.
type Enqueuer interface {
	Enqueue(tx *Transaction)
	InTransaction(core int) bool
	Awaiting(core int) bool
}

// Logger is the diagnostic-logging seam components are constructed with,
// distinct from the exact-format trace/dump writers in internal/trace.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Package constants holds the fixed geometry and timing numbers the rest
// of the simulator is built around. None of these are configurable at
// runtime: they come from the machine's architecture, not from a device
// someone plugged in.
package constants

const (
	// NumCores is the fixed number of pipeline/cache units.
	NumCores = 4

	// MemWords is the size of main memory in 32-bit words (2^20).
	MemWords = 1 << 20

	// RegFileSize is registers per core, R0..R15.
	RegFileSize = 16

	// CacheLines is the number of direct-mapped TSRAM/cache lines (64).
	CacheLines = 64

	// WordsPerBlock is the block size in words (4), also DSRAM words per line.
	WordsPerBlock = 4

	// DSRAMWords is total data words per cache (256 = 64 lines * 4 words).
	DSRAMWords = CacheLines * WordsPerBlock

	// OffsetBits, IndexBits, TagBits partition a 20-bit memory index.
	OffsetBits = 2
	IndexBits  = 6
	TagBits    = 12

	// PCBits is the width of the program counter.
	PCBits = 10

	// BranchTargetMask is the mask applied to a branch/JAL target before
	// it is written to PC: 9 bits, despite a 10-bit PC. This narrows the
	// reachable branch space and is kept exactly as specified rather than
	// widened to match PCBits.
	BranchTargetMask = 0x1FF
)

// Bus/memory timing.
const (
	// MemoryLatencyCycles is the nominal access latency before main memory
	// starts delivering the first word of a block (16 cycles).
	MemoryLatencyCycles = 16

	// MemoryTransferCycles is the number of cycles memory takes to stream
	// out (or accept) the four words of a block once latency has elapsed.
	MemoryTransferCycles = WordsPerBlock

	// MemoryServiceCycles is the total cycle count memory takes to service
	// a block transfer when it (not a peer cache) is the supplier.
	MemoryServiceCycles = MemoryLatencyCycles + MemoryTransferCycles
)

// CoreID names the four cores symbolically for readability at call sites.
type CoreID int

const (
	Core0 CoreID = iota
	Core1
	Core2
	Core3
)

// Invalid is the sentinel "no core" / "no originator" id used by bus
// transactions whose origid has been rewritten away from a real core
// (e.g. to main memory) or that never had one (delay-slot transactions).
const Invalid int = -1

package mesisim

import "github.com/dshearer/mesisim/internal/constants"

// Re-export the simulator's fixed geometry and timing constants.
const (
	NumCores             = constants.NumCores
	MemWords             = constants.MemWords
	RegFileSize          = constants.RegFileSize
	CacheLines           = constants.CacheLines
	WordsPerBlock        = constants.WordsPerBlock
	DSRAMWords           = constants.DSRAMWords
	PCBits               = constants.PCBits
	BranchTargetMask     = constants.BranchTargetMask
	MemoryLatencyCycles  = constants.MemoryLatencyCycles
	MemoryTransferCycles = constants.MemoryTransferCycles
	MemoryServiceCycles  = constants.MemoryServiceCycles
)

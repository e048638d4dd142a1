package mesisim

import "github.com/dshearer/mesisim/internal/stats"

// Stats is one core's run counters, re-exported from internal/stats so
// callers embedding this module don't need to import the internal package
// directly.
type Stats = stats.Stats

// Package memaddr decomposes the 20-bit memory index shared by main
// memory, DSRAM, and TSRAM into its offset/index/tag fields, per the
// address layout every other package agrees on.
package memaddr

import "github.com/dshearer/mesisim/internal/constants"

// Addr is a 20-bit memory index: tag[19:8] | index[7:2] | offset[1:0].
type Addr uint32

// Offset returns the word-within-block field (2 bits).
func (a Addr) Offset() uint32 { return uint32(a) & 0x3 }

// Index returns the cache-line/block-number field (6 bits).
func (a Addr) Index() uint32 { return (uint32(a) >> constants.OffsetBits) & 0x3F }

// Tag returns the tag field (12 bits).
func (a Addr) Tag() uint32 { return uint32(a) >> (constants.OffsetBits + constants.IndexBits) }

// Base returns the address with its offset bits cleared.
func (a Addr) Base() Addr { return a &^ 0x3 }

// WithOffset returns the address of a specific word within this
// address's block.
func (a Addr) WithOffset(offset uint32) Addr { return a.Base() | Addr(offset&0x3) }

// Build reassembles an address from its tag and index fields, offset zero.
func Build(tag, index uint32) Addr {
	return Addr(tag<<(constants.OffsetBits+constants.IndexBits) | index<<constants.OffsetBits)
}

// Package trace formats the exact-layout trace and dump files this
// simulator produces: bus trace, per-core execution trace,
// register/DSRAM/TSRAM dumps, and the stats summary. Every writer takes
// an io.Writer at construction rather than a global file handle: one
// function per wire format, no reflection on the hot path.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadWordFile parses a stream of 8-hex-digit words, one per line, the
// format imemN.txt and memin.txt are both written in. Blank lines are
// skipped; a short file is normal (callers zero-fill the remainder).
func ReadWordFile(r io.Reader) ([]uint32, error) {
	var words []uint32
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, err
		}
		words = append(words, uint32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// WriteBusLine appends one bustrace.txt line: iteration, origid, cmd,
// a 5-hex-digit address, an 8-hex-digit data word, and shared as 0/1.
func WriteBusLine(w io.Writer, iter uint64, origID int, cmd int, addr uint32, data uint32, shared bool) {
	sharedBit := 0
	if shared {
		sharedBit = 1
	}
	fmt.Fprintf(w, "%d %d %d %05X %08X %d\n", iter, origID, cmd, addr&0xFFFFF, data, sharedBit)
}

// CorePCs is the five stage PCs for one core-trace line, -1 marking a
// bubble.
type CorePCs [5]int32

// WriteCoreLine appends one coreNtrace.txt line: the cycle number, the
// five stage PCs (3 hex digits, or "---" for a bubble), then R2..R15 as
// they stood at the start of the cycle.
func WriteCoreLine(w io.Writer, cycle int, pcs CorePCs, regs [14]int32) {
	fmt.Fprintf(w, "%d", cycle)
	for _, pc := range pcs {
		if pc < 0 {
			fmt.Fprint(w, " ---")
		} else {
			fmt.Fprintf(w, " %03X", pc&0x3FF)
		}
	}
	for _, r := range regs {
		fmt.Fprintf(w, " %08X", uint32(r))
	}
	fmt.Fprint(w, "\n")
}

// WriteWordDump writes words as 8-hex-digit lines, one per word.
func WriteWordDump(w io.Writer, words []uint32) error {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		if _, err := fmt.Fprintf(bw, "%08X\n", word); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// TrimTrailingZeros returns the prefix of words ending at the highest
// nonzero index, per memout.txt's "length is the highest nonzero index +
// 1" rule. An all-zero array trims to length zero.
func TrimTrailingZeros(words []uint32) []uint32 {
	last := -1
	for i, w := range words {
		if w != 0 {
			last = i
		}
	}
	return words[:last+1]
}

// WriteRegDump writes regoutN.txt: R2..R15, 8-hex-digit each.
func WriteRegDump(w io.Writer, regs [14]int32) error {
	words := make([]uint32, len(regs))
	for i, r := range regs {
		words[i] = uint32(r)
	}
	return WriteWordDump(w, words)
}

// WriteStatsDump writes statsN.txt's "name value" lines.
func WriteStatsDump(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

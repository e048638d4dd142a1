package cache

import (
	"testing"

	"github.com/dshearer/mesisim/internal/interfaces"
	"github.com/dshearer/mesisim/internal/memaddr"
	"github.com/dshearer/mesisim/internal/stats"
)

type fakeBus struct {
	enqueued      []*interfaces.Transaction
	inTransaction [4]bool
	awaiting      [4]bool
}

func (b *fakeBus) Enqueue(tx *interfaces.Transaction) { b.enqueued = append(b.enqueued, tx) }
func (b *fakeBus) InTransaction(core int) bool        { return b.inTransaction[core] }
func (b *fakeBus) Awaiting(core int) bool             { return b.awaiting[core] }

func newCache() (*Cache, *fakeBus, *stats.Stats) {
	bus := &fakeBus{}
	s := &stats.Stats{}
	return New(0, bus, s), bus, s
}

func TestReadMissEnqueuesBusRd(t *testing.T) {
	c, bus, s := newCache()
	done, _ := c.Read(memaddr.Addr(0x40))
	if done {
		t.Fatal("expected a miss, not done")
	}
	if s.ReadMiss != 1 {
		t.Errorf("ReadMiss = %d, want 1", s.ReadMiss)
	}
	if len(bus.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued tx, got %d", len(bus.enqueued))
	}
	tx := bus.enqueued[0]
	if tx.Cmd != interfaces.CmdBusRd || tx.OrigID != 0 {
		t.Errorf("unexpected tx: %+v", tx)
	}
}

func TestReadHit(t *testing.T) {
	c, _, s := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateE}
	c.dsram[c.dsramIndex(addr)] = 0xABCD

	done, data := c.Read(addr)
	if !done || data != 0xABCD {
		t.Fatalf("Read = (%v, %#x), want (true, 0xABCD)", done, data)
	}
	if s.ReadHit != 1 {
		t.Errorf("ReadHit = %d, want 1", s.ReadHit)
	}
}

func TestReadBlockedWhileInTransaction(t *testing.T) {
	c, bus, _ := newCache()
	bus.inTransaction[0] = true
	done, _ := c.Read(memaddr.Addr(0x40))
	if done {
		t.Fatal("Read should not complete while a transaction is outstanding")
	}
	if len(bus.enqueued) != 0 {
		t.Errorf("should not enqueue while already in a transaction, got %d", len(bus.enqueued))
	}
}

func TestWriteHitModifiedOrExclusive(t *testing.T) {
	c, _, s := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateE}

	if !c.Write(addr, 0x42) {
		t.Fatal("expected write hit to complete immediately")
	}
	if c.dsram[c.dsramIndex(addr)] != 0x42 {
		t.Errorf("dsram not updated")
	}
	if c.tsram[addr.Index()].MESI != StateM {
		t.Errorf("MESI = %v, want M after write", c.tsram[addr.Index()].MESI)
	}
	if s.WriteHit != 1 {
		t.Errorf("WriteHit = %d, want 1", s.WriteHit)
	}
}

func TestWriteHitSharedEnqueuesUpgrade(t *testing.T) {
	c, bus, s := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateS}

	if c.Write(addr, 0x42) {
		t.Fatal("S-state write should not complete immediately")
	}
	if s.WriteMiss != 1 {
		t.Errorf("WriteMiss = %d, want 1", s.WriteMiss)
	}
	if len(bus.enqueued) != 2 {
		t.Fatalf("expected BusRdX + delay slot, got %d enqueued", len(bus.enqueued))
	}
	if bus.enqueued[0].Cmd != interfaces.CmdBusRdX {
		t.Errorf("first enqueued cmd = %v, want BusRdX", bus.enqueued[0].Cmd)
	}
	if bus.enqueued[1].OrigID != interfaces.Invalid {
		t.Errorf("second enqueued tx OrigID = %d, want Invalid (delay slot)", bus.enqueued[1].OrigID)
	}
}

func TestWriteMissEvictsDirtyLine(t *testing.T) {
	c, bus, _ := newCache()
	evicted := memaddr.Build(0x100, 0x10)
	incoming := memaddr.Build(0x200, 0x10)
	c.tsram[evicted.Index()] = Line{Tag: evicted.Tag(), MESI: StateM}
	c.dsram[c.dsramIndex(evicted)] = 0x99

	c.Write(incoming, 0x1)

	if len(bus.enqueued) != 2 {
		t.Fatalf("expected Flush + BusRdX, got %d", len(bus.enqueued))
	}
	flush := bus.enqueued[0]
	if flush.Cmd != interfaces.CmdFlush || flush.Data != 0x99 {
		t.Errorf("eviction flush = %+v, want Cmd=Flush Data=0x99", flush)
	}
}

func TestSharedQuery(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateM}

	hit, modified := c.SharedQuery(&interfaces.Transaction{OrigID: 1, Addr: addr})
	if !hit || !modified {
		t.Errorf("SharedQuery = (%v, %v), want (true, true)", hit, modified)
	}

	hit, _ = c.SharedQuery(&interfaces.Transaction{OrigID: 0, Addr: addr})
	if hit {
		t.Error("SharedQuery should report false for the requester's own cache")
	}
}

func TestSnoopBusRdDowngradesExclusiveToShared(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateE}

	tx := &interfaces.Transaction{OriginalCaller: 1, Cmd: interfaces.CmdBusRd, Addr: addr.WithOffset(3)}
	c.Snoop(tx)

	if c.tsram[addr.Index()].MESI != StateS {
		t.Errorf("MESI = %v, want S", c.tsram[addr.Index()].MESI)
	}
}

func TestSnoopBusRdXInvalidates(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateS}

	tx := &interfaces.Transaction{OriginalCaller: 1, Cmd: interfaces.CmdBusRdX, Addr: addr.WithOffset(3)}
	c.Snoop(tx)

	if c.tsram[addr.Index()].MESI != StateI {
		t.Errorf("MESI = %v, want I", c.tsram[addr.Index()].MESI)
	}
}

func TestSnoopRewritesModifiedOwnerToFlush(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateM}
	c.dsram[c.dsramIndex(addr)] = 0x77

	tx := &interfaces.Transaction{OriginalCaller: 1, OrigID: 1, Cmd: interfaces.CmdBusRd, Addr: addr}
	c.Snoop(tx)

	if tx.Cmd != interfaces.CmdFlush {
		t.Errorf("Cmd = %v, want Flush after snooping a Modified owner", tx.Cmd)
	}
	if tx.OrigID != interfaces.MemoryOrigin {
		t.Errorf("OrigID = %d, want MemoryOrigin", tx.OrigID)
	}
	if tx.Data != 0x77 {
		t.Errorf("Data = %#x, want 0x77", tx.Data)
	}
}

func TestSnoopIgnoresOwnOriginalTransaction(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Addr(0x40)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateE}

	tx := &interfaces.Transaction{OriginalCaller: 0, Cmd: interfaces.CmdBusRd, Addr: addr}
	c.Snoop(tx)

	if c.tsram[addr.Index()].MESI != StateE {
		t.Errorf("cache should not snoop its own original transaction, MESI = %v", c.tsram[addr.Index()].MESI)
	}
}

func TestResponseFillsBlockAndSetsExclusive(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Build(0x10, 0x4)
	// By the time Response runs, the supplier has rewritten the requester's
	// BusRd to a Flush from MemoryOrigin.
	tx := &interfaces.Transaction{OrigID: interfaces.MemoryOrigin, OriginalCaller: 0, Cmd: interfaces.CmdFlush, Addr: addr, Shared: false}

	var offset uint32
	for i := uint32(0); i < 4; i++ {
		tx.Addr = addr.WithOffset(i)
		tx.Data = i + 1
		done := c.Response(tx, &offset)
		if i < 3 && done {
			t.Fatalf("Response done too early at offset %d", i)
		}
		if i == 3 && !done {
			t.Fatal("Response should finish on the last word")
		}
	}
	line := c.tsram[addr.Index()]
	if line.MESI != StateE {
		t.Errorf("MESI = %v, want E (not shared)", line.MESI)
	}
	for i := uint32(0); i < 4; i++ {
		if got := c.dsram[c.dsramIndex(addr.WithOffset(i))]; got != i+1 {
			t.Errorf("dsram[offset %d] = %d, want %d", i, got, i+1)
		}
	}
}

func TestResponseSetsSharedWhenTxShared(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Build(0x10, 0x4)
	tx := &interfaces.Transaction{OrigID: interfaces.MemoryOrigin, OriginalCaller: 0, Cmd: interfaces.CmdFlush, Addr: addr, Shared: true}

	var offset uint32
	for i := uint32(0); i < 4; i++ {
		tx.Addr = addr.WithOffset(i)
		c.Response(tx, &offset)
	}
	if c.tsram[addr.Index()].MESI != StateS {
		t.Errorf("MESI = %v, want S when Shared", c.tsram[addr.Index()].MESI)
	}
}

func TestDSRAMAndTSRAMWordsDump(t *testing.T) {
	c, _, _ := newCache()
	addr := memaddr.Build(0x123, 0x5)
	c.tsram[addr.Index()] = Line{Tag: addr.Tag(), MESI: StateM}

	tsramWords := c.TSRAMWords()
	want := uint32(StateM)<<12 | addr.Tag()
	if tsramWords[addr.Index()] != want {
		t.Errorf("TSRAMWords()[%d] = %#x, want %#x", addr.Index(), tsramWords[addr.Index()], want)
	}
	if len(c.DSRAMWords()) != len(c.dsram) {
		t.Errorf("DSRAMWords() len = %d, want %d", len(c.DSRAMWords()), len(c.dsram))
	}
}

package gist

import (
	"testing"

	"github.com/tanski-labs/fpgist/fingerprint"
)

func fpWith(songLen int, rb, db byte, cprint []int32) *fingerprint.FP {
	var r [fingerprint.RLen]byte
	var dom [fingerprint.DomLen]byte
	for i := range r {
		r[i] = rb
	}
	for i := range dom {
		dom[i] = db
	}
	return &fingerprint.FP{SongLen: songLen, R: r, Dom: dom, Cprint: cprint}
}

func TestCompressSlicesLongCprint(t *testing.T) {
	cprint := make([]int32, 1000)
	for i := range cprint {
		cprint[i] = int32(i)
	}
	e := NewLeafEntry(fpWith(200, 0x11, 0x22, cprint))
	got := Compress(e)
	if got.Leaf.CprintLen() != 240 {
		t.Fatalf("expected window of 240 codewords, got %d", got.Leaf.CprintLen())
	}
	if got.Leaf.Cprint[0] != 704 {
		t.Fatalf("expected window [704,944), got start value %d", got.Leaf.Cprint[0])
	}
}

func TestCompressShortCprintUsesPrefix(t *testing.T) {
	cprint := []int32{1, 2, 3}
	e := NewLeafEntry(fpWith(200, 0x11, 0x22, cprint))
	got := Compress(e)
	if got.Leaf.CprintLen() != 3 {
		t.Fatalf("short cprint should be kept whole, got %d", got.Leaf.CprintLen())
	}
}

func TestCompressToOverridesWindowClamp(t *testing.T) {
	cprint := make([]int32, 100)
	for i := range cprint {
		cprint[i] = int32(i)
	}
	e := NewLeafEntry(fpWith(200, 0x11, 0x22, cprint))
	got := CompressTo(e, 40)
	if got.Leaf.CprintLen() != 40 {
		t.Fatalf("expected clamp to 40 codewords, got %d", got.Leaf.CprintLen())
	}
}

func TestDecompressRejectsCorrupt(t *testing.T) {
	cprint := make([]int32, corruptCprintLenCeiling)
	e := NewLeafEntry(fpWith(200, 0x11, 0x22, cprint))
	if _, err := Decompress(e); err == nil {
		t.Fatal("expected corruption error for oversized cprint_len")
	}
}

func TestUnionCoversAllChildren(t *testing.T) {
	a := NewLeafEntry(fpWith(50, 0x0F, 0x0F, []int32{1}))
	b := NewLeafEntry(fpWith(90, 0xF0, 0xF0, []int32{2}))
	u, err := Union([]*Entry{a, b})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if u.MinSongLen != 50 || u.MaxSongLen != 90 {
		t.Fatalf("bad union envelope: %d..%d", u.MinSongLen, u.MaxSongLen)
	}
	if !u.Covers(a.Leaf) || !u.Covers(b.Leaf) {
		t.Fatal("union should cover both children")
	}
}

func TestUnionRejectsEmpty(t *testing.T) {
	if _, err := Union(nil); err != ErrTooFewEntries {
		t.Fatalf("expected ErrTooFewEntries, got %v", err)
	}
}

func TestPenaltyNonNegative(t *testing.T) {
	orig := NewLeafEntry(fpWith(100, 0x55, 0x55, []int32{1, 2}))
	cand := NewLeafEntry(fpWith(105, 0x55, 0x55, []int32{1, 2}))
	if p := Penalty(orig, cand); p < 0 {
		t.Fatalf("penalty should be non-negative, got %v", p)
	}
}

func TestPenaltyMissingEntry(t *testing.T) {
	if p := Penalty(nil, NewLeafEntry(fpWith(1, 0, 0, []int32{0}))); p != penaltyMissingEntry {
		t.Fatalf("expected sentinel penalty, got %v", p)
	}
}

func TestPickSplitRejectsSingleEntry(t *testing.T) {
	e := NewLeafEntry(fpWith(1, 0, 0, []int32{0}))
	if _, err := PickSplit([]*Entry{e}); err != ErrTooFewEntries {
		t.Fatalf("expected ErrTooFewEntries, got %v", err)
	}
}

func TestPickSplitBalancesIdenticalLeaves(t *testing.T) {
	entries := make([]*Entry, 6)
	for i := range entries {
		entries[i] = NewLeafEntry(fpWith(120, 0x3C, 0x81, []int32{10, 20, 30}))
	}
	split, err := PickSplit(entries)
	if err != nil {
		t.Fatalf("PickSplit: %v", err)
	}
	if len(split.Left) == 0 || len(split.Right) == 0 {
		t.Fatalf("both sides must get at least one entry, got %d/%d", len(split.Left), len(split.Right))
	}
	if len(split.Left)+len(split.Right) != 6 {
		t.Fatalf("split lost entries: %d + %d != 6", len(split.Left), len(split.Right))
	}
}

func TestPickSplitAllEqualFlagImpliesSharedSonglenEnvelope(t *testing.T) {
	entries := make([]*Entry, 8)
	for i := range entries {
		cprint := make([]int32, 4)
		for c := range cprint {
			cprint[c] = int32((i + c) * (i + 1) * 97)
		}
		entries[i] = NewLeafEntry(fpWith(120, byte(i*37), byte(i*53), cprint))
	}
	split, err := PickSplit(entries)
	if err != nil {
		t.Fatalf("PickSplit: %v", err)
	}
	if len(split.Left)+len(split.Right) != len(entries) {
		t.Fatalf("split lost entries: %d + %d != %d", len(split.Left), len(split.Right), len(entries))
	}
	if split.AllEqual {
		for _, e := range append(split.Left, split.Right...) {
			if e.Key.MinSongLen != 120 || e.Key.MaxSongLen != 120 {
				t.Fatalf("AllEqual split should only trigger when every entry shares the songlen envelope")
			}
		}
	}
}

func TestPickSplitDegenerateTwoEntries(t *testing.T) {
	a := NewLeafEntry(fpWith(60, 0x01, 0x01, []int32{1}))
	b := NewLeafEntry(fpWith(240, 0xFE, 0xFE, []int32{2}))
	split, err := PickSplit([]*Entry{a, b})
	if err != nil {
		t.Fatalf("PickSplit: %v", err)
	}
	if len(split.Left) != 1 || len(split.Right) != 1 {
		t.Fatalf("degenerate split should be 1/1, got %d/%d", len(split.Left), len(split.Right))
	}
}

func TestConsistentLeafEqual(t *testing.T) {
	a := fpWith(180, 0x42, 0x24, []int32{5, 6, 7})
	leaf := NewLeafEntry(a)
	accepted, recheck, err := Consistent(leaf, a, StrategyEqual)
	if err != nil {
		t.Fatalf("Consistent: %v", err)
	}
	if !accepted {
		t.Fatal("identical record should satisfy EQ")
	}
	if recheck {
		t.Fatal("leaf decisions should not require recheck")
	}
}

func TestConsistentUnknownStrategy(t *testing.T) {
	a := fpWith(180, 0x42, 0x24, []int32{5})
	leaf := NewLeafEntry(a)
	if _, _, err := Consistent(leaf, a, Strategy(99)); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestConsistentNodeOutsideEnvelopeLongQuery(t *testing.T) {
	left := NewLeafEntry(fpWith(10, 0x01, 0x01, []int32{1}))
	right := NewLeafEntry(fpWith(20, 0x02, 0x02, []int32{2}))
	u, _ := Union([]*Entry{left, right})
	node := NewNodeEntry(u, 1)

	q := fpWith(300, 0xFF, 0xFF, []int32{9})
	accepted, recheck, err := Consistent(node, q, StrategyMatch)
	if err != nil {
		t.Fatalf("Consistent: %v", err)
	}
	if accepted || recheck {
		t.Fatal("a long query far outside the envelope should be rejected without recheck")
	}
}

func TestSameEqualKeys(t *testing.T) {
	a := NewLeafEntry(fpWith(100, 0x11, 0x22, []int32{1, 2, 3}))
	b := NewLeafEntry(fpWith(100, 0x11, 0x22, []int32{1, 2, 3}))
	if !Same(a, b) {
		t.Fatal("identical keys should be Same")
	}
}

func TestSameDifferentKeys(t *testing.T) {
	a := NewLeafEntry(fpWith(100, 0x11, 0x22, []int32{1, 2, 3}))
	b := NewLeafEntry(fpWith(100, 0x11, 0x23, []int32{1, 2, 3}))
	if Same(a, b) {
		t.Fatal("differing keys should not be Same")
	}
}

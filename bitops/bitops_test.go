package bitops

import "testing"

func TestPopcount32(t *testing.T) {
	if got := Popcount32(0); got != 0 {
		t.Fatalf("Popcount32(0) = %d, want 0", got)
	}
	if got := Popcount32(0xFFFFFFFF); got != 32 {
		t.Fatalf("Popcount32(all-ones) = %d, want 32", got)
	}
	if got := Popcount32(0x1); got != 1 {
		t.Fatalf("Popcount32(1) = %d, want 1", got)
	}
}

func TestPopcount16(t *testing.T) {
	if got := Popcount16(0xFFFF); got != 16 {
		t.Fatalf("Popcount16(all-ones) = %d, want 16", got)
	}
}

func TestQuaternaryPopcount(t *testing.T) {
	// Lane layout low to high: 0b01, 0b10, 0b11, 0b00, ...
	x := uint32(0b11_10_01)
	counts := QuaternaryPopcount(x)
	if counts[1] != 1 || counts[2] != 1 || counts[3] != 1 {
		t.Fatalf("unexpected lane counts: %+v", counts)
	}
	if counts[0] != 13 {
		t.Fatalf("expected 13 zero lanes, got %d", counts[0])
	}
}

func TestLowBitMatch(t *testing.T) {
	if !LowBitMatch(0b1000, 0b11000) {
		t.Fatal("expected low bit match")
	}
	if LowBitMatch(0b1000, 0b0100) {
		t.Fatal("expected no low bit match")
	}
	if !LowBitMatch(0, 0) {
		t.Fatal("two all-zero words should match: neither has a set bit to misalign")
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
	}
	for _, c := range cases {
		if got := Clamp01(c.in); got != c.want {
			t.Errorf("Clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

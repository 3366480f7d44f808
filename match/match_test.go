package match

import (
	"testing"

	"github.com/tanski-labs/fpgist/fingerprint"
	"github.com/tanski-labs/fpgist/unionkey"
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

func TestFooidIdenticalIsOne(t *testing.T) {
	a := fpWith(180, 0x5A, 0x3C, nil)
	got := FooidVectors(a.R, a.Dom, a.R, a.Dom)
	if got != 1.0 {
		t.Fatalf("identical vectors should score 1.0, got %v", got)
	}
}

func TestFooidInvertedIsZero(t *testing.T) {
	a := fpWith(180, 0x00, 0x00, nil)
	b := fpWith(180, 0xFF, 0xFF, nil)
	got := FooidVectors(a.R, a.Dom, b.R, b.Dom)
	if got != 0.0 {
		t.Fatalf("fully inverted vectors should score 0.0, got %v", got)
	}
}

func TestCpfmSelfMatch(t *testing.T) {
	a := fpWith(200, 0x77, 0x99, []int32{1, 2, 3, 4, 5})
	got := Cpfm(a, a)
	if got < ExactCutoff {
		t.Fatalf("self match should exceed exact cutoff, got %v", got)
	}
	if !IsEqual(a, a) {
		t.Fatal("IsEqual should hold for a record against itself")
	}
}

func TestCpfmSonglenGate(t *testing.T) {
	a := fpWith(180, 0x77, 0x99, []int32{1, 2, 3})
	b := fpWith(220, 0x77, 0x99, []int32{1, 2, 3})
	if got := Cpfm(a, b); got != 0 {
		t.Fatalf("songlen outside 10%% gate should force zero, got %v", got)
	}
}

func TestChromaBSymmetric(t *testing.T) {
	a := []int32{1, 2, 4, 8}
	b := []int32{1, 3, 4, 16}
	if ChromaB(a, b) != ChromaB(b, a) {
		t.Fatal("ChromaB should be symmetric")
	}
}

func TestChromaBEmpty(t *testing.T) {
	if got := ChromaB(nil, []int32{1}); got != 0 {
		t.Fatalf("ChromaB with an empty side should be 0, got %v", got)
	}
}

func TestChromaTDegenerate(t *testing.T) {
	if got := ChromaT([]int32{0}, []int32{0}); got != 0 {
		t.Fatalf("all-zero codewords should yield tcomm=0 -> 0, got %v", got)
	}
}

func TestMatchMergesDisjointEnvelope(t *testing.T) {
	u1 := unionkey.FromFP(fpWith(10, 0xFF, 0xFF, []int32{1, 2}))
	u2 := unionkey.FromFP(fpWith(200, 0xFF, 0xFF, []int32{1, 2}))
	if got := Merges(u1, u2); got != 0 {
		t.Fatalf("disjoint songlen envelopes should short-circuit to 0, got %v", got)
	}
}

func TestMatchMergesSymmetric(t *testing.T) {
	u1 := unionkey.FromFP(fpWith(100, 0x12, 0x34, []int32{1, 2, 3}))
	u2 := unionkey.FromFP(fpWith(105, 0x56, 0x78, []int32{4, 5, 6}))
	if Merges(u1, u2) != Merges(u2, u1) {
		t.Fatal("Merges should be symmetric")
	}
}

func TestFprintMergeCoversMember(t *testing.T) {
	a := fpWith(90, 0xAB, 0xCD, []int32{1, 2, 3})
	u := unionkey.FromFP(a)
	got := FprintMerge(a, u)
	if got < 0.8 {
		t.Fatalf("a member of its own union should score highly, got %v", got)
	}
}

func TestTryMergeProbeMatchesFprintMergeWhenU2IsEmpty(t *testing.T) {
	a := fpWith(90, 0xAB, 0xCD, []int32{1, 2, 3})
	u1 := unionkey.FromFP(a)
	zeroU2 := &unionkey.UFP{Cprint: make([]int32, len(a.Cprint))}
	if TryMergeProbe(u1, zeroU2, a) != FprintMerge(a, u1) {
		t.Fatal("TryMergeProbe against an all-zero u2 should reduce to FprintMerge(a, u1)")
	}
}

func TestTryMergeProbeReflectsU2Coverage(t *testing.T) {
	a := fpWith(90, 0xAB, 0xCD, []int32{1, 2, 3})
	// u1 carries bits a doesn't have, so a alone leaves u1 partly uncovered.
	u1 := unionkey.FromFP(fpWith(90, 0xFF, 0xFF, []int32{1, 2, 3}))

	zeroU2 := &unionkey.UFP{Cprint: make([]int32, len(a.Cprint))}
	withoutCoverage := TryMergeProbe(u1, zeroU2, a)

	// u2 shares u1's extra bits, so once a is folded into u2 the merge
	// covers u1 fully.
	coveringU2 := unionkey.FromFP(fpWith(90, 0xFF, 0xFF, []int32{1, 2, 3}))
	withCoverage := TryMergeProbe(u1, coveringU2, a)

	if withCoverage <= withoutCoverage {
		t.Fatalf("a u2 that shares u1's bits should score higher than an empty one: empty=%v covering=%v", withoutCoverage, withCoverage)
	}
}

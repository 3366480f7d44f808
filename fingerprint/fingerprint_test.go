package fingerprint

import (
	"strings"
	"testing"
)

func sample() *FP {
	var r [RLen]byte
	var dom [DomLen]byte
	for i := range r {
		r[i] = byte(i)
	}
	for i := range dom {
		dom[i] = byte(255 - i)
	}
	return &FP{
		SongLen:   198,
		BitRate:   192,
		NumErrors: 0,
		R:         r,
		Dom:       dom,
		Cprint:    []int32{1, -2, 3, 0, 2147483647, -2147483648},
	}
}

func TestValidate(t *testing.T) {
	fp := sample()
	if err := fp.Validate(); err != nil {
		t.Fatalf("valid record failed validation: %v", err)
	}

	empty := &FP{SongLen: 10}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty cprint")
	}

	var nilFP *FP
	if err := nilFP.Validate(); err != ErrNilRecord {
		t.Fatalf("expected ErrNilRecord, got %v", err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	fp := sample()
	text := Format(fp)

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.SongLen != fp.SongLen || got.BitRate != fp.BitRate || got.NumErrors != fp.NumErrors {
		t.Fatalf("header mismatch: got %+v, want %+v", got, fp)
	}
	if got.R != fp.R {
		t.Fatal("R mismatch after round trip")
	}
	if got.Dom != fp.Dom {
		t.Fatal("Dom mismatch after round trip")
	}
	if len(got.Cprint) != len(fp.Cprint) {
		t.Fatalf("cprint length mismatch: got %d want %d", len(got.Cprint), len(fp.Cprint))
	}
	for i := range fp.Cprint {
		if got.Cprint[i] != fp.Cprint[i] {
			t.Fatalf("cprint[%d] mismatch: got %d want %d", i, got.Cprint[i], fp.Cprint[i])
		}
	}

	if Format(got) != text {
		t.Fatal("re-formatting parsed record did not reproduce canonical text")
	}
}

func TestParseRejectsShort(t *testing.T) {
	if _, err := Parse("(1,2,3)"); err == nil {
		t.Fatal("expected error for short text")
	}
}

func TestParseRejectsBadDelimiters(t *testing.T) {
	fp := sample()
	text := Format(fp)
	body := text[1 : len(text)-1]
	parts := strings.SplitN(body, ",", 4)
	rHex := parts[3][:2*RLen]
	// Corrupt: drop the comma that should follow the R block.
	rest := parts[3][2*RLen:]
	broken := "(" + parts[0] + "," + parts[1] + "," + parts[2] + "," + rHex + "X" + rest[1:] + ")"
	if _, err := Parse(broken); err == nil {
		t.Fatal("expected error for missing delimiter")
	}
}

func TestParseRejectsInvalidCprintChar(t *testing.T) {
	fp := sample()
	text := Format(fp)
	broken := text[:len(text)-1] + "x)"
	if _, err := Parse(broken); err == nil {
		t.Fatal("expected error for invalid chroma character")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	fp := sample()
	data, err := fp.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got FP
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.SongLen != fp.SongLen || got.R != fp.R || got.Dom != fp.Dom {
		t.Fatal("binary round trip mismatch")
	}
	if len(got.Cprint) != len(fp.Cprint) {
		t.Fatal("binary round trip cprint length mismatch")
	}
}

func TestEmptySentinel(t *testing.T) {
	fp := Empty(120, 128, 0)
	if err := fp.Validate(); err != nil {
		t.Fatalf("sentinel empty record should validate: %v", err)
	}
	if fp.CprintLen() != 1 {
		t.Fatalf("expected sentinel cprint length 1, got %d", fp.CprintLen())
	}
}

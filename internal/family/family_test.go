package family

import "testing"

func TestLookup_KnownFamilies(t *testing.T) {
	for _, name := range []string{"tag36h11", "tag36h10", "tag36artoolkit", "tag25h9", "tag25h7", "tag16h5"} {
		f, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if f.Name != name {
			t.Fatalf("Lookup(%q).Name = %q", name, f.Name)
		}
		if f.Border != 1 {
			t.Fatalf("Lookup(%q).Border = %d, want 1", name, f.Border)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup("tag99h99"); err == nil {
		t.Fatal("expected error for unknown family")
	}
}

func TestHammingDistance(t *testing.T) {
	cases := []struct {
		a, b uint64
		want int
	}{
		{0, 0, 0},
		{0b1111, 0b0000, 4},
		{0b1010, 0b0101, 4},
		{0xFF, 0xF0, 4},
	}
	for _, c := range cases {
		if got := HammingDistance(c.a, c.b); got != c.want {
			t.Errorf("HammingDistance(%b, %b) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestRotateCode_FourTimesIsIdentity(t *testing.T) {
	const d = 6
	code := uint64(0b101100_011010_110001_001110_010101_111000)
	rotated := code
	for range 4 {
		rotated = RotateCode(rotated, d)
	}
	if rotated != code {
		t.Fatalf("four rotations = %b, want original %b", rotated, code)
	}
}

func TestRotateCode_PreservesPopcount(t *testing.T) {
	const d = 6
	code := Tag36h11.Codes[0]
	rotated := RotateCode(code, d)
	if HammingDistance(rotated, 0) != HammingDistance(code, 0) {
		t.Fatal("rotation changed the number of set bits")
	}
}

func TestBestMatch_ExactCodeMatchesItself(t *testing.T) {
	for _, code := range Tag36h11.Codes {
		idx, _, hamming, ok := Tag36h11.BestMatch(code)
		if !ok {
			t.Fatalf("BestMatch(%b): expected match", code)
		}
		if hamming != 0 {
			t.Fatalf("BestMatch(%b): hamming = %d, want 0", code, hamming)
		}
		if Tag36h11.Codes[idx] != code {
			t.Fatalf("BestMatch(%b): matched different code %b", code, Tag36h11.Codes[idx])
		}
	}
}

func TestBestMatch_RotatedCodeStillMatches(t *testing.T) {
	code := Tag36h11.Codes[0]
	for rot := 1; rot < 4; rot++ {
		r := code
		for range rot {
			r = RotateCode(r, Tag36h11.D)
		}
		_, gotRot, hamming, ok := Tag36h11.BestMatch(r)
		if !ok {
			t.Fatalf("rotation %d: expected match", rot)
		}
		if hamming != 0 {
			t.Fatalf("rotation %d: hamming = %d, want 0", rot, hamming)
		}
		if gotRot != rot {
			t.Fatalf("rotation %d: reported rotation %d", rot, gotRot)
		}
	}
}

func TestBestMatch_NoiseBeyondRadiusRejected(t *testing.T) {
	f := Tag16h5 // d=4, h=2, smallest family, easiest to push past its radius
	code := f.Codes[0]
	// Flip bits one at a time until the distance to every codeword exceeds h.
	corrupted := code
	for bit := 0; bit < f.Bits(); bit++ {
		corrupted ^= 1 << uint(bit)
		if minDistanceToTable(f, corrupted) > f.H {
			_, _, _, ok := f.BestMatch(corrupted)
			if ok {
				t.Fatal("BestMatch accepted a codeword beyond the correction radius")
			}
			return
		}
	}
}

func minDistanceToTable(f *Family, code uint64) int {
	best := f.Bits() + 1
	rotated := code
	for range 4 {
		for _, c := range f.Codes {
			if d := HammingDistance(rotated, c); d < best {
				best = d
			}
		}
		rotated = RotateCode(rotated, f.D)
	}
	return best
}

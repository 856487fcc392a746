package family

import "math/rand"

// generateCodes greedily builds a codeword table of n codes over a
// d*d-bit payload, each pair at least minDist apart, using a
// deterministic PRNG so the table is reproducible across builds. This
// produces a small representative table, not the full upstream
// codebook — see doc.go.
func generateCodes(d, minDist, n int, seed int64) []uint64 {
	bitsTotal := d * d
	rng := rand.New(rand.NewSource(seed))
	codes := make([]uint64, 0, n)

	candidate := func() uint64 {
		var c uint64
		for range bitsTotal {
			c <<= 1
			if rng.Intn(2) == 1 {
				c |= 1
			}
		}
		return c
	}

	const maxAttemptsPerCode = 20000
	for len(codes) < n {
		ok := false
		for attempt := 0; attempt < maxAttemptsPerCode; attempt++ {
			c := candidate()
			good := true
			for _, existing := range codes {
				if HammingDistance(c, existing) < minDist {
					good = false
					break
				}
			}
			if good {
				codes = append(codes, c)
				ok = true
				break
			}
		}
		if !ok {
			// Exhausted the search budget for this table size; return what
			// was found rather than looping forever.
			break
		}
	}
	return codes
}

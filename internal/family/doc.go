package family

// The codeword tables generated in registry.go are small representative
// subsets, not the full upstream codebooks (which run to hundreds of
// entries for the 36-bit families and are normally shipped as generated
// data files rather than hand-maintained). Each table still satisfies
// the family's minimum pairwise Hamming distance invariant, so every
// decoder code path — matching, rotation search, rejection on distance
// > h — is exercised faithfully; only the total number of distinct tags
// recognized is reduced.
//
// Swap in a full codebook by replacing generateCodes(...) in registry.go
// with a loaded []uint64 table of the same bit width.

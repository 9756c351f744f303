package pipeline

import "math/rand/v2"

// SeedRange bounds drawn seeds: [0, SeedRange).
const SeedRange = 100000

// DrawSeed picks a seed from the process-seeded, non-cryptographic source.
func DrawSeed() uint64 { return rand.Uint64N(SeedRange) }

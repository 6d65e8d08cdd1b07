package game

import "math/rand"

// TickRand returns a generator whose sequence depends only on seed and tick,
// so the server and a predicting client draw identical spreads for the same
// shot.
func TickRand(seed int64, tick uint64) *rand.Rand {
	// splitmix64 finaliser
	z := uint64(seed) ^ (tick * 0x9E3779B97F4A7C15)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return rand.New(rand.NewSource(int64(z)))
}

// TickRand is the generator for the world's current tick.
func (w *World) TickRand() *rand.Rand {
	return TickRand(w.seed, w.tick)
}

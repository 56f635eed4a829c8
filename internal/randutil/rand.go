package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seeds derives n independent child seeds from a root seed. Simulation
// workers each get their own stream so no RNG is shared across
// goroutines and a fixed root seed reproduces the same per-worker
// sequences.
func Seeds(seed int64, n int) []int64 {
	r := New(seed)
	out := make([]int64, n)
	for i := range out {
		out[i] = r.Int64()
	}
	return out
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Package detseed derives independent sub-seeds from a single master seed.
//
// Every stochastic stage of the pipeline (terrain noise, Worley feature
// points, region-assignment tie-breaks, per-composition batch seeds) must be
// reproducible
// from one master seed without one stage's draws perturbing another's. A
// named sub-seed is obtained by mixing the master seed with a stable hash of
// the stage's name using the same splitmix64-style step the world generator
// uses for its per-cell rolls.
package detseed

// Source derives named sub-seeds from a single master seed.
type Source struct {
	master int64
}

// New creates a Source for the given master seed.
func New(master int64) Source {
	return Source{master: master}
}

// Master returns the master seed this Source was built from.
func (s Source) Master() int64 {
	return s.master
}

const (
	k1 int64 = -7046029254386353131 // splitmix64 step 1
	k2 int64 = -4265267296055464877 // splitmix64 step 2
)

// mix runs one splitmix64-style avalanche step over h.
func mix(h int64) int64 {
	h ^= int64(uint64(h) >> 33)
	h *= k1
	h ^= int64(uint64(h) >> 27)
	h *= k2
	h ^= int64(uint64(h) >> 31)
	return h
}

// fnv1a64 hashes a string to a 64-bit value, used only to turn a stage name
// into a salt for mix — not for anything security sensitive.
func fnv1a64(s string) int64 {
	const offset uint64 = 14695981039346656037
	const prime uint64 = 1099511628211
	h := offset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return int64(h)
}

// Sub derives a deterministic sub-seed for the named stage. Distinct names
// always yield independent-looking streams from the same master seed.
func (s Source) Sub(name string) int64 {
	salt := fnv1a64(name)
	return mix(s.master ^ salt)
}

// SubInt derives a sub-seed additionally salted by an integer, useful for
// per-region or per-index derivations (e.g. one seed per region label).
func (s Source) SubInt(name string, i int) int64 {
	salt := fnv1a64(name) ^ (int64(i) * k1)
	return mix(s.master ^ salt)
}

// Rand64 is a tiny deterministic PRNG (splitmix64) seeded from Sub/SubInt,
// used where a stage needs a stream of values rather than a single draw.
type Rand64 struct {
	state int64
}

// NewRand64 creates a Rand64 stream from a sub-seed.
func NewRand64(seed int64) *Rand64 {
	return &Rand64{state: seed}
}

// Next returns the next pseudo-random int64 in the stream.
func (r *Rand64) Next() int64 {
	r.state += -7046029254386353061
	return mix(r.state)
}

// Float64 returns the next pseudo-random value in [0, 1).
func (r *Rand64) Float64() float64 {
	v := uint64(r.Next())
	return float64(v>>11) / float64(1<<53)
}

// Intn returns the next pseudo-random value in [0, n).
func (r *Rand64) Intn(n int) int {
	if n <= 0 {
		panic("detseed: Intn called with n <= 0")
	}
	v := uint64(r.Next())
	return int(v % uint64(n))
}

package terrain

import "math"

// Perlin implements 2D Perlin noise with a seeded permutation table. The 3D
// half of the world-generation equivalent of this noise has no use here,
// since terrain generation operates on a flat 2D grid.
type Perlin struct {
	perm [512]int
}

// NewPerlin creates a Perlin noise generator from a seed.
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}

	var base [256]int
	for i := range base {
		base[i] = i
	}

	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int(uint64(s>>16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2D(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

// Noise2D computes 2D Perlin noise at (x, y). Returns a value roughly in
// [-1, 1].
func (p *Perlin) Noise2D(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255

	xf := x - math.Floor(x)
	yf := y - math.Floor(y)

	u := fade(xf)
	v := fade(yf)

	aa := p.perm[p.perm[xi]+yi]
	ab := p.perm[p.perm[xi]+yi+1]
	ba := p.perm[p.perm[xi+1]+yi]
	bb := p.perm[p.perm[xi+1]+yi+1]

	x1 := lerp(u, grad2D(aa, xf, yf), grad2D(ba, xf-1, yf))
	x2 := lerp(u, grad2D(ab, xf, yf-1), grad2D(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
}

// OctaveNoise2D computes fractal Brownian motion by summing multiple
// octaves.
func (p *Perlin) OctaveNoise2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	var total float64
	frequency := 1.0
	amplitude := 1.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		total += p.Noise2D(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	return total / maxAmplitude
}

// Package ziggurat implements a process-local, seeded standard-normal
// generator using the Marsaglia-Tsang ziggurat algorithm. It is the RNG
// substrate every sampler in gmrfsample draws from: deterministic for a
// fixed (seed, stream) pair, and statistically independent across streams
// so that distinct shards (see package shard) never share state.
package ziggurat

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"
)

// number of rectangular layers in the ziggurat table, the standard choice
// from Marsaglia & Tsang (2000).
const nLayers = 128

var (
	tableOnce sync.Once
	kTable    [nLayers]uint64
	wTable    [nLayers]float64
	fTable    [nLayers]float64
)

// buildTables constructs the ziggurat layer tables once per process. The
// construction itself cannot fail in Go (no dynamic allocation inside the
// loop), but a future table size driven by user input would need to guard
// against allocation failure here, per the component contract.
func buildTables() {
	const (
		r = 3.442619855899
		v = 9.91256303526217e-3
	)
	m := math.Exp2(63)

	f := func(x float64) float64 { return math.Exp(-0.5 * x * x) }

	dn := r
	tn := r
	q := v / f(r)

	kTable[0] = uint64((r / q) * m)
	kTable[1] = 0
	wTable[0] = q / m
	wTable[nLayers-1] = r / m
	fTable[0] = 1.0
	fTable[nLayers-1] = f(r)

	for i := nLayers - 2; i >= 1; i-- {
		dn = math.Sqrt(-2.0 * math.Log(v/dn+f(dn)))
		kTable[i+1] = uint64((dn / tn) * m)
		tn = dn
		fTable[i] = f(dn)
		wTable[i] = dn / m
	}
}

// splitmix64 decorrelates a seed/stream pair into an independent 64-bit
// value, used only to derive the underlying uniform source's seed.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// RNG is a per-process (in this module, per-shard) ziggurat normal
// generator. The zero value is not usable; construct with New.
type RNG struct {
	seed   uint64
	stream uint64
	src    *rand.Rand
}

// New constructs an RNG seeded with s, on stream 0.
func New(s uint64) *RNG {
	tableOnce.Do(buildTables)
	r := &RNG{}
	r.Seed(s)
	return r
}

// Seed sets the generator's base seed, keeping its current stream id, and
// resets internal state so that draws are reproducible for the new
// (seed, stream) pair.
func (r *RNG) Seed(s uint64) {
	r.seed = s
	r.reseed()
}

// SeedStream sets the generator's stream identifier, conventionally the
// owning shard's rank, keeping its current seed. Distinct stream ids
// produce statistically independent sequences for the same seed.
func (r *RNG) SeedStream(id uint64) {
	r.stream = id
	r.reseed()
}

func (r *RNG) reseed() {
	mixed := splitmix64(r.seed) ^ splitmix64(r.stream*0x2545F4914F6CDD1D+1)
	r.src = rand.New(rand.NewSource(mixed))
}

// Next draws one standard-normal scalar.
func (r *RNG) Next() float64 {
	for {
		u := int64(r.src.Uint64())
		i := int(u & (nLayers - 1))

		mag := u
		if mag < 0 {
			mag = -mag
		}

		if uint64(mag) < kTable[i] {
			return float64(u) * wTable[i]
		}

		if i == 0 {
			// Tail layer: sample from the exponential tail of the
			// half-normal distribution via the standard rejection loop.
			const r0 = 3.442619855899
			for {
				e1 := -math.Log(r.src.Float64()) / r0
				e2 := -math.Log(r.src.Float64())
				if 2*e2 > e1*e1 {
					if u < 0 {
						return -(r0 + e1)
					}
					return r0 + e1
				}
			}
		}

		x := float64(u) * wTable[i]
		fx := fTable[i]
		fi1 := fTable[i-1]
		if fi1+r.src.Float64()*(fx-fi1) < math.Exp(-0.5*x*x) {
			return x
		}
	}
}

// Fill draws len(v) independent standard-normal scalars into v. Callers
// that only want the first n entries filled should pass v[:n].
func (r *RNG) Fill(v []float64) {
	for i := range v {
		v[i] = r.Next()
	}
}

package richardson

import "github.com/nfriess-labs/gmrfsample/gmerrors"

// Welford accumulates a running pointwise mean and variance of a sequence
// of sample vectors using Welford's online algorithm, the callback bus's
// standard accumulator for estimate_mean_and_var (spec.md section 4.7a).
type Welford struct {
	n    int
	mean []float64
	m2   []float64
}

// NewWelford allocates a Welford accumulator sized for vectors of length n.
func NewWelford(n int) *Welford {
	return &Welford{mean: make([]float64, n), m2: make([]float64, n)}
}

// Callback adapts Update to the richardson.Run/sampler.Callback signature
// so it can be registered directly on a sampler via SetCallback.
func (w *Welford) Callback(it int, x []float64, state any) error {
	return w.Update(x)
}

// Update folds one more sample vector x into the running statistics.
func (w *Welford) Update(x []float64) error {
	if len(x) != len(w.mean) {
		return gmerrors.Structuralf(component, "Welford.Update: expected length %d, got %d", len(w.mean), len(x))
	}
	w.n++
	for i, v := range x {
		delta := v - w.mean[i]
		w.mean[i] += delta / float64(w.n)
		delta2 := v - w.mean[i]
		w.m2[i] += delta * delta2
	}
	return nil
}

// N returns the number of samples folded in so far.
func (w *Welford) N() int { return w.n }

// Mean returns the running pointwise mean. The returned slice aliases
// internal state and must not be mutated by the caller.
func (w *Welford) Mean() []float64 { return w.mean }

// Variance returns the running pointwise (population) variance, zero for
// every entry until at least one sample has been folded in.
func (w *Welford) Variance() []float64 {
	v := make([]float64, len(w.m2))
	if w.n == 0 {
		return v
	}
	for i, m2 := range w.m2 {
		v[i] = m2 / float64(w.n)
	}
	return v
}

// Package iact estimates the integrated autocorrelation time of a scalar
// Markov chain, the quantity by which Monte Carlo variance exceeds the
// i.i.d. case. It implements the automated-windowing estimator of Sokal,
// using an FFT-based autocorrelation sequence for O(N log N) cost.
package iact

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultWindowConstant is the commonly used windowing constant c=5 from
// the automated-windowing rule.
const DefaultWindowConstant = 5.0

// DefaultMinFactor is the minimum chain-length-to-tau ratio below which a
// chain is flagged insufficient (N < factor*tau).
const DefaultMinFactor = 50.0

// BenchmarkMinFactor is the stricter ratio used by benchmark-quality runs.
const BenchmarkMinFactor = 500.0

// Estimate computes tau from q using the default windowing constant and
// insufficiency factor. valid is false when either the automated window
// search failed to converge within N/c, or the chain is shorter than
// DefaultMinFactor*tau.
func Estimate(q []float64) (tau float64, valid bool) {
	tau, valid, _ = EstimateWithACF(q, DefaultWindowConstant, DefaultMinFactor)
	return tau, valid
}

// EstimateBenchmark is Estimate but with the stricter BenchmarkMinFactor
// insufficiency threshold.
func EstimateBenchmark(q []float64) (tau float64, valid bool) {
	tau, valid, _ = EstimateWithACF(q, DefaultWindowConstant, BenchmarkMinFactor)
	return tau, valid
}

// EstimateWithACF is the full form: it also returns the raw normalized
// autocorrelation sequence rho[0..M] for diagnostic plotting (print_acf).
func EstimateWithACF(q []float64, c, minFactor float64) (tau float64, valid bool, acf []float64) {
	n := len(q)
	if n < 2 {
		return 1, false, nil
	}

	rho := autocorrelation(q)

	tauHat := 1.0
	maxLag := n - 1
	window := maxLag
	found := false
	for m := 1; m <= maxLag; m++ {
		tauHat += 2 * rho[m]
		if tauHat < 1 {
			tauHat = 1
		}
		if float64(m) >= c*tauHat {
			window = m
			found = true
			break
		}
		if float64(m) > float64(n)/c {
			window = m
			break
		}
	}

	tau = tauHat
	valid = found && float64(n) >= minFactor*tau

	return tau, valid, rho[:window+1]
}

// autocorrelation returns the normalized autocorrelation sequence
// rho[k] = <q~[0:n-k], q~[k:n]> / <q~,q~> for k = 0..n-1, computed via a
// zero-padded FFT to avoid circular-convolution wraparound.
func autocorrelation(q []float64) []float64 {
	n := len(q)

	mean := 0.0
	for _, x := range q {
		mean += x
	}
	mean /= float64(n)

	m := nextPow2(2 * n)
	padded := make([]float64, m)
	for i, x := range q {
		padded[i] = x - mean
	}

	fft := fourier.NewFFT(m)
	coeffs := fft.Coefficients(nil, padded)
	for i, c := range coeffs {
		coeffs[i] = c * cmplx.Conj(c)
	}

	ac := fft.Sequence(nil, coeffs)

	rho := make([]float64, n)
	denom := ac[0]
	if denom == 0 {
		return rho
	}
	for k := 0; k < n; k++ {
		rho[k] = ac[k] / denom
	}
	return rho
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

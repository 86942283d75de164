// Package richardson drives any sampler through a fixed number of
// stationary-Richardson iterations and hosts the callback bus that
// accumulates running statistics between applies. Grounded on
// vladimir-ch-iterative/solve.go's reverse-communication loop structure,
// but with the residual/convergence commands replaced by the plain
// "apply once, invoke callback" loop a sampler needs: the chain never
// converges, it mixes, so no convergence test ever runs.
package richardson

import (
	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/sampler"
)

const component = "richardson"

// Sampler is the capability set Run depends on, matching sampler.Sampler so
// any of MCSOR, Cholesky, Hogwild, or a multigrid.Hierarchy can drive it.
type Sampler interface {
	Apply(b, y []float64) error
}

// Result holds the outcome of a Run: the final state and how many
// iterations actually completed before any error.
type Result struct {
	X          []float64
	Iterations int
}

// Run applies s exactly n times in place on x against the fixed right-hand
// side b, the iteration-count-only stopping rule spec.md mandates (no
// convergence check). It aborts on the first error from the sampler or its
// callback and reports how many iterations completed.
func Run(s Sampler, b, x []float64, n int) (Result, error) {
	if n < 0 {
		return Result{}, gmerrors.Configf(component, "iteration count must be >= 0, got %d", n)
	}
	if len(b) != len(x) {
		return Result{}, gmerrors.Structuralf(component, "b and x must have equal length, got %d and %d", len(b), len(x))
	}

	for it := 0; it < n; it++ {
		if err := s.Apply(b, x); err != nil {
			return Result{X: x, Iterations: it}, err
		}
	}
	return Result{X: x, Iterations: n}, nil
}

var _ Sampler = sampler.Sampler(nil)

package sampler

import (
	"math"

	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/sparse"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
)

// Hogwild is a purely local random-Richardson smoother: it perturbs b with
// noise scaled by sqrt(diag(A)) and performs one local forward
// Gauss-Seidel sweep that ignores ghost contributions entirely, grounded on
// original_source/src/pc_hogwild.c's PCApplyRichardson_Hogwild
// (VecSetRandom + VecPointwiseMult by sqrtdiag + MatSOR local forward
// sweep). Cheap and approximate: useful as a warm-start smoother, never as
// the system's only sampler.
type Hogwild struct {
	m     *sparse.Matrix
	shard int
	rng   *ziggurat.RNG
	cb    CallbackSlot
	it    int

	sqrtDiag []float64
}

// NewHogwild builds a Hogwild smoother over shard s's owned rows of m.
func NewHogwild(m *sparse.Matrix, s int) (*Hogwild, error) {
	diag := m.DiagCSR(s)
	lo, _ := m.RowRange(s)
	sqrtDiag := make([]float64, diag.Rows)
	for i := range sqrtDiag {
		aii := m.Global.At(lo+i, lo+i)
		if aii <= 0 {
			return nil, gmerrors.Numericf(component, "Hogwild setup: zero or negative diagonal at local row %d", i)
		}
		sqrtDiag[i] = math.Sqrt(aii)
	}
	return &Hogwild{m: m, shard: s, sqrtDiag: sqrtDiag}, nil
}

// SetRNG installs the standard-normal source used by every sweep.
func (h *Hogwild) SetRNG(rng *ziggurat.RNG) { h.rng = rng }

// SetCallback installs the per-iteration callback, running the previous
// deleter (if any) first.
func (h *Hogwild) SetCallback(cb Callback, state any, deleter Deleter) {
	h.cb.Set(cb, state, deleter)
}

// Apply perturbs b locally and performs one forward sweep over shard's
// owned rows using only the diagonal block (off-diagonal/ghost
// contributions are dropped, matching MatSOR's local-only mode).
func (h *Hogwild) Apply(b, y []float64) error {
	if h.rng == nil {
		return gmerrors.Configf(component, "Hogwild.Apply called before SetRNG")
	}

	diag := h.m.DiagCSR(h.shard)
	dptrs := h.m.DiagPtrs(h.shard)
	lo, _ := h.m.RowRange(h.shard)
	n := diag.Rows

	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = b[lo+i] + h.rng.Next()*h.sqrtDiag[i]
	}

	for i := 0; i < n; i++ {
		sum := w[i]
		cols, vals := diag.Row(i)
		dp := dptrs[i]
		for k, j := range cols {
			if diag.RowPtr[i]+k == dp {
				continue
			}
			sum -= vals[k] * y[lo+j]
		}
		y[lo+i] = sum / diag.Val[dp]
	}

	h.it++
	return h.cb.Fire(h.it, y)
}

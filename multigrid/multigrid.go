// Package multigrid implements GAMGMC, the multigrid Monte Carlo sampler:
// a V-cycle that composes MCSOR random smoothers over a grid hierarchy with
// an exact Cholesky sampler at the coarsest level, grounded on
// original_source/src/pc_gamgmc.c's PCGAMGMC_SetUpHierarchy/PCApply_GAMGMC
// (re-expressed without PETSc's PC dispatch, since this module has no PETSc
// binding to build against).
package multigrid

import (
	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/sampler"
	"github.com/nfriess-labs/gmrfsample/sparse"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
)

const component = "multigrid"

// Level holds one grid's precision operator and the prolongation
// connecting the level below to it (nil for level 0, the coarsest).
type Level struct {
	A *sparse.Matrix
	P *sparse.CSR // prolongation from the level below into this level; nil at level 0
	B *sparse.CSR // this level's low-rank factor, propagated via P^T; nil without a low-rank update

	smoother *sampler.MCSOR
	coarse   *sampler.Cholesky
}

// Hierarchy is an ordered grid hierarchy, coarsest (index 0) to finest.
// Matrices form a single-owner tree rooted at the fine operator; levels
// hold borrowed references to samplers only, never outliving the
// hierarchy, per the design notes' "no reference counting" guidance.
type Hierarchy struct {
	Levels []*Level
	Nu     int // smoothing sweeps, symmetric, matched pre/post

	cb sampler.CallbackSlot
	it int
}

// SetCallback installs the per-V-cycle callback, fired once per Apply with
// the final fine-level state, running the previous deleter (if any) first.
func (h *Hierarchy) SetCallback(cb sampler.Callback, state any, deleter sampler.Deleter) {
	h.cb.Set(cb, state, deleter)
}

// Geometric builds a hierarchy from one operator per level and explicit
// prolongation operators, both ordered coarsest-to-finest (len(prolongations) ==
// len(matrices)-1), the caller-supplied geometric-refinement case of
// spec.md section 4.6.
func Geometric(matrices []*sparse.Matrix, prolongations []*sparse.CSR, nu int) (*Hierarchy, error) {
	if len(matrices) < 2 {
		return nil, gmerrors.Configf(component, "geometric hierarchy needs at least 2 levels, got %d", len(matrices))
	}
	if len(prolongations) != len(matrices)-1 {
		return nil, gmerrors.Configf(component, "need %d prolongations for %d levels, got %d", len(matrices)-1, len(matrices), len(prolongations))
	}
	h := &Hierarchy{Nu: nu}
	for l, m := range matrices {
		lvl := &Level{A: m}
		if l > 0 {
			lvl.P = prolongations[l-1]
		}
		h.Levels = append(h.Levels, lvl)
	}
	if err := h.buildSamplers(); err != nil {
		return nil, err
	}
	return h, nil
}

// Algebraic builds a hierarchy by repeated constant-vector aggregation
// coarsening of the fine operator, grounded on spec.md section 4.6's
// Galerkin-coarsening description; PETSc's GAMG internals are not part of
// this module's example pack, so this is a from-scratch aggregation
// coarsener rather than a port of PCGAMG (see DESIGN.md).
func Algebraic(fine *sparse.Matrix, levels, nu int) (*Hierarchy, error) {
	if levels < 2 {
		return nil, gmerrors.Configf(component, "algebraic hierarchy needs at least 2 levels, got %d", levels)
	}
	matrices := make([]*sparse.Matrix, levels)
	prolongations := make([]*sparse.CSR, levels-1)

	matrices[levels-1] = fine
	cur := fine
	for l := levels - 1; l > 0; l-- {
		p, err := aggregationProlongation(cur)
		if err != nil {
			return nil, err
		}
		coarse, err := galerkin(cur, p)
		if err != nil {
			return nil, err
		}
		prolongations[l-1] = p
		matrices[l-1] = coarse
		cur = coarse
	}

	h := &Hierarchy{Nu: nu}
	for l, m := range matrices {
		lvl := &Level{A: m}
		if l > 0 {
			lvl.P = prolongations[l-1]
		}
		h.Levels = append(h.Levels, lvl)
	}
	if err := h.buildSamplers(); err != nil {
		return nil, err
	}
	return h, nil
}

// aggregationProlongation groups rows into pairs (or a trailing singleton)
// of consecutive global indices and builds the piecewise-constant
// prolongation from one aggregate per coarse row, the simplest aggregation
// coarsening that honors the matrix's constant near-null-space.
func aggregationProlongation(a *sparse.Matrix) (*sparse.CSR, error) {
	n := a.Global.Rows
	coarseN := (n + 1) / 2
	if coarseN < 1 {
		return nil, gmerrors.Structuralf(component, "cannot coarsen a %d-row matrix further", n)
	}
	entries := make([]sparse.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, sparse.Entry{I: i, J: i / 2, V: 1})
	}
	return sparse.NewCSR(n, coarseN, entries), nil
}

// galerkin computes A_coarse = P^T A_fine P densely via sparse matvecs on
// the columns of P, adequate for the small aggregated coarse levels this
// hierarchy produces.
func galerkin(fine *sparse.Matrix, p *sparse.CSR) (*sparse.Matrix, error) {
	n := fine.Global.Rows
	coarseN := p.Cols

	entries := make([]sparse.Entry, 0, coarseN*4)
	tmp := make([]float64, n)
	ap := make([]float64, n)
	for c := 0; c < coarseN; c++ {
		for i := range tmp {
			tmp[i] = 0
		}
		col, _ := pColumn(p, c, n)
		copy(tmp, col)
		fine.Global.MulVec(ap, tmp)

		for r := 0; r < coarseN; r++ {
			rCol, _ := pColumn(p, r, n)
			v := sparse.Dot(rCol, ap)
			if v != 0 {
				entries = append(entries, sparse.Entry{I: r, J: c, V: v})
			}
		}
	}
	coarse := sparse.NewCSR(coarseN, coarseN, entries)
	return sparse.NewMatrix(coarse, 1)
}

// pColumn extracts column c of the n x cols CSR matrix p as a dense vector.
func pColumn(p *sparse.CSR, c, n int) ([]float64, bool) {
	col := make([]float64, n)
	nonzero := false
	for i := 0; i < p.Rows; i++ {
		cols, vals := p.Row(i)
		for k, j := range cols {
			if j == c {
				col[i] = vals[k]
				nonzero = true
			}
		}
	}
	return col, nonzero
}

func (h *Hierarchy) buildSamplers() error {
	for l, lvl := range h.Levels {
		if l == 0 {
			chol, err := sampler.NewCholesky(lvl.A)
			if err != nil {
				return err
			}
			lvl.coarse = chol
			continue
		}
		mc, err := sampler.NewMCSOR(lvl.A, 0, nil)
		if err != nil {
			return err
		}
		mc.SetSweepDirection(sampler.Symmetric)
		lvl.smoother = mc
	}
	return nil
}

// SetLowRank propagates B down the hierarchy as B_{l-1} = P_l^T B_l,
// sharing Sigma across all levels and factoring the coarse level against
// A_0 + B_0 Sigma^-1 B_0^T, per spec.md section 4.6's low-rank handling.
func (h *Hierarchy) SetLowRank(b *sparse.CSR, sigma []float64, explicitLR bool) error {
	fine := len(h.Levels) - 1
	h.Levels[fine].B = b

	for l := fine; l > 0; l-- {
		bc, err := prolongTranspose(h.Levels[l].P, h.Levels[l].B)
		if err != nil {
			return err
		}
		h.Levels[l-1].B = bc
	}

	for l, lvl := range h.Levels {
		lr := &sparse.LowRank{A: lvl.A, B: lvl.B, Sigma: sigma}
		if l == 0 {
			chol, err := sampler.NewCholeskyLowRank(lr)
			if err != nil {
				return err
			}
			lvl.coarse = chol
			continue
		}
		if err := lvl.smoother.SetLowRank(lr, explicitLR); err != nil {
			return err
		}
	}
	return nil
}

// prolongTranspose computes P^T B via sparse matvecs on B's columns.
func prolongTranspose(p, b *sparse.CSR) (*sparse.CSR, error) {
	k := b.Cols
	fineN := p.Rows
	coarseN := p.Cols

	var entries []sparse.Entry
	for c := 0; c < k; c++ {
		col := make([]float64, fineN)
		for i := 0; i < b.Rows; i++ {
			cols, vals := b.Row(i)
			for idx, j := range cols {
				if j == c {
					col[i] = vals[idx]
				}
			}
		}
		out := make([]float64, coarseN)
		transposeMulVec(p, col, out)
		for r, v := range out {
			if v != 0 {
				entries = append(entries, sparse.Entry{I: r, J: c, V: v})
			}
		}
	}
	return sparse.NewCSR(coarseN, k, entries), nil
}

func transposeMulVec(p *sparse.CSR, x, dst []float64) {
	for i := 0; i < p.Rows; i++ {
		cols, vals := p.Row(i)
		for k, j := range cols {
			dst[j] += vals[k] * x[i]
		}
	}
}

// SetRNG installs rng on every level's smoother (MCSOR levels) and the
// coarse Cholesky sampler.
func (h *Hierarchy) SetRNG(rng *ziggurat.RNG) {
	for _, lvl := range h.Levels {
		if lvl.smoother != nil {
			lvl.smoother.SetRNG(rng)
		}
		if lvl.coarse != nil {
			lvl.coarse.SetRNG(rng)
		}
	}
}

// Apply performs one full V-cycle (spec.md section 4.6 steps 1-6) and
// writes the new fine-level sample into y.
func (h *Hierarchy) Apply(b, y []float64) error {
	fine := len(h.Levels) - 1
	if err := h.vcycle(fine, b, y); err != nil {
		return err
	}
	h.it++
	return h.cb.Fire(h.it, y)
}

func (h *Hierarchy) vcycle(l int, b, y []float64) error {
	lvl := h.Levels[l]
	if l == 0 {
		return lvl.coarse.Apply(b, y)
	}

	lvl.smoother.SetSweepDirection(sampler.Forward)
	for i := 0; i < h.Nu; i++ {
		if err := lvl.smoother.Apply(b, y); err != nil {
			return err
		}
	}

	n := lvl.A.Global.Rows
	residual := make([]float64, n)
	lvl.A.Global.MulVec(residual, y)
	for i := range residual {
		residual[i] = b[i] - residual[i]
	}

	coarseN := lvl.P.Cols
	bCoarse := make([]float64, coarseN)
	transposeMulVec(lvl.P, residual, bCoarse)

	xCoarse := make([]float64, coarseN)
	if err := h.vcycle(l-1, bCoarse, xCoarse); err != nil {
		return err
	}

	correction := make([]float64, n)
	lvl.P.MulVec(correction, xCoarse)
	sparse.AXPY(1, correction, y)

	lvl.smoother.SetSweepDirection(sampler.Backward)
	for i := 0; i < h.Nu; i++ {
		if err := lvl.smoother.Apply(b, y); err != nil {
			return err
		}
	}
	return nil
}

package sampler

import (
	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/shard"
	"github.com/nfriess-labs/gmrfsample/sparse"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
)

// Cholesky is the exact one-shot Gaussian sampler: apply(b, y) performs one
// forward solve, one random fill, one back solve, grounded directly on
// original_source/include/parmgmc/samplers/cholesky.hh's sample().
type Cholesky struct {
	factor *sparse.Cholesky
	rng    *ziggurat.RNG
	cb     CallbackSlot
	it     int

	// CoarseGathered mirrors original_source/src/pc_chols.c's is_gamg_coarse
	// handling: when true, Apply first pulls the rows of b owned by other
	// shards onto shard Owner through ex, then solves with the one factor
	// computed at construction. The sample is written straight into y; no
	// scatter of y back to the other shards takes place. Per spec.md's Open
	// Question 1 the newer pc_chols.c semantics are authoritative over the
	// older duplicate PC.
	CoarseGathered bool
	Owner          int
	ex             *shard.Exchanger
	layout         shard.Layout
}

// SetCoarseGather configures the coarse-of-multigrid variant: Apply will
// pull b's values from every non-owner shard through ex before solving,
// rather than assuming direct memory visibility, so the sampler still
// exercises the message-passing path a real distributed substrate would
// require even though this module's shards share one process's memory.
func (c *Cholesky) SetCoarseGather(owner int, ex *shard.Exchanger, layout shard.Layout) {
	c.CoarseGathered = true
	c.Owner = owner
	c.ex = ex
	c.layout = layout
}

// NewCholesky factors m once and returns a sampler that draws exact samples
// from N(A^-1 b, A^-1) in one Apply call.
func NewCholesky(m *sparse.Matrix) (*Cholesky, error) {
	factor, err := sparse.Factorize(m)
	if err != nil {
		return nil, err
	}
	return &Cholesky{factor: factor}, nil
}

// NewCholeskyLowRank factors A + B*Sigma^-1*B^T once.
func NewCholeskyLowRank(lr *sparse.LowRank) (*Cholesky, error) {
	factor, err := sparse.FactorizeLowRank(lr)
	if err != nil {
		return nil, err
	}
	return &Cholesky{factor: factor}, nil
}

// SetRNG installs the standard-normal source used by every draw.
func (c *Cholesky) SetRNG(rng *ziggurat.RNG) { c.rng = rng }

// SetCallback installs the per-sample callback, running the previous
// deleter (if any) first.
func (c *Cholesky) SetCallback(cb Callback, state any, deleter Deleter) {
	c.cb.Set(cb, state, deleter)
}

// Apply draws one exact sample from N(A^-1 b, A^-1) into y. When
// CoarseGathered is set, b's values owned by other shards are fetched
// through ex first, mirroring pc_chols.c's gather-solve-scatter for a coarse
// problem factored only on Owner.
func (c *Cholesky) Apply(b, y []float64) error {
	if c.rng == nil {
		return gmerrors.Configf(component, "Cholesky.Apply called before SetRNG")
	}
	if c.CoarseGathered {
		c.gatherOntoOwner(b)
	}
	sample := c.factor.SampleApply(b, c.rng)
	copy(y, sample)
	c.it++
	return c.cb.Fire(c.it, y)
}

// gatherOntoOwner pulls every remote shard's rows of b into place so the
// factor (held only by Owner) sees the full vector, even though in this
// module's in-process shard model those values are already visible.
func (c *Cholesky) gatherOntoOwner(b []float64) {
	for s := 0; s < c.layout.NumShards; s++ {
		if s == c.Owner {
			continue
		}
		lo, hi := c.layout.RowRange(s)
		cols := make([]int, hi-lo)
		for i := range cols {
			cols[i] = lo + i
		}
		vals := c.ex.Gather(s, cols)
		for i, v := range vals {
			b[lo+i] = v
		}
	}
}

package sparse

import "github.com/nfriess-labs/gmrfsample/shard"

// Scatter is the ghost-gather descriptor for one (shard, color) pair,
// grounded on original_source/src/mc_sor.c's MatCreateScatters: the
// ghost buffer is sized to the total number of off-diagonal nonzeros
// touched by the color's rows (not the number of distinct columns), and
// values are gathered in the same row-major nonzero order the apply
// step consumes them in, so the consumer can read the buffer with a
// single running counter exactly as MCSORApply_MPIAIJ does with gcnt.
type Scatter struct {
	// Cols holds the global column id for each ghost slot, in row-major
	// nonzero order.
	Cols []int
}

// BuildScatter builds the scatter descriptor for shard s's rows in the
// given color (local row indices, ascending).
func BuildScatter(m *Matrix, s int, colorRows []int) *Scatter {
	off := m.OffDiagCSR(s)
	colmap := m.ColMap(s)

	sc := &Scatter{}
	for _, localRow := range colorRows {
		cols, _ := off.Row(localRow)
		for _, posInColmap := range cols {
			sc.Cols = append(sc.Cols, colmap[posInColmap])
		}
	}
	return sc
}

// Apply gathers the current remote values named by sc.Cols through ex,
// returning a buffer in the same order as sc.Cols. This is the "apply
// scatter" operation of the substrate contract; callers bracket it
// around exactly one color's sweep and never interleave scatters across
// colors (spec.md section 5).
func (sc *Scatter) Apply(ex *shard.Exchanger, layout shard.Layout) []float64 {
	buf := make([]float64, len(sc.Cols))
	if len(buf) == 0 {
		return buf
	}

	byOwner := map[int][]int{}
	for idx, c := range sc.Cols {
		owner := layout.OwnerOf(c)
		byOwner[owner] = append(byOwner[owner], idx)
	}

	for owner, idxs := range byOwner {
		cols := make([]int, len(idxs))
		for k, idx := range idxs {
			cols[k] = sc.Cols[idx]
		}
		vals := ex.Gather(owner, cols)
		for k, idx := range idxs {
			buf[idx] = vals[k]
		}
	}
	return buf
}

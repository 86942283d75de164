package sparse

import "github.com/nfriess-labs/gmrfsample/gmerrors"

// Coloring holds, for shard s, the ordered list of colors, each color a
// list of LOCAL row indices, in ascending order. The invariant that
// drives every multicolor sampler: within a color, no two rows connect
// through an off-diagonal nonzero.
type Coloring struct {
	Colors [][]int // global color id -> list of global rows, ascending
	Local  [][][]int // per shard, per color: local row indices, ascending
}

// Color computes a greedy distance-1 coloring of the symmetrized
// sparsity graph of m, grounded on the greedy approach
// original_source/src/mc_sor.c's MatCreateISColoring_AIJ delegates to
// (MATCOLORINGGREEDY with distance 1). Coloring is built once at sampler
// setup and is immutable thereafter.
func Color(m *Matrix) (*Coloring, error) {
	n := m.Global.Rows
	adj := symmetrizedAdjacency(m.Global)

	colorOf := make([]int, n)
	for i := range colorOf {
		colorOf[i] = -1
	}

	forbidden := make([]bool, n+1)
	for i := 0; i < n; i++ {
		for _, nb := range adj[i] {
			if nb < i && colorOf[nb] >= 0 {
				forbidden[colorOf[nb]] = true
			}
		}
		c := 0
		for c <= n && forbidden[c] {
			c++
		}
		if c > n {
			return nil, gmerrors.Structuralf(component, "coloring failed at row %d", i)
		}
		colorOf[i] = c
		for _, nb := range adj[i] {
			if nb < i {
				forbidden[colorOf[nb]] = false
			}
		}
	}

	numColors := 0
	for _, c := range colorOf {
		if c+1 > numColors {
			numColors = c + 1
		}
	}

	colors := make([][]int, numColors)
	for i, c := range colorOf {
		colors[c] = append(colors[c], i)
	}

	local := make([][][]int, m.Layout.NumShards)
	for s := 0; s < m.Layout.NumShards; s++ {
		lo, hi := m.Layout.RowRange(s)
		local[s] = make([][]int, numColors)
		for c := 0; c < numColors; c++ {
			for _, g := range colors[c] {
				if g >= lo && g < hi {
					local[s][c] = append(local[s][c], g-lo)
				}
			}
		}
	}

	return &Coloring{Colors: colors, Local: local}, nil
}

// symmetrizedAdjacency returns, for each row, the set of columns j != i
// such that A[i][j] != 0 or A[j][i] != 0.
func symmetrizedAdjacency(a *CSR) [][]int {
	n := a.Rows
	seen := make([]map[int]bool, n)
	for i := range seen {
		seen[i] = map[int]bool{}
	}
	for i := 0; i < n; i++ {
		cols, _ := a.Row(i)
		for _, j := range cols {
			if j == i {
				continue
			}
			seen[i][j] = true
			seen[j][i] = true
		}
	}
	adj := make([][]int, n)
	for i, set := range seen {
		for j := range set {
			adj[i] = append(adj[i], j)
		}
	}
	return adj
}

// ValidateDistance1 confirms, for every (i, j) within the same color,
// that A[i][j] == 0 and A[j][i] == 0 — the check spec.md's design notes
// flag as unvalidated in the original source and require an
// implementation to confirm explicitly.
func ValidateDistance1(m *Matrix, col *Coloring) error {
	for _, rows := range col.Colors {
		for _, i := range rows {
			cols, _ := m.Global.Row(i)
			set := make(map[int]bool, len(rows))
			for _, r := range rows {
				set[r] = true
			}
			for _, j := range cols {
				if j != i && set[j] {
					return gmerrors.Structuralf(component, "coloring invalid: rows %d and %d share a color but are connected", i, j)
				}
			}
		}
	}
	return nil
}

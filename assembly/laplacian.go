// Package assembly stands in for the mesh-construction and stencil
// assembly collaborator spec.md section 1 places out of scope: it builds
// the toy shifted-Laplace precision operators spec.md section 8's
// end-to-end scenarios are phrased against, nothing more. A real
// finite-element assembler (rwcarlsen-fem, out of this module's scope)
// would replace this package entirely without touching the core.
package assembly

import "github.com/nfriess-labs/gmrfsample/sparse"

// Laplacian2D builds the 5-point shifted-Laplace precision operator on
// an n x n grid with Dirichlet boundary and a diagonal shift (e.g. shift
// = 10 gives A[i][i] = 4 + 10 for interior points), as used throughout
// spec.md section 8's worked scenarios.
func Laplacian2D(n int, shift float64) *sparse.CSR {
	idx := func(i, j int) int { return i*n + j }
	var entries []sparse.Entry
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row := idx(i, j)
			diag := 4.0 + shift
			entries = append(entries, sparse.Entry{I: row, J: row, V: diag})
			if i > 0 {
				entries = append(entries, sparse.Entry{I: row, J: idx(i-1, j), V: -1})
			}
			if i < n-1 {
				entries = append(entries, sparse.Entry{I: row, J: idx(i+1, j), V: -1})
			}
			if j > 0 {
				entries = append(entries, sparse.Entry{I: row, J: idx(i, j-1), V: -1})
			}
			if j < n-1 {
				entries = append(entries, sparse.Entry{I: row, J: idx(i, j+1), V: -1})
			}
		}
	}
	return sparse.NewCSR(n*n, n*n, entries)
}

// Prolongation2D builds the bilinear-interpolation prolongation operator
// from a coarse (m x m) grid to a fine ((2m-1) x (2m-1)) grid obtained by
// one step of geometric refinement, the standard construction for a
// structured-mesh multigrid hierarchy.
func Prolongation2D(m int) *sparse.CSR {
	fine := 2*m - 1
	coarseIdx := func(i, j int) int { return i*m + j }
	fineIdx := func(i, j int) int { return i*fine + j }

	var entries []sparse.Entry
	for fi := 0; fi < fine; fi++ {
		for fj := 0; fj < fine; fj++ {
			row := fineIdx(fi, fj)
			ci, cj := fi/2, fj/2
			onCoarseRow := fi%2 == 0
			onCoarseCol := fj%2 == 0

			switch {
			case onCoarseRow && onCoarseCol:
				entries = append(entries, sparse.Entry{I: row, J: coarseIdx(ci, cj), V: 1})
			case onCoarseRow && !onCoarseCol:
				entries = append(entries, sparse.Entry{I: row, J: coarseIdx(ci, cj), V: 0.5})
				if cj+1 < m {
					entries = append(entries, sparse.Entry{I: row, J: coarseIdx(ci, cj+1), V: 0.5})
				}
			case !onCoarseRow && onCoarseCol:
				entries = append(entries, sparse.Entry{I: row, J: coarseIdx(ci, cj), V: 0.5})
				if ci+1 < m {
					entries = append(entries, sparse.Entry{I: row, J: coarseIdx(ci+1, cj), V: 0.5})
				}
			default:
				corners := [][2]int{{ci, cj}, {ci, cj + 1}, {ci + 1, cj}, {ci + 1, cj + 1}}
				for _, c := range corners {
					if c[0] < m && c[1] < m {
						entries = append(entries, sparse.Entry{I: row, J: coarseIdx(c[0], c[1]), V: 0.25})
					}
				}
			}
		}
	}
	return sparse.NewCSR(fine*fine, m*m, entries)
}

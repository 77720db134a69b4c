package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SolveDiscreteLyapunovFull solves the discrete Lyapunov equation
// X - A'XA = B for symmetric B and Schur-stable A, by exploding the
// n x n unknowns of X into a single n^2 x n^2 linear system and
// solving it with full-pivoting Gaussian elimination. It keeps every
// entry of X as an independent unknown (no symmetry exploited), unlike
// SolveDiscreteLyapunovByHalf.
func SolveDiscreteLyapunovFull(a, b *mat.Dense) (*mat.Dense, error) {
	n, nc := a.Dims()
	if n != nc {
		return nil, fmt.Errorf("matrix: lyapunov solve requires a square A, got %d x %d", n, nc)
	}
	br, bc := b.Dims()
	if br != n || bc != n {
		return nil, fmt.Errorf("matrix: lyapunov solve requires B shaped %d x %d, got %d x %d", n, n, br, bc)
	}

	size := n * n
	idx := func(i, j int) int { return i*n + j }

	sys := make([][]float64, size)
	for i := range sys {
		sys[i] = make([]float64, size)
	}
	rhs := make([]float64, size)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row := idx(i, j)
			sys[row][row] += 1
			for k := 0; k < n; k++ {
				aki := a.At(k, i)
				if aki == 0 {
					continue
				}
				for l := 0; l < n; l++ {
					alj := a.At(l, j)
					if alj == 0 {
						continue
					}
					sys[row][idx(k, l)] -= aki * alj
				}
			}
			rhs[row] = b.At(i, j)
		}
	}

	sol, err := SolveGaussFullPivot(sys, rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix: lyapunov (full) solve failed: %w", err)
	}
	x := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x.Set(i, j, sol[idx(i, j)])
		}
	}
	return x, nil
}

// SolveDiscreteLyapunovByHalf solves the same equation as
// SolveDiscreteLyapunovFull but exploits the symmetry of X (guaranteed
// when B is symmetric) to halve the system to n(n+1)/2 unknowns,
// matching the "by half" exploded system of the originating kernel.
func SolveDiscreteLyapunovByHalf(a, b *mat.Dense) (*mat.Dense, error) {
	n, nc := a.Dims()
	if n != nc {
		return nil, fmt.Errorf("matrix: lyapunov solve requires a square A, got %d x %d", n, nc)
	}
	br, bc := b.Dims()
	if br != n || bc != n {
		return nil, fmt.Errorf("matrix: lyapunov solve requires B shaped %d x %d, got %d x %d", n, n, br, bc)
	}

	// position of the unknown for (i,j), i<=j, in row-major upper-triangle order
	pos := make([][]int, n)
	for i := range pos {
		pos[i] = make([]int, n)
	}
	size := 0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			pos[i][j] = size
			pos[j][i] = size
			size++
		}
	}

	sys := make([][]float64, size)
	for i := range sys {
		sys[i] = make([]float64, size)
	}
	rhs := make([]float64, size)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			row := pos[i][j]
			sys[row][row] += 1
			for k := 0; k < n; k++ {
				aki := a.At(k, i)
				if aki == 0 {
					continue
				}
				for l := 0; l < n; l++ {
					alj := a.At(l, j)
					if alj == 0 {
						continue
					}
					sys[row][pos[k][l]] -= aki * alj
				}
			}
			rhs[row] = b.At(i, j)
		}
	}

	sol, err := SolveGaussFullPivot(sys, rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix: lyapunov (by half) solve failed: %w", err)
	}
	x := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x.Set(i, j, sol[pos[i][j]])
		}
	}
	return x, nil
}

package match

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NoMatch marks a row or column left unassigned by a Solver.
const NoMatch = -1

// ErrSolverFailure is returned when an assignment cannot be produced for a
// non-empty cost matrix.
var ErrSolverFailure = errors.New("match: assignment solver failure")

// Assignment is the result of one solve. RowAssign[i] is the column
// assigned to row i (or NoMatch); ColAssign mirrors it for columns. Cost is
// the summed cost of the assigned cells.
type Assignment struct {
	Cost      float64
	RowAssign []int
	ColAssign []int
}

// Solver solves the rectangular minimum-cost bipartite assignment problem.
// For an n×m matrix exactly min(n, m) rows and columns are assigned; the
// rest are NoMatch.
type Solver interface {
	Solve(cost mat.Matrix) (Assignment, error)
}

// KuhnMunkres implements the Hungarian algorithm in its potentials
// (Jonker–Volgenant) form, O(n³) in the larger dimension.
//
// Rectangular input is padded to a square with zero-cost rows or columns,
// so padding never biases which real pairs are chosen. Non-finite entries
// are replaced by a finite cost larger than any assignment avoiding them;
// such cells are only chosen when no alternative exists and still count as
// assigned. NaN entries are a solver failure.
type KuhnMunkres struct{}

// Solve implements Solver.
func (KuhnMunkres) Solve(cost mat.Matrix) (Assignment, error) {
	n, m := cost.Dims()
	if n == 0 || m == 0 {
		return Assignment{}, fmt.Errorf("%w: empty %dx%d cost matrix", ErrSolverFailure, n, m)
	}

	maxAbs := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			v := cost.At(i, j)
			if math.IsNaN(v) {
				return Assignment{}, fmt.Errorf("%w: NaN cost at (%d, %d)", ErrSolverFailure, i, j)
			}
			if !math.IsInf(v, 0) && math.Abs(v) > maxAbs {
				maxAbs = math.Abs(v)
			}
		}
	}

	dim := n
	if m > dim {
		dim = m
	}
	worst := 2 * (maxAbs + 1) * float64(dim+1)

	// Padded square matrix; padding cells stay zero.
	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		if i >= n {
			continue
		}
		for j := 0; j < m; j++ {
			v := cost.At(i, j)
			if math.IsInf(v, 0) {
				v = worst
			}
			c[i][j] = v
		}
	}

	// Uses 1-indexed arrays internally for cleaner index arithmetic.
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1) // Row potentials
	v := make([]float64, dim+1) // Column potentials
	p := make([]int, dim+1)     // p[j] = row assigned to column j
	way := make([]int, dim+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0 // Virtual column

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				return Assignment{}, fmt.Errorf("%w: no augmenting path for row %d", ErrSolverFailure, i-1)
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// Augment along the path.
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	a := Assignment{
		RowAssign: make([]int, n),
		ColAssign: make([]int, m),
	}
	for i := range a.RowAssign {
		a.RowAssign[i] = NoMatch
	}
	for j := range a.ColAssign {
		a.ColAssign[j] = NoMatch
	}

	// Drop anything that lands in padding.
	for j := 1; j <= dim; j++ {
		row, col := p[j]-1, j-1
		if row < 0 || row >= n || col >= m {
			continue
		}
		a.RowAssign[row] = col
		a.ColAssign[col] = row
		a.Cost += cost.At(row, col)
	}

	return a, nil
}

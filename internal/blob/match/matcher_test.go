package match

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func absDiff(a, b float64) float64 { return math.Abs(a - b) }

type pt struct{ X, Y float64 }

func euclid(a, b pt) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// countingScore wraps a ScoreFunc and counts invocations.
func countingScore[T any](f ScoreFunc[T], calls *int) ScoreFunc[T] {
	return func(a, b T) float64 {
		*calls++
		return f(a, b)
	}
}

func TestMatch_OneDimensional(t *testing.T) {
	t.Parallel()

	groupA := []float64{1, 0, 2, 5, 12, 44}
	groupB := []float64{1000, 3, 1, 9, 6}
	m := NewMatcher(absDiff)

	out, err := m.Match(groupA, groupB, 5.0)
	require.NoError(t, err)

	want := Outcome[float64]{
		Matched: []Pair[float64]{
			{A: 1, B: 1, Score: 0},
			{A: 2, B: 3, Score: 1},
			{A: 5, B: 6, Score: 1},
			{A: 12, B: 9, Score: 3},
		},
		UnmatchedA: []float64{0, 44},
		UnmatchedB: []float64{1000},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Match() mismatch (-want +got):\n%s", diff)
	}

	last := m.LastAssignment()
	assert.Equal(t, 961.0, last.Cost)
	assert.Equal(t, []int{2, NoMatch, 1, 4, 3, 0}, last.RowAssign)
	assert.Equal(t, []int{5, 2, 0, 4, 3}, last.ColAssign)

	rows, cols := m.LastCosts().Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 5, cols)
}

func TestMatch_TwoDimensional(t *testing.T) {
	t.Parallel()

	groupA := []pt{{1, 0}, {3, 5}, {8, 1}, {0, 0}, {44, 2}}
	groupB := []pt{{8, 9}, {3, 2}, {9, 3}, {1, 2}, {34, 4}, {-1, 2}}
	m := NewMatcher(euclid)

	out, err := m.Match(groupA, groupB, 5.0)
	require.NoError(t, err)

	require.Len(t, out.Matched, 4)
	assert.Equal(t, []pt{{44, 2}}, out.UnmatchedA)
	// Gate rejection first, then the column the solver left free.
	assert.Equal(t, []pt{{34, 4}, {8, 9}}, out.UnmatchedB)

	// Accepted cost equals the solver's cost restricted to accepted rows.
	last := m.LastAssignment()
	costs := m.LastCosts()
	var accepted, solverAccepted float64
	for _, p := range out.Matched {
		accepted += p.Score
	}
	for i, j := range last.RowAssign {
		if j != NoMatch && groupA[i] != (pt{44, 2}) {
			solverAccepted += costs.At(i, j)
		}
	}
	assert.InDelta(t, solverAccepted, accepted, 1e-12)
	assert.InDelta(t, 2+3+2*math.Sqrt(5), accepted, 1e-12)
	assert.InDelta(t, accepted+math.Sqrt(104), last.Cost, 1e-12)
}

func TestMatch_EmptyGroups(t *testing.T) {
	t.Parallel()

	calls := 0
	m := NewMatcher(countingScore(absDiff, &calls))
	m.Solver = solverFunc(func(mat.Matrix) (Assignment, error) {
		t.Fatal("solver must not run for an empty group")
		return Assignment{}, nil
	})

	out, err := m.Match(nil, nil, math.Inf(1))
	require.NoError(t, err)
	assert.Empty(t, out.Matched)
	assert.Empty(t, out.UnmatchedA)
	assert.Empty(t, out.UnmatchedB)

	out, err = m.Match(nil, []float64{7, 8}, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, out.UnmatchedB)
	assert.Empty(t, out.UnmatchedA)

	out, err = m.Match([]float64{3}, []float64{}, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, out.UnmatchedA)
	assert.Empty(t, out.UnmatchedB)

	assert.Zero(t, calls, "no cost may be computed for an empty group")
	assert.Nil(t, m.LastCosts())
	assert.Equal(t, Assignment{}, m.LastAssignment())
}

func TestMatch_StateOverwrittenEachCall(t *testing.T) {
	t.Parallel()

	m := NewMatcher(absDiff)
	_, err := m.Match([]float64{1, 2}, []float64{1, 2}, math.Inf(1))
	require.NoError(t, err)
	require.NotNil(t, m.LastCosts())

	_, err = m.Match([]float64{1}, nil, math.Inf(1))
	require.NoError(t, err)
	assert.Nil(t, m.LastCosts())
	assert.Empty(t, m.LastAssignment().RowAssign)
}

func TestMatch_GateAfterOptimisation(t *testing.T) {
	t.Parallel()

	// Optimal pairing is a0-b1 (0) and a1-b0 (10) for total 10, whereas
	// a0-b0 (1) and a1-b1 (10) totals 11. The gate then rejects a1-b0.
	// A gate folded into the costs would instead keep a0-b0.
	score := func(a, b string) float64 {
		table := map[string]float64{
			"a0b0": 1, "a0b1": 0,
			"a1b0": 10, "a1b1": 10,
		}
		return table[a+b]
	}
	m := NewMatcher(score)
	out, err := m.Match([]string{"a0", "a1"}, []string{"b0", "b1"}, 5)
	require.NoError(t, err)

	assert.Equal(t, []Pair[string]{{A: "a0", B: "b1", Score: 0}}, out.Matched)
	assert.Equal(t, []string{"a1"}, out.UnmatchedA)
	assert.Equal(t, []string{"b0"}, out.UnmatchedB)
}

func TestMatch_InfiniteScoresRejected(t *testing.T) {
	t.Parallel()

	inf := math.Inf(1)
	score := func(a, b int) float64 {
		if a == 2 {
			return inf
		}
		return math.Abs(float64(a - b))
	}
	m := NewMatcher(score)
	out, err := m.Match([]int{1, 2}, []int{1, 5}, inf)
	require.NoError(t, err)

	assert.Equal(t, []Pair[int]{{A: 1, B: 1, Score: 0}}, out.Matched)
	assert.Equal(t, []int{2}, out.UnmatchedA)
	assert.Equal(t, []int{5}, out.UnmatchedB)
}

type solverFunc func(mat.Matrix) (Assignment, error)

func (f solverFunc) Solve(c mat.Matrix) (Assignment, error) { return f(c) }

func TestMatch_SolverFailure(t *testing.T) {
	t.Parallel()

	t.Run("solver error is wrapped", func(t *testing.T) {
		m := NewMatcher(absDiff)
		boom := errors.New("boom")
		m.Solver = solverFunc(func(mat.Matrix) (Assignment, error) { return Assignment{}, boom })
		_, err := m.Match([]float64{1}, []float64{2}, math.Inf(1))
		assert.ErrorIs(t, err, ErrSolverFailure)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed assignment", func(t *testing.T) {
		m := NewMatcher(absDiff)
		m.Solver = solverFunc(func(mat.Matrix) (Assignment, error) {
			return Assignment{RowAssign: []int{0, 0}, ColAssign: []int{0, NoMatch}}, nil
		})
		_, err := m.Match([]float64{1, 2}, []float64{1, 2}, math.Inf(1))
		assert.ErrorIs(t, err, ErrSolverFailure)
	})

	t.Run("incomplete assignment", func(t *testing.T) {
		m := NewMatcher(absDiff)
		m.Solver = solverFunc(func(mat.Matrix) (Assignment, error) {
			return Assignment{RowAssign: []int{NoMatch}, ColAssign: []int{NoMatch}}, nil
		})
		_, err := m.Match([]float64{1}, []float64{1}, math.Inf(1))
		assert.ErrorIs(t, err, ErrSolverFailure)
	})

	t.Run("NaN score", func(t *testing.T) {
		m := NewMatcher(func(a, b float64) float64 { return math.NaN() })
		_, err := m.Match([]float64{1}, []float64{1}, math.Inf(1))
		assert.ErrorIs(t, err, ErrSolverFailure)
	})

	t.Run("nil score function", func(t *testing.T) {
		m := &Matcher[float64]{}
		_, err := m.Match([]float64{1}, []float64{1}, math.Inf(1))
		assert.Error(t, err)
	})
}

func TestMatch_ScorePanicPropagates(t *testing.T) {
	t.Parallel()

	m := NewMatcher(func(a, b int) float64 { panic("bad item") })
	assert.Panics(t, func() {
		_, _ = m.Match([]int{1}, []int{2}, math.Inf(1))
	})
}

func randomGroups(rng *rand.Rand) ([]float64, []float64) {
	a := make([]float64, rng.Intn(7))
	b := make([]float64, rng.Intn(7))
	for i := range a {
		a[i] = float64(rng.Intn(40))
	}
	for i := range b {
		b[i] = float64(rng.Intn(40))
	}
	return a, b
}

func sorted(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	return out
}

func TestMatch_PartitionCompleteness(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	m := NewMatcher(absDiff)
	for trial := 0; trial < 300; trial++ {
		a, b := randomGroups(rng)
		maxScore := float64(rng.Intn(12))

		out, err := m.Match(a, b, maxScore)
		require.NoError(t, err)

		require.Equal(t, len(a)+len(b), 2*len(out.Matched)+len(out.UnmatchedA)+len(out.UnmatchedB))

		var gotA, gotB []float64
		for _, p := range out.Matched {
			gotA = append(gotA, p.A)
			gotB = append(gotB, p.B)
			require.Less(t, p.Score, maxScore)
		}
		gotA = append(gotA, out.UnmatchedA...)
		gotB = append(gotB, out.UnmatchedB...)
		require.Equal(t, sorted(a), sorted(gotA), "trial %d", trial)
		require.Equal(t, sorted(b), sorted(gotB), "trial %d", trial)
	}
}

func TestMatch_ThresholdMonotonicity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	m := NewMatcher(absDiff)
	for trial := 0; trial < 100; trial++ {
		a, b := randomGroups(rng)
		prev := -1
		for _, maxScore := range []float64{0, 0.5, 1, 2, 5, 10, 50, math.Inf(1)} {
			out, err := m.Match(a, b, maxScore)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(out.Matched), prev, "trial %d maxScore %v", trial, maxScore)
			prev = len(out.Matched)
		}
	}
}

func TestMatch_PreGateOptimality(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	m := NewMatcher(absDiff)
	for trial := 0; trial < 100; trial++ {
		a, b := randomGroups(rng)
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		_, err := m.Match(a, b, 1)
		require.NoError(t, err)

		cost := make([][]float64, len(a))
		for i := range a {
			cost[i] = make([]float64, len(b))
			for j := range b {
				cost[i][j] = absDiff(a[i], b[j])
			}
		}
		require.Equal(t, bruteForceMin(cost), m.LastAssignment().Cost, "trial %d", trial)
	}
}

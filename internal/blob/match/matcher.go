package match

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ScoreFunc rates the dissimilarity of two items. It must be a pure
// function returning a non-negative value; +Inf marks a pair that cannot be
// compared. A panic inside ScoreFunc is not recovered.
type ScoreFunc[T any] func(a, b T) float64

// Pair is an accepted association. Score is the value the gate accepted.
type Pair[T any] struct {
	A     T
	B     T
	Score float64
}

// Outcome partitions the two input groups. Every input item appears exactly
// once: either inside a Pair or in the unmatched list for its group.
type Outcome[T any] struct {
	Matched    []Pair[T]
	UnmatchedA []T
	UnmatchedB []T
}

// Matcher associates two groups of items with an injected ScoreFunc. The
// only state it keeps is the result of the most recent Match call, which is
// overwritten on every call.
type Matcher[T any] struct {
	Score  ScoreFunc[T]
	Solver Solver

	costs *mat.Dense
	last  Assignment
}

// NewMatcher creates a Matcher using the Kuhn–Munkres solver.
func NewMatcher[T any](score ScoreFunc[T]) *Matcher[T] {
	return &Matcher[T]{Score: score, Solver: KuhnMunkres{}}
}

// LastAssignment returns the assignment computed by the most recent Match
// call. It is the zero Assignment when that call had an empty group.
func (m *Matcher[T]) LastAssignment() Assignment {
	return m.last
}

// LastCosts returns the cost matrix built by the most recent Match call, or
// nil when that call had an empty group.
func (m *Matcher[T]) LastCosts() *mat.Dense {
	return m.costs
}

// Match computes the minimum-cost one-to-one assignment between groupA and
// groupB, then accepts each assigned pair only when its score is strictly
// below maxScore. Pass math.Inf(1) for an unbounded gate.
//
// When |B| > |A| the columns the solver left unassigned are collected as
// unmatched B items. When |B| <= |A| every column is assigned, so unmatched
// B items can only come from gate rejections.
func (m *Matcher[T]) Match(groupA, groupB []T, maxScore float64) (Outcome[T], error) {
	m.costs = nil
	m.last = Assignment{}

	var out Outcome[T]
	switch {
	case len(groupA) == 0 && len(groupB) == 0:
		return out, nil
	case len(groupB) == 0:
		out.UnmatchedA = append(out.UnmatchedA, groupA...)
		return out, nil
	case len(groupA) == 0:
		out.UnmatchedB = append(out.UnmatchedB, groupB...)
		return out, nil
	}

	if m.Score == nil {
		return out, errors.New("match: nil score function")
	}
	solver := m.Solver
	if solver == nil {
		solver = KuhnMunkres{}
	}

	costs := mat.NewDense(len(groupA), len(groupB), nil)
	for i, a := range groupA {
		for j, b := range groupB {
			costs.Set(i, j, m.Score(a, b))
		}
	}
	m.costs = costs

	assign, err := solver.Solve(costs)
	if err != nil {
		if !errors.Is(err, ErrSolverFailure) {
			err = fmt.Errorf("%w: %w", ErrSolverFailure, err)
		}
		return Outcome[T]{}, err
	}
	if err := checkAssignment(assign, len(groupA), len(groupB)); err != nil {
		return Outcome[T]{}, err
	}
	m.last = assign

	for i, j := range assign.RowAssign {
		a := groupA[i]
		if j == NoMatch {
			out.UnmatchedA = append(out.UnmatchedA, a)
			continue
		}
		b := groupB[j]
		// Re-score rather than reading the matrix so the gate does not
		// depend on what the solver did with the costs.
		if score := m.Score(a, b); score < maxScore {
			out.Matched = append(out.Matched, Pair[T]{A: a, B: b, Score: score})
		} else {
			out.UnmatchedA = append(out.UnmatchedA, a)
			out.UnmatchedB = append(out.UnmatchedB, b)
		}
	}

	if len(groupB) > len(groupA) {
		for j, i := range assign.ColAssign {
			if i == NoMatch {
				out.UnmatchedB = append(out.UnmatchedB, groupB[j])
			}
		}
	}

	return out, nil
}

// checkAssignment rejects solver output that is not a consistent partial
// permutation of the right shape.
func checkAssignment(a Assignment, n, m int) error {
	if len(a.RowAssign) != n || len(a.ColAssign) != m {
		return fmt.Errorf("%w: assignment shape %dx%d, want %dx%d",
			ErrSolverFailure, len(a.RowAssign), len(a.ColAssign), n, m)
	}
	assigned := 0
	for i, j := range a.RowAssign {
		if j == NoMatch {
			continue
		}
		if j < 0 || j >= m || a.ColAssign[j] != i {
			return fmt.Errorf("%w: row %d assigned to inconsistent column %d", ErrSolverFailure, i, j)
		}
		assigned++
	}
	for j, i := range a.ColAssign {
		if i == NoMatch {
			continue
		}
		if i < 0 || i >= n || a.RowAssign[i] != j {
			return fmt.Errorf("%w: column %d assigned to inconsistent row %d", ErrSolverFailure, j, i)
		}
	}
	want := n
	if m < want {
		want = m
	}
	if assigned != want {
		return fmt.Errorf("%w: %d rows assigned, want %d", ErrSolverFailure, assigned, want)
	}
	return nil
}

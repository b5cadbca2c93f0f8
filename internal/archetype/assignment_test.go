package archetype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assignmentCost(cost [][]float64, assignment []int) float64 {
	total := 0.0
	for i, j := range assignment {
		total += cost[i][j]
	}
	return total
}

func TestSolveAssignment_PrefersGloballyOptimalMatching(t *testing.T) {
	// Greedy would take (0,0)=1 and be forced into (1,1)=4 for a total of 5;
	// the optimal matching is (0,1)+(1,0) = 4.
	cost := [][]float64{
		{1, 2},
		{2, 4},
	}
	assignment := solveAssignment(cost)
	assert.Equal(t, []int{1, 0}, assignment)
	assert.Equal(t, 4.0, assignmentCost(cost, assignment))
}

func TestSolveAssignment_DiagonalIsOptimal(t *testing.T) {
	cost := [][]float64{
		{0, 5, 5},
		{5, 0, 5},
		{5, 5, 0},
	}
	assert.Equal(t, []int{0, 1, 2}, solveAssignment(cost))
}

func TestSolveAssignment_HandlesNegativeCosts(t *testing.T) {
	cost := [][]float64{
		{-3, -1},
		{-2, -4},
	}
	assignment := solveAssignment(cost)
	assert.Equal(t, []int{0, 1}, assignment)
	assert.Equal(t, -7.0, assignmentCost(cost, assignment))
}

func TestSolveAssignment_RectangularMoreColumnsThanRows(t *testing.T) {
	// Every row must land on a distinct real column.
	cost := [][]float64{
		{9, 1, 9, 9},
		{9, 9, 1, 9},
	}
	assignment := solveAssignment(cost)
	assert.Equal(t, []int{1, 2}, assignment)
}

func TestSolveAssignment_AssignmentIsOneToOne(t *testing.T) {
	cost := [][]float64{
		{2, 7, 3, 6},
		{1, 8, 5, 9},
		{4, 2, 6, 3},
		{5, 5, 1, 8},
	}
	assignment := solveAssignment(cost)
	seen := make(map[int]bool)
	for _, j := range assignment {
		assert.GreaterOrEqual(t, j, 0)
		assert.False(t, seen[j], "column %d assigned twice", j)
		seen[j] = true
	}
	best := bruteForceAssignment(cost)
	assert.InDelta(t, best, assignmentCost(cost, assignment), 1e-9)
}

func bruteForceAssignment(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := math.Inf(1)
	var recurse func(i int)
	recurse = func(i int) {
		if i == n {
			total := 0.0
			for r, c := range perm {
				total += cost[r][c]
			}
			if total < best {
				best = total
			}
			return
		}
		for j := i; j < n; j++ {
			perm[i], perm[j] = perm[j], perm[i]
			recurse(i + 1)
			perm[i], perm[j] = perm[j], perm[i]
		}
	}
	recurse(0)
	return best
}

func TestSolveAssignment_Empty(t *testing.T) {
	assert.Nil(t, solveAssignment(nil))
}

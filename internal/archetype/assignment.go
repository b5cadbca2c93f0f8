package archetype

import "math"

// solveAssignment solves the minimum-cost bipartite assignment over a
// rows x cols cost matrix and returns the column assigned to each row.
// The matrix is padded to square with zero-cost cells internally, so
// rectangular inputs are fine as long as cols >= rows guarantees every real
// row a real column. Hungarian algorithm with potentials, O(n^3).
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	size := n
	if m > size {
		size = m
	}

	a := make([][]float64, size)
	for i := range a {
		a[i] = make([]float64, size)
		for j := range a[i] {
			if i < n && j < m {
				a[i][j] = cost[i][j]
			}
		}
	}

	u := make([]float64, size+1)
	v := make([]float64, size+1)
	match := make([]int, size+1) // match[j] = row matched to column j (1-based)
	way := make([]int, size+1)

	for i := 1; i <= size; i++ {
		match[0] = i
		j0 := 0
		minv := make([]float64, size+1)
		used := make([]bool, size+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := match[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= size; j++ {
				if used[j] {
					continue
				}
				cur := a[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= size; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}

		// Augment along the found path.
		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	for j := 1; j <= size; j++ {
		row := match[j]
		if row >= 1 && row <= n && j <= m {
			result[row-1] = j - 1
		}
	}
	return result
}

package archetype

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeansResult holds one clustering of the PCA-space points.
type kmeansResult struct {
	Assignments []int
	Centroids   [][]float64
	Distances   []float64 // distance of each point to its assigned centroid
	WCSS        float64
}

const kmeansMaxIterations = 100

// runKMeans clusters points into k groups with Lloyd's algorithm, restarted
// from multiple seeded initializations and keeping the lowest within-cluster
// sum of squares. Clusters are guaranteed non-empty by reseeding any emptied
// centroid on the point farthest from its current centroid.
func runKMeans(points [][]float64, k, restarts int, rng *rand.Rand) kmeansResult {
	best := kmeansResult{WCSS: math.Inf(1)}
	if len(points) == 0 || k <= 0 {
		return best
	}
	if k > len(points) {
		k = len(points)
	}
	if restarts < 1 {
		restarts = 1
	}

	for r := 0; r < restarts; r++ {
		result := lloyd(points, k, rng)
		if result.WCSS < best.WCSS {
			best = result
		}
	}
	return best
}

func lloyd(points [][]float64, k int, rng *rand.Rand) kmeansResult {
	n := len(points)
	dim := len(points[0])

	// Initialize centroids on k distinct points.
	perm := rng.Perm(n)
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	assignments := make([]int, n)
	distances := make([]float64, n)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			bestCluster, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				d := floats.Distance(p, centroid, 2)
				if d < bestDist {
					bestCluster, bestDist = c, d
				}
			}
			if assignments[i] != bestCluster {
				assignments[i] = bestCluster
				changed = true
			}
			distances[i] = bestDist
		}

		// Recompute centroids; reseed any emptied cluster on the point
		// currently farthest from its centroid.
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[assignments[i]]++
			floats.Add(sums[assignments[i]], p)
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				far := farthestPoint(distances)
				centroids[c] = append([]float64(nil), points[far]...)
				assignments[far] = c
				distances[far] = 0
				changed = true
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	// Final assignment pass so distances match the converged centroids.
	wcss := 0.0
	for i, p := range points {
		bestCluster, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			d := floats.Distance(p, centroid, 2)
			if d < bestDist {
				bestCluster, bestDist = c, d
			}
		}
		assignments[i] = bestCluster
		distances[i] = bestDist
		wcss += bestDist * bestDist
	}

	return kmeansResult{
		Assignments: assignments,
		Centroids:   centroids,
		Distances:   distances,
		WCSS:        wcss,
	}
}

func farthestPoint(distances []float64) int {
	far, farDist := 0, -1.0
	for i, d := range distances {
		if d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

// distinctClusters counts how many cluster labels actually occur.
func distinctClusters(assignments []int) int {
	seen := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		seen[a] = true
	}
	return len(seen)
}

// silhouetteScore is the mean silhouette coefficient over all points.
// Singleton clusters contribute 0 for their point, per the standard
// definition.
func silhouetteScore(points [][]float64, assignments []int) float64 {
	n := len(points)
	if n == 0 {
		return 0
	}
	clusters := make(map[int][]int)
	for i, a := range assignments {
		clusters[a] = append(clusters[a], i)
	}
	if len(clusters) < 2 {
		return 0
	}

	total := 0.0
	for i, p := range points {
		own := assignments[i]
		if len(clusters[own]) <= 1 {
			continue // s(i) = 0
		}

		// a(i): mean distance to other members of own cluster.
		a := 0.0
		for _, j := range clusters[own] {
			if j != i {
				a += floats.Distance(p, points[j], 2)
			}
		}
		a /= float64(len(clusters[own]) - 1)

		// b(i): lowest mean distance to any other cluster.
		b := math.Inf(1)
		for c, members := range clusters {
			if c == own {
				continue
			}
			d := 0.0
			for _, j := range members {
				d += floats.Distance(p, points[j], 2)
			}
			d /= float64(len(members))
			if d < b {
				b = d
			}
		}

		denom := math.Max(a, b)
		if denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze partitions document embeddings into topic groups and
// derives descriptive keywords for each group. Clustering degrades rather
// than fails: any internal error collapses the corpus into a single cluster.
package analyze

import (
	"fmt"
	"math"
	"math/rand"
)

// Noise is the sentinel label for points that fit no cluster.
const Noise = -1

// kmeansSeed fixes the random source so repeated runs over the same
// embeddings produce the same partition.
const kmeansSeed = 42

const maxIterations = 100

// Cluster partitions embeddings into topic groups and returns one integer
// label per input vector, in input order.
//
// The cluster count is adaptive: k = floor(sqrt(n)) clamped to [2, 5].
// Initialization is k-means++ with a fixed seed. If the underlying routine
// fails (empty input, ragged vectors), every point is assigned label 0
// instead of propagating the error — clustering degradation is non-fatal.
//
// minClusterSize is accepted for interface compatibility with density-based
// engines; the k-means heuristic does not consult it.
func Cluster(embeddings [][]float64, minClusterSize int) []int {
	_ = minClusterSize

	n := len(embeddings)
	if n == 0 {
		return []int{}
	}

	k := int(math.Floor(math.Sqrt(float64(n))))
	if k < 2 {
		k = 2
	}
	if k > 5 {
		k = 5
	}

	labels, err := kmeansRun(embeddings, k)
	if err != nil {
		// Fallback: one cluster holding everything.
		return make([]int, n)
	}
	return labels
}

// kmeansRun executes seeded k-means++ initialization followed by Lloyd
// iterations until assignments stabilize.
func kmeansRun(points [][]float64, k int) ([]int, error) {
	n := len(points)
	if k > n {
		return nil, fmt.Errorf("k=%d exceeds point count %d", k, n)
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension embedding")
	}
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(p), dim)
		}
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := initCentroids(points, k, rng)

	labels := make([]int, n)
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids as cluster means. A cluster that lost all its
		// points keeps its previous centroid.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	return labels, nil
}

// initCentroids picks k starting centroids with the k-means++ strategy: the
// first uniformly at random, each subsequent one with probability
// proportional to its squared distance from the nearest chosen centroid.
func initCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(points[rng.Intn(n)]))

	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := sqDist(p, centroids[0])
			for _, c := range centroids[1:] {
				if dc := sqDist(p, c); dc < d {
					d = dc
				}
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; any choice works.
			centroids = append(centroids, cloneVec(points[rng.Intn(n)]))
			continue
		}

		target := rng.Float64() * total
		var acc float64
		chosen := n - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVec(points[chosen]))
	}

	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVec(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// UniqueLabels returns the sorted distinct non-noise labels.
func UniqueLabels(labels []int) []int {
	seen := make(map[int]bool)
	var unique []int
	for _, l := range labels {
		if l == Noise || seen[l] {
			continue
		}
		seen[l] = true
		unique = append(unique, l)
	}
	// Labels are small ints; insertion sort keeps this allocation-free.
	for i := 1; i < len(unique); i++ {
		for j := i; j > 0 && unique[j] < unique[j-1]; j-- {
			unique[j], unique[j-1] = unique[j-1], unique[j]
		}
	}
	return unique
}

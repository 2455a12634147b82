package kmeans

import "gonum.org/v1/gonum/floats"

// Silhouette returns the mean silhouette coefficient in [-1,1]. Points in
// singleton clusters score 0. Fewer than two non-empty clusters score 0.
func Silhouette(data [][]float64, assign []int, k int) float64 {
	if len(data) == 0 {
		return 0
	}
	sizes := make([]int, k)
	for _, a := range assign {
		sizes[a]++
	}
	nonEmpty := 0
	for _, n := range sizes {
		if n > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return 0
	}

	sum := 0.0
	sums := make([]float64, k)
	for i, row := range data {
		own := assign[i]
		if sizes[own] < 2 {
			continue
		}
		for c := range sums {
			sums[c] = 0
		}
		for j, other := range data {
			if i == j {
				continue
			}
			sums[assign[j]] += floats.Distance(row, other, 2)
		}
		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if m := sums[c] / float64(sizes[c]); b < 0 || m < b {
				b = m
			}
		}
		denom := a
		if b > denom {
			denom = b
		}
		if denom > 0 {
			sum += (b - a) / denom
		}
	}
	return sum / float64(len(data))
}

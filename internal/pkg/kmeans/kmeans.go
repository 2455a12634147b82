// Package kmeans implements Lloyd's algorithm with k-means++ seeding, multiple
// initializations and silhouette scoring over dense float64 rows.
package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrInvalidK       = errors.New("kmeans: k must be at least 1")
	ErrTooFewSamples  = errors.New("kmeans: fewer samples than clusters")
	ErrRaggedData     = errors.New("kmeans: rows have different dimensions")
	ErrNonFiniteInput = errors.New("kmeans: input contains NaN or Inf")
	ErrNoValidRun     = errors.New("kmeans: no initialization produced a valid partition")
)

// Config controls a fit. Zero values fall back to the defaults below.
type Config struct {
	K          int
	NInit      int
	MaxIter    int
	Tolerance  float64
	Seed       int64
	MaxRetries int
}

const (
	DefaultNInit      = 10
	DefaultMaxIter    = 300
	DefaultTolerance  = 1e-4
	DefaultMaxRetries = 3
)

func (c Config) withDefaults() Config {
	if c.NInit <= 0 {
		c.NInit = DefaultNInit
	}
	if c.MaxIter <= 0 {
		c.MaxIter = DefaultMaxIter
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// Result is the best partition found across all initializations.
type Result struct {
	Centers     [][]float64
	Assignments []int
	Inertia     float64
	Iterations  int
	Converged   bool
	// Attempts counts retry rounds used, starting at 1.
	Attempts int
}

// Fit partitions data into cfg.K clusters. Runs are seeded from cfg.Seed, so
// identical input and config give identical output. Among runs with equal
// inertia the earliest wins.
func Fit(ctx context.Context, data [][]float64, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if cfg.K < 1 {
		return nil, ErrInvalidK
	}
	if len(data) < cfg.K {
		return nil, fmt.Errorf("%w: %d samples, k=%d", ErrTooFewSamples, len(data), cfg.K)
	}
	if err := checkData(data); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(attempt)))
		var best *Result
		for run := 0; run < cfg.NInit; run++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := lloyd(ctx, data, initPlusPlus(data, cfg.K, rng), cfg)
			if err != nil {
				return nil, err
			}
			if !valid(res, cfg.K) {
				continue
			}
			if best == nil || res.Inertia < best.Inertia {
				best = res
			}
		}
		if best != nil {
			best.Attempts = attempt + 1
			return best, nil
		}
	}
	return nil, ErrNoValidRun
}

// Predict returns the index of the nearest center; ties go to the lower index.
func Predict(centers [][]float64, point []float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centers {
		d := sqDist(c, point)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func checkData(data [][]float64) error {
	dim := len(data[0])
	for _, row := range data {
		if len(row) != dim {
			return ErrRaggedData
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrNonFiniteInput
			}
		}
	}
	return nil
}

func valid(r *Result, k int) bool {
	if math.IsNaN(r.Inertia) || math.IsInf(r.Inertia, 0) {
		return false
	}
	sizes := make([]int, k)
	for _, a := range r.Assignments {
		sizes[a]++
	}
	for _, n := range sizes {
		if n == 0 {
			return false
		}
	}
	return true
}

// initPlusPlus picks k starting centers by D² sampling.
func initPlusPlus(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	chosen := make([]bool, n)
	centers := make([][]float64, 0, k)

	first := rng.Intn(n)
	chosen[first] = true
	centers = append(centers, clone(data[first]))

	dist := make([]float64, n)
	for i := range data {
		dist[i] = sqDist(data[i], centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(dist)
		next := -1
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// every remaining point coincides with a center
			free := make([]int, 0, n)
			for i := range data {
				if !chosen[i] {
					free = append(free, i)
				}
			}
			next = free[rng.Intn(len(free))]
		}
		chosen[next] = true
		c := clone(data[next])
		centers = append(centers, c)
		for i := range data {
			if d := sqDist(data[i], c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centers
}

func lloyd(ctx context.Context, data [][]float64, centers [][]float64, cfg Config) (*Result, error) {
	k, dim := len(centers), len(data[0])
	assign := make([]int, len(data))
	res := &Result{}

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, row := range data {
			assign[i] = Predict(centers, row)
		}
		repairEmpty(data, centers, assign, k)

		next := make([][]float64, k)
		counts := make([]float64, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, row := range data {
			floats.Add(next[assign[i]], row)
			counts[assign[i]]++
		}
		shift := 0.0
		for c := range next {
			if counts[c] == 0 {
				copy(next[c], centers[c])
				continue
			}
			floats.Scale(1/counts[c], next[c])
			shift += sqDist(next[c], centers[c])
		}
		centers = next
		res.Iterations = iter
		if shift <= cfg.Tolerance*cfg.Tolerance {
			res.Converged = true
			break
		}
	}

	for i, row := range data {
		assign[i] = Predict(centers, row)
	}
	repairEmpty(data, centers, assign, k)

	res.Centers = centers
	res.Assignments = assign
	res.Inertia = inertia(data, centers, assign)
	return res, nil
}

// repairEmpty moves the point farthest from its center into each empty
// cluster, taking only from clusters with more than one member.
func repairEmpty(data [][]float64, centers [][]float64, assign []int, k int) {
	sizes := make([]int, k)
	for _, a := range assign {
		sizes[a]++
	}
	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, row := range data {
			if sizes[assign[i]] < 2 {
				continue
			}
			if d := sqDist(row, centers[assign[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}
		sizes[assign[far]]--
		assign[far] = c
		sizes[c]++
		centers[c] = clone(data[far])
	}
}

func inertia(data [][]float64, centers [][]float64, assign []int) float64 {
	total := 0.0
	for i, row := range data {
		total += sqDist(row, centers[assign[i]])
	}
	return total
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

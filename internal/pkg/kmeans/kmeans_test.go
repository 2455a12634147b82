package kmeans

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeBlobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0.2, 0.1}, {0.1, 0.3},
		{10, 10}, {10.2, 9.9}, {9.8, 10.1}, {10.1, 10.2},
		{-10, 10}, {-9.9, 10.3}, {-10.2, 9.8},
	}
}

func TestFit_SeparatesBlobs(t *testing.T) {
	data := threeBlobs()
	res, err := Fit(context.Background(), data, Config{K: 3, Seed: 42})
	require.NoError(t, err)
	require.Len(t, res.Centers, 3)

	groups := [][]int{{0, 1, 2}, {3, 4, 5, 6}, {7, 8, 9}}
	seen := map[int]bool{}
	for _, g := range groups {
		c := res.Assignments[g[0]]
		for _, i := range g {
			assert.Equal(t, c, res.Assignments[i], "row %d", i)
		}
		assert.False(t, seen[c], "two groups share cluster %d", c)
		seen[c] = true
	}
	assert.True(t, res.Converged)
	assert.Less(t, res.Inertia, 1.0)
}

func TestFit_Deterministic(t *testing.T) {
	data := threeBlobs()
	a, err := Fit(context.Background(), data, Config{K: 3, Seed: 7})
	require.NoError(t, err)
	b, err := Fit(context.Background(), data, Config{K: 3, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Centers, b.Centers)
	assert.Equal(t, a.Inertia, b.Inertia)
}

func TestFit_ExactlyKSamples(t *testing.T) {
	data := [][]float64{{1, 1}, {5, 5}, {9, 9}}
	res, err := Fit(context.Background(), data, Config{K: 3, Seed: 42})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{0, 1, 2}, res.Assignments)
	assert.InDelta(t, 0, res.Inertia, 1e-12)
}

func TestFit_DuplicatePointsStillFillEveryCluster(t *testing.T) {
	data := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	res, err := Fit(context.Background(), data, Config{K: 2, Seed: 42})
	require.NoError(t, err)

	sizes := map[int]int{}
	for _, a := range res.Assignments {
		sizes[a]++
	}
	assert.Len(t, sizes, 2)
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name string
		data [][]float64
		k    int
		want error
	}{
		{"zero k", [][]float64{{1}}, 0, ErrInvalidK},
		{"fewer samples than k", [][]float64{{1}, {2}}, 3, ErrTooFewSamples},
		{"ragged rows", [][]float64{{1, 2}, {3}}, 1, ErrRaggedData},
		{"nan", [][]float64{{1}, {math.NaN()}}, 1, ErrNonFiniteInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(context.Background(), tt.data, Config{K: tt.k})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fit(ctx, threeBlobs(), Config{K: 3})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_TiesGoToLowerIndex(t *testing.T) {
	centers := [][]float64{{0, 0}, {2, 0}}
	assert.Equal(t, 0, Predict(centers, []float64{1, 0}))
	assert.Equal(t, 1, Predict(centers, []float64{1.5, 0}))
}

func TestSilhouette(t *testing.T) {
	t.Run("well separated is near one", func(t *testing.T) {
		data := [][]float64{{0}, {0.1}, {10}, {10.1}}
		s := Silhouette(data, []int{0, 0, 1, 1}, 2)
		assert.Greater(t, s, 0.95)
		assert.LessOrEqual(t, s, 1.0)
	})

	t.Run("known value", func(t *testing.T) {
		data := [][]float64{{0}, {1}, {4}, {5}}
		s := Silhouette(data, []int{0, 0, 1, 1}, 2)
		// point 0: a=1 b=4.5 -> 0.7778; point 1: a=1 b=3.5 -> 0.7143; mirrored.
		assert.InDelta(t, (3.5/4.5+2.5/3.5)/2, s, 1e-9)
	})

	t.Run("single cluster is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Silhouette([][]float64{{0}, {1}}, []int{0, 0}, 1))
	})

	t.Run("singletons score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Silhouette([][]float64{{0}, {1}, {2}}, []int{0, 1, 2}, 3))
	})
}

func TestScaler(t *testing.T) {
	data := [][]float64{{1, 5}, {3, 5}}
	s := FitScaler(data)

	assert.Equal(t, []float64{2, 5}, s.Means)
	assert.Equal(t, []float64{1, 1}, s.Scales)
	assert.Equal(t, []float64{-1, 0}, s.Transform(data[0]))
	assert.Equal(t, data[1], s.Inverse(s.Transform(data[1])))
}

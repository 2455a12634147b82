package kmeans

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance.
type Scaler struct {
	Means  []float64
	Scales []float64
}

// FitScaler computes per-column mean and population standard deviation.
// A constant column gets scale 1 so it maps to zero instead of NaN.
func FitScaler(data [][]float64) Scaler {
	if len(data) == 0 {
		return Scaler{}
	}
	dim := len(data[0])
	s := Scaler{Means: make([]float64, dim), Scales: make([]float64, dim)}
	col := make([]float64, len(data))
	for j := 0; j < dim; j++ {
		for i, row := range data {
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		std := math.Sqrt(variance)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Means[j] = mean
		s.Scales[j] = std
	}
	return s
}

func (s Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out
}

func (s Scaler) TransformAll(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = s.Transform(row)
	}
	return out
}

func (s Scaler) Inverse(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = v*s.Scales[j] + s.Means[j]
	}
	return out
}

package performance

import (
	"testing"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/stretchr/testify/assert"
)

func TestLabelsFor(t *testing.T) {
	tests := []struct {
		k    int
		want []string
	}{
		{0, nil},
		{1, []string{"Average Performer"}},
		{2, []string{"Needs Improvement", "High Performer"}},
		{3, []string{"Needs Improvement", "Average Performer", "High Performer"}},
		{4, []string{"Needs Improvement", "Average Performer", "Good Performer", "High Performer"}},
		{5, []string{
			"Needs Improvement (tier 1 of 5)",
			"Needs Improvement (tier 2 of 5)",
			"Average Performer (tier 3 of 5)",
			"Good Performer (tier 4 of 5)",
			"High Performer (tier 5 of 5)",
		}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelsFor(tt.k), "k=%d", tt.k)
	}
}

func TestClusterLabeler_OrderRanksByGoodness(t *testing.T) {
	l := NewClusterLabeler(Scorer{TargetDailyHours: 8})
	strong := performance.FeatureVector{AverageDailyHours: 8, AttendanceRate: 98, PunctualityScore: 95, ConsistencyScore: 90, ProductivityScore: 85}
	mid := performance.FeatureVector{AverageDailyHours: 7, AttendanceRate: 80, PunctualityScore: 70, ConsistencyScore: 75, ProductivityScore: 60}
	weak := performance.FeatureVector{AverageDailyHours: 4, AttendanceRate: 40, PunctualityScore: 20, ConsistencyScore: 50, ProductivityScore: 30}

	order := l.Order([][]float64{mid.Values(), strong.Values(), weak.Values()})
	assert.Equal(t, []int{2, 0, 1}, order)
}

func TestClusterLabeler_OvertimeBreaksOtherwiseEqualCenters(t *testing.T) {
	l := NewClusterLabeler(Scorer{TargetDailyHours: 8})
	base := performance.FeatureVector{AverageDailyHours: 8, AttendanceRate: 90, PunctualityScore: 90, ConsistencyScore: 90, ProductivityScore: 90}
	tired := base
	tired.OvertimeRatio = 0.5

	assert.Equal(t, []int{1, 0}, l.Order([][]float64{base.Values(), tired.Values()}))
	assert.Equal(t, []int{0, 1}, l.Order([][]float64{base.Values(), base.Values()}), "ties keep raw order")
}

func TestScorer(t *testing.T) {
	s := Scorer{TargetDailyHours: 8}
	perfect := performance.FeatureVector{AverageDailyHours: 9, AttendanceRate: 100, PunctualityScore: 100, ConsistencyScore: 100, ProductivityScore: 100}
	assert.Equal(t, 100.0, s.Score(perfect))
	assert.Equal(t, 0.0, s.Score(performance.FeatureVector{}))

	half := performance.FeatureVector{AverageDailyHours: 4, AttendanceRate: 50, PunctualityScore: 50, ConsistencyScore: 50, ProductivityScore: 50}
	assert.Equal(t, 50.0, s.Score(half))
}

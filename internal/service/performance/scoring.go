package performance

import (
	"math"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

// Weights of the overall performance score. They sum to 1.
const (
	weightAttendance   = 0.25
	weightPunctuality  = 0.20
	weightConsistency  = 0.15
	weightProductivity = 0.25
	weightDailyHours   = 0.15
)

// Scorer collapses a feature vector into a 0-100 standing.
type Scorer struct {
	TargetDailyHours float64
}

func (s Scorer) Score(f performance.FeatureVector) float64 {
	hours := 0.0
	if s.TargetDailyHours > 0 {
		hours = math.Min(f.AverageDailyHours/s.TargetDailyHours, 1) * 100
	}
	score := weightAttendance*clamp(f.AttendanceRate, 0, 100) +
		weightPunctuality*clamp(f.PunctualityScore, 0, 100) +
		weightConsistency*clamp(f.ConsistencyScore, 0, 100) +
		weightProductivity*clamp(f.ProductivityScore, 0, 100) +
		weightDailyHours*clamp(hours, 0, 100)
	return round2(score)
}

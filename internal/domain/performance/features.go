package performance

import "fmt"

// FeatureSetVersion identifies the feature order below. Bump it whenever a
// feature is added, removed or reordered so persisted snapshots stop matching.
const FeatureSetVersion = 1

// Feature names in the fixed column order of every feature matrix.
const (
	FeatureTotalWorkHours    = "total_work_hours"
	FeatureAverageDailyHours = "average_daily_hours"
	FeatureAttendanceRate    = "attendance_rate"
	FeatureOvertimeRatio     = "overtime_ratio"
	FeaturePunctualityScore  = "punctuality_score"
	FeatureConsistencyScore  = "consistency_score"
	FeatureProductivityScore = "productivity_score"
)

// FeatureNames returns the feature order for FeatureSetVersion.
func FeatureNames() []string {
	return []string{
		FeatureTotalWorkHours,
		FeatureAverageDailyHours,
		FeatureAttendanceRate,
		FeatureOvertimeRatio,
		FeaturePunctualityScore,
		FeatureConsistencyScore,
		FeatureProductivityScore,
	}
}

// FeatureVector is the per-employee signal set produced by one pipeline run.
// Scores and attendance_rate are percentages in [0,100]; overtime_ratio is in [0,1].
type FeatureVector struct {
	TotalWorkHours    float64 `json:"total_work_hours"`
	AverageDailyHours float64 `json:"average_daily_hours"`
	AttendanceRate    float64 `json:"attendance_rate"`
	OvertimeRatio     float64 `json:"overtime_ratio"`
	PunctualityScore  float64 `json:"punctuality_score"`
	ConsistencyScore  float64 `json:"consistency_score"`
	ProductivityScore float64 `json:"productivity_score"`
}

// Values returns the vector in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.TotalWorkHours,
		f.AverageDailyHours,
		f.AttendanceRate,
		f.OvertimeRatio,
		f.PunctualityScore,
		f.ConsistencyScore,
		f.ProductivityScore,
	}
}

// Get returns the value of a named feature.
func (f FeatureVector) Get(name string) (float64, bool) {
	for i, n := range FeatureNames() {
		if n == name {
			return f.Values()[i], true
		}
	}
	return 0, false
}

// FeatureVectorFromValues is the inverse of Values.
func FeatureVectorFromValues(values []float64) (FeatureVector, error) {
	if len(values) != len(FeatureNames()) {
		return FeatureVector{}, fmt.Errorf("feature vector needs %d values, got %d", len(FeatureNames()), len(values))
	}
	return FeatureVector{
		TotalWorkHours:    values[0],
		AverageDailyHours: values[1],
		AttendanceRate:    values[2],
		OvertimeRatio:     values[3],
		PunctualityScore:  values[4],
		ConsistencyScore:  values[5],
		ProductivityScore: values[6],
	}, nil
}

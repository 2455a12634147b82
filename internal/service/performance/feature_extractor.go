package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"gonum.org/v1/gonum/stat"
)

const (
	descriptionFullLength = 100.0
	descriptionWeight     = 40.0
	hoursWeight           = 60.0
)

// ExtractorOptions configures punctuality and productivity heuristics.
type ExtractorOptions struct {
	// PunctualityThreshold is the HH:MM clock-in deadline.
	PunctualityThreshold string
	PunctualityGrace     time.Duration
	TargetDailyHours     float64
	Location             *time.Location
}

// FeatureExtractor turns one employee's approved records into a FeatureVector.
type FeatureExtractor struct {
	deadline time.Duration // offset from local midnight, grace included
	target   float64
	loc      *time.Location
}

func NewFeatureExtractor(opts ExtractorOptions) (*FeatureExtractor, error) {
	t, err := time.Parse("15:04", opts.PunctualityThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid punctuality threshold %q: %w", opts.PunctualityThreshold, err)
	}
	if opts.TargetDailyHours <= 0 {
		return nil, fmt.Errorf("target daily hours must be positive")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &FeatureExtractor{
		deadline: time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + opts.PunctualityGrace,
		target:   opts.TargetDailyHours,
		loc:      loc,
	}, nil
}

// Extract computes the features of employeeID over period. Records outside the
// window or not approved are ignored; if nothing remains it returns
// ErrInsufficientData.
func (e *FeatureExtractor) Extract(employeeID string, period performance.DateRange, records []attendance.Attendance) (performance.FeatureVector, error) {
	var qualifying []attendance.Attendance
	for _, r := range records {
		if r.IsApproved() && period.Contains(r.Date) {
			qualifying = append(qualifying, r)
		}
	}
	if len(qualifying) == 0 {
		return performance.FeatureVector{}, &performance.AnalysisError{
			Kind:       performance.ErrInsufficientData,
			EmployeeID: employeeID,
			Range:      &period,
			Detail:     "no approved attendance in range",
		}
	}

	var (
		attendedDays  = map[string]struct{}{}
		dailyMinutes  = map[string]float64{}
		firstClockIn  = map[string]time.Time{}
		totalMinutes  float64
		totalOvertime float64
		productivity  float64
		completed     int
		minDate       = qualifying[0].Date
		maxDate       = qualifying[0].Date
	)

	for _, r := range qualifying {
		day := dayKey(r.Date)
		attendedDays[day] = struct{}{}
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}

		if r.ClockIn != nil {
			if first, ok := firstClockIn[day]; !ok || r.ClockIn.Before(first) {
				firstClockIn[day] = *r.ClockIn
			}
		}

		if !r.IsCompleted() {
			continue
		}
		minutes := float64(r.WorkMinutes())
		completed++
		totalMinutes += minutes
		totalOvertime += float64(r.Overtime())
		dailyMinutes[day] += minutes
		productivity += e.recordProductivity(r.WorkDescription, minutes/60)
	}

	features := performance.FeatureVector{
		TotalWorkHours: totalMinutes / 60,
	}

	if len(dailyMinutes) > 0 {
		features.AverageDailyHours = features.TotalWorkHours / float64(len(dailyMinutes))
	}

	expected := expectedWorkingDays(period, minDate, maxDate)
	if expected > 0 {
		features.AttendanceRate = clamp(float64(len(attendedDays))/float64(expected)*100, 0, 100)
	}

	if totalMinutes > 0 {
		features.OvertimeRatio = clamp(totalOvertime/totalMinutes, 0, 1)
	}

	features.PunctualityScore = e.punctuality(firstClockIn)
	features.ConsistencyScore = consistency(dailyMinutes)

	if completed > 0 {
		features.ProductivityScore = clamp(productivity/float64(completed), 0, 100)
	}

	return roundFeatures(features), nil
}

func (e *FeatureExtractor) punctuality(firstClockIn map[string]time.Time) float64 {
	if len(firstClockIn) == 0 {
		return 0
	}
	punctual := 0
	for _, ts := range firstClockIn {
		local := ts.In(e.loc)
		sinceMidnight := time.Duration(local.Hour())*time.Hour +
			time.Duration(local.Minute())*time.Minute +
			time.Duration(local.Second())*time.Second
		if sinceMidnight <= e.deadline {
			punctual++
		}
	}
	return float64(punctual) / float64(len(firstClockIn)) * 100
}

func (e *FeatureExtractor) recordProductivity(description string, hours float64) float64 {
	desc := math.Min(float64(len([]rune(description)))/descriptionFullLength, 1) * descriptionWeight
	work := math.Min(hours/e.target, 1) * hoursWeight
	return desc + work
}

// consistency is 100 minus the coefficient of variation of per-day hours, in percent.
func consistency(dailyMinutes map[string]float64) float64 {
	if len(dailyMinutes) == 0 {
		return 0
	}
	hours := make([]float64, 0, len(dailyMinutes))
	for _, m := range dailyMinutes {
		hours = append(hours, m/60)
	}
	mean, variance := stat.PopMeanVariance(hours, nil)
	if mean <= 0 {
		return 0
	}
	cv := math.Sqrt(variance) / mean
	return clamp(100-cv*100, 0, 100)
}

// expectedWorkingDays counts weekdays in the window. Missing bounds are closed
// with the first and last record dates; an open window never expects fewer
// than one day.
func expectedWorkingDays(period performance.DateRange, minDate, maxDate time.Time) int {
	from, to := minDate, maxDate
	if period.From != nil {
		from = *period.From
	}
	if period.To != nil {
		to = *period.To
	}
	n := countWeekdays(from, to)
	if n == 0 && !period.IsBounded() {
		n = 1
	}
	return n
}

func countWeekdays(from, to time.Time) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundFeatures(f performance.FeatureVector) performance.FeatureVector {
	return performance.FeatureVector{
		TotalWorkHours:    round2(f.TotalWorkHours),
		AverageDailyHours: round2(f.AverageDailyHours),
		AttendanceRate:    round2(f.AttendanceRate),
		OvertimeRatio:     math.Round(f.OvertimeRatio*10000) / 10000,
		PunctualityScore:  round2(f.PunctualityScore),
		ConsistencyScore:  round2(f.ConsistencyScore),
		ProductivityScore: round2(f.ProductivityScore),
	}
}

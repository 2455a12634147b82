package performance

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

// Tier labels from worst to best.
const (
	LabelNeedsImprovement = "Needs Improvement"
	LabelAverage          = "Average Performer"
	LabelGood             = "Good Performer"
	LabelHigh             = "High Performer"
)

var tierLabels = []string{LabelNeedsImprovement, LabelAverage, LabelGood, LabelHigh}

// overtimePenalty weighs overtime_ratio against the 0-100 performance score.
const overtimePenalty = 10.0

// LabelsFor returns k labels ordered worst to best.
func LabelsFor(k int) []string {
	switch {
	case k <= 0:
		return nil
	case k == 1:
		return []string{LabelAverage}
	case k == 2:
		return []string{LabelNeedsImprovement, LabelHigh}
	case k == 3:
		return []string{LabelNeedsImprovement, LabelAverage, LabelHigh}
	case k == 4:
		return append([]string(nil), tierLabels...)
	}
	labels := make([]string, k)
	for i := range labels {
		base := tierLabels[i*(len(tierLabels)-1)/(k-1)]
		labels[i] = fmt.Sprintf("%s (tier %d of %d)", base, i+1, k)
	}
	return labels
}

// ClusterLabeler ranks cluster centers so labels never depend on raw k-means indices.
type ClusterLabeler struct {
	scorer Scorer
}

func NewClusterLabeler(scorer Scorer) *ClusterLabeler {
	return &ClusterLabeler{scorer: scorer}
}

// Goodness is the ranking key of a de-normalized center.
func (l *ClusterLabeler) Goodness(center []float64) float64 {
	f, err := performance.FeatureVectorFromValues(center)
	if err != nil {
		return 0
	}
	return l.scorer.Score(f) - overtimePenalty*f.OvertimeRatio
}

// Order returns raw cluster indices sorted worst to best. Equal goodness keeps
// the lower raw index first.
func (l *ClusterLabeler) Order(centers [][]float64) []int {
	order := make([]int, len(centers))
	goodness := make([]float64, len(centers))
	for i, c := range centers {
		order[i] = i
		goodness[i] = l.Goodness(c)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return goodness[order[a]] < goodness[order[b]]
	})
	return order
}

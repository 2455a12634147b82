package performance

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

// InsightInput is everything the generator knows about one employee.
type InsightInput struct {
	Features         performance.FeatureVector
	Label            string
	Cluster          int // 0 is the lowest tier
	NClusters        int
	PerformanceScore float64
}

type Insights struct {
	Insights        []string
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
}

// InsightGenerator applies a RuleSet to a feature vector.
type InsightGenerator struct {
	rules       RuleSet
	targetHours float64
}

func NewInsightGenerator(rules RuleSet, targetHours float64) *InsightGenerator {
	return &InsightGenerator{rules: rules, targetHours: targetHours}
}

func (g *InsightGenerator) Generate(in InsightInput) Insights {
	out := Insights{
		Insights:        []string{},
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
	}

	for _, rule := range g.rules.Rules {
		v, ok := in.Features.Get(rule.Feature)
		if !ok {
			continue
		}
		if rule.Strong != nil && rule.Strong.matches(v, g.targetHours) {
			out.Strengths = append(out.Strengths, rule.Strong.Message)
		}
		if rule.Weak != nil && rule.Weak.matches(v, g.targetHours) {
			out.Weaknesses = append(out.Weaknesses, rule.Weak.Message)
			out.Recommendations = append(out.Recommendations, rule.Weak.Recommendation)
		}
	}

	if in.NClusters > 1 && in.Cluster == 0 && g.rules.LowestTierRecommendation != "" {
		out.Recommendations = append(out.Recommendations, g.rules.LowestTierRecommendation)
	}
	if len(out.Weaknesses) == 0 && g.rules.NoWeaknessRecommendation != "" {
		out.Recommendations = append(out.Recommendations, g.rules.NoWeaknessRecommendation)
	}

	out.Insights = append(out.Insights,
		fmt.Sprintf("Classified as %s with a performance score of %.1f.", in.Label, in.PerformanceScore))
	if in.NClusters > 1 {
		out.Insights = append(out.Insights,
			fmt.Sprintf("Ranked in tier %d of %d, where tier %d is the strongest.", in.Cluster+1, in.NClusters, in.NClusters))
	}
	out.Insights = append(out.Insights,
		fmt.Sprintf("Worked %.1f hours in total, averaging %.1f hours per day at %.1f%% attendance.",
			in.Features.TotalWorkHours, in.Features.AverageDailyHours, in.Features.AttendanceRate))
	if len(out.Strengths) > 0 {
		out.Insights = append(out.Insights, "Key strengths: "+strings.Join(out.Strengths, ", ")+".")
	}
	if len(out.Weaknesses) > 0 {
		out.Insights = append(out.Insights, "Focus areas: "+strings.Join(out.Weaknesses, ", ")+".")
	}

	return out
}

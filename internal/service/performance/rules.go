package performance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"gopkg.in/yaml.v3"
)

// Threshold is one side of an insight rule. Value is compared to the feature
// with Op; when RelativeToTarget is set it is first multiplied by the daily
// hours target.
type Threshold struct {
	Op               string  `yaml:"op"`
	Value            float64 `yaml:"value"`
	RelativeToTarget bool    `yaml:"relative_to_target,omitempty"`
	Message          string  `yaml:"message"`
	Recommendation   string  `yaml:"recommendation,omitempty"`
}

type InsightRule struct {
	Feature string     `yaml:"feature"`
	Strong  *Threshold `yaml:"strong,omitempty"`
	Weak    *Threshold `yaml:"weak,omitempty"`
}

// RuleSet is the threshold table behind strengths, weaknesses and recommendations.
type RuleSet struct {
	Rules []InsightRule `yaml:"rules"`

	// Recommendations not tied to a single feature.
	LowestTierRecommendation string `yaml:"lowest_tier_recommendation"`
	NoWeaknessRecommendation string `yaml:"no_weakness_recommendation"`
}

// DefaultRules is the built-in table used when no rule file is configured.
func DefaultRules() RuleSet {
	return RuleSet{
		Rules: []InsightRule{
			{
				Feature: performance.FeatureAttendanceRate,
				Strong:  &Threshold{Op: ">=", Value: 95, Message: "Excellent attendance record"},
				Weak: &Threshold{Op: "<", Value: 80, Message: "Low attendance rate",
					Recommendation: "Improve attendance; aim to be present on at least 80% of working days."},
			},
			{
				Feature: performance.FeaturePunctualityScore,
				Strong:  &Threshold{Op: ">=", Value: 90, Message: "Very punctual"},
				Weak: &Threshold{Op: "<", Value: 70, Message: "Frequent late arrivals",
					Recommendation: "Plan arrivals to clock in before the start time."},
			},
			{
				Feature: performance.FeatureConsistencyScore,
				Strong:  &Threshold{Op: ">=", Value: 85, Message: "Highly consistent working hours"},
				Weak: &Threshold{Op: "<", Value: 60, Message: "Irregular daily working hours",
					Recommendation: "Keep a steadier daily schedule to reduce swings in working hours."},
			},
			{
				Feature: performance.FeatureProductivityScore,
				Strong:  &Threshold{Op: ">=", Value: 80, Message: "Highly productive with detailed work reports"},
				Weak: &Threshold{Op: "<", Value: 50, Message: "Low productivity score",
					Recommendation: "Write more detailed work descriptions and meet the daily hours target."},
			},
			{
				Feature: performance.FeatureOvertimeRatio,
				Strong:  &Threshold{Op: "<=", Value: 0.1, Message: "Healthy work-life balance"},
				Weak: &Threshold{Op: ">", Value: 0.3, Message: "Excessive overtime",
					Recommendation: "Review workload distribution to reduce overtime."},
			},
			{
				Feature: performance.FeatureAverageDailyHours,
				Strong:  &Threshold{Op: ">=", Value: 1, RelativeToTarget: true, Message: "Meets the daily working hours target"},
				Weak: &Threshold{Op: "<", Value: 0.75, RelativeToTarget: true, Message: "Below the daily working hours target",
					Recommendation: "Increase daily working hours toward the target."},
			},
		},
		LowestTierRecommendation: "Schedule a one-on-one review to agree on an improvement plan.",
		NoWeaknessRecommendation: "Maintain current performance and consider mentoring teammates.",
	}
}

// LoadRules reads a YAML rule file. Unknown keys are rejected.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: %v", performance.ErrInvalidInsightRuleFile, err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil && !errors.Is(err, io.EOF) {
		return RuleSet{}, fmt.Errorf("%w: %v", performance.ErrInvalidInsightRuleFile, err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

func (rs RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("%w: no rules defined", performance.ErrInvalidInsightRuleFile)
	}
	names := performance.FeatureNames()
	for i, r := range rs.Rules {
		if !slices.Contains(names, r.Feature) {
			return fmt.Errorf("%w: rule %d: unknown feature %q", performance.ErrInvalidInsightRuleFile, i, r.Feature)
		}
		if r.Strong == nil && r.Weak == nil {
			return fmt.Errorf("%w: rule %d (%s): needs a strong or weak threshold", performance.ErrInvalidInsightRuleFile, i, r.Feature)
		}
		for _, th := range []*Threshold{r.Strong, r.Weak} {
			if th == nil {
				continue
			}
			if _, ok := comparators[th.Op]; !ok {
				return fmt.Errorf("%w: rule %d (%s): unsupported op %q", performance.ErrInvalidInsightRuleFile, i, r.Feature, th.Op)
			}
			if th.Message == "" {
				return fmt.Errorf("%w: rule %d (%s): message is required", performance.ErrInvalidInsightRuleFile, i, r.Feature)
			}
		}
		if r.Weak != nil && r.Weak.Recommendation == "" {
			return fmt.Errorf("%w: rule %d (%s): weak threshold needs a recommendation", performance.ErrInvalidInsightRuleFile, i, r.Feature)
		}
	}
	return nil
}

var comparators = map[string]func(v, limit float64) bool{
	">=": func(v, limit float64) bool { return v >= limit },
	">":  func(v, limit float64) bool { return v > limit },
	"<=": func(v, limit float64) bool { return v <= limit },
	"<":  func(v, limit float64) bool { return v < limit },
}

func (th *Threshold) matches(v, targetHours float64) bool {
	limit := th.Value
	if th.RelativeToTarget {
		limit *= targetHours
	}
	return comparators[th.Op](v, limit)
}

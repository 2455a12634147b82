package performance

import (
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/validator"
)

// ========================================
// CLUSTERING DTOs
// ========================================

// ClusteringRequest is the body of POST /performance/clustering/analyze.
type ClusteringRequest struct {
	UserIDs   []string `json:"user_ids,omitempty"`
	DateFrom  *string  `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo    *string  `json:"date_to,omitempty"`   // YYYY-MM-DD
	NClusters *int     `json:"n_clusters,omitempty"`
}

func (r *ClusteringRequest) Validate() error {
	var errs validator.ValidationErrors

	for _, id := range r.UserIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "user_ids",
				Message: "user_ids must not contain empty values",
			})
			break
		}
	}

	if r.DateFrom != nil && *r.DateFrom != "" {
		if _, valid := validator.IsValidDate(*r.DateFrom); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date_from",
				Message: "date_from must be in YYYY-MM-DD format",
			})
		}
	}

	if r.DateTo != nil && *r.DateTo != "" {
		if _, valid := validator.IsValidDate(*r.DateTo); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date_to",
				Message: "date_to must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToParams converts a validated request; defaultK applies when n_clusters is absent.
func (r *ClusteringRequest) ToParams(defaultK int) (FitParams, error) {
	rng, err := ParseDateRange(deref(r.DateFrom), deref(r.DateTo))
	if err != nil {
		return FitParams{}, err
	}
	k := defaultK
	if r.NClusters != nil {
		k = *r.NClusters
	}
	return FitParams{EmployeeIDs: r.UserIDs, Range: rng, NClusters: k}, nil
}

// FitParams are the already-validated inputs of a clustering run. An empty
// EmployeeIDs means all active workers.
type FitParams struct {
	EmployeeIDs []string
	Range       DateRange
	NClusters   int
}

type ClusteringResponse struct {
	Results        []ClusterAssignment  `json:"results"`
	ClusterCenters map[string][]float64 `json:"cluster_centers"`
	ClusterLabels  []string             `json:"cluster_labels"`
	FeatureNames   []string             `json:"feature_names"`
	AnalysisPeriod Period               `json:"analysis_period"`
	TotalUsers     int                  `json:"total_users"`
	ModelAccuracy  float64              `json:"model_accuracy"`
	Skipped        []SkippedEmployee    `json:"skipped"`
	SnapshotID     string               `json:"snapshot_id"`
	TrainedAt      time.Time            `json:"trained_at"`
}

type BatchPredictRequest struct {
	UserIDs  []string `json:"user_ids"`
	DateFrom *string  `json:"date_from,omitempty"`
	DateTo   *string  `json:"date_to,omitempty"`
}

func (r *BatchPredictRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.UserIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_ids",
			Message: "user_ids is required",
		})
	}

	if _, err := ParseDateRange(deref(r.DateFrom), deref(r.DateTo)); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BatchPredictItem struct {
	EmployeeID string             `json:"user_id"`
	Result     *ClusterAssignment `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ========================================
// INSIGHT & METRIC DTOs
// ========================================

type InsightsResponse struct {
	EmployeeID          string   `json:"user_id"`
	ClusterLabel        string   `json:"cluster_label"`
	PerformanceScore    float64  `json:"performance_score"`
	Insights            []string `json:"insights"`
	Recommendations     []string `json:"recommendations"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

type MetricsResponse struct {
	EmployeeID     string        `json:"user_id"`
	Metrics        FeatureVector `json:"metrics"`
	AnalysisPeriod Period        `json:"analysis_period"`
}

type ModelInfoResponse struct {
	ModelTrained  bool       `json:"model_trained"`
	Algorithm     string     `json:"algorithm"`
	NClusters     int        `json:"n_clusters"`
	FeaturesCount int        `json:"features_count"`
	FeatureNames  []string   `json:"feature_names"`
	ClusterLabels []string   `json:"cluster_labels"`
	Silhouette    *float64   `json:"silhouette,omitempty"`
	SnapshotID    string     `json:"snapshot_id,omitempty"`
	TrainedAt     *time.Time `json:"trained_at,omitempty"`
	TrainingSize  int        `json:"training_size,omitempty"`
}

// TeamMemberPerformance is one row of the team performance table.
type TeamMemberPerformance struct {
	Rank               int           `json:"rank,omitempty"`
	EmployeeID         string        `json:"user_id"`
	Name               string        `json:"name"`
	WorkerID           string        `json:"worker_id"`
	Email              string        `json:"email,omitempty"`
	PerformanceMetrics FeatureVector `json:"performance_metrics"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

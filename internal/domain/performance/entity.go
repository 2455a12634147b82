package performance

import (
	"fmt"
	"time"
)

// SnapshotSchemaVersion is written into every persisted snapshot. Loaders accept
// snapshots matching SnapshotSchemaConstraint and reject anything else.
const (
	SnapshotSchemaVersion    = "1.0.0"
	SnapshotSchemaConstraint = "^1.0.0"
)

// Signature identifies which persisted snapshot applies to a request.
type Signature struct {
	NClusters         int `json:"n_clusters"`
	FeatureSetVersion int `json:"feature_set_version"`
}

// NewSignature returns the signature for k clusters over the current feature set.
func NewSignature(k int) Signature {
	return Signature{NClusters: k, FeatureSetVersion: FeatureSetVersion}
}

func (s Signature) String() string {
	return fmt.Sprintf("k%d-features-v%d", s.NClusters, s.FeatureSetVersion)
}

// Snapshot is a trained clustering model. Centers are in normalized space and
// ordered worst to best, so Labels[i] names Centers[i].
type Snapshot struct {
	SchemaVersion string      `json:"schema_version"`
	ID            string      `json:"id"`
	Signature     Signature   `json:"signature"`
	FeatureNames  []string    `json:"feature_names"`
	Means         []float64   `json:"means"`
	Scales        []float64   `json:"scales"`
	Centers       [][]float64 `json:"centers"`
	Labels        []string    `json:"labels"`
	Silhouette    float64     `json:"silhouette"`
	Inertia       float64     `json:"inertia"`
	TrainingSize  int         `json:"training_size"`
	Seed          int64       `json:"seed"`
	Period        Period      `json:"period"`
	TrainedAt     time.Time   `json:"trained_at"`
}

// CurrentModel points at the most recently trained snapshot. Predict-only
// operations serve this model whatever cluster count it was trained with.
type CurrentModel struct {
	Signature  Signature `json:"signature"`
	SnapshotID string    `json:"snapshot_id"`
	TrainedAt  time.Time `json:"trained_at"`
}

// Denormalize maps a normalized point back to feature units.
func (s Snapshot) Denormalize(point []float64) []float64 {
	out := make([]float64, len(point))
	for i, v := range point {
		out[i] = v*s.Scales[i] + s.Means[i]
	}
	return out
}

// Normalize applies the stored standardization to a raw feature vector.
func (s Snapshot) Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Means[i]) / s.Scales[i]
	}
	return out
}

// ClusterAssignment places one employee in a performance tier.
type ClusterAssignment struct {
	EmployeeID       string        `json:"user_id"`
	WorkerID         string        `json:"worker_id"`
	Name             string        `json:"name"`
	Cluster          int           `json:"cluster"`
	ClusterLabel     string        `json:"cluster_label"`
	PerformanceScore float64       `json:"performance_score"`
	Features         FeatureVector `json:"features"`
}

// EmployeeFeatures is one row of a feature dataset with its identity metadata.
type EmployeeFeatures struct {
	EmployeeID string
	WorkerID   string
	Name       string
	Email      string
	Features   FeatureVector
}

// SkippedEmployee records why an employee was left out of a batch.
type SkippedEmployee struct {
	EmployeeID string `json:"user_id"`
	Reason     string `json:"reason"`
}

// Dataset is an aligned feature matrix: Rows[i] describes Matrix[i].
type Dataset struct {
	FeatureNames []string
	Rows         []EmployeeFeatures
	Matrix       [][]float64
	Skipped      []SkippedEmployee
}

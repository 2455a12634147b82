package performance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/kmeans"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	algorithmName         = "K-Means"
	defaultRankingLimit   = 10
	batchPredictMaxWorker = 8
)

// Options tunes the clustering entry points.
type Options struct {
	DefaultClusters int
	// KMeans.K is ignored; every fit sets it from its own request.
	KMeans     kmeans.Config
	FitTimeout time.Duration
}

type PerformanceServiceImpl struct {
	builder   *DatasetBuilder
	snapshots performance.SnapshotRepository
	cache     *ModelCache
	labeler   *ClusterLabeler
	scorer    Scorer
	insights  *InsightGenerator
	metrics   *metrics.Metrics
	opts      Options

	fitLocks keyedMutex
	// currentMu orders pointer writes so storage and cache agree on the current model.
	currentMu sync.Mutex
	now       func() time.Time
}

func NewPerformanceService(
	builder *DatasetBuilder,
	snapshots performance.SnapshotRepository,
	cache *ModelCache,
	insights *InsightGenerator,
	scorer Scorer,
	m *metrics.Metrics,
	opts Options,
) performance.PerformanceService {
	if opts.DefaultClusters < 1 {
		opts.DefaultClusters = 3
	}
	return &PerformanceServiceImpl{
		builder:   builder,
		snapshots: snapshots,
		cache:     cache,
		labeler:   NewClusterLabeler(scorer),
		scorer:    scorer,
		insights:  insights,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
	}
}

// FitAndCluster trains a model for params.NClusters and assigns every usable employee.
func (s *PerformanceServiceImpl) FitAndCluster(ctx context.Context, params performance.FitParams) (*performance.ClusteringResponse, error) {
	if err := validateFitParams(params); err != nil {
		return nil, err
	}
	sig := performance.NewSignature(params.NClusters)

	unlock := s.fitLocks.Lock(sig.String())
	defer unlock()

	if s.opts.FitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FitTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.fit(ctx, params, sig)
	if err != nil {
		s.metrics.ObserveFit(sig.String(), time.Since(start), 0, 0, err)
		slog.Warn("clustering failed", "signature", sig.String(), "range", params.Range.String(), "error", err)
		return nil, err
	}
	s.metrics.ObserveFit(sig.String(), time.Since(start), resp.ModelAccuracy, resp.TotalUsers, nil)

	slog.Info("clustering completed",
		"signature", sig.String(),
		"snapshot_id", resp.SnapshotID,
		"employees", resp.TotalUsers,
		"skipped", len(resp.Skipped),
		"silhouette", resp.ModelAccuracy,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (s *PerformanceServiceImpl) fit(ctx context.Context, params performance.FitParams, sig performance.Signature) (*performance.ClusteringResponse, error) {
	ds, err := s.builder.Build(ctx, params.EmployeeIDs, params.Range, params.NClusters)
	if ds != nil {
		s.metrics.AddSkipped(len(ds.Skipped))
	}
	if err != nil {
		var ae *performance.AnalysisError
		if errors.As(err, &ae) {
			ae.Signature = &sig
		}
		return nil, err
	}

	scaler := kmeans.FitScaler(ds.Matrix)
	normalized := scaler.TransformAll(ds.Matrix)

	cfg := s.opts.KMeans
	cfg.K = params.NClusters
	res, err := kmeans.Fit(ctx, normalized, cfg)
	if err != nil {
		return nil, &performance.AnalysisError{
			Kind:      performance.ErrFitFailed,
			Range:     &params.Range,
			Signature: &sig,
			Err:       err,
		}
	}

	raw := make([][]float64, len(res.Centers))
	for i, c := range res.Centers {
		raw[i] = scaler.Inverse(c)
	}
	order := s.labeler.Order(raw)
	rank := make([]int, len(order))
	centers := make([][]float64, len(order))
	for tier, idx := range order {
		rank[idx] = tier
		centers[tier] = res.Centers[idx]
	}
	labels := LabelsFor(params.NClusters)
	silhouette := kmeans.Silhouette(normalized, res.Assignments, params.NClusters)

	snap := performance.Snapshot{
		SchemaVersion: performance.SnapshotSchemaVersion,
		ID:            newSnapshotID(),
		Signature:     sig,
		FeatureNames:  ds.FeatureNames,
		Means:         scaler.Means,
		Scales:        scaler.Scales,
		Centers:       centers,
		Labels:        labels,
		Silhouette:    silhouette,
		Inertia:       res.Inertia,
		TrainingSize:  len(ds.Rows),
		Seed:          cfg.Seed,
		Period:        params.Range.Period(),
		TrainedAt:     s.now().UTC(),
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save model snapshot %s: %w", sig, err)
	}
	s.cache.Put(sig, snap)
	if err := s.markCurrent(ctx, snap); err != nil {
		return nil, err
	}

	results := make([]performance.ClusterAssignment, len(ds.Rows))
	for i, row := range ds.Rows {
		tier := rank[res.Assignments[i]]
		results[i] = s.assignment(row, tier, labels[tier])
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Cluster != results[b].Cluster {
			return results[a].Cluster < results[b].Cluster
		}
		return results[a].PerformanceScore > results[b].PerformanceScore
	})

	clusterCenters := make(map[string][]float64, len(centers))
	for tier, c := range centers {
		clusterCenters[labels[tier]] = roundSlice(snap.Denormalize(c))
	}

	return &performance.ClusteringResponse{
		Results:        results,
		ClusterCenters: clusterCenters,
		ClusterLabels:  labels,
		FeatureNames:   ds.FeatureNames,
		AnalysisPeriod: snap.Period,
		TotalUsers:     len(results),
		ModelAccuracy:  math.Round(silhouette*1000) / 1000,
		Skipped:        ds.Skipped,
		SnapshotID:     snap.ID,
		TrainedAt:      snap.TrainedAt,
	}, nil
}

func (s *PerformanceServiceImpl) MonthlyAnalysis(ctx context.Context, year int, month time.Month, nClusters int) (*performance.ClusteringResponse, error) {
	if month < time.January || month > time.December {
		return nil, &performance.AnalysisError{
			Kind:   performance.ErrInvalidConfiguration,
			Detail: fmt.Sprintf("month must be between 1 and 12, got %d", month),
		}
	}
	return s.FitAndCluster(ctx, performance.FitParams{
		Range:     performance.MonthRange(year, month),
		NClusters: s.clusters(nClusters),
	})
}

func (s *PerformanceServiceImpl) QuarterlyAnalysis(ctx context.Context, year, quarter, nClusters int) (*performance.ClusteringResponse, error) {
	rng, err := performance.QuarterRange(year, quarter)
	if err != nil {
		return nil, &performance.AnalysisError{Kind: performance.ErrInvalidConfiguration, Err: err}
	}
	return s.FitAndCluster(ctx, performance.FitParams{
		Range:     rng,
		NClusters: s.clusters(nClusters),
	})
}

// ResetModel deletes the snapshot for nClusters (0 means the default). When it
// was the current model the pointer is cleared too, so predict-only calls
// report ErrModelNotFound until the next fit.
func (s *PerformanceServiceImpl) ResetModel(ctx context.Context, nClusters int) error {
	k := s.clusters(nClusters)
	if k < 1 {
		return &performance.AnalysisError{
			Kind:   performance.ErrInvalidConfiguration,
			Detail: fmt.Sprintf("n_clusters must be at least 1, got %d", k),
		}
	}
	sig := performance.NewSignature(k)

	unlock := s.fitLocks.Lock(sig.String())
	defer unlock()

	if err := s.snapshots.Delete(ctx, sig); err != nil {
		return fmt.Errorf("failed to delete model %s: %w", sig, err)
	}
	s.cache.Invalidate(sig)

	s.currentMu.Lock()
	defer s.currentMu.Unlock()
	cur, err := s.cache.Current(ctx)
	if errors.Is(err, performance.ErrModelNotFound) {
		slog.Info("model reset", "signature", sig.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read current model: %w", err)
	}
	if cur.Signature == sig {
		if err := s.snapshots.ClearCurrent(ctx); err != nil {
			return fmt.Errorf("failed to clear current model: %w", err)
		}
		s.cache.ClearCurrent()
	}

	slog.Info("model reset", "signature", sig.String(), "was_current", cur.Signature == sig)
	return nil
}

// PredictOne never fits on demand; without a snapshot it returns ErrModelNotFound.
func (s *PerformanceServiceImpl) PredictOne(ctx context.Context, employeeID string, period performance.DateRange) (*performance.ClusterAssignment, error) {
	a, _, err := s.predict(ctx, employeeID, period)
	s.metrics.ObservePrediction(err)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PerformanceServiceImpl) predict(ctx context.Context, employeeID string, period performance.DateRange) (*performance.ClusterAssignment, int, error) {
	if err := validateRange(period); err != nil {
		return nil, 0, err
	}
	h, err := s.acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer h.Release()

	row, err := s.builder.ExtractOne(ctx, employeeID, period)
	if err != nil {
		return nil, 0, err
	}
	a := s.classify(h.Snapshot, row)
	return &a, len(h.Snapshot.Centers), nil
}

func (s *PerformanceServiceImpl) BatchPredict(ctx context.Context, employeeIDs []string, period performance.DateRange) ([]performance.BatchPredictItem, error) {
	if err := validateRange(period); err != nil {
		return nil, err
	}
	h, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	items := make([]performance.BatchPredictItem, len(employeeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchPredictMaxWorker)
	for i, id := range employeeIDs {
		g.Go(func() error {
			items[i].EmployeeID = id
			row, err := s.builder.ExtractOne(gctx, id, period)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.metrics.ObservePrediction(err)
				items[i].Error = err.Error()
				return nil
			}
			a := s.classify(h.Snapshot, row)
			s.metrics.ObservePrediction(nil)
			items[i].Result = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PerformanceServiceImpl) Explain(ctx context.Context, employeeID string, period performance.DateRange) (*performance.InsightsResponse, error) {
	a, k, err := s.predict(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	in := s.insights.Generate(InsightInput{
		Features:         a.Features,
		Label:            a.ClusterLabel,
		Cluster:          a.Cluster,
		NClusters:        k,
		PerformanceScore: a.PerformanceScore,
	})
	return &performance.InsightsResponse{
		EmployeeID:          employeeID,
		ClusterLabel:        a.ClusterLabel,
		PerformanceScore:    a.PerformanceScore,
		Insights:            in.Insights,
		Recommendations:     in.Recommendations,
		Strengths:           in.Strengths,
		AreasForImprovement: in.Weaknesses,
	}, nil
}

func (s *PerformanceServiceImpl) Metrics(ctx context.Context, employeeID string, period performance.DateRange) (*performance.MetricsResponse, error) {
	if err := validateRange(period); err != nil {
		return nil, err
	}
	row, err := s.builder.ExtractOne(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	return &performance.MetricsResponse{
		EmployeeID:     employeeID,
		Metrics:        row.Features,
		AnalysisPeriod: period.Period(),
	}, nil
}

// ModelInfo describes the current model, or the default configuration when
// nothing has been trained.
func (s *PerformanceServiceImpl) ModelInfo(ctx context.Context) (*performance.ModelInfoResponse, error) {
	info := &performance.ModelInfoResponse{
		Algorithm:     algorithmName,
		NClusters:     s.opts.DefaultClusters,
		FeaturesCount: len(performance.FeatureNames()),
		FeatureNames:  performance.FeatureNames(),
		ClusterLabels: LabelsFor(s.opts.DefaultClusters),
	}

	h, err := s.acquire(ctx)
	if errors.Is(err, performance.ErrModelNotFound) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}
	defer h.Release()

	snap := h.Snapshot
	info.ModelTrained = true
	info.NClusters = snap.Signature.NClusters
	info.ClusterLabels = snap.Labels
	info.Silhouette = &snap.Silhouette
	info.SnapshotID = snap.ID
	info.TrainedAt = &snap.TrainedAt
	info.TrainingSize = snap.TrainingSize
	return info, nil
}

// TeamPerformance lists active workers with usable data, most productive first.
func (s *PerformanceServiceImpl) TeamPerformance(ctx context.Context, period performance.DateRange) ([]performance.TeamMemberPerformance, error) {
	if err := validateRange(period); err != nil {
		return nil, err
	}
	ds, err := s.builder.Build(ctx, nil, period, 0)
	if err != nil {
		return nil, err
	}

	team := make([]performance.TeamMemberPerformance, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		team = append(team, performance.TeamMemberPerformance{
			EmployeeID:         row.EmployeeID,
			Name:               row.Name,
			WorkerID:           row.WorkerID,
			Email:              row.Email,
			PerformanceMetrics: row.Features,
		})
	}
	sort.SliceStable(team, func(a, b int) bool {
		return team[a].PerformanceMetrics.ProductivityScore > team[b].PerformanceMetrics.ProductivityScore
	})
	return team, nil
}

func (s *PerformanceServiceImpl) ProductivityRanking(ctx context.Context, period performance.DateRange, limit int) ([]performance.TeamMemberPerformance, error) {
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	team, err := s.TeamPerformance(ctx, period)
	if err != nil {
		return nil, err
	}
	if len(team) > limit {
		team = team[:limit]
	}
	for i := range team {
		team[i].Rank = i + 1
	}
	return team, nil
}

func (s *PerformanceServiceImpl) markCurrent(ctx context.Context, snap performance.Snapshot) error {
	cur := performance.CurrentModel{
		Signature:  snap.Signature,
		SnapshotID: snap.ID,
		TrainedAt:  snap.TrainedAt,
	}

	s.currentMu.Lock()
	defer s.currentMu.Unlock()
	if err := s.snapshots.SaveCurrent(ctx, cur); err != nil {
		return fmt.Errorf("failed to mark model %s current: %w", snap.Signature, err)
	}
	s.cache.SetCurrent(cur)
	return nil
}

// acquire borrows the most recently trained snapshot. Without a current
// model, or with one written for another feature set, it reports ErrModelNotFound.
func (s *PerformanceServiceImpl) acquire(ctx context.Context) (*ModelHandle, error) {
	cur, err := s.cache.Current(ctx)
	if errors.Is(err, performance.ErrModelNotFound) {
		return nil, &performance.AnalysisError{Kind: performance.ErrModelNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current model: %w", err)
	}

	sig := cur.Signature
	if sig.FeatureSetVersion != performance.FeatureSetVersion {
		return nil, &performance.AnalysisError{
			Kind:      performance.ErrModelNotFound,
			Detail:    "current model was trained on another feature set",
			Signature: &sig,
		}
	}
	h, err := s.cache.Acquire(ctx, sig)
	if err != nil {
		if errors.Is(err, performance.ErrModelNotFound) {
			return nil, &performance.AnalysisError{Kind: performance.ErrModelNotFound, Signature: &sig}
		}
		return nil, fmt.Errorf("failed to load model %s: %w", sig, err)
	}
	return h, nil
}

func (s *PerformanceServiceImpl) classify(snap *performance.Snapshot, row performance.EmployeeFeatures) performance.ClusterAssignment {
	tier := kmeans.Predict(snap.Centers, snap.Normalize(row.Features.Values()))
	return s.assignment(row, tier, snap.Labels[tier])
}

func (s *PerformanceServiceImpl) assignment(row performance.EmployeeFeatures, tier int, label string) performance.ClusterAssignment {
	return performance.ClusterAssignment{
		EmployeeID:       row.EmployeeID,
		WorkerID:         row.WorkerID,
		Name:             row.Name,
		Cluster:          tier,
		ClusterLabel:     label,
		PerformanceScore: s.scorer.Score(row.Features),
		Features:         row.Features,
	}
}

func (s *PerformanceServiceImpl) clusters(n int) int {
	if n == 0 {
		return s.opts.DefaultClusters
	}
	return n
}

func validateFitParams(params performance.FitParams) error {
	if params.NClusters < 1 {
		return &performance.AnalysisError{
			Kind:   performance.ErrInvalidConfiguration,
			Detail: fmt.Sprintf("n_clusters must be at least 1, got %d", params.NClusters),
		}
	}
	return validateRange(params.Range)
}

func validateRange(period performance.DateRange) error {
	if err := period.Validate(); err != nil {
		return &performance.AnalysisError{Kind: performance.ErrInvalidConfiguration, Err: err}
	}
	return nil
}

func newSnapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func roundSlice(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Round(x*1000) / 1000
	}
	return out
}

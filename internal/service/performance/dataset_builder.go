package performance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"golang.org/x/sync/errgroup"
)

// Skip reasons reported in Dataset.Skipped.
const (
	SkipReasonInsufficientData = "insufficient_data"
	SkipReasonNotFound         = "employee_not_found"
	SkipReasonInactive         = "employee_inactive"
	SkipReasonFetchFailed      = "fetch_failed"
)

// DatasetBuilder runs the FeatureExtractor over many employees and aligns the
// results into a matrix.
type DatasetBuilder struct {
	employees   employee.EmployeeRepository
	attendance  attendance.AttendanceRepository
	extractor   *FeatureExtractor
	concurrency int
	workerRole  string
}

func NewDatasetBuilder(
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	extractor *FeatureExtractor,
	concurrency int,
	workerRole string,
) *DatasetBuilder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DatasetBuilder{
		employees:   employeeRepo,
		attendance:  attendanceRepo,
		extractor:   extractor,
		concurrency: concurrency,
		workerRole:  workerRole,
	}
}

type extraction struct {
	row    performance.EmployeeFeatures
	skip   string
	failed error
}

// Build extracts features for ids, or every active worker when ids is empty.
// Employees without usable data land in Skipped. It fails with ErrEmptyDataset
// when fewer than minRows rows remain.
func (b *DatasetBuilder) Build(ctx context.Context, ids []string, period performance.DateRange, minRows int) (*performance.Dataset, error) {
	emps, skipped, err := b.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]extraction, len(emps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range emps {
		emp := emps[i]
		g.Go(func() error {
			row, err := b.extract(gctx, emp, period)
			switch {
			case err == nil:
				results[i] = extraction{row: row}
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, performance.ErrInsufficientData):
				results[i] = extraction{skip: SkipReasonInsufficientData}
			default:
				results[i] = extraction{skip: SkipReasonFetchFailed, failed: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &performance.Dataset{
		FeatureNames: performance.FeatureNames(),
		Rows:         make([]performance.EmployeeFeatures, 0, len(emps)),
		Matrix:       make([][]float64, 0, len(emps)),
		Skipped:      skipped,
	}
	for i, res := range results {
		if res.skip != "" {
			if res.failed != nil {
				slog.Warn("feature extraction failed", "employee_id", emps[i].ID, "error", res.failed)
			}
			ds.Skipped = append(ds.Skipped, performance.SkippedEmployee{EmployeeID: emps[i].ID, Reason: res.skip})
			continue
		}
		ds.Rows = append(ds.Rows, res.row)
		ds.Matrix = append(ds.Matrix, res.row.Features.Values())
	}

	if len(ds.Rows) < minRows {
		return ds, &performance.AnalysisError{
			Kind:   performance.ErrEmptyDataset,
			Range:  &period,
			Detail: fmt.Sprintf("%d usable employees, %d clusters requested", len(ds.Rows), minRows),
		}
	}
	return ds, nil
}

// ExtractOne loads a single employee and extracts their features.
func (b *DatasetBuilder) ExtractOne(ctx context.Context, id string, period performance.DateRange) (performance.EmployeeFeatures, error) {
	emp, err := b.employees.GetByID(ctx, id)
	if err != nil {
		return performance.EmployeeFeatures{}, err
	}
	return b.extract(ctx, emp, period)
}

func (b *DatasetBuilder) extract(ctx context.Context, emp employee.Employee, period performance.DateRange) (performance.EmployeeFeatures, error) {
	records, err := b.attendance.ListApprovedByEmployee(ctx, emp.ID, period.From, period.To)
	if err != nil {
		return performance.EmployeeFeatures{}, fmt.Errorf("failed to list attendance for employee %s: %w", emp.ID, err)
	}
	features, err := b.extractor.Extract(emp.ID, period, records)
	if err != nil {
		return performance.EmployeeFeatures{}, err
	}
	row := performance.EmployeeFeatures{
		EmployeeID: emp.ID,
		WorkerID:   emp.EmployeeCode,
		Name:       emp.FullName,
		Features:   features,
	}
	if emp.Email != nil {
		row.Email = *emp.Email
	}
	return row, nil
}

// resolve returns the employees to extract in request order, deduplicated.
func (b *DatasetBuilder) resolve(ctx context.Context, ids []string) ([]employee.Employee, []performance.SkippedEmployee, error) {
	if len(ids) == 0 {
		emps, err := b.employees.ListActive(ctx, b.workerRole)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list active employees: %w", err)
		}
		return emps, []performance.SkippedEmployee{}, nil
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := b.employees.GetByIDs(ctx, unique)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load employees: %w", err)
	}
	byID := make(map[string]employee.Employee, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	emps := make([]employee.Employee, 0, len(unique))
	skipped := []performance.SkippedEmployee{}
	for _, id := range unique {
		e, ok := byID[id]
		switch {
		case !ok:
			skipped = append(skipped, performance.SkippedEmployee{EmployeeID: id, Reason: SkipReasonNotFound})
		case !e.IsActive():
			skipped = append(skipped, performance.SkippedEmployee{EmployeeID: id, Reason: SkipReasonInactive})
		default:
			emps = append(emps, e)
		}
	}
	return emps, skipped, nil
}

package performance

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetBuilder_AllActiveWorkers(t *testing.T) {
	emps, records, _ := separatedTeam()
	manager := worker("boss")
	manager.Role = "manager"
	emps = append(emps, manager)
	records["boss"] = records["high-0"]

	b := NewDatasetBuilder(&fakeEmployeeRepo{emps: emps}, &fakeAttendanceRepo{records: records}, testExtractor(), 3, employee.RoleWorker)
	ds, err := b.Build(context.Background(), nil, january, 3)
	require.NoError(t, err)

	require.Len(t, ds.Rows, 10)
	require.Len(t, ds.Matrix, 10)
	for i, row := range ds.Rows {
		assert.NotEqual(t, "boss", row.EmployeeID)
		assert.Equal(t, row.Features.Values(), ds.Matrix[i])
		assert.Len(t, ds.Matrix[i], len(performance.FeatureNames()))
	}
	assert.Equal(t, "high-0", ds.Rows[0].EmployeeID, "rows keep repository order")
}

func TestDatasetBuilder_ReturnsPartialDatasetWithEmptyDatasetError(t *testing.T) {
	emps, records, _ := separatedTeam()
	b := NewDatasetBuilder(&fakeEmployeeRepo{emps: emps}, &fakeAttendanceRepo{records: records}, testExtractor(), 1, "")

	ds, err := b.Build(context.Background(), []string{"high-0", "nobody"}, january, 2)
	assert.ErrorIs(t, err, performance.ErrEmptyDataset)
	require.NotNil(t, ds)
	assert.Len(t, ds.Rows, 1)
	assert.Equal(t, []performance.SkippedEmployee{{EmployeeID: "nobody", Reason: SkipReasonNotFound}}, ds.Skipped)
}

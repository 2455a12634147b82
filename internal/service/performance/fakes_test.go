package performance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/kmeans"
)

type fakeEmployeeRepo struct {
	emps []employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range r.emps {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) GetByIDs(_ context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		for _, e := range r.emps {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) ListActive(_ context.Context, role string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.emps {
		if e.IsActive() && (role == "" || e.Role == role) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) CountActive(ctx context.Context, role string) (int64, error) {
	emps, _ := r.ListActive(ctx, role)
	return int64(len(emps)), nil
}

type fakeAttendanceRepo struct {
	records map[string][]attendance.Attendance
	fail    map[string]error
}

func (r *fakeAttendanceRepo) ListApprovedByEmployee(_ context.Context, employeeID string, from, to *time.Time) ([]attendance.Attendance, error) {
	if err := r.fail[employeeID]; err != nil {
		return nil, err
	}
	var out []attendance.Attendance
	for _, a := range r.records[employeeID] {
		if !a.IsApproved() {
			continue
		}
		if from != nil && a.Date.Before(*from) {
			continue
		}
		if to != nil && a.Date.After(*to) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeAttendanceRepo) CountApproved(context.Context, *time.Time, *time.Time) (int64, int64, error) {
	return 0, 0, nil
}

func (r *fakeAttendanceRepo) SumApprovedWorkMinutes(context.Context, *time.Time, *time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeAttendanceRepo) DailyTotals(context.Context, *time.Time, *time.Time) ([]attendance.DailyTotal, error) {
	return nil, nil
}

type memSnapshotRepo struct {
	mu           sync.Mutex
	snaps        map[performance.Signature]performance.Snapshot
	current      *performance.CurrentModel
	loads        atomic.Int32
	currentLoads atomic.Int32
	delay        time.Duration
}

func newMemSnapshotRepo() *memSnapshotRepo {
	return &memSnapshotRepo{snaps: map[performance.Signature]performance.Snapshot{}}
}

func (r *memSnapshotRepo) Save(_ context.Context, s performance.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[s.Signature] = s
	return nil
}

func (r *memSnapshotRepo) Load(ctx context.Context, sig performance.Signature) (performance.Snapshot, error) {
	r.loads.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if err := ctx.Err(); err != nil {
		return performance.Snapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snaps[sig]
	if !ok {
		return performance.Snapshot{}, performance.ErrModelNotFound
	}
	return s, nil
}

func (r *memSnapshotRepo) Delete(_ context.Context, sig performance.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, sig)
	return nil
}

func (r *memSnapshotRepo) SaveCurrent(_ context.Context, cur performance.CurrentModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = &cur
	return nil
}

func (r *memSnapshotRepo) LoadCurrent(ctx context.Context) (performance.CurrentModel, error) {
	r.currentLoads.Add(1)
	if err := ctx.Err(); err != nil {
		return performance.CurrentModel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return performance.CurrentModel{}, performance.ErrModelNotFound
	}
	return *r.current, nil
}

func (r *memSnapshotRepo) ClearCurrent(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	return nil
}

func (r *memSnapshotRepo) has(sig performance.Signature) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.snaps[sig]
	return ok
}

// ---- record builders ----

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func window(from, to string) performance.DateRange {
	f, t := date(from), date(to)
	return performance.DateRange{From: &f, To: &t}
}

// weekdaysFrom returns the first n weekdays on or after start.
func weekdaysFrom(start time.Time, n int) []time.Time {
	var days []time.Time
	for d := start; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

type recordSpec struct {
	clockIn  string
	minutes  int
	overtime int
	desc     string
}

func record(employeeID string, day time.Time, spec recordSpec) attendance.Attendance {
	in, err := time.Parse("15:04", spec.clockIn)
	if err != nil {
		panic(err)
	}
	clockIn := time.Date(day.Year(), day.Month(), day.Day(), in.Hour(), in.Minute(), 0, 0, time.UTC)
	clockOut := clockIn.Add(time.Duration(spec.minutes) * time.Minute)
	minutes, overtime := spec.minutes, spec.overtime
	return attendance.Attendance{
		ID:                 fmt.Sprintf("%s-%s", employeeID, day.Format("20060102")),
		EmployeeID:         employeeID,
		Date:               day,
		ClockIn:            &clockIn,
		ClockOut:           &clockOut,
		WorkHoursInMinutes: &minutes,
		OvertimeMinutes:    &overtime,
		WorkDescription:    spec.desc,
		Status:             attendance.StatusApproved,
	}
}

func worker(id string) employee.Employee {
	return employee.Employee{
		ID:               id,
		EmployeeCode:     strings.ToUpper(id),
		FullName:         "Employee " + id,
		Role:             employee.RoleWorker,
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

func testExtractor() *FeatureExtractor {
	e, err := NewFeatureExtractor(ExtractorOptions{
		PunctualityThreshold: "09:00",
		PunctualityGrace:     15 * time.Minute,
		TargetDailyHours:     8,
		Location:             time.UTC,
	})
	if err != nil {
		panic(err)
	}
	return e
}

type testEnv struct {
	svc       *PerformanceServiceImpl
	employees *fakeEmployeeRepo
	records   *fakeAttendanceRepo
	snapshots *memSnapshotRepo
	cache     *ModelCache
}

func newTestEnv(emps []employee.Employee, records map[string][]attendance.Attendance) *testEnv {
	empRepo := &fakeEmployeeRepo{emps: emps}
	attRepo := &fakeAttendanceRepo{records: records, fail: map[string]error{}}
	env := &testEnv{employees: empRepo, records: attRepo, snapshots: newMemSnapshotRepo()}
	env.restart()
	return env
}

// restart rebuilds the service over the same repositories with an empty
// model cache, as a new process would.
func (e *testEnv) restart() {
	e.cache = NewModelCache(e.snapshots, nil)
	builder := NewDatasetBuilder(e.employees, e.records, testExtractor(), 4, employee.RoleWorker)
	scorer := Scorer{TargetDailyHours: 8}
	e.svc = NewPerformanceService(builder, e.snapshots, e.cache, NewInsightGenerator(DefaultRules(), 8), scorer, nil, Options{
		DefaultClusters: 3,
		KMeans:          kmeans.Config{Seed: 42},
	}).(*PerformanceServiceImpl)
}

// separatedTeam builds 3 strong, 4 average and 3 weak workers over January 2024.
func separatedTeam() ([]employee.Employee, map[string][]attendance.Attendance, map[string]string) {
	start := date("2024-01-01")
	long := strings.Repeat("Implemented and reviewed features. ", 4)
	emps := []employee.Employee{}
	records := map[string][]attendance.Attendance{}
	group := map[string]string{}

	add := func(id, g string, days int, spec func(i int) recordSpec) {
		emps = append(emps, worker(id))
		group[id] = g
		for i, d := range weekdaysFrom(start, days) {
			records[id] = append(records[id], record(id, d, spec(i)))
		}
	}

	for n := 0; n < 3; n++ {
		add(fmt.Sprintf("high-%d", n), LabelHigh, 22, func(int) recordSpec {
			return recordSpec{clockIn: "08:30", minutes: 480 + n, desc: long}
		})
	}
	for n := 0; n < 4; n++ {
		add(fmt.Sprintf("avg-%d", n), LabelAverage, 16, func(i int) recordSpec {
			in := "08:50"
			if i%2 == 1 {
				in = "09:40"
			}
			return recordSpec{clockIn: in, minutes: 420 + n, overtime: 20, desc: "Support tickets and docs"}
		})
	}
	for n := 0; n < 3; n++ {
		add(fmt.Sprintf("low-%d", n), LabelNeedsImprovement, 8, func(i int) recordSpec {
			minutes := 240
			if i%2 == 1 {
				minutes = 360
			}
			return recordSpec{clockIn: "10:05", minutes: minutes + n, desc: "misc"}
		})
	}
	return emps, records, group
}

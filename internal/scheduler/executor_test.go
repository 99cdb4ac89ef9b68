package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/events"
	"github.com/reports/engine/internal/template"
	"github.com/reports/engine/internal/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	idgen.SetIdGenerator(idgen.NewIdGeneratorOptions(2))
	m.Run()
}

type memScheduleRepo struct {
	mu    sync.Mutex
	items map[uint64]*schedule.Schedule
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{items: map[uint64]*schedule.Schedule{}}
}

func (r *memScheduleRepo) Create(_ context.Context, sched *schedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[sched.ID] = sched
	return nil
}

func (r *memScheduleRepo) GetByID(_ context.Context, id uint64) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id], nil
}

func (r *memScheduleRepo) GetByReportID(_ context.Context, reportID uint64) (*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sched := range r.items {
		if sched.ReportID == reportID {
			return sched, nil
		}
	}
	return nil, nil
}

func (r *memScheduleRepo) Update(_ context.Context, id uint64, patch *schedule.SchedulePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sched := r.items[id]
	if sched == nil {
		return nil
	}
	if patch.IsPaused != nil {
		sched.IsPaused = *patch.IsPaused
	}
	if patch.NextRunAt != nil {
		sched.NextRunAt = patch.NextRunAt
	}
	if patch.LastRunAt != nil {
		sched.LastRunAt = patch.LastRunAt
	}
	if patch.RunCount != nil {
		sched.RunCount = *patch.RunCount
	}
	if patch.FailureCount != nil {
		sched.FailureCount = *patch.FailureCount
	}
	return nil
}

func (r *memScheduleRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memScheduleRepo) List(_ context.Context, _ *schedule.Filter) ([]*schedule.Schedule, error) {
	return nil, nil
}

func (r *memScheduleRepo) ListDue(_ context.Context, now time.Time) ([]*schedule.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*schedule.Schedule
	for _, sched := range r.items {
		if !sched.IsPaused && sched.NextRunAt != nil && !sched.NextRunAt.After(now) {
			due = append(due, sched)
		}
	}
	return due, nil
}

type memReportRepo struct {
	mu    sync.Mutex
	items map[uint64]*report.ReportDefinition
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{items: map[uint64]*report.ReportDefinition{}}
}

func (r *memReportRepo) Create(_ context.Context, rpt *report.ReportDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rpt.ID] = rpt
	return nil
}

func (r *memReportRepo) GetByID(_ context.Context, id uint64) (*report.ReportDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id], nil
}

func (r *memReportRepo) Update(_ context.Context, _ uint64, _ *report.ReportDefinitionPatch) error {
	return nil
}

func (r *memReportRepo) List(_ context.Context, _ *report.Filter) ([]*report.ReportDefinition, error) {
	return nil, nil
}

type memExecutionRepo struct {
	mu    sync.Mutex
	items map[uint64]*execution.Execution
	order []uint64
}

func newMemExecutionRepo() *memExecutionRepo {
	return &memExecutionRepo{items: map[uint64]*execution.Execution{}}
}

func (r *memExecutionRepo) Create(_ context.Context, exec *execution.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[exec.ID] = exec
	r.order = append(r.order, exec.ID)
	return nil
}

func (r *memExecutionRepo) GetByID(_ context.Context, id uint64) (*execution.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id], nil
}

func (r *memExecutionRepo) Save(_ context.Context, exec *execution.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[exec.ID] = exec
	return nil
}

func (r *memExecutionRepo) ListActive(_ context.Context) ([]*execution.Execution, error) {
	return nil, nil
}

func (r *memExecutionRepo) List(_ context.Context, _ execution.ListFilter, _, _ int) ([]*execution.Execution, int64, error) {
	return nil, 0, nil
}

func (r *memExecutionRepo) all() []*execution.Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*execution.Execution, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

type okJobAPI struct{}

func (okJobAPI) SubmitQuery(_ context.Context, _, _ string) (*warehouse.SubmitResult, error) {
	return &warehouse.SubmitResult{JobID: "job-ok"}, nil
}
func (okJobAPI) PollJob(_ context.Context, _ string) (*warehouse.PollResult, error) {
	return &warehouse.PollResult{Status: warehouse.JobQueued}, nil
}
func (okJobAPI) CancelJob(_ context.Context, _ string) error { return nil }

type testHarness struct {
	executor      *Executor
	scheduleRepo  *memScheduleRepo
	reportRepo    *memReportRepo
	executionRepo *memExecutionRepo
	dispatcher    *dispatch.Dispatcher
}

func newTestHarness(t *testing.T, cfg Config, now time.Time) *testHarness {
	t.Helper()
	scheduleRepo := newMemScheduleRepo()
	reportRepo := newMemReportRepo()
	executionRepo := newMemExecutionRepo()
	bus := events.NewBus(nil, zap.NewNop())
	pool := warehouse.NewPermitPool(8)
	d := dispatch.NewDispatcher(executionRepo, okJobAPI{}, pool, bus, zap.NewNop())
	e := NewExecutor(cfg, scheduleRepo, reportRepo, executionRepo, d, zap.NewNop()).
		WithClock(func() time.Time { return now })
	return &testHarness{
		executor:      e,
		scheduleRepo:  scheduleRepo,
		reportRepo:    reportRepo,
		executionRepo: executionRepo,
		dispatcher:    d,
	}
}

func seedReport(h *testHarness, id uint64, tmpl string, schema template.Schema) *report.ReportDefinition {
	rpt := &report.ReportDefinition{
		ID:             id,
		Name:           "daily revenue",
		TargetInstance: "analytics-1",
		SQLTemplate:    tmpl,
		Schema:         schema,
		Frequency:      report.FrequencyDaily,
		IsActive:       true,
	}
	_ = h.reportRepo.Create(context.Background(), rpt)
	return rpt
}

func seedSchedule(h *testHarness, id, reportID uint64, due time.Time) *schedule.Schedule {
	sched := &schedule.Schedule{
		ID:             id,
		ReportID:       reportID,
		CronExpression: "0 2 * * *",
		Timezone:       "UTC",
		WindowMode:     schedule.WindowRolling,
		LookbackDays:   7,
		NextRunAt:      &due,
	}
	_ = h.scheduleRepo.Create(context.Background(), sched)
	return sched
}

var windowSchema = template.Schema{
	{Name: "window_start", Kind: template.KindDate, Required: true},
	{Name: "window_end", Kind: template.KindDate, Required: true},
}

func TestTickOnceFiresDueSchedule(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 30, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 3, ReportingLagDays: 3}, now)
	seedReport(h, 1, "SELECT * FROM revenue WHERE d BETWEEN {{window_start}} AND {{window_end}}", windowSchema)
	sched := seedSchedule(h, 10, 1, now.Add(-time.Minute))

	h.executor.TickOnce(context.Background())

	execs := h.executionRepo.all()
	require.Len(t, execs, 1)
	exec := execs[0]
	assert.Equal(t, execution.TriggerSchedule, exec.TriggerKind)
	assert.Equal(t, execution.StatusPending, exec.Status)
	require.NotNil(t, exec.ReportID)
	assert.Equal(t, uint64(1), *exec.ReportID)

	// rolling window clamped back by the reporting lag
	assert.Equal(t, "2026-04-07", exec.ParameterSnapshot[ParamWindowEnd])
	assert.Equal(t, "2026-03-31", exec.ParameterSnapshot[ParamWindowStart])
	assert.Contains(t, exec.SQL, "BETWEEN '2026-03-31' AND '2026-04-07'")

	assert.Equal(t, 1, sched.RunCount)
	require.NotNil(t, sched.NextRunAt)
	assert.Equal(t, time.Date(2026, 4, 11, 2, 0, 0, 0, time.UTC), sched.NextRunAt.UTC())
	require.NotNil(t, sched.LastRunAt)
	assert.Equal(t, now, *sched.LastRunAt)
}

func TestTickOnceSkipsNotDueAndPaused(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 0, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 3}, now)
	seedReport(h, 1, "SELECT 1", nil)

	seedSchedule(h, 10, 1, now.Add(time.Hour)) // not due yet
	paused := seedSchedule(h, 11, 1, now.Add(-time.Hour))
	paused.IsPaused = true

	h.executor.TickOnce(context.Background())
	assert.Empty(t, h.executionRepo.all())
}

func TestTickOnceSkipsInactiveReport(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 0, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 3}, now)
	rpt := seedReport(h, 1, "SELECT 1", nil)
	rpt.IsActive = false
	seedSchedule(h, 10, 1, now.Add(-time.Minute))

	h.executor.TickOnce(context.Background())
	assert.Empty(t, h.executionRepo.all())
}

func TestFixedWindowConstantAcrossFires(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 0, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 3, ReportingLagDays: 3}, now)
	seedReport(h, 1, "SELECT {{window_start}}, {{window_end}}", windowSchema)

	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)
	sched := &schedule.Schedule{
		ID:             10,
		ReportID:       1,
		CronExpression: "0 2 * * *",
		Timezone:       "UTC",
		WindowMode:     schedule.WindowFixed,
		LookbackDays:   30,
		AnchorAt:       anchor,
		NextRunAt:      &due,
	}
	require.NoError(t, h.scheduleRepo.Create(context.Background(), sched))

	h.executor.TickOnce(context.Background())

	// make it due again and fire a second time
	later := *sched.NextRunAt
	h.executor.WithClock(func() time.Time { return later })
	h.executor.TickOnce(context.Background())

	execs := h.executionRepo.all()
	require.Len(t, execs, 2)
	for _, exec := range execs {
		assert.Equal(t, "2026-01-30", exec.ParameterSnapshot[ParamWindowStart])
		assert.Equal(t, "2026-03-01", exec.ParameterSnapshot[ParamWindowEnd])
	}
}

func TestCompileErrorCountsTowardAutoPause(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 0, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 3, ReportingLagDays: 0}, now)
	// required parameter never supplied, every fire fails to compile
	seedReport(h, 1, "SELECT {{region}}", template.Schema{
		{Name: "region", Kind: template.KindString, Required: true},
	})
	due := now.Add(-time.Minute)
	sched := seedSchedule(h, 10, 1, due)

	for i := 0; i < 3; i++ {
		fireAt := *sched.NextRunAt
		h.executor.WithClock(func() time.Time { return fireAt })
		h.executor.TickOnce(context.Background())
	}

	assert.True(t, sched.IsPaused)
	assert.Equal(t, 3, sched.FailureCount)
	assert.Empty(t, h.executionRepo.all())

	// next_run_at froze at the value before the pausing failure
	frozen := *sched.NextRunAt
	h.executor.TickOnce(context.Background())
	assert.Equal(t, frozen, *sched.NextRunAt)
}

func TestRemoteFailureCountsTowardAutoPause(t *testing.T) {
	now := time.Date(2026, 4, 10, 2, 0, 0, 0, time.UTC)
	h := newTestHarness(t, Config{PauseThreshold: 2, ReportingLagDays: 0}, now)
	seedReport(h, 1, "SELECT 1", nil)
	sched := seedSchedule(h, 10, 1, now.Add(-time.Minute))

	h.executor.TickOnce(context.Background())
	execs := h.executionRepo.all()
	require.Len(t, execs, 1)
	require.Equal(t, 0, sched.FailureCount)

	exec := execs[0]
	exec.MarkFailed(execution.ErrorKindResource, "quota exhausted")
	require.NoError(t, h.executionRepo.Save(context.Background(), exec))

	h.executor.OnExecutionTerminal(exec.ID, execution.StatusFailed)
	assert.Equal(t, 1, sched.FailureCount)
	assert.False(t, sched.IsPaused)

	// dispatch failures were already counted at fire time, skip them here
	exec.ErrorKind = execution.ErrorKindDispatch
	require.NoError(t, h.executionRepo.Save(context.Background(), exec))
	h.executor.OnExecutionTerminal(exec.ID, execution.StatusFailed)
	assert.Equal(t, 1, sched.FailureCount)

	// completed executions never count
	h.executor.OnExecutionTerminal(exec.ID, execution.StatusCompleted)
	assert.Equal(t, 1, sched.FailureCount)
}

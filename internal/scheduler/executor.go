// Package scheduler drives recurring report executions. It is a
// repository-backed polling loop: each tick selects due schedules,
// computes their effective date windows and dispatches one execution
// per schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/template"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewExecutor)

// Reserved parameter names the executor injects with the computed
// window bounds before compilation.
const (
	ParamWindowStart = "window_start"
	ParamWindowEnd   = "window_end"
)

type Config struct {
	TickInterval     time.Duration
	PauseThreshold   int
	ReportingLagDays int
}

// Executor fires due schedules. Fires for one schedule are strictly
// sequential: a schedule whose previous dispatch has not returned is
// skipped for the tick, so one window never produces two executions.
type Executor struct {
	config        Config
	scheduleRepo  schedule.Repo
	reportRepo    report.Repo
	executionRepo execution.Repo
	dispatcher    *dispatch.Dispatcher
	logger        *zap.Logger

	now    func() time.Time
	stopCh chan struct{}
	wg     sync.WaitGroup

	firingMu sync.Mutex
	firing   map[uint64]bool
}

func NewExecutor(
	cfg Config,
	scheduleRepo schedule.Repo,
	reportRepo report.Repo,
	executionRepo execution.Repo,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		config:        cfg,
		scheduleRepo:  scheduleRepo,
		reportRepo:    reportRepo,
		executionRepo: executionRepo,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		firing:        make(map[uint64]bool),
	}
}

// WithClock replaces the executor's clock, for tests.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

func (e *Executor) Start() {
	e.wg.Add(1)
	go e.tickLoop()
	e.logger.Info("schedule executor started",
		zap.Duration("tick_interval", e.config.TickInterval))
}

func (e *Executor) Stop() {
	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info("schedule executor stopped")
}

func (e *Executor) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.TickOnce(context.Background())
		case <-e.stopCh:
			return
		}
	}
}

// TickOnce processes every due schedule once. Failures stay local to
// their schedule; the rest of the tick proceeds.
func (e *Executor) TickOnce(ctx context.Context) {
	now := e.now()
	due, err := e.scheduleRepo.ListDue(ctx, now)
	if err != nil {
		e.logger.Error("failed to list due schedules", zap.Error(err))
		return
	}

	for _, sched := range due {
		e.fire(ctx, sched, now)
	}
}

func (e *Executor) fire(ctx context.Context, sched *schedule.Schedule, now time.Time) {
	if !e.beginFiring(sched.ID) {
		e.logger.Debug("previous fire still dispatching, skipping",
			zap.Uint64("schedule_id", sched.ID))
		return
	}
	defer e.endFiring(sched.ID)

	rpt, err := e.reportRepo.GetByID(ctx, sched.ReportID)
	if err != nil || rpt == nil {
		e.logger.Error("failed to load report for schedule",
			zap.Uint64("schedule_id", sched.ID),
			zap.Uint64("report_id", sched.ReportID),
			zap.Error(err))
		return
	}
	if !rpt.IsActive {
		e.logger.Info("report inactive, skipping fire",
			zap.Uint64("schedule_id", sched.ID))
		return
	}

	windowStart, windowEnd := sched.Window(now, e.config.ReportingLagDays)

	params := mergeParameters(rpt.Parameters, sched.DefaultParameters)
	params[ParamWindowStart] = windowStart.Format("2006-01-02")
	params[ParamWindowEnd] = windowEnd.Format("2006-01-02")

	result, compileErrs := template.Compile(rpt.SQLTemplate, params, rpt.Schema)
	if len(compileErrs) > 0 {
		e.logger.Warn("schedule fire blocked by compilation errors",
			zap.Uint64("schedule_id", sched.ID),
			zap.Errors("errors", compileErrs))
		e.recordFailure(ctx, sched, now)
		return
	}

	exec := e.dispatcher.Submit(ctx, dispatch.SubmitRequest{
		ReportID:          &sched.ReportID,
		TriggerKind:       execution.TriggerSchedule,
		TargetInstance:    rpt.TargetInstance,
		SQL:               result.SQL,
		ParameterSnapshot: params,
		WindowStart:       &windowStart,
		WindowEnd:         &windowEnd,
	})

	if exec.Status == execution.StatusFailed {
		e.recordFailure(ctx, sched, now)
		return
	}

	next, err := NextFire(sched.CronExpression, sched.Timezone, now)
	if err != nil {
		e.logger.Error("failed to compute next fire",
			zap.Uint64("schedule_id", sched.ID),
			zap.Error(err))
		return
	}
	patch := sched.RecordFire(now, next)
	if err := e.scheduleRepo.Update(ctx, sched.ID, patch); err != nil {
		e.logger.Error("failed to record schedule fire",
			zap.Uint64("schedule_id", sched.ID),
			zap.Error(err))
		return
	}

	e.logger.Info("schedule fired",
		zap.Uint64("schedule_id", sched.ID),
		zap.Uint64("execution_id", exec.ID),
		zap.Time("next_run_at", next))
}

// recordFailure counts the failed fire toward auto-pause. While the
// streak is under threshold next_run_at still advances; once paused it
// freezes until a manual resume.
func (e *Executor) recordFailure(ctx context.Context, sched *schedule.Schedule, now time.Time) {
	next, err := NextFire(sched.CronExpression, sched.Timezone, now)
	if err != nil {
		e.logger.Error("failed to compute next fire",
			zap.Uint64("schedule_id", sched.ID),
			zap.Error(err))
		next = now.Add(24 * time.Hour)
	}

	patch := sched.RecordFailure(next, e.config.PauseThreshold)
	if err := e.scheduleRepo.Update(ctx, sched.ID, patch); err != nil {
		e.logger.Error("failed to record schedule failure",
			zap.Uint64("schedule_id", sched.ID),
			zap.Error(err))
		return
	}

	if sched.IsPaused {
		e.logger.Warn("schedule auto-paused after repeated failures",
			zap.Uint64("schedule_id", sched.ID),
			zap.Int("failure_count", sched.FailureCount))
	}
}

// OnExecutionTerminal counts eventual remote failures of scheduled
// executions toward their schedule's auto-pause streak. Wired to the
// event bus at startup.
func (e *Executor) OnExecutionTerminal(executionID uint64, status execution.Status) {
	if status != execution.StatusFailed {
		return
	}
	ctx := context.Background()

	exec, err := e.executionRepo.GetByID(ctx, executionID)
	if err != nil || exec == nil {
		return
	}
	if exec.TriggerKind != execution.TriggerSchedule || exec.ReportID == nil {
		return
	}
	// dispatch failures were already counted at fire time
	if exec.ErrorKind == execution.ErrorKindDispatch {
		return
	}

	sched, err := e.scheduleRepo.GetByReportID(ctx, *exec.ReportID)
	if err != nil || sched == nil {
		return
	}
	e.recordFailure(ctx, sched, e.now())
}

func (e *Executor) beginFiring(scheduleID uint64) bool {
	e.firingMu.Lock()
	defer e.firingMu.Unlock()
	if e.firing[scheduleID] {
		return false
	}
	e.firing[scheduleID] = true
	return true
}

func (e *Executor) endFiring(scheduleID uint64) {
	e.firingMu.Lock()
	delete(e.firing, scheduleID)
	e.firingMu.Unlock()
}

func mergeParameters(base, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overrides)+2)
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

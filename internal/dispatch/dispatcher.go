// Package dispatch submits compiled SQL to the warehouse and owns the
// execution records' entry into the lifecycle.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/events"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/warehouse"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewDispatcher)

// SubmitRequest carries everything needed to dispatch one execution.
// SQL must already be compiled; the dispatcher never touches templates.
type SubmitRequest struct {
	ReportID          *uint64
	SegmentID         *uint64
	TriggerKind       execution.TriggerKind
	TargetInstance    string
	SQL               string
	ParameterSnapshot map[string]any
	WindowStart       *time.Time
	WindowEnd         *time.Time
}

// Dispatcher submits executions one at a time and converts every
// failure into a terminal record instead of an error, so periodic
// callers (scheduler ticks, backfill workers) keep processing siblings.
type Dispatcher struct {
	executionRepo execution.Repo
	jobAPI        warehouse.JobAPI
	permits       *warehouse.PermitPool
	publisher     events.Publisher
	logger        *zap.Logger

	// permits held on behalf of in-flight executions; released exactly
	// once when the execution reaches a terminal state.
	heldMu sync.Mutex
	held   map[uint64]struct{}
}

func NewDispatcher(
	executionRepo execution.Repo,
	jobAPI warehouse.JobAPI,
	permits *warehouse.PermitPool,
	publisher events.Publisher,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		executionRepo: executionRepo,
		jobAPI:        jobAPI,
		permits:       permits,
		publisher:     publisher,
		logger:        logger,
		held:          make(map[uint64]struct{}),
	}
}

// Submit creates exactly one execution record and submits it to the
// warehouse. It blocks while waiting for a tenant permit and returns
// the record in pending state on success, or failed with a dispatch
// error kind on any transport problem. It never returns an error.
func (d *Dispatcher) Submit(ctx context.Context, req SubmitRequest) *execution.Execution {
	exec := d.newRecord(req)
	if err := d.executionRepo.Create(ctx, exec); err != nil {
		d.logger.Error("failed to create execution record",
			zap.Uint64("execution_id", exec.ID),
			zap.Error(err))
		exec.MarkFailed(execution.ErrorKindDispatch, "failed to persist execution record: "+err.Error())
		return exec
	}

	if err := d.permits.Acquire(ctx); err != nil {
		d.failDispatch(ctx, exec, "cancelled while waiting for a tenant permit: "+err.Error())
		return exec
	}
	return d.dispatch(ctx, exec, req)
}

// SubmitNoWait behaves like Submit but rejects immediately with a
// RateLimited fault when the tenant pool is saturated, so interactive
// callers never queue behind scheduled or backfill work. No execution
// record is created on rejection.
func (d *Dispatcher) SubmitNoWait(ctx context.Context, req SubmitRequest) (*execution.Execution, error) {
	if !d.permits.TryAcquire() {
		return nil, fault.New(fault.CodeRateLimited,
			"tenant concurrency ceiling reached, retry later", nil)
	}

	exec := d.newRecord(req)
	if err := d.executionRepo.Create(ctx, exec); err != nil {
		d.permits.Release()
		d.logger.Error("failed to create execution record",
			zap.Uint64("execution_id", exec.ID),
			zap.Error(err))
		exec.MarkFailed(execution.ErrorKindDispatch, "failed to persist execution record: "+err.Error())
		return exec, nil
	}
	return d.dispatch(ctx, exec, req), nil
}

func (d *Dispatcher) newRecord(req SubmitRequest) *execution.Execution {
	return &execution.Execution{
		ID:                uint64(idgen.NextId()),
		ReportID:          req.ReportID,
		SegmentID:         req.SegmentID,
		TriggerKind:       req.TriggerKind,
		TargetInstance:    req.TargetInstance,
		Status:            execution.StatusPending,
		SQL:               req.SQL,
		ParameterSnapshot: req.ParameterSnapshot,
		WindowStart:       req.WindowStart,
		WindowEnd:         req.WindowEnd,
	}
}

// dispatch runs with an already acquired permit.
func (d *Dispatcher) dispatch(ctx context.Context, exec *execution.Execution, req SubmitRequest) *execution.Execution {
	d.markHeld(exec.ID)

	result, err := d.jobAPI.SubmitQuery(ctx, req.SQL, req.TargetInstance)
	if err != nil {
		d.ReleasePermit(exec.ID)
		d.failDispatch(ctx, exec, err.Error())
		return exec
	}

	exec.JobID = result.JobID
	if err := d.executionRepo.Save(ctx, exec); err != nil {
		d.logger.Error("failed to record job id",
			zap.Uint64("execution_id", exec.ID),
			zap.String("job_id", result.JobID),
			zap.Error(err))
	}

	d.logger.Info("execution dispatched",
		zap.Uint64("execution_id", exec.ID),
		zap.String("job_id", result.JobID),
		zap.String("trigger", string(req.TriggerKind)))
	return exec
}

// Cancel transitions a pending or running execution to cancelled and
// asks the warehouse to stop the remote job. Terminal executions report
// a NotCancellable fault and stay unchanged.
func (d *Dispatcher) Cancel(ctx context.Context, executionID uint64) (*execution.Execution, error) {
	exec, err := d.executionRepo.GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fault.ErrExecutionNotFound
	}
	if !exec.Cancellable() {
		return exec, fault.New(fault.CodeNotCancellable,
			"execution is already "+string(exec.Status), nil)
	}

	if exec.JobID != "" {
		if err := d.jobAPI.CancelJob(ctx, exec.JobID); err != nil && !errors.Is(err, warehouse.ErrNotCancellable) {
			d.logger.Warn("failed to cancel remote job",
				zap.Uint64("execution_id", exec.ID),
				zap.String("job_id", exec.JobID),
				zap.Error(err))
		}
	}

	exec.MarkCancelled()
	if err := d.executionRepo.Save(ctx, exec); err != nil {
		return nil, err
	}
	d.ReleasePermit(exec.ID)
	d.publisher.PublishTerminal(ctx, exec.ID, exec.Status)
	return exec, nil
}

// ReleasePermit frees the tenant permit held for an execution. Safe to
// call more than once per execution.
func (d *Dispatcher) ReleasePermit(executionID uint64) {
	d.heldMu.Lock()
	_, holding := d.held[executionID]
	delete(d.held, executionID)
	d.heldMu.Unlock()
	if holding {
		d.permits.Release()
	}
}

func (d *Dispatcher) markHeld(executionID uint64) {
	d.heldMu.Lock()
	d.held[executionID] = struct{}{}
	d.heldMu.Unlock()
}

func (d *Dispatcher) failDispatch(ctx context.Context, exec *execution.Execution, message string) {
	exec.MarkFailed(execution.ErrorKindDispatch, message)
	if err := d.executionRepo.Save(ctx, exec); err != nil {
		d.logger.Error("failed to persist dispatch failure",
			zap.Uint64("execution_id", exec.ID),
			zap.Error(err))
	}
	d.publisher.PublishTerminal(ctx, exec.ID, exec.Status)
	d.logger.Warn("dispatch failed",
		zap.Uint64("execution_id", exec.ID),
		zap.String("reason", message))
}

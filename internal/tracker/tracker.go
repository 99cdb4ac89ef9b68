// Package tracker polls outstanding warehouse jobs and drives
// executions to their terminal states.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/events"
	"github.com/reports/engine/internal/warehouse"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewTracker)

// Tracker is a periodic driver: on each tick it polls every
// non-terminal execution once. Poll transport errors never mutate
// execution state; the next cycle simply retries.
type Tracker struct {
	executionRepo execution.Repo
	jobAPI        warehouse.JobAPI
	dispatcher    *dispatch.Dispatcher
	publisher     events.Publisher
	logger        *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTracker(
	executionRepo execution.Repo,
	jobAPI warehouse.JobAPI,
	dispatcher *dispatch.Dispatcher,
	publisher events.Publisher,
	interval time.Duration,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		executionRepo: executionRepo,
		jobAPI:        jobAPI,
		dispatcher:    dispatcher,
		publisher:     publisher,
		interval:      interval,
		stopCh:        make(chan struct{}),
		logger:        logger,
	}
}

func (t *Tracker) Start() {
	t.wg.Add(1)
	go t.pollLoop()
	t.logger.Info("status tracker started",
		zap.Duration("interval", t.interval))
}

func (t *Tracker) Stop() {
	close(t.stopCh)
	t.wg.Wait()
	t.logger.Info("status tracker stopped")
}

func (t *Tracker) pollLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.PollOnce(context.Background())
		case <-t.stopCh:
			return
		}
	}
}

// PollOnce polls every active execution a single time.
func (t *Tracker) PollOnce(ctx context.Context) {
	execs, err := t.executionRepo.ListActive(ctx)
	if err != nil {
		t.logger.Error("failed to list active executions", zap.Error(err))
		return
	}

	for _, exec := range execs {
		t.pollExecution(ctx, exec)
	}
}

func (t *Tracker) pollExecution(ctx context.Context, exec *execution.Execution) {
	if exec.JobID == "" {
		// dispatched but the job id write raced the poll; next cycle
		return
	}

	result, err := t.jobAPI.PollJob(ctx, exec.JobID)
	if err != nil {
		// transport error, not a job failure
		t.logger.Warn("poll failed",
			zap.Uint64("execution_id", exec.ID),
			zap.String("job_id", exec.JobID),
			zap.Error(err))
		return
	}

	switch result.Status {
	case warehouse.JobQueued:
		// still pending remotely, nothing to record

	case warehouse.JobRunning:
		if exec.Status == execution.StatusPending {
			exec.StartNow()
			t.save(ctx, exec)
		}

	case warehouse.JobSucceeded:
		exec.MarkCompleted(result.ResultLocation, result.RowCount, result.ByteCount)
		t.save(ctx, exec)
		t.dispatcher.ReleasePermit(exec.ID)
		t.publisher.PublishTerminal(ctx, exec.ID, exec.Status)
		t.logger.Info("execution completed",
			zap.Uint64("execution_id", exec.ID),
			zap.Int64("rows", result.RowCount))

	case warehouse.JobFailed:
		exec.MarkFailed(ClassifyError(result.ErrorMessage), result.ErrorMessage)
		t.save(ctx, exec)
		t.dispatcher.ReleasePermit(exec.ID)
		t.publisher.PublishTerminal(ctx, exec.ID, exec.Status)
		t.logger.Warn("execution failed remotely",
			zap.Uint64("execution_id", exec.ID),
			zap.String("error", result.ErrorMessage))

	default:
		t.logger.Warn("unknown remote job status",
			zap.Uint64("execution_id", exec.ID),
			zap.String("status", string(result.Status)))
	}
}

func (t *Tracker) save(ctx context.Context, exec *execution.Execution) {
	if err := t.executionRepo.Save(ctx, exec); err != nil {
		t.logger.Error("failed to save execution",
			zap.Uint64("execution_id", exec.ID),
			zap.Error(err))
	}
}

// ClassifyError maps a remote failure message to a local error kind.
// The verbatim message is preserved alongside the classification.
func ClassifyError(message string) execution.ErrorKind {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "syntax") || strings.Contains(lowered, "parse"):
		return execution.ErrorKindSyntax
	case strings.Contains(lowered, "permission") || strings.Contains(lowered, "denied") ||
		strings.Contains(lowered, "unauthorized"):
		return execution.ErrorKindPermission
	case strings.Contains(lowered, "quota") || strings.Contains(lowered, "memory") ||
		strings.Contains(lowered, "resource"):
		return execution.ErrorKindResource
	case strings.Contains(lowered, "timeout") || strings.Contains(lowered, "timed out"):
		return execution.ErrorKindTimeout
	default:
		return execution.ErrorKindUnknown
	}
}

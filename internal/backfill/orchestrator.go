// Package backfill decomposes a historical period into independent
// time segments and executes them through a bounded worker pool.
package backfill

import (
	"context"
	"sync"
	"time"

	"github.com/google/wire"
	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/dispatch"
	"github.com/reports/engine/internal/fault"
	"github.com/reports/engine/internal/scheduler"
	"github.com/reports/engine/internal/template"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewOrchestrator)

type Config struct {
	Workers          int
	QueueSize        int
	MaxLookbackDays  int
	ReportingLagDays int
}

type segmentJob struct {
	collectionID uint64
	segmentID    uint64
}

// Orchestrator runs backfill collections. Workers pull pending
// segments from a queue; the dispatcher's shared permit pool caps
// actual in-flight requests, so excess segments wait here instead of
// piling onto the warehouse.
type Orchestrator struct {
	config        Config
	backfillRepo  domain.Repo
	reportRepo    report.Repo
	executionRepo execution.Repo
	dispatcher    *dispatch.Dispatcher
	logger        *zap.Logger
	now           func() time.Time

	segmentCh chan segmentJob
	stopCh    chan struct{}
	wg        sync.WaitGroup

	cancelledMu sync.Mutex
	cancelled   map[uint64]bool
}

func NewOrchestrator(
	cfg Config,
	backfillRepo domain.Repo,
	reportRepo report.Repo,
	executionRepo execution.Repo,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < cfg.Workers {
		cfg.QueueSize = cfg.Workers * 2
	}
	return &Orchestrator{
		config:        cfg,
		backfillRepo:  backfillRepo,
		reportRepo:    reportRepo,
		executionRepo: executionRepo,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
		segmentCh:     make(chan segmentJob, cfg.QueueSize),
		stopCh:        make(chan struct{}),
		cancelled:     make(map[uint64]bool),
	}
}

// WithClock replaces the orchestrator's clock, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) Start() {
	for i := 0; i < o.config.Workers; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}
	o.logger.Info("backfill orchestrator started",
		zap.Int("workers", o.config.Workers))
}

func (o *Orchestrator) Stop() {
	close(o.stopCh)
	o.wg.Wait()
	o.logger.Info("backfill orchestrator stopped")
}

// StartBackfill validates the request, persists the collection with its
// segment skeleton and queues every segment for execution.
func (o *Orchestrator) StartBackfill(
	ctx context.Context,
	reportID uint64,
	granularity domain.Granularity,
	lookbackDays int,
	endDate time.Time,
) (*domain.BackfillCollection, error) {
	if !granularity.Valid() {
		return nil, fault.New(fault.CodeValidation, "unknown granularity", nil)
	}
	if lookbackDays < 1 {
		return nil, fault.New(fault.CodeValidation, "lookback_days must be positive", nil)
	}
	if lookbackDays > o.config.MaxLookbackDays {
		return nil, fault.New(fault.CodeLookbackExceeded,
			"lookback exceeds the maximum historical window", nil)
	}

	rpt, err := o.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rpt == nil || !rpt.IsActive {
		return nil, fault.ErrReportNotFound
	}

	// No segment may reach past the warehouse's reporting lag.
	latest := o.now().UTC().Truncate(24 * time.Hour).
		AddDate(0, 0, -o.config.ReportingLagDays)
	if endDate.After(latest) {
		endDate = latest
	}

	ranges := GenerateRanges(endDate, lookbackDays, granularity)

	collection := &domain.BackfillCollection{
		ID:           uint64(idgen.NextId()),
		ReportID:     reportID,
		Granularity:  granularity,
		LookbackDays: lookbackDays,
		EndDate:      endDate,
		SegmentCount: len(ranges),
		Status:       domain.CollectionPending,
	}
	if err := o.backfillRepo.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}

	segments := make([]*domain.Segment, len(ranges))
	for i, r := range ranges {
		segments[i] = &domain.Segment{
			ID:           uint64(idgen.NextId()),
			CollectionID: collection.ID,
			Position:     i,
			RangeStart:   r.Start,
			RangeEnd:     r.End,
			Status:       domain.SegmentPending,
		}
	}
	if err := o.backfillRepo.CreateSegments(ctx, segments); err != nil {
		return nil, err
	}

	for _, seg := range segments {
		o.enqueue(segmentJob{collectionID: collection.ID, segmentID: seg.ID})
	}

	o.logger.Info("backfill started",
		zap.Uint64("collection_id", collection.ID),
		zap.Uint64("report_id", reportID),
		zap.Int("segments", len(segments)))
	return collection, nil
}

// RetrySegment re-queues one failed segment without touching its
// siblings. The new attempt appends a fresh execution to the segment's
// chain.
func (o *Orchestrator) RetrySegment(ctx context.Context, segmentID uint64) (*domain.Segment, error) {
	seg, err := o.backfillRepo.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, fault.ErrSegmentNotFound
	}
	if !seg.Status.Terminal() {
		return nil, fault.New(fault.CodeStateConflict, "segment is still in progress", nil)
	}

	seg.Status = domain.SegmentPending
	patch := domain.NewSegmentPatch().WithStatus(domain.SegmentPending)
	if err := o.backfillRepo.UpdateSegment(ctx, seg.ID, patch); err != nil {
		return nil, err
	}

	o.clearCancelled(seg.CollectionID)
	if err := o.backfillRepo.UpdateCollection(ctx, seg.CollectionID,
		domain.NewCollectionPatch().WithStatus(domain.CollectionRunning)); err != nil {
		o.logger.Error("failed to reopen collection",
			zap.Uint64("collection_id", seg.CollectionID),
			zap.Error(err))
	}

	o.enqueue(segmentJob{collectionID: seg.CollectionID, segmentID: seg.ID})
	return seg, nil
}

// CancelCollection cancels every non-terminal segment and prevents
// queued ones from starting. Terminal segments keep their outcome.
func (o *Orchestrator) CancelCollection(ctx context.Context, collectionID uint64) (*domain.BackfillCollection, error) {
	collection, err := o.backfillRepo.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fault.ErrBackfillNotFound
	}
	if collection.Status.Terminal() {
		return collection, fault.New(fault.CodeNotCancellable,
			"collection is already "+string(collection.Status), nil)
	}

	o.markCancelled(collectionID)

	segments, err := o.backfillRepo.ListSegments(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		if seg.Status.Terminal() {
			continue
		}
		if seg.ExecutionID != nil {
			if _, err := o.dispatcher.Cancel(ctx, *seg.ExecutionID); err != nil {
				o.logger.Warn("failed to cancel segment execution",
					zap.Uint64("segment_id", seg.ID),
					zap.Error(err))
			}
		}
		if err := o.backfillRepo.UpdateSegment(ctx, seg.ID,
			domain.NewSegmentPatch().WithStatus(domain.SegmentCancelled)); err != nil {
			o.logger.Error("failed to mark segment cancelled",
				zap.Uint64("segment_id", seg.ID),
				zap.Error(err))
		}
	}

	collection.Status = domain.CollectionCancelled
	if err := o.backfillRepo.UpdateCollection(ctx, collectionID,
		domain.NewCollectionPatch().WithStatus(domain.CollectionCancelled)); err != nil {
		return nil, err
	}
	// Every segment is settled in the repo now; the flag has done its job.
	o.clearCancelled(collectionID)
	return collection, nil
}

// OnExecutionTerminal folds a terminal execution back into its segment
// and recomputes the collection status. Wired to the event bus.
func (o *Orchestrator) OnExecutionTerminal(executionID uint64, status execution.Status) {
	ctx := context.Background()

	seg, err := o.backfillRepo.GetSegmentByExecutionID(ctx, executionID)
	if err != nil {
		return
	}
	if seg == nil {
		// The segment row references the execution only after Submit
		// returns; an event racing that update is resolved through the
		// execution's own back reference.
		exec, err := o.executionRepo.GetByID(ctx, executionID)
		if err != nil || exec == nil || exec.SegmentID == nil {
			return
		}
		seg, err = o.backfillRepo.GetSegment(ctx, *exec.SegmentID)
		if err != nil || seg == nil {
			return
		}
	}

	var segStatus domain.SegmentStatus
	switch status {
	case execution.StatusCompleted:
		segStatus = domain.SegmentCompleted
	case execution.StatusFailed:
		segStatus = domain.SegmentFailed
	case execution.StatusCancelled:
		segStatus = domain.SegmentCancelled
	default:
		return
	}

	if err := o.backfillRepo.UpdateSegment(ctx, seg.ID,
		domain.NewSegmentPatch().WithStatus(segStatus)); err != nil {
		o.logger.Error("failed to update segment status",
			zap.Uint64("segment_id", seg.ID),
			zap.Error(err))
		return
	}
	seg.Status = segStatus

	o.refreshCollection(ctx, seg.CollectionID)
}

func (o *Orchestrator) refreshCollection(ctx context.Context, collectionID uint64) {
	collection, err := o.backfillRepo.GetCollection(ctx, collectionID)
	if err != nil || collection == nil {
		return
	}
	if collection.Status.Terminal() {
		o.clearCancelled(collectionID)
		return
	}

	segments, err := o.backfillRepo.ListSegments(ctx, collectionID)
	if err != nil {
		o.logger.Error("failed to list segments",
			zap.Uint64("collection_id", collectionID),
			zap.Error(err))
		return
	}

	status := domain.AggregateStatus(segments, o.isCancelled(collectionID))
	if err := o.backfillRepo.UpdateCollection(ctx, collectionID,
		domain.NewCollectionPatch().WithStatus(status)); err != nil {
		o.logger.Error("failed to update collection status",
			zap.Uint64("collection_id", collectionID),
			zap.Error(err))
		return
	}
	// Terminal collections no longer need the cancel flag.
	if status.Terminal() {
		o.clearCancelled(collectionID)
	}
}

func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()

	for {
		select {
		case job := <-o.segmentCh:
			o.runSegment(context.Background(), job)
		case <-o.stopCh:
			return
		}
	}
}

func (o *Orchestrator) runSegment(ctx context.Context, job segmentJob) {
	if o.isCancelled(job.collectionID) {
		if err := o.backfillRepo.UpdateSegment(ctx, job.segmentID,
			domain.NewSegmentPatch().WithStatus(domain.SegmentCancelled)); err != nil {
			o.logger.Error("failed to cancel queued segment",
				zap.Uint64("segment_id", job.segmentID),
				zap.Error(err))
		}
		return
	}

	seg, err := o.backfillRepo.GetSegment(ctx, job.segmentID)
	if err != nil || seg == nil {
		o.logger.Error("failed to load segment",
			zap.Uint64("segment_id", job.segmentID),
			zap.Error(err))
		return
	}
	if seg.Status != domain.SegmentPending {
		return
	}

	collection, err := o.backfillRepo.GetCollection(ctx, seg.CollectionID)
	if err != nil || collection == nil {
		return
	}
	rpt, err := o.reportRepo.GetByID(ctx, collection.ReportID)
	if err != nil || rpt == nil {
		o.failSegment(ctx, seg, "report definition missing")
		return
	}

	params := make(map[string]any, len(rpt.Parameters)+2)
	for k, v := range rpt.Parameters {
		params[k] = v
	}
	params[scheduler.ParamWindowStart] = seg.RangeStart.Format("2006-01-02")
	params[scheduler.ParamWindowEnd] = seg.RangeEnd.Format("2006-01-02")

	result, compileErrs := template.Compile(rpt.SQLTemplate, params, rpt.Schema)
	if len(compileErrs) > 0 {
		o.logger.Warn("segment blocked by compilation errors",
			zap.Uint64("segment_id", seg.ID),
			zap.Errors("errors", compileErrs))
		o.failSegment(ctx, seg, "template compilation failed")
		return
	}

	attempts := seg.Attempts + 1
	if err := o.backfillRepo.UpdateSegment(ctx, seg.ID, domain.NewSegmentPatch().
		WithStatus(domain.SegmentRunning).
		WithAttempts(attempts)); err != nil {
		o.logger.Error("failed to mark segment running",
			zap.Uint64("segment_id", seg.ID),
			zap.Error(err))
		return
	}

	windowStart, windowEnd := seg.RangeStart, seg.RangeEnd
	exec := o.dispatcher.Submit(ctx, dispatch.SubmitRequest{
		ReportID:          &collection.ReportID,
		SegmentID:         &seg.ID,
		TriggerKind:       execution.TriggerBackfill,
		TargetInstance:    rpt.TargetInstance,
		SQL:               result.SQL,
		ParameterSnapshot: params,
		WindowStart:       &windowStart,
		WindowEnd:         &windowEnd,
	})

	patch := domain.NewSegmentPatch().WithExecutionID(exec.ID)
	if exec.Status == execution.StatusFailed {
		patch.WithStatus(domain.SegmentFailed)
	}
	if err := o.backfillRepo.UpdateSegment(ctx, seg.ID, patch); err != nil {
		o.logger.Error("failed to record segment execution",
			zap.Uint64("segment_id", seg.ID),
			zap.Error(err))
		return
	}

	if exec.Status == execution.StatusFailed {
		o.refreshCollection(ctx, seg.CollectionID)
		return
	}

	o.markRunning(ctx, seg.CollectionID)
}

func (o *Orchestrator) markRunning(ctx context.Context, collectionID uint64) {
	collection, err := o.backfillRepo.GetCollection(ctx, collectionID)
	if err != nil || collection == nil {
		return
	}
	if collection.Status == domain.CollectionPending {
		if err := o.backfillRepo.UpdateCollection(ctx, collectionID,
			domain.NewCollectionPatch().WithStatus(domain.CollectionRunning)); err != nil {
			o.logger.Error("failed to mark collection running",
				zap.Uint64("collection_id", collectionID),
				zap.Error(err))
		}
	}
}

func (o *Orchestrator) failSegment(ctx context.Context, seg *domain.Segment, reason string) {
	if err := o.backfillRepo.UpdateSegment(ctx, seg.ID,
		domain.NewSegmentPatch().WithStatus(domain.SegmentFailed)); err != nil {
		o.logger.Error("failed to mark segment failed",
			zap.Uint64("segment_id", seg.ID),
			zap.Error(err))
		return
	}
	o.logger.Warn("segment failed before dispatch",
		zap.Uint64("segment_id", seg.ID),
		zap.String("reason", reason))
	o.refreshCollection(ctx, seg.CollectionID)
}

func (o *Orchestrator) enqueue(job segmentJob) {
	select {
	case o.segmentCh <- job:
	default:
		// queue full; hand off without blocking the caller
		go func() {
			select {
			case o.segmentCh <- job:
			case <-o.stopCh:
			}
		}()
	}
}

func (o *Orchestrator) markCancelled(collectionID uint64) {
	o.cancelledMu.Lock()
	o.cancelled[collectionID] = true
	o.cancelledMu.Unlock()
}

func (o *Orchestrator) clearCancelled(collectionID uint64) {
	o.cancelledMu.Lock()
	delete(o.cancelled, collectionID)
	o.cancelledMu.Unlock()
}

func (o *Orchestrator) isCancelled(collectionID uint64) bool {
	o.cancelledMu.Lock()
	defer o.cancelledMu.Unlock()
	return o.cancelled[collectionID]
}

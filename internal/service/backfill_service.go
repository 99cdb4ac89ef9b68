package service

import (
	"context"
	"time"

	"github.com/reports/engine/internal/backfill"
	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/fault"
	"go.uber.org/zap"
)

type BackfillService struct {
	orchestrator *backfill.Orchestrator
	backfillRepo domain.Repo
	logger       *zap.Logger
}

func NewBackfillService(orchestrator *backfill.Orchestrator, backfillRepo domain.Repo, logger *zap.Logger) *BackfillService {
	return &BackfillService{orchestrator: orchestrator, backfillRepo: backfillRepo, logger: logger}
}

type StartBackfillRequest struct {
	ReportID     uint64
	Granularity  domain.Granularity
	LookbackDays int
	EndDate      *time.Time
}

func (s *BackfillService) StartBackfill(ctx context.Context, req StartBackfillRequest) (*domain.BackfillCollection, error) {
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.EndDate != nil {
		endDate = *req.EndDate
	}
	return s.orchestrator.StartBackfill(ctx, req.ReportID, req.Granularity, req.LookbackDays, endDate)
}

type CollectionDetail struct {
	Collection *domain.BackfillCollection
	Segments   []*domain.Segment
}

// GetCollection returns the collection with its segments in range order.
func (s *BackfillService) GetCollection(ctx context.Context, id uint64) (*CollectionDetail, error) {
	collection, err := s.backfillRepo.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fault.ErrBackfillNotFound
	}
	segments, err := s.backfillRepo.ListSegments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CollectionDetail{Collection: collection, Segments: segments}, nil
}

func (s *BackfillService) ListCollections(ctx context.Context, filter *domain.Filter) ([]*domain.BackfillCollection, error) {
	return s.backfillRepo.ListCollections(ctx, filter)
}

func (s *BackfillService) RetrySegment(ctx context.Context, segmentID uint64) (*domain.Segment, error) {
	return s.orchestrator.RetrySegment(ctx, segmentID)
}

func (s *BackfillService) CancelCollection(ctx context.Context, id uint64) (*domain.BackfillCollection, error) {
	return s.orchestrator.CancelCollection(ctx, id)
}

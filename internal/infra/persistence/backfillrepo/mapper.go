package backfillrepo

import (
	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
)

func (po *BackfillCollectionPo) ToDomain() *domain.BackfillCollection {
	return &domain.BackfillCollection{
		ID:           po.ID,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		ReportID:     po.ReportID,
		Granularity:  po.Granularity,
		LookbackDays: po.LookbackDays,
		EndDate:      po.EndDate,
		SegmentCount: po.SegmentCount,
		Status:       po.Status,
	}
}

func (po *BackfillCollectionPo) FromDomain(collection *domain.BackfillCollection) *BackfillCollectionPo {
	return &BackfillCollectionPo{
		Model: commonrepo.Model{
			ID:        collection.ID,
			CreatedAt: collection.CreatedAt,
			UpdatedAt: collection.UpdatedAt,
		},
		ReportID:     collection.ReportID,
		Granularity:  collection.Granularity,
		LookbackDays: collection.LookbackDays,
		EndDate:      collection.EndDate,
		SegmentCount: collection.SegmentCount,
		Status:       collection.Status,
	}
}

func (po *SegmentPo) ToDomain() *domain.Segment {
	return &domain.Segment{
		ID:           po.ID,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		CollectionID: po.CollectionID,
		Position:     po.Position,
		RangeStart:   po.RangeStart,
		RangeEnd:     po.RangeEnd,
		Status:       po.Status,
		ExecutionID:  po.ExecutionID,
		Attempts:     po.Attempts,
	}
}

func (po *SegmentPo) FromDomain(segment *domain.Segment) *SegmentPo {
	return &SegmentPo{
		Model: commonrepo.Model{
			ID:        segment.ID,
			CreatedAt: segment.CreatedAt,
			UpdatedAt: segment.UpdatedAt,
		},
		CollectionID: segment.CollectionID,
		Position:     segment.Position,
		RangeStart:   segment.RangeStart,
		RangeEnd:     segment.RangeEnd,
		Status:       segment.Status,
		ExecutionID:  segment.ExecutionID,
		Attempts:     segment.Attempts,
	}
}

func collectionPatchToMap(input *domain.CollectionPatch) map[string]any {
	var values = make(map[string]any)
	if input.Status != nil {
		values["status"] = input.Status
	}
	return values
}

func segmentPatchToMap(input *domain.SegmentPatch) map[string]any {
	var values = make(map[string]any)
	if input.Status != nil {
		values["status"] = input.Status
	}
	if input.ExecutionID != nil {
		values["execution_id"] = input.ExecutionID
	}
	if input.Attempts != nil {
		values["attempts"] = input.Attempts
	}
	return values
}

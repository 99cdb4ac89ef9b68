package backfill

import (
	"context"

	"github.com/samber/mo"
)

type Repo interface {
	CreateCollection(ctx context.Context, collection *BackfillCollection) error
	GetCollection(ctx context.Context, id uint64) (*BackfillCollection, error)
	UpdateCollection(ctx context.Context, id uint64, patch *CollectionPatch) error
	ListCollections(ctx context.Context, filter *Filter) ([]*BackfillCollection, error)

	CreateSegments(ctx context.Context, segments []*Segment) error
	GetSegment(ctx context.Context, id uint64) (*Segment, error)
	UpdateSegment(ctx context.Context, id uint64, patch *SegmentPatch) error

	// ListSegments returns a collection's segments ordered oldest first.
	ListSegments(ctx context.Context, collectionID uint64) ([]*Segment, error)

	// GetSegmentByExecutionID resolves the segment whose authoritative
	// execution is id, if any.
	GetSegmentByExecutionID(ctx context.Context, executionID uint64) (*Segment, error)
}

type Filter struct {
	ReportID mo.Option[uint64]
	Status   mo.Option[CollectionStatus]
}

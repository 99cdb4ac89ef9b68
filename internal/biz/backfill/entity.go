package backfill

import "time"

// BackfillCollection groups the segments of one historical backfill
// request. Its status is derived from its children, never set directly
// except for cancellation.
type BackfillCollection struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	ReportID     uint64
	Granularity  Granularity
	LookbackDays int
	EndDate      time.Time
	SegmentCount int
	Status       CollectionStatus
}

// Segment is one time-bounded slice of a collection. It owns a chain of
// executions; the most recent one is authoritative.
type Segment struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	CollectionID uint64
	Position     int // zero-based, oldest segment first
	RangeStart   time.Time
	RangeEnd     time.Time
	Status       SegmentStatus
	ExecutionID  *uint64 // authoritative (latest) execution
	Attempts     int
}

// AggregateStatus derives the collection status from its segments.
// Cancelled wins outright; otherwise the collection stays running until
// every segment is terminal.
func AggregateStatus(segments []*Segment, cancelled bool) CollectionStatus {
	if cancelled {
		return CollectionCancelled
	}
	if len(segments) == 0 {
		return CollectionPending
	}
	var failed, completed, terminal int
	for _, seg := range segments {
		if seg.Status.Terminal() {
			terminal++
		}
		switch seg.Status {
		case SegmentFailed:
			failed++
		case SegmentCompleted:
			completed++
		}
	}
	if terminal < len(segments) {
		if terminal == 0 && allPending(segments) {
			return CollectionPending
		}
		return CollectionRunning
	}
	switch {
	case failed == 0:
		return CollectionCompleted
	case completed == 0 && failed == len(segments):
		return CollectionFailed
	default:
		return CollectionPartial
	}
}

func allPending(segments []*Segment) bool {
	for _, seg := range segments {
		if seg.Status != SegmentPending {
			return false
		}
	}
	return true
}

type CollectionPatch struct {
	Status *CollectionStatus
}

func NewCollectionPatch() *CollectionPatch {
	return &CollectionPatch{}
}

func (p *CollectionPatch) WithStatus(status CollectionStatus) *CollectionPatch {
	p.Status = &status
	return p
}

type SegmentPatch struct {
	Status      *SegmentStatus
	ExecutionID *uint64
	Attempts    *int
}

func NewSegmentPatch() *SegmentPatch {
	return &SegmentPatch{}
}

func (p *SegmentPatch) WithStatus(status SegmentStatus) *SegmentPatch {
	p.Status = &status
	return p
}

func (p *SegmentPatch) WithExecutionID(id uint64) *SegmentPatch {
	p.ExecutionID = &id
	return p
}

func (p *SegmentPatch) WithAttempts(n int) *SegmentPatch {
	p.Attempts = &n
	return p
}

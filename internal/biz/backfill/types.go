package backfill

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

type CollectionStatus string

const (
	CollectionPending   CollectionStatus = "pending"
	CollectionRunning   CollectionStatus = "running"
	CollectionCompleted CollectionStatus = "completed"
	CollectionPartial   CollectionStatus = "partial"
	CollectionFailed    CollectionStatus = "failed"
	CollectionCancelled CollectionStatus = "cancelled"
)

func (s CollectionStatus) Terminal() bool {
	switch s {
	case CollectionCompleted, CollectionPartial, CollectionFailed, CollectionCancelled:
		return true
	}
	return false
}

type SegmentStatus string

const (
	SegmentPending   SegmentStatus = "pending"
	SegmentRunning   SegmentStatus = "running"
	SegmentCompleted SegmentStatus = "completed"
	SegmentFailed    SegmentStatus = "failed"
	SegmentCancelled SegmentStatus = "cancelled"
)

func (s SegmentStatus) Terminal() bool {
	switch s {
	case SegmentCompleted, SegmentFailed, SegmentCancelled:
		return true
	}
	return false
}

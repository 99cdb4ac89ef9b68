package backfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func segs(statuses ...SegmentStatus) []*Segment {
	out := make([]*Segment, len(statuses))
	for i, s := range statuses {
		out[i] = &Segment{Position: i, Status: s}
	}
	return out
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name      string
		segments  []*Segment
		cancelled bool
		want      CollectionStatus
	}{
		{"empty", nil, false, CollectionPending},
		{"all pending", segs(SegmentPending, SegmentPending), false, CollectionPending},
		{"one running", segs(SegmentPending, SegmentRunning), false, CollectionRunning},
		{"some terminal", segs(SegmentCompleted, SegmentRunning), false, CollectionRunning},
		{"all completed", segs(SegmentCompleted, SegmentCompleted), false, CollectionCompleted},
		{"all failed", segs(SegmentFailed, SegmentFailed), false, CollectionFailed},
		{"mixed outcome", segs(SegmentCompleted, SegmentFailed, SegmentCompleted), false, CollectionPartial},
		{"cancelled segment is not a failure", segs(SegmentCompleted, SegmentCancelled), false, CollectionCompleted},
		{"cancel flag wins", segs(SegmentCompleted, SegmentRunning), true, CollectionCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateStatus(tc.segments, tc.cancelled))
		})
	}
}

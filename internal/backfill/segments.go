package backfill

import (
	"time"

	domain "github.com/reports/engine/internal/biz/backfill"
)

// DateRange is one half-open slice [Start, End) of a backfill period.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// GenerateRanges splits [endDate − lookbackDays, endDate] into
// contiguous, non-overlapping ranges at the requested granularity,
// oldest first. The final range is clamped to endDate.
func GenerateRanges(endDate time.Time, lookbackDays int, granularity domain.Granularity) []DateRange {
	start := endDate.AddDate(0, 0, -lookbackDays)

	var ranges []DateRange
	cursor := start
	for cursor.Before(endDate) {
		next := advance(cursor, granularity)
		if next.After(endDate) {
			next = endDate
		}
		ranges = append(ranges, DateRange{Start: cursor, End: next})
		cursor = next
	}
	return ranges
}

func advance(t time.Time, granularity domain.Granularity) time.Time {
	switch granularity {
	case domain.GranularityWeekly:
		return t.AddDate(0, 0, 7)
	case domain.GranularityMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

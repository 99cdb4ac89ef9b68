package schedule

import (
	"context"
	"time"

	"github.com/samber/mo"
)

type Repo interface {
	Create(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, id uint64) (*Schedule, error)
	GetByReportID(ctx context.Context, reportID uint64) (*Schedule, error)
	Update(ctx context.Context, id uint64, patch *SchedulePatch) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, filter *Filter) ([]*Schedule, error)

	// ListDue returns unpaused schedules whose next_run_at is at or
	// before now, the executor's per-tick work set.
	ListDue(ctx context.Context, now time.Time) ([]*Schedule, error)
}

type Filter struct {
	ReportID mo.Option[uint64]
	IsPaused mo.Option[bool]
}

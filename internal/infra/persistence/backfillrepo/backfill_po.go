package backfillrepo

import (
	"time"

	domain "github.com/reports/engine/internal/biz/backfill"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
)

type BackfillCollectionPo struct {
	commonrepo.Model
	ReportID     uint64                  `gorm:"column:report_id;not null;index"`
	Granularity  domain.Granularity      `gorm:"column:granularity;size:50;not null"`
	LookbackDays int                     `gorm:"column:lookback_days;not null"`
	EndDate      time.Time               `gorm:"column:end_date;not null"`
	SegmentCount int                     `gorm:"column:segment_count;not null"`
	Status       domain.CollectionStatus `gorm:"column:status;size:50;not null;index"`
}

func (BackfillCollectionPo) TableName() string {
	return "backfill_collections"
}

type SegmentPo struct {
	commonrepo.Model
	CollectionID uint64               `gorm:"column:collection_id;not null;index"`
	Position     int                  `gorm:"column:position;not null"`
	RangeStart   time.Time            `gorm:"column:range_start;not null"`
	RangeEnd     time.Time            `gorm:"column:range_end;not null"`
	Status       domain.SegmentStatus `gorm:"column:status;size:50;not null;index"`
	ExecutionID  *uint64              `gorm:"column:execution_id;index"`
	Attempts     int                  `gorm:"column:attempts;default:0"`
}

func (SegmentPo) TableName() string {
	return "backfill_segments"
}

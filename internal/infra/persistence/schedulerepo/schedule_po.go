package schedulerepo

import (
	"time"

	domain "github.com/reports/engine/internal/biz/schedule"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type SchedulePo struct {
	commonrepo.Model
	ReportID          uint64            `gorm:"column:report_id;not null;uniqueIndex"`
	CronExpression    string            `gorm:"column:cron_expression;size:100;not null"`
	Timezone          string            `gorm:"column:timezone;size:64;not null;default:'UTC'"`
	WindowMode        domain.WindowMode `gorm:"column:window_mode;size:50;not null;default:'rolling'"`
	LookbackDays      int               `gorm:"column:lookback_days;default:1"`
	AnchorAt          time.Time         `gorm:"column:anchor_at;not null"`
	DefaultParameters datatypes.JSONMap `gorm:"column:default_parameters;type:json"`

	IsPaused     bool       `gorm:"column:is_paused;not null;default:false;index:idx_due"`
	NextRunAt    *time.Time `gorm:"column:next_run_at;index:idx_due"`
	LastRunAt    *time.Time `gorm:"column:last_run_at"`
	RunCount     int        `gorm:"column:run_count;default:0"`
	FailureCount int        `gorm:"column:failure_count;default:0"`
}

func (SchedulePo) TableName() string {
	return "report_schedules"
}

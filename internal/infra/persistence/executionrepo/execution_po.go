package executionrepo

import (
	"time"

	domain "github.com/reports/engine/internal/biz/execution"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type ExecutionPo struct {
	commonrepo.Model
	ReportID       *uint64            `gorm:"column:report_id;index"`
	SegmentID      *uint64            `gorm:"column:segment_id;index"`
	TriggerKind    domain.TriggerKind `gorm:"column:trigger_kind;size:50;not null"`
	Status         domain.Status      `gorm:"column:status;size:50;not null;index"`
	TargetInstance string             `gorm:"column:target_instance;size:255;not null"`

	SQL               string            `gorm:"column:sql_text;type:text;not null"`
	ParameterSnapshot datatypes.JSONMap `gorm:"column:parameter_snapshot;type:json"`
	WindowStart       *time.Time        `gorm:"column:window_start"`
	WindowEnd         *time.Time        `gorm:"column:window_end"`

	JobID          string           `gorm:"column:job_id;size:255;index"`
	ResultLocation string           `gorm:"column:result_location;size:1024"`
	RowCount       int64            `gorm:"column:row_count;default:0"`
	ByteCount      int64            `gorm:"column:byte_count;default:0"`
	ErrorKind      domain.ErrorKind `gorm:"column:error_kind;size:50"`
	ErrorMessage   string           `gorm:"column:error_message;type:text"`

	StartTime *time.Time `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
}

func (ExecutionPo) TableName() string {
	return "report_executions"
}

package reportrepo

import (
	domain "github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type ReportDefinitionPo struct {
	commonrepo.Model
	Name           string            `gorm:"column:name;size:255;not null;index"`
	Owner          string            `gorm:"column:owner;size:255;not null;index"`
	TargetInstance string            `gorm:"column:target_instance;size:255;not null"`
	SQLTemplate    string            `gorm:"column:sql_template;type:text;not null"`
	Schema         datatypes.JSON    `gorm:"column:param_schema;type:json"`
	Parameters     datatypes.JSONMap `gorm:"column:parameters;type:json"`
	Frequency      domain.Frequency  `gorm:"column:frequency;size:50;not null;default:'once'"`
	IsActive       bool              `gorm:"column:is_active;not null;default:true;index"`
}

func (ReportDefinitionPo) TableName() string {
	return "report_definitions"
}

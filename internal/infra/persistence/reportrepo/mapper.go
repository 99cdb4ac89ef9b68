package reportrepo

import (
	"encoding/json"

	domain "github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
	"github.com/reports/engine/internal/template"
	"gorm.io/datatypes"
)

func (po *ReportDefinitionPo) ToDomain() *domain.ReportDefinition {
	var schema template.Schema
	if len(po.Schema) > 0 {
		// a schema written by FromDomain always round-trips
		_ = json.Unmarshal(po.Schema, &schema)
	}
	return &domain.ReportDefinition{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		Name:           po.Name,
		Owner:          po.Owner,
		TargetInstance: po.TargetInstance,
		SQLTemplate:    po.SQLTemplate,
		Schema:         schema,
		Parameters:     po.Parameters,
		Frequency:      po.Frequency,
		IsActive:       po.IsActive,
	}
}

func (po *ReportDefinitionPo) FromDomain(report *domain.ReportDefinition) *ReportDefinitionPo {
	raw, _ := json.Marshal(report.Schema)
	return &ReportDefinitionPo{
		Model: commonrepo.Model{
			ID:        report.ID,
			CreatedAt: report.CreatedAt,
			UpdatedAt: report.UpdatedAt,
		},
		Name:           report.Name,
		Owner:          report.Owner,
		TargetInstance: report.TargetInstance,
		SQLTemplate:    report.SQLTemplate,
		Schema:         datatypes.JSON(raw),
		Parameters:     report.Parameters,
		Frequency:      report.Frequency,
		IsActive:       report.IsActive,
	}
}

func patchToMap(input *domain.ReportDefinitionPatch) map[string]any {
	var values = make(map[string]any)
	if input.Name != nil {
		values["name"] = input.Name
	}
	if input.Parameters != nil {
		values["parameters"] = input.Parameters
	}
	if input.Frequency != nil {
		values["frequency"] = input.Frequency
	}
	if input.IsActive != nil {
		values["is_active"] = input.IsActive
	}
	return values
}

package report

import (
	"errors"
	"time"

	"github.com/reports/engine/internal/template"
)

// ReportDefinition is an authored, parameterized SQL report. The
// template and schema are immutable once saved; name and saved
// parameters may be edited. Definitions referenced by executions are
// deactivated, never deleted.
type ReportDefinition struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	Name           string
	Owner          string
	TargetInstance string
	SQLTemplate    string
	Schema         template.Schema
	Parameters     map[string]any
	Frequency      Frequency
	IsActive       bool
}

func (r *ReportDefinition) Deactivate() (*ReportDefinitionPatch, error) {
	if !r.IsActive {
		return nil, errors.New("report is already inactive")
	}
	r.IsActive = false
	return new(ReportDefinitionPatch).WithIsActive(false), nil
}

type ReportDefinitionPatch struct {
	Name       *string
	Parameters *map[string]any
	Frequency  *Frequency
	IsActive   *bool
}

func NewReportDefinitionPatch() *ReportDefinitionPatch {
	return &ReportDefinitionPatch{}
}

func (p *ReportDefinitionPatch) WithName(name string) *ReportDefinitionPatch {
	p.Name = &name
	return p
}

func (p *ReportDefinitionPatch) WithParameters(parameters map[string]any) *ReportDefinitionPatch {
	p.Parameters = &parameters
	return p
}

func (p *ReportDefinitionPatch) WithFrequency(frequency Frequency) *ReportDefinitionPatch {
	p.Frequency = &frequency
	return p
}

func (p *ReportDefinitionPatch) WithIsActive(isActive bool) *ReportDefinitionPatch {
	p.IsActive = &isActive
	return p
}

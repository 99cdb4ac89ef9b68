package report

import (
	"context"

	"github.com/samber/mo"
)

type Repo interface {
	Create(ctx context.Context, report *ReportDefinition) error
	GetByID(ctx context.Context, id uint64) (*ReportDefinition, error)
	Update(ctx context.Context, id uint64, patch *ReportDefinitionPatch) error
	List(ctx context.Context, filter *Filter) ([]*ReportDefinition, error)
}

type Filter struct {
	Owner    mo.Option[string]
	IsActive mo.Option[bool]
}

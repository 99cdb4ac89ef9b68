package reportrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/reports/engine/internal/biz/report"
	"github.com/reports/engine/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, report *domain.ReportDefinition) error {
	po := new(ReportDefinitionPo).FromDomain(report)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	report.ID = po.ID
	report.CreatedAt = po.CreatedAt
	report.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.ReportDefinition, error) {
	var po ReportDefinitionPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.ReportDefinitionPatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&ReportDefinitionPo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.ReportDefinition, error) {
	var pos []ReportDefinitionPo
	query := r.Db(ctx).Model(&ReportDefinitionPo{})
	if filter != nil {
		if filter.Owner.IsPresent() {
			query = query.Where("owner = ?", filter.Owner.MustGet())
		}
		if filter.IsActive.IsPresent() {
			query = query.Where("is_active = ?", filter.IsActive.MustGet())
		}
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ReportDefinitionPo, _ int) *domain.ReportDefinition {
		return po.ToDomain()
	}), nil
}

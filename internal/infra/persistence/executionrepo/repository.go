package executionrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/reports/engine/internal/biz/execution"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, execution *domain.Execution) error {
	po := new(ExecutionPo).FromDomain(execution)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	execution.ID = po.ID
	execution.CreatedAt = po.CreatedAt
	execution.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Execution, error) {
	var po ExecutionPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Save(ctx context.Context, execution *domain.Execution) error {
	po := new(ExecutionPo).FromDomain(execution)
	if err := r.Db(ctx).Save(po).Error; err != nil {
		return err
	}
	execution.ID = po.ID
	execution.CreatedAt = po.CreatedAt
	execution.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) ListActive(ctx context.Context) ([]*domain.Execution, error) {
	var pos []ExecutionPo
	err := r.Db(ctx).
		Where("status IN ?", []domain.Status{domain.StatusPending, domain.StatusRunning}).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ExecutionPo, _ int) *domain.Execution {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.Execution, int64, error) {
	query := r.Db(ctx).Model(&ExecutionPo{})

	if filter.ReportID.IsPresent() {
		query = query.Where("report_id = ?", filter.ReportID.MustGet())
	}
	if filter.SegmentID.IsPresent() {
		query = query.Where("segment_id = ?", filter.SegmentID.MustGet())
	}
	if filter.Status.IsPresent() {
		query = query.Where("status = ?", filter.Status.MustGet())
	}
	if filter.TriggerKind.IsPresent() {
		query = query.Where("trigger_kind = ?", filter.TriggerKind.MustGet())
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var pos []ExecutionPo
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	return lo.Map(pos, func(po ExecutionPo, _ int) *domain.Execution {
		return po.ToDomain()
	}), count, nil
}

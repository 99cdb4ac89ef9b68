package schedulerepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	domain "github.com/reports/engine/internal/biz/schedule"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, schedule *domain.Schedule) error {
	po := new(SchedulePo).FromDomain(schedule)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	schedule.ID = po.ID
	schedule.CreatedAt = po.CreatedAt
	schedule.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Schedule, error) {
	var po SchedulePo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) GetByReportID(ctx context.Context, reportID uint64) (*domain.Schedule, error) {
	var po SchedulePo
	if err := r.Db(ctx).Where("report_id = ?", reportID).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.SchedulePatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&SchedulePo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Delete(&SchedulePo{}, id).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.Schedule, error) {
	var pos []SchedulePo
	query := r.Db(ctx).Model(&SchedulePo{})
	if filter != nil {
		if filter.ReportID.IsPresent() {
			query = query.Where("report_id = ?", filter.ReportID.MustGet())
		}
		if filter.IsPaused.IsPresent() {
			query = query.Where("is_paused = ?", filter.IsPaused.MustGet())
		}
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SchedulePo, _ int) *domain.Schedule {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) ListDue(ctx context.Context, now time.Time) ([]*domain.Schedule, error) {
	var pos []SchedulePo
	err := r.Db(ctx).
		Where("is_paused = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", false, now).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SchedulePo, _ int) *domain.Schedule {
		return po.ToDomain()
	}), nil
}

package backfillrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/reports/engine/internal/biz/backfill"
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

func (r *MysqlRepositoryImpl) CreateCollection(ctx context.Context, collection *domain.BackfillCollection) error {
	po := new(BackfillCollectionPo).FromDomain(collection)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	collection.ID = po.ID
	collection.CreatedAt = po.CreatedAt
	collection.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetCollection(ctx context.Context, id uint64) (*domain.BackfillCollection, error) {
	var po BackfillCollectionPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) UpdateCollection(ctx context.Context, id uint64, patch *domain.CollectionPatch) error {
	values := collectionPatchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&BackfillCollectionPo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) ListCollections(ctx context.Context, filter *domain.Filter) ([]*domain.BackfillCollection, error) {
	var pos []BackfillCollectionPo
	query := r.Db(ctx).Model(&BackfillCollectionPo{})
	if filter != nil {
		if filter.ReportID.IsPresent() {
			query = query.Where("report_id = ?", filter.ReportID.MustGet())
		}
		if filter.Status.IsPresent() {
			query = query.Where("status = ?", filter.Status.MustGet())
		}
	}
	if err := query.Order("created_at DESC").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po BackfillCollectionPo, _ int) *domain.BackfillCollection {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) CreateSegments(ctx context.Context, segments []*domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	pos := lo.Map(segments, func(seg *domain.Segment, _ int) *SegmentPo {
		return new(SegmentPo).FromDomain(seg)
	})
	if err := r.Db(ctx).Create(pos).Error; err != nil {
		return err
	}
	for i, po := range pos {
		segments[i].ID = po.ID
		segments[i].CreatedAt = po.CreatedAt
		segments[i].UpdatedAt = po.UpdatedAt
	}
	return nil
}

func (r *MysqlRepositoryImpl) GetSegment(ctx context.Context, id uint64) (*domain.Segment, error) {
	var po SegmentPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) UpdateSegment(ctx context.Context, id uint64, patch *domain.SegmentPatch) error {
	values := segmentPatchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&SegmentPo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) ListSegments(ctx context.Context, collectionID uint64) ([]*domain.Segment, error) {
	var pos []SegmentPo
	err := r.Db(ctx).
		Where("collection_id = ?", collectionID).
		Order("position ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SegmentPo, _ int) *domain.Segment {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) GetSegmentByExecutionID(ctx context.Context, executionID uint64) (*domain.Segment, error) {
	var po SegmentPo
	if err := r.Db(ctx).Where("execution_id = ?", executionID).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

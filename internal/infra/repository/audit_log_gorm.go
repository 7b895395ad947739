package repository

import (
	"context"

	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"

	"gorm.io/gorm"
)

type activityLogGormRepository struct {
	db *gorm.DB
}

func NewActivityLogGormRepository(db *gorm.DB) repo.ActivityLogRepository {
	return &activityLogGormRepository{db: db}
}

func (r *activityLogGormRepository) Create(ctx context.Context, log model.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return err
	}
	return nil
}

func (r *activityLogGormRepository) List(ctx context.Context, filter repo.ActivityLogFilter) ([]model.ActivityLog, error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityLog{})

	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		q = q.Where("action = ?", *filter.Action)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}

	//新しい順
	p := filter.Page.Normalize(50, 200)
	q = q.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset)

	var logs []model.ActivityLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

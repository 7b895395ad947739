package repository

import (
	"context"

	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"

	"gorm.io/gorm"
)

type deviceSessionGormRepository struct {
	db *gorm.DB
}

func NewDeviceSessionGormRepository(db *gorm.DB) repo.DeviceSessionRepository {
	return &deviceSessionGormRepository{db: db}
}

func (r *deviceSessionGormRepository) Create(ctx context.Context, s *model.DeviceSession) error {
	return mapError(r.db.WithContext(ctx).Create(s).Error)
}

// user_idも条件に入れる（他人のセッションは「存在しない」扱い）
func (r *deviceSessionGormRepository) FindByIDForUser(ctx context.Context, sessionID, userID string) (*model.DeviceSession, error) {
	var s model.DeviceSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *deviceSessionGormRepository) ListActiveByUser(ctx context.Context, userID string) ([]model.DeviceSession, error) {
	var sessions []model.DeviceSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("last_activity DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *deviceSessionGormRepository) Deactivate(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.DeviceSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false).Error
}

func (r *deviceSessionGormRepository) DeactivateAllByUser(ctx context.Context, userID string, exceptID string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.DeviceSession{}).
		Where("user_id = ? AND is_active = ?", userID, true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	res := q.Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

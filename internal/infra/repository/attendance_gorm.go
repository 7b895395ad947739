package repository

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"

	"gorm.io/gorm"
)

type attendanceGormRepository struct {
	db *gorm.DB
}

func NewAttendanceGormRepository(db *gorm.DB) repo.AttendanceRepository {
	return &attendanceGormRepository{db: db}
}

func (r *attendanceGormRepository) CreateSession(ctx context.Context, s *model.AttendanceSession) error {
	return mapError(r.db.WithContext(ctx).Omit("Creator").Create(s).Error)
}

func (r *attendanceGormRepository) FindSession(ctx context.Context, id string) (*model.AttendanceSession, error) {
	var s model.AttendanceSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *attendanceGormRepository) FindOwnedSession(ctx context.Context, id, creatorID string) (*model.AttendanceSession, error) {
	var s model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		First(&s).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *attendanceGormRepository) ListSessionsByCreator(ctx context.Context, creatorID string) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *attendanceGormRepository) CloseSession(ctx context.Context, id, creatorID string) error {
	return r.updateOwned(ctx, id, creatorID, map[string]any{"is_active": false})
}

func (r *attendanceGormRepository) RotateToken(ctx context.Context, id, creatorID, token string, validUntil time.Time) error {
	return r.updateOwned(ctx, id, creatorID, map[string]any{
		"qr_token":    token,
		"valid_until": validUntil,
		"is_active":   true,
	})
}

func (r *attendanceGormRepository) CreateRecord(ctx context.Context, rec *model.AttendanceRecord) error {
	return mapError(r.db.WithContext(ctx).Omit("Session", "User").Create(rec).Error)
}

func (r *attendanceGormRepository) ListRecordsBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("attendance_records.session_id = ?", sessionID).
		Order("attendance_records.check_in_time ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *attendanceGormRepository) ListRecordsByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Joins("Session").
		Where("attendance_records.user_id = ?", userID).
		Order("attendance_records.check_in_time DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// 作成者以外の更新は0件 → ErrNotFound
func (r *attendanceGormRepository) updateOwned(ctx context.Context, id, creatorID string, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.AttendanceSession{}).
		Where("id = ? AND creator_id = ?", id, creatorID).
		Updates(cols)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

package repository

import (
	"context"

	"sekolah/internal/domain/model"
)

type DeviceSessionRepository interface {
	Create(ctx context.Context, s *model.DeviceSession) error
	// 本人のセッションだけ。他人のものはErrNotFound。
	FindByIDForUser(ctx context.Context, sessionID, userID string) (*model.DeviceSession, error)
	// is_active=trueのみ、last_activityの新しい順
	ListActiveByUser(ctx context.Context, userID string) ([]model.DeviceSession, error)

	Deactivate(ctx context.Context, sessionID string) error
	// exceptIDが空でなければそれ以外を無効化
	DeactivateAllByUser(ctx context.Context, userID string, exceptID string) (int64, error)
}
